package models

import "time"

// Meal is a single logged meal. Rows are immutable once created.
type Meal struct {
	ID      int64     `json:"id"`
	UserID  string    `json:"user_id"`
	AteDate time.Time `json:"ate_date"`
	Dish    string    `json:"dish"`
	// Tags is a genre-like free-text list, stored serialized as JSON.
	Tags   []string `json:"tags,omitempty"`
	Rating int      `json:"rating" validate:"min=1,max=5"`
	Mood   string   `json:"mood,omitempty"`
	// Decided distinguishes meals logged after eating from dishes the user
	// picked from a recommendation but has not eaten yet.
	Decided bool `json:"decided"`
}

// MealInput is the parsed form of a free-text meal report.
type MealInput struct {
	Dishes []string `json:"dishes" validate:"required,min=1,dive,required"`
	Rating int      `json:"rating" validate:"min=1,max=5"`
	Mood   string   `json:"mood"`
	Tags   []string `json:"tags"`
}
