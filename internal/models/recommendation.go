package models

import (
	"fmt"
	"time"
)

// SessionWindow is how long a recommendation session stays reusable after
// its last activity. Sessions older than this are abandoned, never reused.
const SessionWindow = 24 * time.Hour

// BatchSize is the fixed number of dishes produced per recommendation cycle.
const BatchSize = 3

// UnknownValue is the sentinel stored for dish metadata that was not resolved.
const UnknownValue = "unknown"

// Session groups a sequence of recommendation batches for one user inside a
// time-bounded continuity window.
type Session struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	CreatedAt    time.Time `json:"created_at"`
	LastActivity time.Time `json:"last_activity"`
}

// SessionID derives the deterministic session identifier for a user at a
// point in time.
func SessionID(userID string, at time.Time) string {
	return fmt.Sprintf("session_%s_%d", userID, at.UnixMilli())
}

// RecommendedDish is one dish of a recommendation batch.
type RecommendedDish struct {
	ID             int64     `json:"id,omitempty"`
	SessionID      string    `json:"session_id"`
	DishName       string    `json:"dish_name"`
	Genre          string    `json:"genre"`
	MainIngredient string    `json:"main_ingredient"`
	CookingMethod  string    `json:"cooking_method"`
	Order          int       `json:"recommendation_order"`
	UserFeedback   string    `json:"user_feedback,omitempty"`
	RecommendedAt  time.Time `json:"recommended_at"`
	Selected       bool      `json:"selected"`
}

// RequestType is the classified category of a recommendation request.
type RequestType string

const (
	RequestDiverse   RequestType = "diverse"
	RequestLight     RequestType = "light"
	RequestHearty    RequestType = "hearty"
	RequestDifferent RequestType = "different"
	RequestGeneral   RequestType = "general"
)

// Valid reports whether t is one of the known request types.
func (t RequestType) Valid() bool {
	switch t {
	case RequestDiverse, RequestLight, RequestHearty, RequestDifferent, RequestGeneral:
		return true
	}
	return false
}

// UserRequest is the classified intent of one inbound message. It is
// recomputed per message and never persisted.
type UserRequest struct {
	Type            RequestType `json:"type"`
	OriginalMessage string      `json:"original_message"`
	Timestamp       time.Time   `json:"timestamp"`
}

// AvoidanceStrategy is the derived exclusion criteria computed from the most
// recent recommendation batch. It is a transient view, never stored.
type AvoidanceStrategy struct {
	AvoidIngredients    []string `json:"avoid_ingredients"`
	AvoidGenres         []string `json:"avoid_genres"`
	AvoidCookingMethods []string `json:"avoid_cooking_methods"`
	Reason              string   `json:"reason"`
}

// Empty reports whether the strategy excludes nothing.
func (a *AvoidanceStrategy) Empty() bool {
	return len(a.AvoidIngredients) == 0 && len(a.AvoidGenres) == 0 && len(a.AvoidCookingMethods) == 0
}

// Weather is the environmental context attached to a recommendation cycle.
type Weather struct {
	Temp           float64 `json:"temp"`
	FeelsLike      float64 `json:"feels_like"`
	Humidity       int     `json:"humidity"`
	WindSpeed      float64 `json:"wind_speed"`
	Description    string  `json:"description"`
	Season         string  `json:"season"`
	CookingContext string  `json:"cooking_context"`
}

// RecommendationContext bundles everything the orchestrator feeds into prompt
// construction for one cycle.
type RecommendationContext struct {
	User                    *User
	RecentMeals             []*Meal
	PreferredDishes         []string
	PreviousRecommendations []*RecommendedDish
	Request                 *UserRequest
	Avoidance               *AvoidanceStrategy
	Weather                 *Weather
}
