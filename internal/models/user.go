package models

import "time"

// User is a chat user identified by the messaging platform's opaque user ID.
type User struct {
	ID        string    `json:"id"`
	Invited   bool      `json:"invited"`
	Allergies string    `json:"allergies,omitempty"`
	Dislikes  string    `json:"dislikes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
