// Package model defines domain entities for the application.
package model

import "time"

// User is the account that owns a profile and its API keys.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}
