// Package models defines server-side data models persisted in the database.
package models

import "time"

// User is a registered account. PasswordHash never leaves the server: it is
// excluded from JSON.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Avatar       string    `json:"avatar,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}
