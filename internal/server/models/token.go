package models

import "time"

// SessionToken is an opaque bearer credential issued at login.
type SessionToken struct {
	ID        string
	UserID    string
	Token     string
	CreatedAt time.Time
}

// PasswordResetToken is a single-use credential for resetting a password.
type PasswordResetToken struct {
	ID        string
	UserID    string
	Token     string
	CreatedAt time.Time
}

// Expired reports whether the token is older than validity at now.
// A token exactly validity old is still usable.
func (t *PasswordResetToken) Expired(now time.Time, validity time.Duration) bool {
	return now.Sub(t.CreatedAt) > validity
}
