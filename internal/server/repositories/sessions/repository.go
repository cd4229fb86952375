// Package sessions declares the repository contract for session tokens.
package sessions

import (
	"context"

	"github.com/dmitrijs2005/roleplay/internal/server/models"
)

// Repository defines operations for issuing, resolving and revoking session tokens.
type Repository interface {
	// Create stores a new session token for userID.
	Create(ctx context.Context, userID string, token string) (*models.SessionToken, error)

	// FindUser returns the owner of token, or a not-found error when no row matches.
	FindUser(ctx context.Context, token string) (*models.User, error)

	// Delete removes a token. Deleting a non-existent token is not an error.
	Delete(ctx context.Context, token string) error
}
