// Package resettokens declares the repository contract for password reset tokens.
package resettokens

import (
	"context"
	"time"

	"github.com/dmitrijs2005/roleplay/internal/server/models"
)

type Repository interface {
	// Create stores a reset token for userID stamped with createdAt.
	Create(ctx context.Context, userID string, token string, createdAt time.Time) (*models.PasswordResetToken, error)

	// Find returns the row for token or a not-found error.
	Find(ctx context.Context, token string) (*models.PasswordResetToken, error)

	// Delete removes token and reports whether a row was actually deleted.
	Delete(ctx context.Context, token string) (bool, error)
}
