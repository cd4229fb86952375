// Package groups declares the repository contract for groups and their rosters.
package groups

import (
	"context"

	"github.com/dmitrijs2005/roleplay/internal/server/models"
)

// Repository stores groups and the group→player roster.
type Repository interface {
	// Create inserts the group row and fills ID and CreatedAt.
	Create(ctx context.Context, group *models.Group) (*models.Group, error)
	// GetByID returns the group without players.
	GetByID(ctx context.Context, id string) (*models.Group, error)
	AddPlayer(ctx context.Context, groupID string, userID string) error
	ListPlayers(ctx context.Context, groupID string) ([]models.User, error)
	IsPlayer(ctx context.Context, groupID string, userID string) (bool, error)
}
