// Package grouprequests declares the repository contract for join requests.
package grouprequests

import (
	"context"

	"github.com/dmitrijs2005/roleplay/internal/server/models"
)

type Repository interface {
	// Create inserts a PENDING request. A second request for the same
	// (user, group) pair fails with a conflict.
	Create(ctx context.Context, userID string, groupID string) (*models.GroupRequest, error)
	// Exists reports whether any request exists for the pair, whatever its status.
	Exists(ctx context.Context, userID string, groupID string) (bool, error)
	// ListByGroup returns the requests of groupID, oldest first. An empty
	// status matches every status.
	ListByGroup(ctx context.Context, groupID string, status models.RequestStatus) ([]models.GroupRequest, error)
}
