package grouprequests

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/roleplay/internal/dbx"
	"github.com/dmitrijs2005/roleplay/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, userID string, groupID string) (*models.GroupRequest, error) {
	query := `
		INSERT INTO group_requests (user_id, group_id, status)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`
	gr := &models.GroupRequest{UserID: userID, GroupID: groupID, Status: models.RequestPending}
	err := r.db.QueryRowContext(ctx, query, userID, groupID, string(models.RequestPending)).Scan(&gr.ID, &gr.CreatedAt)
	if err != nil {
		return nil, dbx.MapError(err)
	}
	return gr, nil
}

func (r *PostgresRepository) Exists(ctx context.Context, userID string, groupID string) (bool, error) {
	query := `
		SELECT EXISTS (SELECT 1 FROM group_requests WHERE user_id = $1 AND group_id = $2)
	`
	var ok bool
	if err := r.db.QueryRowContext(ctx, query, userID, groupID).Scan(&ok); err != nil {
		return false, dbx.MapError(err)
	}
	return ok, nil
}

func (r *PostgresRepository) ListByGroup(ctx context.Context, groupID string, status models.RequestStatus) ([]models.GroupRequest, error) {
	query := `
		SELECT id, user_id, group_id, status, created_at
		FROM group_requests
		WHERE group_id = $1 AND ($2 = '' OR status = $2)
		ORDER BY created_at
	`
	rows, err := r.db.QueryContext(ctx, query, groupID, string(status))
	if err != nil {
		return nil, fmt.Errorf("failed to select group requests: %w", err)
	}
	defer rows.Close()

	result := []models.GroupRequest{}
	for rows.Next() {
		var item models.GroupRequest
		var st string
		if err := rows.Scan(&item.ID, &item.UserID, &item.GroupID, &st, &item.CreatedAt); err != nil {
			return nil, err
		}
		item.Status = models.RequestStatus(st)
		result = append(result, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
