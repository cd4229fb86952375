package groups

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/roleplay/internal/dbx"
	"github.com/dmitrijs2005/roleplay/internal/server/models"
)

// PostgresRepository implements group storage over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, group *models.Group) (*models.Group, error) {
	query := `
		INSERT INTO groups (name, description, schedule, location, chronic, master_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`
	err := r.db.QueryRowContext(ctx, query,
		group.Name, group.Description, group.Schedule, group.Location, group.Chronic, group.MasterID).
		Scan(&group.ID, &group.CreatedAt)
	if err != nil {
		return nil, dbx.MapError(err)
	}
	return group, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Group, error) {
	query := `
		SELECT id, name, description, schedule, location, chronic, master_id, created_at
		FROM groups
		WHERE id = $1
	`
	g := &models.Group{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&g.ID, &g.Name, &g.Description, &g.Schedule, &g.Location, &g.Chronic, &g.MasterID, &g.CreatedAt)
	if err != nil {
		return nil, dbx.MapError(err)
	}
	return g, nil
}

// AddPlayer enrolls userID in groupID. Enrolling an existing player is a conflict.
func (r *PostgresRepository) AddPlayer(ctx context.Context, groupID string, userID string) error {
	query := `
		INSERT INTO group_players (group_id, user_id)
		VALUES ($1, $2)
	`
	if _, err := r.db.ExecContext(ctx, query, groupID, userID); err != nil {
		return dbx.MapError(err)
	}
	return nil
}

// ListPlayers returns the roster of groupID ordered by username.
func (r *PostgresRepository) ListPlayers(ctx context.Context, groupID string) ([]models.User, error) {
	query := `
		SELECT u.id, u.username, u.email, u.avatar, u.created_at, u.updated_at
		FROM group_players p
		JOIN users u ON u.id = p.user_id
		WHERE p.group_id = $1
		ORDER BY u.username
	`
	rows, err := r.db.QueryContext(ctx, query, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to select players: %w", err)
	}
	defer rows.Close()

	result := []models.User{}
	for rows.Next() {
		var u models.User
		var avatar sql.NullString
		if err := rows.Scan(&u.ID, &u.Username, &u.Email, &avatar, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, err
		}
		u.Avatar = avatar.String
		result = append(result, u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PostgresRepository) IsPlayer(ctx context.Context, groupID string, userID string) (bool, error) {
	query := `
		SELECT EXISTS (SELECT 1 FROM group_players WHERE group_id = $1 AND user_id = $2)
	`
	var ok bool
	if err := r.db.QueryRowContext(ctx, query, groupID, userID).Scan(&ok); err != nil {
		return false, dbx.MapError(err)
	}
	return ok, nil
}
