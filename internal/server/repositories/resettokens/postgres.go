package resettokens

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/roleplay/internal/dbx"
	"github.com/dmitrijs2005/roleplay/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, userID string, token string, createdAt time.Time) (*models.PasswordResetToken, error) {
	query := `
		INSERT INTO password_reset_tokens (user_id, token, created_at)
		VALUES ($1, $2, $3)
		RETURNING id
	`
	t := &models.PasswordResetToken{UserID: userID, Token: token, CreatedAt: createdAt}
	if err := r.db.QueryRowContext(ctx, query, userID, token, createdAt).Scan(&t.ID); err != nil {
		return nil, dbx.MapError(err)
	}
	return t, nil
}

func (r *PostgresRepository) Find(ctx context.Context, token string) (*models.PasswordResetToken, error) {
	query := `
		SELECT id, user_id, token, created_at
		FROM password_reset_tokens
		WHERE token = $1
	`
	t := &models.PasswordResetToken{}
	if err := r.db.QueryRowContext(ctx, query, token).Scan(&t.ID, &t.UserID, &t.Token, &t.CreatedAt); err != nil {
		return nil, dbx.MapError(err)
	}
	return t, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, token string) (bool, error) {
	query := `
		DELETE FROM password_reset_tokens
		WHERE token = $1
	`
	res, err := r.db.ExecContext(ctx, query, token)
	if err != nil {
		return false, dbx.MapError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return n > 0, nil
}
