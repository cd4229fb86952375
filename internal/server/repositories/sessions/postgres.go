package sessions

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/roleplay/internal/dbx"
	"github.com/dmitrijs2005/roleplay/internal/server/models"
)

// PostgresRepository stores session tokens over dbx.DBTX.
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, userID string, token string) (*models.SessionToken, error) {
	query := `
		INSERT INTO session_tokens (user_id, token)
		VALUES ($1, $2)
		RETURNING id, created_at
	`
	st := &models.SessionToken{UserID: userID, Token: token}
	if err := r.db.QueryRowContext(ctx, query, userID, token).Scan(&st.ID, &st.CreatedAt); err != nil {
		return nil, dbx.MapError(err)
	}
	return st, nil
}

func (r *PostgresRepository) FindUser(ctx context.Context, token string) (*models.User, error) {
	query := `
		SELECT u.id, u.username, u.email, u.password_hash, u.avatar, u.created_at, u.updated_at
		FROM session_tokens s
		JOIN users u ON u.id = s.user_id
		WHERE s.token = $1
	`
	user := &models.User{}
	var avatar sql.NullString
	err := r.db.QueryRowContext(ctx, query, token).Scan(
		&user.ID, &user.Username, &user.Email, &user.PasswordHash, &avatar, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return nil, dbx.MapError(err)
	}
	user.Avatar = avatar.String
	return user, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, token string) error {
	query := `
		DELETE FROM session_tokens
		WHERE token = $1
	`
	if _, err := r.db.ExecContext(ctx, query, token); err != nil {
		return dbx.MapError(err)
	}
	return nil
}
