package services

import (
	"context"
	"database/sql"
	"errors"
	"sync"

	"github.com/dmitrijs2005/roleplay/internal/common"
	"github.com/dmitrijs2005/roleplay/internal/logging"
	"github.com/dmitrijs2005/roleplay/internal/server/models"
	"github.com/dmitrijs2005/roleplay/internal/server/repositories/repomanager"
)

// SessionService issues, resolves and revokes opaque bearer tokens.
// Tokens carry no data and do not expire; a token is valid while its row exists.
type SessionService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	hasher      PasswordHasher
	logger      logging.Logger

	dummyOnce   sync.Once
	dummyDigest string
}

func NewSessionService(db *sql.DB, m repomanager.RepositoryManager, hasher PasswordHasher, logger logging.Logger) *SessionService {
	return &SessionService{
		db:          db,
		repomanager: m,
		hasher:      hasher,
		logger:      logger.With("module", "sessions"),
	}
}

// Create logs a user in. Unknown email and wrong password fail with the same
// ErrorInvalidCredentials.
func (s *SessionService) Create(ctx context.Context, email, password string) (*models.User, string, error) {
	if email == "" || password == "" {
		return nil, "", common.ErrorInvalidCredentials
	}

	user, err := s.repomanager.Users(s.db).GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			// keep the response time close to a real comparison
			if d := s.dummy(); d != "" {
				s.hasher.Verify(d, password)
			}
			s.logger.Debug(ctx, "login for unknown email")
			return nil, "", common.ErrorInvalidCredentials
		}
		return nil, "", passThrough(ctx, s.logger, "lookup user", err)
	}

	if !s.hasher.Verify(user.PasswordHash, password) {
		s.logger.Debug(ctx, "login with wrong password", "user_id", user.ID)
		return nil, "", common.ErrorInvalidCredentials
	}

	token, err := common.NewToken()
	if err != nil {
		return nil, "", passThrough(ctx, s.logger, "generate token", err)
	}
	if _, err := s.repomanager.Sessions(s.db).Create(ctx, user.ID, token); err != nil {
		return nil, "", passThrough(ctx, s.logger, "store session", err)
	}

	s.logger.Info(ctx, "session created", "user_id", user.ID)
	return sanitize(user), token, nil
}

// Resolve returns the user owning token or ErrorUnauthorized.
func (s *SessionService) Resolve(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, common.ErrorUnauthorized
	}
	user, err := s.repomanager.Sessions(s.db).FindUser(ctx, token)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, passThrough(ctx, s.logger, "resolve session", err)
	}
	return sanitize(user), nil
}

// Revoke deletes token. Revoking an unknown token succeeds.
func (s *SessionService) Revoke(ctx context.Context, token string) error {
	if err := s.repomanager.Sessions(s.db).Delete(ctx, token); err != nil {
		return passThrough(ctx, s.logger, "revoke session", err)
	}
	return nil
}

func (s *SessionService) dummy() string {
	s.dummyOnce.Do(func() {
		d, err := s.hasher.Hash("roleplay-dummy-password")
		if err == nil {
			s.dummyDigest = d
		}
	})
	return s.dummyDigest
}
