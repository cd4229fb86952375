package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/roleplay/internal/common"
	"github.com/dmitrijs2005/roleplay/internal/logging"
	"github.com/dmitrijs2005/roleplay/internal/server/models"
	"github.com/dmitrijs2005/roleplay/internal/server/repositories/repomanager"
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
)

// RegisterInput is the payload of a registration.
type RegisterInput struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Avatar   string `json:"avatar"`
}

func (in RegisterInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Username, validation.Required, validation.Length(1, 255)),
		validation.Field(&in.Email, validation.Required, is.Email),
		validation.Field(&in.Password, validation.Required, validation.Length(minPasswordLength, maxPasswordLength)),
		validation.Field(&in.Avatar, is.URL),
	)
}

// UpdateInput is the payload of a profile update. An empty Password keeps
// the current one; an empty Avatar keeps the current avatar.
type UpdateInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Avatar   string `json:"avatar"`
}

func (in UpdateInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Email, validation.Required, is.Email),
		validation.Field(&in.Password, validation.Length(minPasswordLength, maxPasswordLength)),
		validation.Field(&in.Avatar, is.URL),
	)
}

// UserService is the user registry: registration, profile updates and lookups.
type UserService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	hasher      PasswordHasher
	logger      logging.Logger
}

func NewUserService(db *sql.DB, m repomanager.RepositoryManager, hasher PasswordHasher, logger logging.Logger) *UserService {
	return &UserService{
		db:          db,
		repomanager: m,
		hasher:      hasher,
		logger:      logger.With("module", "users"),
	}
}

// Register creates a user. Email uniqueness is checked before username
// uniqueness; either collision fails with ErrorConflict naming the field.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	if err := in.Validate(); err != nil {
		return nil, validationError(err)
	}

	repo := s.repomanager.Users(s.db)

	if err := s.ensureFree(ctx, repo.GetByEmail, in.Email, "email", ""); err != nil {
		return nil, err
	}
	if err := s.ensureFree(ctx, repo.GetByUsername, in.Username, "username", ""); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, passThrough(ctx, s.logger, "hash password", err)
	}

	user, err := repo.Create(ctx, &models.User{
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: hash,
		Avatar:       in.Avatar,
	})
	if err != nil {
		if errors.Is(err, common.ErrorConflict) {
			return nil, conflictField(err)
		}
		return nil, passThrough(ctx, s.logger, "create user", err)
	}

	s.logger.Info(ctx, "user registered", "user_id", user.ID)
	return sanitize(user), nil
}

// Update changes email, password and avatar of userID on behalf of actorID.
// Only the user may update itself.
func (s *UserService) Update(ctx context.Context, actorID, userID string, in UpdateInput) (*models.User, error) {
	if err := in.Validate(); err != nil {
		return nil, validationError(err)
	}

	repo := s.repomanager.Users(s.db)

	user, err := s.get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if actorID != user.ID {
		return nil, fmt.Errorf("%w: cannot update another user", common.ErrorForbidden)
	}

	if in.Email != user.Email {
		if err := s.ensureFree(ctx, repo.GetByEmail, in.Email, "email", user.ID); err != nil {
			return nil, err
		}
		user.Email = in.Email
	}
	if in.Password != "" {
		hash, err := s.hasher.Hash(in.Password)
		if err != nil {
			return nil, passThrough(ctx, s.logger, "hash password", err)
		}
		user.PasswordHash = hash
	}
	if in.Avatar != "" {
		user.Avatar = in.Avatar
	}

	updated, err := repo.Update(ctx, user)
	if err != nil {
		if errors.Is(err, common.ErrorConflict) {
			return nil, conflictField(err)
		}
		return nil, passThrough(ctx, s.logger, "update user", err)
	}

	return sanitize(updated), nil
}

// Get returns the user with the given id.
func (s *UserService) Get(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.get(ctx, userID)
	if err != nil {
		return nil, err
	}
	return sanitize(user), nil
}

func (s *UserService) get(ctx context.Context, userID string) (*models.User, error) {
	if !validID(userID) {
		return nil, fmt.Errorf("%w: user", common.ErrorNotFound)
	}
	user, err := s.repomanager.Users(s.db).GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, fmt.Errorf("%w: user", common.ErrorNotFound)
		}
		return nil, passThrough(ctx, s.logger, "get user", err)
	}
	return user, nil
}

// ensureFree fails with a field conflict when lookup finds a user other than ownerID.
func (s *UserService) ensureFree(ctx context.Context, lookup func(context.Context, string) (*models.User, error),
	value, field, ownerID string) error {

	existing, err := lookup(ctx, value)
	switch {
	case err == nil:
		if existing.ID != ownerID {
			return fieldConflict(field)
		}
		return nil
	case errors.Is(err, common.ErrorNotFound):
		return nil
	default:
		return passThrough(ctx, s.logger, "lookup user by "+field, err)
	}
}

// sanitize drops the password hash from a user leaving the service layer.
func sanitize(u *models.User) *models.User {
	out := *u
	out.PasswordHash = ""
	return &out
}
