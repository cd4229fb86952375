// Package services contains server-side business logic. Each service is bound
// to a *sql.DB and a repomanager.RepositoryManager and returns errors from the
// internal/common vocabulary; storage errors never leave this package raw.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/roleplay/internal/common"
	"github.com/dmitrijs2005/roleplay/internal/logging"
	"github.com/google/uuid"
)

// PasswordHasher is the credential store used by the services.
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	Verify(digest, plaintext string) bool
}

const (
	minPasswordLength = 4
	maxPasswordLength = 72
)

func validationError(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %s", common.ErrorValidation, err.Error())
}

// validID reports whether id is a well-formed UUID. Malformed ids are
// treated like unknown ones.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// conflictField turns a storage conflict into a Conflict error naming the
// user field involved, based on the violated constraint.
func conflictField(err error) error {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "email"):
		return fieldConflict("email")
	case strings.Contains(msg, "username"):
		return fieldConflict("username")
	}
	return err
}

func fieldConflict(field string) error {
	return fmt.Errorf("%w: %s already in use", common.ErrorConflict, field)
}

// passThrough keeps errors callers can act on and turns everything else into
// ErrorInternal after logging it.
func passThrough(ctx context.Context, logger logging.Logger, op string, err error) error {
	for _, known := range []error{
		common.ErrorNotFound,
		common.ErrorConflict,
		common.ErrorValidation,
		common.ErrorInvalidCredentials,
		common.ErrorUnauthorized,
		common.ErrorForbidden,
		common.ErrTokenExpired,
	} {
		if errors.Is(err, known) {
			return err
		}
	}
	logger.Error(ctx, op+" failed", "err", err)
	return common.ErrorInternal
}
