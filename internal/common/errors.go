// Package common defines shared constants and sentinel errors used across
// the roleplay server layers. Callers should use errors.Is to match these
// values; services wrap them with fmt.Errorf("%w: ...") to add detail.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")
	ErrorConflict = errors.New("conflict")

	// Service-level errors.
	ErrorInternal           = errors.New("internal error")
	ErrorValidation         = errors.New("validation error")
	ErrorInvalidCredentials = errors.New("invalid credentials")
	ErrorUnauthorized       = errors.New("unauthorized")
	ErrorForbidden          = errors.New("forbidden")

	// Token lifecycle errors.
	ErrTokenExpired = errors.New("token expired")
)
