package common

const (
	// AuthorizationHeaderName carries the bearer session token.
	AuthorizationHeaderName = "Authorization"

	// BearerScheme is the only accepted authorization scheme.
	BearerScheme = "Bearer"

	// TokenSize is the number of random bytes behind every opaque token.
	TokenSize = 32
)
