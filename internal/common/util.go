package common

import (
	"crypto/rand"
	"encoding/hex"
)

// MakeRandHexString returns size random bytes encoded as lowercase hex, so the
// result is 2*size characters long. It fails only if the system random source
// fails.
func MakeRandHexString(size int) (string, error) {
	b := make([]byte, size)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// NewToken returns a fresh opaque token of TokenSize random bytes.
func NewToken() (string, error) {
	return MakeRandHexString(TokenSize)
}
