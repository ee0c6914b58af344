package session

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// NewToken returns 32 random bytes encoded as base64url.
func NewToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("session: generate token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
