// Package session holds the server-side session records that bind a browser
// to an authenticated account, and the signed cookie that carries the token.
package session

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("session not found")

// Session is the minimal identity installed for a request chain.
type Session struct {
	Token     string    `json:"token"`
	AccountID int64     `json:"account_id"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Store keeps sessions keyed by token. Get returns ErrNotFound for unknown
// or expired tokens; Delete of an unknown token is not an error.
type Store interface {
	Create(ctx context.Context, s Session) error
	Get(ctx context.Context, token string) (Session, error)
	Delete(ctx context.Context, token string) error
}
