package auth

import (
	"context"
	"errors"
)

var (
	ErrAccountNotFound     = errors.New("account not found")
	ErrDuplicateCredential = errors.New("username or email already exists")
)

// AccountStore persists accounts. Create assigns ID and CreatedAt and must
// fail with ErrDuplicateCredential when the username or email is taken.
type AccountStore interface {
	Create(ctx context.Context, a Account) (Account, error)
	GetByUsername(ctx context.Context, username string) (Account, error)
}
