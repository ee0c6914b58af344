package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

var ErrMissingField = errors.New("username, email and password are required")

type registration struct {
	Username string `validate:"required"`
	Email    string `validate:"required"`
	Password string `validate:"required"`
}

// Credentials is the credential store: account creation with password
// hashing, and lookup by username.
type Credentials struct {
	accounts AccountStore
	hasher   Hasher
	validate *validator.Validate
}

func NewCredentials(accounts AccountStore, hasher Hasher) (*Credentials, error) {
	if accounts == nil {
		return nil, fmt.Errorf("account store is required")
	}
	if hasher == nil {
		return nil, fmt.Errorf("password hasher is required")
	}
	return &Credentials{
		accounts: accounts,
		hasher:   hasher,
		validate: validator.New(),
	}, nil
}

func (c *Credentials) CreateAccount(ctx context.Context, username, email, password string) (Account, error) {
	if err := c.validate.Struct(registration{Username: username, Email: email, Password: password}); err != nil {
		return Account{}, ErrMissingField
	}

	hash, err := c.hasher.Hash(password)
	if err != nil {
		return Account{}, err
	}

	a, err := c.accounts.Create(ctx, Account{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
	})
	if err != nil {
		return Account{}, err
	}
	return a, nil
}

func (c *Credentials) FindAccountByUsername(ctx context.Context, username string) (Account, error) {
	return c.accounts.GetByUsername(ctx, username)
}

func (c *Credentials) verify(a Account, password string) bool {
	return c.hasher.Verify(a.PasswordHash, password)
}
