package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/postboard/postboard/internal/storage"
)

type PostgresAccountStore struct {
	db *sql.DB
}

func NewPostgresAccountStore(db *sql.DB) (*PostgresAccountStore, error) {
	if db == nil {
		return nil, fmt.Errorf("database is required")
	}
	return &PostgresAccountStore{db: db}, nil
}

func (s *PostgresAccountStore) Create(ctx context.Context, a Account) (Account, error) {
	const q = `
INSERT INTO accounts (username, email, password_hash)
VALUES ($1, $2, $3)
RETURNING id, created_at`
	err := s.db.QueryRowContext(ctx, q, a.Username, a.Email, a.PasswordHash).Scan(&a.ID, &a.CreatedAt)
	if err != nil {
		if storage.IsUniqueViolation(err) {
			return Account{}, ErrDuplicateCredential
		}
		return Account{}, fmt.Errorf("insert account: %w", err)
	}
	return a, nil
}

func (s *PostgresAccountStore) GetByUsername(ctx context.Context, username string) (Account, error) {
	if username == "" {
		return Account{}, ErrAccountNotFound
	}

	var a Account
	const q = `SELECT id, username, email, password_hash, created_at FROM accounts WHERE username = $1`
	if err := s.db.QueryRowContext(ctx, q, username).Scan(&a.ID, &a.Username, &a.Email, &a.PasswordHash, &a.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Account{}, ErrAccountNotFound
		}
		return Account{}, fmt.Errorf("query account: %w", err)
	}
	return a, nil
}
