package posts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) (*PostgresStore, error) {
	if db == nil {
		return nil, fmt.Errorf("database is required")
	}
	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) ListByOwner(ctx context.Context, accountID int64) ([]Post, error) {
	const q = `
SELECT id, title, content, account_id, created_at
FROM posts
WHERE account_id = $1
ORDER BY created_at DESC, id DESC`
	rows, err := s.db.QueryContext(ctx, q, accountID)
	if err != nil {
		return nil, fmt.Errorf("query posts: %w", err)
	}
	defer rows.Close()

	out := make([]Post, 0)
	for rows.Next() {
		var p Post
		if err := rows.Scan(&p.ID, &p.Title, &p.Content, &p.AccountID, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan post: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate posts: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) Create(ctx context.Context, p Post) (Post, error) {
	const q = `
INSERT INTO posts (title, content, account_id)
VALUES ($1, $2, $3)
RETURNING id, created_at`
	if err := s.db.QueryRowContext(ctx, q, p.Title, p.Content, p.AccountID).Scan(&p.ID, &p.CreatedAt); err != nil {
		return Post{}, fmt.Errorf("insert post: %w", err)
	}
	return p, nil
}

func (s *PostgresStore) GetOwned(ctx context.Context, accountID, postID int64) (Post, error) {
	const q = `SELECT id, title, content, account_id, created_at FROM posts WHERE id = $1 AND account_id = $2`
	var p Post
	if err := s.db.QueryRowContext(ctx, q, postID, accountID).Scan(&p.ID, &p.Title, &p.Content, &p.AccountID, &p.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Post{}, ErrNotFound
		}
		return Post{}, fmt.Errorf("query post: %w", err)
	}
	return p, nil
}

func (s *PostgresStore) UpdateOwned(ctx context.Context, accountID, postID int64, title, content string) (bool, error) {
	const q = `UPDATE posts SET title = $1, content = $2 WHERE id = $3 AND account_id = $4`
	res, err := s.db.ExecContext(ctx, q, title, content, postID, accountID)
	if err != nil {
		return false, fmt.Errorf("update post: %w", err)
	}
	return affected(res)
}

func (s *PostgresStore) DeleteOwned(ctx context.Context, accountID, postID int64) (bool, error) {
	const q = `DELETE FROM posts WHERE id = $1 AND account_id = $2`
	res, err := s.db.ExecContext(ctx, q, postID, accountID)
	if err != nil {
		return false, fmt.Errorf("delete post: %w", err)
	}
	return affected(res)
}

func affected(res sql.Result) (bool, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}
