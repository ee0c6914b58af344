package posts

import (
	"context"
	"errors"
	"sort"
)

var ErrNotFound = errors.New("post not found")

// Store persists posts. Every read and mutation is scoped by the owning
// account: a post held by another account behaves exactly like a missing one.
// UpdateOwned and DeleteOwned report whether a row changed.
type Store interface {
	ListByOwner(ctx context.Context, accountID int64) ([]Post, error)
	Create(ctx context.Context, p Post) (Post, error)
	GetOwned(ctx context.Context, accountID, postID int64) (Post, error)
	UpdateOwned(ctx context.Context, accountID, postID int64, title, content string) (bool, error)
	DeleteOwned(ctx context.Context, accountID, postID int64) (bool, error)
}

func sortNewestFirst(ps []Post) {
	sort.Slice(ps, func(i, j int) bool {
		if ps[i].CreatedAt.Equal(ps[j].CreatedAt) {
			return ps[i].ID > ps[j].ID
		}
		return ps[i].CreatedAt.After(ps[j].CreatedAt)
	})
}
