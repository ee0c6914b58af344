package posts

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// Service is the ownership controller. Every call is scoped by the acting
// account. Storage failures on list, update and delete are logged and
// degraded rather than surfaced.
type Service struct {
	store  Store
	logger *slog.Logger
}

func NewService(store Store, logger *slog.Logger) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("post store is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, logger: logger}, nil
}

// List returns the account's posts newest first. It never fails: a storage
// error yields an empty list.
func (s *Service) List(ctx context.Context, accountID int64) []Post {
	ps, err := s.store.ListByOwner(ctx, accountID)
	if err != nil {
		s.logger.Error("list posts failed", "account_id", accountID, "error", err)
		return []Post{}
	}
	if ps == nil {
		return []Post{}
	}
	return ps
}

func (s *Service) Create(ctx context.Context, accountID int64, title, content string) (Post, error) {
	p, err := s.store.Create(ctx, Post{Title: title, Content: content, AccountID: accountID})
	if err != nil {
		s.logger.Error("create post failed", "account_id", accountID, "error", err)
		return Post{}, err
	}
	return p, nil
}

// Get returns ErrNotFound both for missing posts and for posts owned by
// another account.
func (s *Service) Get(ctx context.Context, accountID, postID int64) (Post, error) {
	p, err := s.store.GetOwned(ctx, accountID, postID)
	if err != nil && !errors.Is(err, ErrNotFound) {
		s.logger.Error("get post failed", "account_id", accountID, "post_id", postID, "error", err)
	}
	return p, err
}

// Update changes title and content of an owned post. A post the account does
// not own is left untouched and reported as unchanged without error.
func (s *Service) Update(ctx context.Context, accountID, postID int64, title, content string) bool {
	changed, err := s.store.UpdateOwned(ctx, accountID, postID, title, content)
	if err != nil {
		s.logger.Error("update post failed", "account_id", accountID, "post_id", postID, "error", err)
		return false
	}
	if !changed {
		s.logger.Debug("update matched no owned post", "account_id", accountID, "post_id", postID)
	}
	return changed
}

// Delete has the same no-op semantics as Update.
func (s *Service) Delete(ctx context.Context, accountID, postID int64) bool {
	changed, err := s.store.DeleteOwned(ctx, accountID, postID)
	if err != nil {
		s.logger.Error("delete post failed", "account_id", accountID, "post_id", postID, "error", err)
		return false
	}
	if !changed {
		s.logger.Debug("delete matched no owned post", "account_id", accountID, "post_id", postID)
	}
	return changed
}
