package posts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/postboard/postboard/internal/storage"
)

var postSeqKey = []byte("seq:post")

// BadgerStore keys each post under its owner, so ownership scoping is a
// plain key lookup.
type BadgerStore struct {
	db      *badger.DB
	ids     *storage.Sequence
	nowFunc func() time.Time
}

func NewBadgerStore(db *badger.DB) (*BadgerStore, error) {
	if db == nil {
		return nil, fmt.Errorf("badger database is required")
	}
	ids, err := storage.NewSequence(db, postSeqKey)
	if err != nil {
		return nil, err
	}
	return &BadgerStore{db: db, ids: ids, nowFunc: time.Now}, nil
}

func ownerPrefix(accountID int64) []byte {
	return []byte(fmt.Sprintf("post:%020d:", accountID))
}

func postKey(accountID, postID int64) []byte {
	return []byte(fmt.Sprintf("post:%020d:%020d", accountID, postID))
}

func (s *BadgerStore) ListByOwner(_ context.Context, accountID int64) ([]Post, error) {
	out := make([]Post, 0)
	prefix := ownerPrefix(accountID)
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var p Post
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &p)
			}); err != nil {
				return fmt.Errorf("decode post: %w", err)
			}
			out = append(out, p)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("query posts: %w", err)
	}
	sortNewestFirst(out)
	return out, nil
}

func (s *BadgerStore) Create(ctx context.Context, p Post) (Post, error) {
	id, err := s.ids.Next()
	if err != nil {
		return Post{}, fmt.Errorf("insert post: %w", err)
	}

	var created Post
	err = storage.UpdateWithRetry(ctx, s.db, func(txn *badger.Txn) error {
		created = p
		created.ID = id
		created.CreatedAt = s.nowFunc().UTC()
		return s.put(txn, created)
	})
	if err != nil {
		return Post{}, fmt.Errorf("insert post: %w", err)
	}
	return created, nil
}

// Close returns unused ids to the store. The database stays open.
func (s *BadgerStore) Close() error {
	return s.ids.Release()
}

func (s *BadgerStore) GetOwned(_ context.Context, accountID, postID int64) (Post, error) {
	var p Post
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		p, err = get(txn, accountID, postID)
		return err
	})
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return Post{}, ErrNotFound
		}
		return Post{}, fmt.Errorf("query post: %w", err)
	}
	return p, nil
}

func (s *BadgerStore) UpdateOwned(ctx context.Context, accountID, postID int64, title, content string) (bool, error) {
	changed := false
	err := storage.UpdateWithRetry(ctx, s.db, func(txn *badger.Txn) error {
		changed = false
		p, err := get(txn, accountID, postID)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		p.Title = title
		p.Content = content
		if err := s.put(txn, p); err != nil {
			return err
		}
		changed = true
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("update post: %w", err)
	}
	return changed, nil
}

func (s *BadgerStore) DeleteOwned(ctx context.Context, accountID, postID int64) (bool, error) {
	changed := false
	err := storage.UpdateWithRetry(ctx, s.db, func(txn *badger.Txn) error {
		changed = false
		key := postKey(accountID, postID)
		if _, err := txn.Get(key); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return nil
			}
			return err
		}
		if err := txn.Delete(key); err != nil {
			return err
		}
		changed = true
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("delete post: %w", err)
	}
	return changed, nil
}

func (s *BadgerStore) put(txn *badger.Txn, p Post) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode post: %w", err)
	}
	return txn.Set(postKey(p.AccountID, p.ID), data)
}

func get(txn *badger.Txn, accountID, postID int64) (Post, error) {
	item, err := txn.Get(postKey(accountID, postID))
	if err != nil {
		return Post{}, err
	}
	var p Post
	err = item.Value(func(val []byte) error {
		return json.Unmarshal(val, &p)
	})
	return p, err
}
