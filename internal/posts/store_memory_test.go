package posts

import (
	"context"
	"sync"
	"time"
)

// memoryStore is a map-backed Store used to check the Store contract
// without badger.
type memoryStore struct {
	nowFunc func() time.Time

	mu     sync.RWMutex
	nextID int64
	posts  map[int64]Post
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		nowFunc: time.Now,
		posts:   make(map[int64]Post),
	}
}

func (s *memoryStore) ListByOwner(_ context.Context, accountID int64) ([]Post, error) {
	s.mu.RLock()
	out := make([]Post, 0)
	for _, p := range s.posts {
		if p.AccountID == accountID {
			out = append(out, p)
		}
	}
	s.mu.RUnlock()

	sortNewestFirst(out)
	return out, nil
}

func (s *memoryStore) Create(_ context.Context, p Post) (Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	p.ID = s.nextID
	p.CreatedAt = s.nowFunc().UTC()
	s.posts[p.ID] = p
	return p, nil
}

func (s *memoryStore) GetOwned(_ context.Context, accountID, postID int64) (Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.posts[postID]
	if !ok || p.AccountID != accountID {
		return Post{}, ErrNotFound
	}
	return p, nil
}

func (s *memoryStore) UpdateOwned(_ context.Context, accountID, postID int64, title, content string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.posts[postID]
	if !ok || p.AccountID != accountID {
		return false, nil
	}
	p.Title = title
	p.Content = content
	s.posts[postID] = p
	return true, nil
}

func (s *memoryStore) DeleteOwned(_ context.Context, accountID, postID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.posts[postID]
	if !ok || p.AccountID != accountID {
		return false, nil
	}
	delete(s.posts, postID)
	return true, nil
}
