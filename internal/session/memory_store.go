package session

import (
	"context"
	"fmt"
	"sync"
	"time"
)

type MemoryStore struct {
	nowFunc func() time.Time

	mu       sync.RWMutex
	sessions map[string]Session
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		nowFunc:  time.Now,
		sessions: make(map[string]Session),
	}
}

func (s *MemoryStore) Create(_ context.Context, sess Session) error {
	if sess.Token == "" || sess.AccountID == 0 {
		return fmt.Errorf("session: missing token or account id")
	}
	s.mu.Lock()
	s.sessions[sess.Token] = sess
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Get(_ context.Context, token string) (Session, error) {
	s.mu.RLock()
	sess, ok := s.sessions[token]
	s.mu.RUnlock()
	if !ok {
		return Session{}, ErrNotFound
	}

	if s.nowFunc().After(sess.ExpiresAt) {
		s.mu.Lock()
		delete(s.sessions, token)
		s.mu.Unlock()
		return Session{}, ErrNotFound
	}
	return sess, nil
}

func (s *MemoryStore) Delete(_ context.Context, token string) error {
	s.mu.Lock()
	delete(s.sessions, token)
	s.mu.Unlock()
	return nil
}

// Prune drops expired sessions and returns how many were removed.
func (s *MemoryStore) Prune() int {
	now := s.nowFunc()

	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for token, sess := range s.sessions {
		if now.After(sess.ExpiresAt) {
			delete(s.sessions, token)
			removed++
		}
	}
	return removed
}

// Len reports the number of held sessions, expired ones included.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// RunPruner calls Prune every interval until ctx is done.
func (s *MemoryStore) RunPruner(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Prune()
		}
	}
}
