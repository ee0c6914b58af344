package auth

import (
	"context"
	"sync"
	"time"
)

// memoryAccountStore is a map-backed AccountStore for service tests.
type memoryAccountStore struct {
	nowFunc func() time.Time

	mu      sync.RWMutex
	nextID  int64
	byName  map[string]Account
	byEmail map[string]int64
}

func newMemoryAccountStore() *memoryAccountStore {
	return &memoryAccountStore{
		nowFunc: time.Now,
		byName:  make(map[string]Account),
		byEmail: make(map[string]int64),
	}
}

func (s *memoryAccountStore) Create(_ context.Context, a Account) (Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byName[a.Username]; ok {
		return Account{}, ErrDuplicateCredential
	}
	if _, ok := s.byEmail[a.Email]; ok {
		return Account{}, ErrDuplicateCredential
	}
	s.nextID++
	a.ID = s.nextID
	a.CreatedAt = s.nowFunc().UTC()
	s.byName[a.Username] = a
	s.byEmail[a.Email] = a.ID
	return a, nil
}

func (s *memoryAccountStore) GetByUsername(_ context.Context, username string) (Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.byName[username]
	if !ok {
		return Account{}, ErrAccountNotFound
	}
	return a, nil
}

// Count reports how many accounts exist.
func (s *memoryAccountStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byName)
}
