package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/postboard/postboard/internal/storage"
)

func newBadgerAccountStore(t *testing.T) *BadgerAccountStore {
	t.Helper()
	db, err := storage.OpenBadger("")
	if err != nil {
		t.Fatalf("OpenBadger() error: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	store, err := NewBadgerAccountStore(db)
	if err != nil {
		t.Fatalf("NewBadgerAccountStore() error: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestBadgerAccountStoreCreateAndGet(t *testing.T) {
	ctx := context.Background()
	store := newBadgerAccountStore(t)

	first, err := store.Create(ctx, Account{Username: "alice", Email: "a@x.io", PasswordHash: "h1"})
	if err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	second, err := store.Create(ctx, Account{Username: "bob", Email: "b@x.io", PasswordHash: "h2"})
	if err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	if first.ID == 0 || second.ID <= first.ID {
		t.Fatalf("expected increasing ids, got %d then %d", first.ID, second.ID)
	}
	if first.CreatedAt.IsZero() {
		t.Fatalf("expected created_at to be set")
	}

	got, err := store.GetByUsername(ctx, "bob")
	if err != nil {
		t.Fatalf("GetByUsername() error: %v", err)
	}
	if got.ID != second.ID || got.Email != "b@x.io" || got.PasswordHash != "h2" {
		t.Fatalf("unexpected account: %+v", got)
	}

	if _, err := store.GetByUsername(ctx, "carol"); !errors.Is(err, ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
}

func TestBadgerAccountStoreRejectsDuplicates(t *testing.T) {
	ctx := context.Background()
	store := newBadgerAccountStore(t)

	if _, err := store.Create(ctx, Account{Username: "alice", Email: "a@x.io", PasswordHash: "h"}); err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	if _, err := store.Create(ctx, Account{Username: "alice", Email: "new@x.io", PasswordHash: "h"}); !errors.Is(err, ErrDuplicateCredential) {
		t.Fatalf("expected duplicate username error, got %v", err)
	}
	if _, err := store.Create(ctx, Account{Username: "new", Email: "a@x.io", PasswordHash: "h"}); !errors.Is(err, ErrDuplicateCredential) {
		t.Fatalf("expected duplicate email error, got %v", err)
	}
	if _, err := store.GetByUsername(ctx, "new"); !errors.Is(err, ErrAccountNotFound) {
		t.Fatalf("rejected account must not be visible, got %v", err)
	}
}

func TestBadgerAccountStoreConcurrentSameUsername(t *testing.T) {
	ctx := context.Background()
	store := newBadgerAccountStore(t)

	const n = 8
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		success int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := store.Create(ctx, Account{
				Username:     "alice",
				Email:        fmt.Sprintf("a%d@x.io", i),
				PasswordHash: "h",
			})
			if err == nil {
				mu.Lock()
				success++
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()

	if success != 1 {
		t.Fatalf("expected exactly one successful registration, got %d", success)
	}
}

func TestBadgerAccountStoreConcurrentDistinctRegistrations(t *testing.T) {
	ctx := context.Background()
	store := newBadgerAccountStore(t)

	const n = 64
	created := make([]Account, n)
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			created[i], errs[i] = store.Create(ctx, Account{
				Username:     fmt.Sprintf("user%02d", i),
				Email:        fmt.Sprintf("u%02d@x.io", i),
				PasswordHash: "h",
			})
		}(i)
	}
	wg.Wait()

	seen := make(map[int64]bool, n)
	for i, err := range errs {
		if err != nil {
			t.Fatalf("Create() #%d error: %v", i, err)
		}
		if seen[created[i].ID] {
			t.Fatalf("duplicate account id %d", created[i].ID)
		}
		seen[created[i].ID] = true

		got, err := store.GetByUsername(ctx, fmt.Sprintf("user%02d", i))
		if err != nil {
			t.Fatalf("GetByUsername() error: %v", err)
		}
		if got.ID != created[i].ID {
			t.Fatalf("user%02d: expected id %d, got %d", i, created[i].ID, got.ID)
		}
	}
}
