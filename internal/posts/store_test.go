package posts

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/postboard/postboard/internal/storage"
)

type storeFactory func(t *testing.T, now func() time.Time) Store

func stores() map[string]storeFactory {
	return map[string]storeFactory{
		"memory": func(t *testing.T, now func() time.Time) Store {
			s := newMemoryStore()
			s.nowFunc = now
			return s
		},
		"badger": func(t *testing.T, now func() time.Time) Store {
			db, err := storage.OpenBadger("")
			if err != nil {
				t.Fatalf("OpenBadger() error: %v", err)
			}
			t.Cleanup(func() { _ = db.Close() })
			s, err := NewBadgerStore(db)
			if err != nil {
				t.Fatalf("NewBadgerStore() error: %v", err)
			}
			t.Cleanup(func() { _ = s.Close() })
			s.nowFunc = now
			return s
		},
	}
}

func tickingClock() func() time.Time {
	base := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	n := 0
	return func() time.Time {
		n++
		return base.Add(time.Duration(n) * time.Second)
	}
}

var ignoreCreated = cmpopts.IgnoreFields(Post{}, "CreatedAt")

func TestStoreRoundTrip(t *testing.T) {
	for name, newStore := range stores() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := newStore(t, tickingClock())

			created, err := s.Create(ctx, Post{Title: "t", Content: "c", AccountID: 1})
			if err != nil {
				t.Fatalf("Create() error: %v", err)
			}
			if created.ID == 0 || created.CreatedAt.IsZero() {
				t.Fatalf("expected id and created_at to be assigned: %+v", created)
			}

			got, err := s.GetOwned(ctx, 1, created.ID)
			if err != nil {
				t.Fatalf("GetOwned() error: %v", err)
			}
			want := Post{ID: created.ID, Title: "t", Content: "c", AccountID: 1}
			if diff := cmp.Diff(want, got, ignoreCreated); diff != "" {
				t.Fatalf("GetOwned() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestStoreListNewestFirstAndScoped(t *testing.T) {
	for name, newStore := range stores() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := newStore(t, tickingClock())

			empty, err := s.ListByOwner(ctx, 1)
			if err != nil {
				t.Fatalf("ListByOwner() error: %v", err)
			}
			if empty == nil || len(empty) != 0 {
				t.Fatalf("expected empty non-nil list, got %#v", empty)
			}

			first, _ := s.Create(ctx, Post{Title: "first", AccountID: 1})
			_, _ = s.Create(ctx, Post{Title: "other", AccountID: 2})
			second, _ := s.Create(ctx, Post{Title: "second", AccountID: 1})

			got, err := s.ListByOwner(ctx, 1)
			if err != nil {
				t.Fatalf("ListByOwner() error: %v", err)
			}
			want := []Post{
				{ID: second.ID, Title: "second", AccountID: 1},
				{ID: first.ID, Title: "first", AccountID: 1},
			}
			if diff := cmp.Diff(want, got, ignoreCreated); diff != "" {
				t.Fatalf("ListByOwner() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestStoreOwnershipIsEnforced(t *testing.T) {
	for name, newStore := range stores() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := newStore(t, tickingClock())

			p, err := s.Create(ctx, Post{Title: "mine", Content: "c", AccountID: 1})
			if err != nil {
				t.Fatalf("Create() error: %v", err)
			}

			if _, err := s.GetOwned(ctx, 2, p.ID); !errors.Is(err, ErrNotFound) {
				t.Fatalf("expected ErrNotFound for foreign account, got %v", err)
			}
			if _, err := s.GetOwned(ctx, 1, p.ID+100); !errors.Is(err, ErrNotFound) {
				t.Fatalf("expected ErrNotFound for missing post, got %v", err)
			}

			changed, err := s.UpdateOwned(ctx, 2, p.ID, "stolen", "x")
			if err != nil || changed {
				t.Fatalf("foreign update: changed=%v err=%v", changed, err)
			}
			deleted, err := s.DeleteOwned(ctx, 2, p.ID)
			if err != nil || deleted {
				t.Fatalf("foreign delete: deleted=%v err=%v", deleted, err)
			}

			got, err := s.GetOwned(ctx, 1, p.ID)
			if err != nil {
				t.Fatalf("GetOwned() error: %v", err)
			}
			if got.Title != "mine" || got.Content != "c" {
				t.Fatalf("post changed by non-owner: %+v", got)
			}
		})
	}
}

func TestStoreUpdateAndDelete(t *testing.T) {
	for name, newStore := range stores() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := newStore(t, tickingClock())

			p, _ := s.Create(ctx, Post{Title: "Hello", Content: "World", AccountID: 1})

			changed, err := s.UpdateOwned(ctx, 1, p.ID, "Hi", "There")
			if err != nil || !changed {
				t.Fatalf("UpdateOwned(): changed=%v err=%v", changed, err)
			}
			got, _ := s.GetOwned(ctx, 1, p.ID)
			if got.Title != "Hi" || got.Content != "There" || !got.CreatedAt.Equal(p.CreatedAt) {
				t.Fatalf("unexpected post after update: %+v", got)
			}

			deleted, err := s.DeleteOwned(ctx, 1, p.ID)
			if err != nil || !deleted {
				t.Fatalf("DeleteOwned(): deleted=%v err=%v", deleted, err)
			}
			deleted, err = s.DeleteOwned(ctx, 1, p.ID)
			if err != nil || deleted {
				t.Fatalf("second DeleteOwned(): deleted=%v err=%v", deleted, err)
			}
			list, _ := s.ListByOwner(ctx, 1)
			if len(list) != 0 {
				t.Fatalf("expected no posts after delete, got %d", len(list))
			}
		})
	}
}

func TestStoreConcurrentCreatesAllSucceed(t *testing.T) {
	for name, newStore := range stores() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := newStore(t, time.Now)

			const (
				owners = 8
				n      = 64
			)
			created := make([]Post, n)
			errs := make([]error, n)
			var wg sync.WaitGroup
			for i := 0; i < n; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					created[i], errs[i] = s.Create(ctx, Post{
						Title:     fmt.Sprintf("post %d", i),
						AccountID: int64(i%owners + 1),
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
					t.Fatalf("duplicate post id %d", created[i].ID)
				}
				seen[created[i].ID] = true
			}

			for owner := int64(1); owner <= owners; owner++ {
				list, err := s.ListByOwner(ctx, owner)
				if err != nil {
					t.Fatalf("ListByOwner(%d) error: %v", owner, err)
				}
				if len(list) != n/owners {
					t.Fatalf("owner %d: expected %d posts, got %d", owner, n/owners, len(list))
				}
			}
		})
	}
}
