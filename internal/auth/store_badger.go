package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/postboard/postboard/internal/storage"
)

var accountSeqKey = []byte("seq:account")

type BadgerAccountStore struct {
	db      *badger.DB
	ids     *storage.Sequence
	nowFunc func() time.Time
}

func NewBadgerAccountStore(db *badger.DB) (*BadgerAccountStore, error) {
	if db == nil {
		return nil, fmt.Errorf("badger database is required")
	}
	ids, err := storage.NewSequence(db, accountSeqKey)
	if err != nil {
		return nil, err
	}
	return &BadgerAccountStore{db: db, ids: ids, nowFunc: time.Now}, nil
}

func accountKey(id int64) []byte {
	return []byte("account:id:" + strconv.FormatInt(id, 10))
}

func usernameKey(username string) []byte {
	return []byte("account:username:" + username)
}

func emailKey(email string) []byte {
	return []byte("account:email:" + email)
}

func (s *BadgerAccountStore) Create(ctx context.Context, a Account) (Account, error) {
	id, err := s.ids.Next()
	if err != nil {
		return Account{}, fmt.Errorf("insert account: %w", err)
	}

	var created Account
	err = storage.UpdateWithRetry(ctx, s.db, func(txn *badger.Txn) error {
		for _, k := range [][]byte{usernameKey(a.Username), emailKey(a.Email)} {
			_, err := txn.Get(k)
			if err == nil {
				return ErrDuplicateCredential
			}
			if !errors.Is(err, badger.ErrKeyNotFound) {
				return fmt.Errorf("check credential index: %w", err)
			}
		}

		created = a
		created.ID = id
		created.CreatedAt = s.nowFunc().UTC()

		data, err := json.Marshal(created)
		if err != nil {
			return fmt.Errorf("encode account: %w", err)
		}
		idVal := []byte(strconv.FormatInt(id, 10))
		if err := txn.Set(accountKey(id), data); err != nil {
			return err
		}
		if err := txn.Set(usernameKey(a.Username), idVal); err != nil {
			return err
		}
		return txn.Set(emailKey(a.Email), idVal)
	})
	if err != nil {
		if errors.Is(err, ErrDuplicateCredential) {
			return Account{}, err
		}
		return Account{}, fmt.Errorf("insert account: %w", err)
	}
	return created, nil
}

// Close returns unused ids to the store. The database stays open.
func (s *BadgerAccountStore) Close() error {
	return s.ids.Release()
}

func (s *BadgerAccountStore) GetByUsername(_ context.Context, username string) (Account, error) {
	if username == "" {
		return Account{}, ErrAccountNotFound
	}

	var a Account
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(usernameKey(username))
		if err != nil {
			return err
		}
		var id int64
		if err := item.Value(func(val []byte) error {
			id, err = strconv.ParseInt(string(val), 10, 64)
			return err
		}); err != nil {
			return fmt.Errorf("decode account index: %w", err)
		}

		item, err = txn.Get(accountKey(id))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &a)
		})
	})
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return Account{}, ErrAccountNotFound
		}
		return Account{}, fmt.Errorf("query account: %w", err)
	}
	return a, nil
}
