package storage

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/dgraph-io/badger/v4"
)

const maxTxnRetries = 5

// OpenBadger opens the embedded store rooted at dir. An empty dir opens an
// in-memory instance.
func OpenBadger(dir string) (*badger.DB, error) {
	opts := badger.DefaultOptions(dir).
		WithLogger(nil).
		WithNumVersionsToKeep(1)
	if dir == "" {
		opts = opts.WithInMemory(true)
	} else if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("mkdir badger dir: %w", err)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}
	return db, nil
}

// UpdateWithRetry runs fn in a read-write transaction, retrying when the
// commit loses a conflict against a concurrent writer.
func UpdateWithRetry(ctx context.Context, db *badger.DB, fn func(txn *badger.Txn) error) error {
	var err error
	for i := 0; i < maxTxnRetries; i++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		err = db.Update(fn)
		if !errors.Is(err, badger.ErrConflict) {
			return err
		}
	}
	return err
}

const sequenceBandwidth = 100

// Sequence hands out increasing ids starting at 1. It leases ranges from
// badger outside of any caller transaction, so allocating an id never
// conflicts with concurrent writers.
type Sequence struct {
	seq *badger.Sequence
}

func NewSequence(db *badger.DB, key []byte) (*Sequence, error) {
	seq, err := db.GetSequence(key, sequenceBandwidth)
	if err != nil {
		return nil, fmt.Errorf("lease sequence %s: %w", key, err)
	}
	return &Sequence{seq: seq}, nil
}

func (s *Sequence) Next() (int64, error) {
	n, err := s.seq.Next()
	if err != nil {
		return 0, fmt.Errorf("next sequence value: %w", err)
	}
	// badger sequences start at 0
	return int64(n) + 1, nil
}

// Release returns the unused part of the leased range. Call it before the
// database is closed.
func (s *Sequence) Release() error {
	return s.seq.Release()
}
