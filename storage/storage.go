// File: storage/storage.go
package storage

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/pkg/errors"

	"ballot-backend/models"
)

// BallotStore is the object-store contract the submission pipeline writes
// through. Put overwrites any object already stored under the key and never
// reads before writing; concurrent puts to one key are last-writer-wins.
type BallotStore interface {
	Put(ctx context.Context, key models.DerivedKey, payload []byte) error
	Get(ctx context.Context, key models.DerivedKey) (models.StorageRecord, error)
}

var (
	// ErrUnavailable marks a failed store round trip. Callers may retry.
	ErrUnavailable = errors.New("ballot store unavailable")

	// ErrNotFound is returned by Get for a key with no stored ballot.
	ErrNotFound = errors.New("ballot not found")
)

// StoreError reports a failed store operation. It matches ErrUnavailable.
type StoreError struct {
	Op  string
	Key string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("ballot store %s %s: %v", e.Op, e.Key, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

func (e *StoreError) Is(target error) bool {
	return target == ErrUnavailable
}

func unavailable(op string, key models.DerivedKey, err error) error {
	return &StoreError{Op: op, Key: key.ObjectKey(), Err: err}
}

// Kind names of the available store backends.
const (
	KindMemory   = "memory"
	KindFile     = "file"
	KindSQLite   = "sqlite"
	KindPostgres = "postgres"
)

// Options selects and configures a store backend.
type Options struct {
	Kind        string
	Path        string
	PostgresDSN string
}

// Open builds the backend named by opts.Kind. The returned close function
// releases backend resources and is never nil.
func Open(ctx context.Context, opts Options) (BallotStore, func() error, error) {
	noop := func() error { return nil }
	switch opts.Kind {
	case KindMemory:
		return NewMemoryStore(), noop, nil
	case "", KindFile:
		store, err := NewJSONStore(opts.Path)
		if err != nil {
			return nil, noop, err
		}
		return store, noop, nil
	case KindSQLite:
		store, err := OpenSQLiteStore(filepath.Join(opts.Path, SQLiteFileName))
		if err != nil {
			return nil, noop, err
		}
		return store, store.Close, nil
	case KindPostgres:
		store, err := OpenPostgresStore(ctx, opts.PostgresDSN)
		if err != nil {
			return nil, noop, err
		}
		return store, store.Close, nil
	default:
		return nil, noop, fmt.Errorf("unknown store kind %q", opts.Kind)
	}
}
