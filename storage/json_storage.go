package storage

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"ballot-backend/models"
)

// JSONStore is a filesystem object store. Each ballot is one JSON file named
// after its object key under basePath, so basePath/ballots/<hex>.json.
type JSONStore struct {
	basePath string
}

// NewJSONStore creates basePath/ballots if needed and stores objects there.
func NewJSONStore(basePath string) (*JSONStore, error) {
	if basePath == "" {
		return nil, errors.New("storage path is required")
	}
	absPath, err := filepath.Abs(basePath)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get absolute path")
	}

	// Create storage directory if it doesn't exist
	if err := os.MkdirAll(filepath.Join(absPath, models.BallotKeyPrefix), 0o700); err != nil {
		return nil, errors.Wrap(err, "failed to create directory")
	}

	return &JSONStore{basePath: absPath}, nil
}

func (s *JSONStore) objectPath(key models.DerivedKey) string {
	return filepath.Join(s.basePath, filepath.FromSlash(key.ObjectKey())+".json")
}

// Put writes the ballot to a temporary file and renames it over the object,
// so readers see either the previous ballot or the new one.
func (s *JSONStore) Put(ctx context.Context, key models.DerivedKey, payload []byte) error {
	if err := ctx.Err(); err != nil {
		return unavailable("put", key, err)
	}

	record := models.NewStorageRecord(key, payload)
	data, err := json.Marshal(record)
	if err != nil {
		return unavailable("put", key, errors.Wrap(err, "failed to marshal ballot"))
	}

	path := s.objectPath(key)
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return unavailable("put", key, errors.Wrap(err, "failed to create temp file"))
	}
	tempPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tempPath)
		return unavailable("put", key, errors.Wrap(err, "failed to write ballot file"))
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tempPath)
		return unavailable("put", key, errors.Wrap(err, "failed to sync ballot file"))
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tempPath)
		return unavailable("put", key, errors.Wrap(err, "failed to close ballot file"))
	}

	// Atomic rename to ensure consistency
	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath) // Clean up temp file if rename fails
		return unavailable("put", key, errors.Wrap(err, "failed to save ballot file"))
	}

	return nil
}

func (s *JSONStore) Get(ctx context.Context, key models.DerivedKey) (models.StorageRecord, error) {
	if err := ctx.Err(); err != nil {
		return models.StorageRecord{}, unavailable("get", key, err)
	}

	data, err := os.ReadFile(s.objectPath(key))
	if err != nil {
		if os.IsNotExist(err) {
			return models.StorageRecord{}, ErrNotFound
		}
		return models.StorageRecord{}, unavailable("get", key, errors.Wrap(err, "failed to read ballot file"))
	}

	var record models.StorageRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return models.StorageRecord{}, unavailable("get", key, errors.Wrap(err, "failed to unmarshal ballot"))
	}
	if !record.Verify() {
		return models.StorageRecord{}, unavailable("get", key, errors.New("ballot digest mismatch"))
	}
	return record, nil
}
