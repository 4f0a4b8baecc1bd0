package storage

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	_ "modernc.org/sqlite"

	"ballot-backend/models"
)

// SQLiteFileName is the database file created inside a store directory.
const SQLiteFileName = "ballots.db"

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS ballot_objects (
    object_key   TEXT PRIMARY KEY,
    body         BLOB NOT NULL,
    content_type TEXT NOT NULL,
    digest       TEXT NOT NULL,
    updated_at   INTEGER NOT NULL
);
`

// SQLiteStore persists ballot objects in a single SQLite table keyed by
// object key.
type SQLiteStore struct {
	sqlDB *sql.DB
}

// OpenSQLiteStore opens (and creates if needed) the database at path.
func OpenSQLiteStore(path string) (*SQLiteStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("storage path is required")
	}
	cleanPath := filepath.Clean(path)
	if err := os.MkdirAll(filepath.Dir(cleanPath), 0o700); err != nil {
		return nil, errors.Wrap(err, "create sqlite directory")
	}

	dsn := "file:" + cleanPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "open sqlite db")
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, errors.Wrap(err, "ping sqlite db")
	}
	if _, err := sqlDB.Exec(sqliteSchema); err != nil {
		_ = sqlDB.Close()
		return nil, errors.Wrap(err, "apply schema")
	}
	return &SQLiteStore{sqlDB: sqlDB}, nil
}

// Close closes the underlying SQLite database.
func (s *SQLiteStore) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

func (s *SQLiteStore) Put(ctx context.Context, key models.DerivedKey, payload []byte) error {
	if s == nil || s.sqlDB == nil {
		return unavailable("put", key, errors.New("storage is not configured"))
	}
	record := models.NewStorageRecord(key, payload)
	_, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO ballot_objects (object_key, body, content_type, digest, updated_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(object_key) DO UPDATE SET
		   body = excluded.body,
		   content_type = excluded.content_type,
		   digest = excluded.digest,
		   updated_at = excluded.updated_at`,
		record.Key,
		record.Body,
		record.ContentType,
		record.Digest.Hex(),
		record.UpdatedAt.UnixMilli(),
	)
	if err != nil {
		return unavailable("put", key, errors.Wrap(err, "upsert ballot object"))
	}
	return nil
}

func (s *SQLiteStore) Get(ctx context.Context, key models.DerivedKey) (models.StorageRecord, error) {
	if s == nil || s.sqlDB == nil {
		return models.StorageRecord{}, unavailable("get", key, errors.New("storage is not configured"))
	}
	var (
		record    models.StorageRecord
		digest    string
		updatedAt int64
	)
	row := s.sqlDB.QueryRowContext(ctx,
		`SELECT object_key, body, content_type, digest, updated_at
		 FROM ballot_objects WHERE object_key = ?`,
		key.ObjectKey(),
	)
	if err := row.Scan(&record.Key, &record.Body, &record.ContentType, &digest, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.StorageRecord{}, ErrNotFound
		}
		return models.StorageRecord{}, unavailable("get", key, errors.Wrap(err, "select ballot object"))
	}
	record.Digest = common.HexToHash(digest)
	record.UpdatedAt = time.UnixMilli(updatedAt).UTC()
	if !record.Verify() {
		return models.StorageRecord{}, unavailable("get", key, errors.New("ballot digest mismatch"))
	}
	return record, nil
}
