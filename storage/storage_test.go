package storage

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ballot-backend/models"
)

func keyOf(b byte) models.DerivedKey {
	var key models.DerivedKey
	for i := range key {
		key[i] = b
	}
	return key
}

// exerciseBallotStore checks the BallotStore contract shared by all backends.
func exerciseBallotStore(t *testing.T, store BallotStore) {
	t.Helper()
	ctx := context.Background()
	key := keyOf(0x42)

	_, err := store.Get(ctx, key)
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.Put(ctx, key, []byte(`{"candidate1":1}`)))
	require.NoError(t, store.Put(ctx, key, []byte(`{"candidate2":1,"candidate1":2}`)))

	record, err := store.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "ballots/"+key.Hex(), record.Key)
	assert.Equal(t, `{"candidate2":1,"candidate1":2}`, string(record.Body))
	assert.Equal(t, models.BallotContentType, record.ContentType)
	assert.True(t, record.Verify())

	other := keyOf(0x07)
	require.NoError(t, store.Put(ctx, other, []byte(`{"x":1}`)))
	record, err = store.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, `{"candidate2":1,"candidate1":2}`, string(record.Body))
}

func TestMemoryStoreContract(t *testing.T) {
	store := NewMemoryStore()
	exerciseBallotStore(t, store)
	assert.Equal(t, 3, store.PutCount())
	assert.Equal(t, 2, store.Len())
}

func TestMemoryStoreFailure(t *testing.T) {
	store := NewMemoryStore()
	store.FailWith(errors.New("connection reset"))

	err := store.Put(context.Background(), keyOf(1), []byte(`{}`))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnavailable)

	var storeErr *StoreError
	require.ErrorAs(t, err, &storeErr)
	assert.Equal(t, "put", storeErr.Op)
	assert.Equal(t, 0, store.Len())
}

func TestJSONStoreContract(t *testing.T) {
	dir := t.TempDir()
	store, err := NewJSONStore(dir)
	require.NoError(t, err)

	exerciseBallotStore(t, store)

	entries, err := os.ReadDir(filepath.Join(dir, models.BallotKeyPrefix))
	require.NoError(t, err)
	assert.Len(t, entries, 2, "temp files must not be left behind")
}

func TestJSONStoreDetectsTampering(t *testing.T) {
	dir := t.TempDir()
	store, err := NewJSONStore(dir)
	require.NoError(t, err)

	key := keyOf(9)
	require.NoError(t, store.Put(context.Background(), key, []byte(`{"a":1}`)))

	path := store.objectPath(key)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var record models.StorageRecord
	require.NoError(t, json.Unmarshal(data, &record))
	record.Body = []byte(`{"a":2}`)
	data, err = json.Marshal(record)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o600))

	_, err = store.Get(context.Background(), key)
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestSQLiteStoreContract(t *testing.T) {
	store, err := OpenSQLiteStore(filepath.Join(t.TempDir(), SQLiteFileName))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	exerciseBallotStore(t, store)
}

func TestSQLiteStoreClosed(t *testing.T) {
	store, err := OpenSQLiteStore(filepath.Join(t.TempDir(), SQLiteFileName))
	require.NoError(t, err)
	require.NoError(t, store.Close())

	err = store.Put(context.Background(), keyOf(3), []byte(`{}`))
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestPostgresStoreContract(t *testing.T) {
	dsn := os.Getenv("BALLOT_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("BALLOT_TEST_POSTGRES_DSN not set")
	}
	store, err := OpenPostgresStore(context.Background(), dsn)
	require.NoError(t, err)
	t.Cleanup(func() {
		store.db.Exec("DELETE FROM ballot_objects WHERE object_key IN ?", []string{keyOf(0x42).ObjectKey(), keyOf(0x07).ObjectKey()})
		_ = store.Close()
	})

	exerciseBallotStore(t, store)
}

func TestOpenSelectsBackend(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	store, closeFn, err := Open(ctx, Options{Kind: KindMemory})
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, store)
	assert.NoError(t, closeFn())

	store, closeFn, err = Open(ctx, Options{Path: dir})
	require.NoError(t, err)
	assert.IsType(t, &JSONStore{}, store)
	assert.NoError(t, closeFn())

	store, closeFn, err = Open(ctx, Options{Kind: KindSQLite, Path: dir})
	require.NoError(t, err)
	assert.IsType(t, &SQLiteStore{}, store)
	assert.NoError(t, closeFn())
	assert.FileExists(t, filepath.Join(dir, SQLiteFileName))

	_, _, err = Open(ctx, Options{Kind: KindPostgres})
	assert.Error(t, err)

	_, _, err = Open(ctx, Options{Kind: "s3"})
	assert.Error(t, err)
}
