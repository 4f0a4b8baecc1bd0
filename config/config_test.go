package config

import (
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ballot-backend/storage"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{
		"BALLOT_PEPPER", "BALLOT_PEPPER_FILE", "BALLOT_HTTP_ADDR", "BALLOT_STORE",
		"BALLOT_STORE_PATH", "BALLOT_POSTGRES_DSN", "BALLOT_DERIVE_WORKERS",
		"BALLOT_DERIVE_QUEUE", "BALLOT_IDENTITY_SOURCE", "BALLOT_IDENTITY_HEADER",
		"BALLOT_LOG_FORMAT", "BALLOT_LOG_LEVEL", "BALLOT_OTEL_ENDPOINT", "BALLOT_OTEL_ENABLED",
	} {
		t.Setenv(name, "")
		os.Unsetenv(name)
	}
}

func TestParseDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Parse(flag.NewFlagSet("test", flag.ContinueOnError), nil)
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, storage.KindFile, cfg.Store)
	assert.Equal(t, "data", cfg.StorePath)
	assert.Equal(t, 2, cfg.DeriveWorkers)
	assert.Equal(t, 16, cfg.DeriveQueue)
	assert.Equal(t, "header", cfg.IdentitySource)
	assert.Equal(t, "X-Authenticated-Email", cfg.IdentityHeader)
	assert.Equal(t, "terminal", cfg.LogFormat)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.True(t, cfg.OTelEnabled)
	assert.Empty(t, cfg.PepperBytes())
}

func TestParseFlagsOverrideEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("BALLOT_STORE", "sqlite")
	t.Setenv("BALLOT_DERIVE_WORKERS", "4")

	cfg, err := Parse(flag.NewFlagSet("test", flag.ContinueOnError), []string{
		"-store", "memory", "-derive-queue", "3", "-http-addr", "127.0.0.1:9000",
	})
	require.NoError(t, err)
	assert.Equal(t, storage.KindMemory, cfg.Store)
	assert.Equal(t, 4, cfg.DeriveWorkers)
	assert.Equal(t, 3, cfg.DeriveQueue)
	assert.Equal(t, "127.0.0.1:9000", cfg.HTTPAddr)
}

func TestParsePepperFromEnvIsUnset(t *testing.T) {
	clearEnv(t)
	t.Setenv("BALLOT_PEPPER", "0123456789abcdef0123456789abcdef")

	cfg, err := Parse(flag.NewFlagSet("test", flag.ContinueOnError), nil)
	require.NoError(t, err)
	assert.Equal(t, []byte("0123456789abcdef0123456789abcdef"), cfg.PepperBytes())

	_, present := os.LookupEnv("BALLOT_PEPPER")
	assert.False(t, present)
}

func TestParsePepperFromFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "pepper")
	require.NoError(t, os.WriteFile(path, []byte("file-pepper-file-pepper-file-pep\n"), 0o600))
	t.Setenv("BALLOT_PEPPER_FILE", path)

	cfg, err := Parse(flag.NewFlagSet("test", flag.ContinueOnError), nil)
	require.NoError(t, err)
	assert.Equal(t, []byte("file-pepper-file-pepper-file-pep"), cfg.PepperBytes())

	cfg.Pepper = "env-wins"
	assert.Equal(t, []byte("env-wins"), cfg.PepperBytes())
}

func TestParsePepperFileMissing(t *testing.T) {
	clearEnv(t)
	t.Setenv("BALLOT_PEPPER_FILE", filepath.Join(t.TempDir(), "absent"))

	_, err := Parse(flag.NewFlagSet("test", flag.ContinueOnError), nil)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	clearEnv(t)
	base, err := ParseEnv()
	require.NoError(t, err)
	require.NoError(t, base.Validate())

	cfg := base
	cfg.Store = "s3"
	assert.Error(t, cfg.Validate())

	cfg = base
	cfg.Store = storage.KindPostgres
	assert.Error(t, cfg.Validate())
	cfg.PostgresDSN = "postgres://localhost/ballots"
	assert.NoError(t, cfg.Validate())

	cfg = base
	cfg.DeriveWorkers = 0
	assert.Error(t, cfg.Validate())

	cfg = base
	cfg.DeriveQueue = -1
	assert.Error(t, cfg.Validate())
}

func TestStoreOptions(t *testing.T) {
	cfg := Config{Store: storage.KindSQLite, StorePath: "/var/lib/ballots", PostgresDSN: "dsn"}
	assert.Equal(t, storage.Options{Kind: storage.KindSQLite, Path: "/var/lib/ballots", PostgresDSN: "dsn"}, cfg.StoreOptions())
}

func TestTrimPepperFile(t *testing.T) {
	tests := []struct {
		contents string
		want     string
	}{
		{"secret", "secret"},
		{"secret\n", "secret"},
		{"secret\r\n", "secret"},
		{"secret\n\n", "secret\n"},
		{"secret\r\n\r\n", "secret\r\n"},
		{"secret\r", "secret\r"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, []byte(tt.want), TrimPepperFile(tt.contents), "contents %q", tt.contents)
	}
}

func TestParsePepperFileKeepsInnerLineBreaks(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "pepper")
	require.NoError(t, os.WriteFile(path, []byte("0123456789abcdef0123456789abcdef\n\n"), 0o600))
	t.Setenv("BALLOT_PEPPER_FILE", path)

	cfg, err := Parse(flag.NewFlagSet("test", flag.ContinueOnError), nil)
	require.NoError(t, err)
	assert.Equal(t, []byte("0123456789abcdef0123456789abcdef\n"), cfg.PepperBytes())
}
