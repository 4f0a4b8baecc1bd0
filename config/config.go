// Package config loads the ballot service configuration from the
// environment, with command-line flags overriding the tunable values.
package config

import (
	"errors"
	"flag"
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"

	"ballot-backend/storage"
)

// Config holds the process configuration. The pepper fields carry the raw
// secret; pass them straight to encryption.NewPepper and do not log Config.
type Config struct {
	// BALLOT_PEPPER is unset from the environment once read so child
	// processes do not inherit it.
	Pepper string `env:"BALLOT_PEPPER,unset"`
	// BALLOT_PEPPER_FILE names a file whose contents are the pepper.
	PepperFile string `env:"BALLOT_PEPPER_FILE,file"`

	HTTPAddr string `env:"BALLOT_HTTP_ADDR" envDefault:":8080"`

	Store       string `env:"BALLOT_STORE" envDefault:"file"`
	StorePath   string `env:"BALLOT_STORE_PATH" envDefault:"data"`
	PostgresDSN string `env:"BALLOT_POSTGRES_DSN"`

	DeriveWorkers int `env:"BALLOT_DERIVE_WORKERS" envDefault:"2"`
	DeriveQueue   int `env:"BALLOT_DERIVE_QUEUE" envDefault:"16"`

	IdentitySource string `env:"BALLOT_IDENTITY_SOURCE" envDefault:"header"`
	IdentityHeader string `env:"BALLOT_IDENTITY_HEADER" envDefault:"X-Authenticated-Email"`

	LogFormat string `env:"BALLOT_LOG_FORMAT" envDefault:"terminal"`
	LogLevel  string `env:"BALLOT_LOG_LEVEL" envDefault:"info"`

	OTelEndpoint string `env:"BALLOT_OTEL_ENDPOINT"`
	OTelEnabled  bool   `env:"BALLOT_OTEL_ENABLED" envDefault:"true"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// Parse loads defaults from the environment and then applies flags.
func Parse(fs *flag.FlagSet, args []string) (Config, error) {
	if fs == nil {
		return Config{}, errors.New("flag parser is required")
	}
	cfg, err := ParseEnv()
	if err != nil {
		return Config{}, err
	}

	fs.StringVar(&cfg.HTTPAddr, "http-addr", cfg.HTTPAddr, "HTTP listen address")
	fs.StringVar(&cfg.Store, "store", cfg.Store, "Ballot store backend: memory, file, sqlite or postgres")
	fs.StringVar(&cfg.StorePath, "store-path", cfg.StorePath, "Directory for the file and sqlite stores")
	fs.IntVar(&cfg.DeriveWorkers, "derive-workers", cfg.DeriveWorkers, "Concurrent key derivations (about 64 MiB each)")
	fs.IntVar(&cfg.DeriveQueue, "derive-queue", cfg.DeriveQueue, "Requests that may wait for a derivation worker")

	if args == nil {
		args = []string{}
	}
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the non-secret settings. The pepper is checked by
// encryption.NewPepper.
func (c Config) Validate() error {
	switch c.Store {
	case storage.KindMemory, storage.KindFile, storage.KindSQLite:
	case storage.KindPostgres:
		if strings.TrimSpace(c.PostgresDSN) == "" {
			return errors.New("BALLOT_POSTGRES_DSN is required for the postgres store")
		}
	default:
		return fmt.Errorf("unknown store %q", c.Store)
	}
	if c.DeriveWorkers < 1 {
		return fmt.Errorf("derive workers must be at least 1, got %d", c.DeriveWorkers)
	}
	if c.DeriveQueue < 0 {
		return fmt.Errorf("derive queue must not be negative, got %d", c.DeriveQueue)
	}
	return nil
}

// PepperBytes returns the configured pepper. BALLOT_PEPPER wins over
// BALLOT_PEPPER_FILE.
func (c Config) PepperBytes() []byte {
	if c.Pepper != "" {
		return []byte(c.Pepper)
	}
	return TrimPepperFile(c.PepperFile)
}

// TrimPepperFile returns the pepper held in the contents of a pepper file.
// Only one trailing line break ("\n" or "\r\n") is dropped; anything before
// it is part of the secret. Every reader of BALLOT_PEPPER_FILE must use this
// so that all tools derive the same keys.
func TrimPepperFile(contents string) []byte {
	if value, ok := strings.CutSuffix(contents, "\n"); ok {
		return []byte(strings.TrimSuffix(value, "\r"))
	}
	return []byte(contents)
}

// StoreOptions returns the options for storage.Open.
func (c Config) StoreOptions() storage.Options {
	return storage.Options{
		Kind:        c.Store,
		Path:        c.StorePath,
		PostgresDSN: c.PostgresDSN,
	}
}
