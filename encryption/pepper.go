package encryption

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"unicode/utf8"
)

// MinPepperLength is the minimum pepper size in bytes.
const MinPepperLength = 32

// ConfigErrorKind classifies a rejected pepper.
type ConfigErrorKind int

const (
	PepperMissing ConfigErrorKind = iota + 1
	PepperWrongType
	PepperTooShort
)

func (k ConfigErrorKind) String() string {
	switch k {
	case PepperMissing:
		return "missing"
	case PepperWrongType:
		return "wrong_type"
	case PepperTooShort:
		return "too_short"
	default:
		return "unknown"
	}
}

// ConfigError is returned when the pepper cannot be used. It never carries
// the secret itself.
type ConfigError struct {
	Kind   ConfigErrorKind
	Length int
}

func (e *ConfigError) Error() string {
	switch e.Kind {
	case PepperMissing:
		return "pepper is not set: define BALLOT_PEPPER or BALLOT_PEPPER_FILE"
	case PepperWrongType:
		return "pepper must be UTF-8 text: check the value of BALLOT_PEPPER or the file named by BALLOT_PEPPER_FILE"
	case PepperTooShort:
		return fmt.Sprintf("pepper must be at least %d bytes long, got %d", MinPepperLength, e.Length)
	default:
		return "invalid pepper"
	}
}

// Is matches another *ConfigError of the same kind.
func (e *ConfigError) Is(target error) bool {
	if t, ok := target.(*ConfigError); ok {
		return t.Kind == e.Kind
	}
	return false
}

// Sentinels for errors.Is.
var (
	ErrPepperMissing   = &ConfigError{Kind: PepperMissing}
	ErrPepperWrongType = &ConfigError{Kind: PepperWrongType}
	ErrPepperTooShort  = &ConfigError{Kind: PepperTooShort}
)

// Pepper is the process-wide long-term secret mixed into every key
// derivation. It is immutable once constructed and prints as [redacted].
type Pepper struct {
	value []byte
}

// ValidatePepper checks raw without retaining it.
func ValidatePepper(raw []byte) error {
	if len(raw) == 0 {
		return &ConfigError{Kind: PepperMissing}
	}
	if !utf8.Valid(raw) {
		return &ConfigError{Kind: PepperWrongType, Length: len(raw)}
	}
	if len(raw) < MinPepperLength {
		return &ConfigError{Kind: PepperTooShort, Length: len(raw)}
	}
	return nil
}

// NewPepper validates raw and returns a private copy of it. It is meant to
// run once during bootstrap; callers must not serve requests on error.
func NewPepper(raw []byte) (Pepper, error) {
	if err := ValidatePepper(raw); err != nil {
		return Pepper{}, err
	}
	value := make([]byte, len(raw))
	copy(value, raw)
	return Pepper{value: value}, nil
}

// Len returns the pepper length in bytes.
func (p Pepper) Len() int {
	return len(p.value)
}

func (p Pepper) bytes() []byte {
	return p.value
}

func (p Pepper) String() string {
	return "[redacted]"
}

func (p Pepper) GoString() string {
	return "encryption.Pepper{[redacted]}"
}

// GeneratePepper returns a hex encoded pepper built from n random bytes.
// A nil reader uses crypto/rand.
func GeneratePepper(reader io.Reader, n int) (string, error) {
	if n*2 < MinPepperLength {
		return "", fmt.Errorf("pepper needs at least %d random bytes", MinPepperLength/2)
	}
	if reader == nil {
		reader = rand.Reader
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(reader, buf); err != nil {
		return "", fmt.Errorf("generate random bytes: %w", err)
	}
	defer Wipe(buf)
	return hex.EncodeToString(buf), nil
}
