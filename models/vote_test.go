package models

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDerivedKeyEncoding(t *testing.T) {
	var key DerivedKey
	for i := range key {
		key[i] = byte(i)
	}

	hex := key.Hex()
	assert.Len(t, hex, 128)
	assert.Equal(t, strings.ToLower(hex), hex)
	assert.True(t, strings.HasPrefix(hex, "000102"))
	assert.Equal(t, "ballots/"+hex, key.ObjectKey())
	assert.Equal(t, hex, key.String())

	parsed, err := ParseDerivedKey(hex)
	require.NoError(t, err)
	assert.Equal(t, key, parsed)
}

func TestParseDerivedKeyRejectsBadInput(t *testing.T) {
	_, err := ParseDerivedKey("abcd")
	assert.Error(t, err)

	_, err = ParseDerivedKey(strings.Repeat("zz", DerivedKeyLength))
	assert.Error(t, err)

	_, err = ParseDerivedKey(strings.Repeat("ab", DerivedKeyLength-1) + "a")
	assert.Error(t, err)
}

func TestStorageRecordDigest(t *testing.T) {
	var key DerivedKey
	payload := []byte(`{"candidate1":1}`)

	record := NewStorageRecord(key, payload)
	assert.Equal(t, BallotContentType, record.ContentType)
	assert.Equal(t, key.ObjectKey(), record.Key)
	assert.True(t, record.Verify())

	payload[2] = 'X'
	assert.True(t, record.Verify(), "record must not alias the caller's buffer")

	record.Body = []byte(`{"candidate1":2}`)
	assert.False(t, record.Verify())
}

func TestReasonForOutcome(t *testing.T) {
	assert.Equal(t, ReasonNone, ReasonForOutcome(Valid))
	assert.Equal(t, ReasonEmpty, ReasonForOutcome(Empty))
	assert.Equal(t, ReasonTooLarge, ReasonForOutcome(TooLarge))
	assert.Equal(t, ReasonMalformed, ReasonForOutcome(Malformed))
	assert.Equal(t, ReasonTooManyEntries, ReasonForOutcome(TooManyEntries))

	assert.True(t, ReasonDerivationBusy.Retryable())
	assert.True(t, ReasonStoreUnavailable.Retryable())
	assert.False(t, ReasonMalformed.Retryable())
	assert.False(t, ReasonMissingIdentity.Retryable())
}

func TestValidationOutcomeString(t *testing.T) {
	assert.Equal(t, "valid", Valid.String())
	assert.Equal(t, "too_many_entries", TooManyEntries.String())
	assert.Equal(t, string(ReasonTooLarge), TooLarge.String())
}
