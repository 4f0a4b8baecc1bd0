package encryption

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidatePepperMissing(t *testing.T) {
	for _, raw := range [][]byte{nil, {}} {
		err := ValidatePepper(raw)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrPepperMissing))
	}
}

func TestValidatePepperWrongType(t *testing.T) {
	raw := append(bytes.Repeat([]byte{'a'}, 40), 0xff, 0xfe)
	err := ValidatePepper(raw)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrPepperWrongType))
}

func TestValidatePepperLengthBoundary(t *testing.T) {
	err := ValidatePepper([]byte(strings.Repeat("p", 31)))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrPepperTooShort))
	assert.Contains(t, err.Error(), "got 31")

	assert.NoError(t, ValidatePepper([]byte(strings.Repeat("p", 32))))
}

func TestNewPepperCopiesInput(t *testing.T) {
	raw := []byte(strings.Repeat("s", 32))
	pepper, err := NewPepper(raw)
	require.NoError(t, err)

	raw[0] = 'x'
	assert.Equal(t, byte('s'), pepper.bytes()[0])
	assert.Equal(t, 32, pepper.Len())
}

func TestPepperNeverPrintsSecret(t *testing.T) {
	secret := strings.Repeat("hunter2-", 5)
	pepper, err := NewPepper([]byte(secret))
	require.NoError(t, err)

	for _, format := range []string{"%v", "%+v", "%s", "%#v"} {
		out := fmt.Sprintf(format, pepper)
		assert.NotContains(t, out, "hunter2", "format %s", format)
	}
}

func TestGeneratePepper(t *testing.T) {
	value, err := GeneratePepper(bytes.NewReader(bytes.Repeat([]byte{0xab}, 32)), 32)
	require.NoError(t, err)
	assert.Equal(t, strings.Repeat("ab", 32), value)
	assert.NoError(t, ValidatePepper([]byte(value)))

	_, err = GeneratePepper(nil, 8)
	assert.Error(t, err)

	_, err = GeneratePepper(bytes.NewReader(nil), 32)
	assert.Error(t, err)
}
