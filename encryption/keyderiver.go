package encryption

import (
	"fmt"
	"runtime"

	"golang.org/x/crypto/scrypt"

	"ballot-backend/models"
)

// Do not change the scrypt parameters. Every stored ballot lives at a key
// derived with them; new values would orphan existing ballots and give every
// identity a second, empty slot to vote in.
//
// N=2^16, r=8 needs 128*N*r = 64 MiB of memory per derivation.
const (
	ScryptN = 1 << 16
	ScryptR = 8
	ScryptP = 2
)

// ScryptMemoryBytes is the working memory one derivation allocates.
const ScryptMemoryBytes = 128 * ScryptN * ScryptR

// DeriveKey maps identity to its storage key under pepper. The identity is
// the scrypt password and the pepper the salt.
func DeriveKey(identity string, pepper Pepper) models.DerivedKey {
	var key models.DerivedKey
	out, err := scrypt.Key([]byte(identity), pepper.bytes(), ScryptN, ScryptR, ScryptP, models.DerivedKeyLength)
	if err != nil {
		// Only reachable with invalid cost constants.
		panic(fmt.Sprintf("scrypt parameters rejected: %v", err))
	}
	copy(key[:], out)
	Wipe(out)
	return key
}

// Wipe overwrites b with zeros. Use it on buffers that held secret or
// derived material once they are no longer needed.
func Wipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
	runtime.KeepAlive(b)
}
