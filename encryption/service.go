package encryption

import (
	"errors"

	"ballot-backend/models"
)

// CryptoService derives storage keys under the process pepper. It holds the
// pepper so the rest of the service never touches the secret directly.
type CryptoService struct {
	pepper Pepper
}

// NewCryptoService wraps pepper, which must come from NewPepper.
func NewCryptoService(pepper Pepper) (*CryptoService, error) {
	if pepper.Len() == 0 {
		return nil, errors.New("crypto service requires a validated pepper")
	}
	return &CryptoService{pepper: pepper}, nil
}

// DeriveKey computes the storage key for identity. It is CPU and memory
// heavy; schedule it through a DerivationPool on request paths.
func (cs *CryptoService) DeriveKey(identity string) models.DerivedKey {
	return DeriveKey(identity, cs.pepper)
}

