package models

import (
	"errors"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

const (
	// DerivedKeyLength is the scrypt output length in bytes.
	DerivedKeyLength = 64

	// BallotKeyPrefix namespaces every ballot object in the store.
	BallotKeyPrefix = "ballots"

	// BallotContentType is attached to every stored ballot object.
	BallotContentType = "application/json;charset=utf-8"
)

// DerivedKey is the pseudonymous storage handle computed from an identity
// and the pepper.
type DerivedKey [DerivedKeyLength]byte

// Hex returns the full, untruncated lowercase hex encoding of the key.
func (k DerivedKey) Hex() string {
	return common.Bytes2Hex(k[:])
}

// ObjectKey returns the namespaced object-store key for k.
func (k DerivedKey) ObjectKey() string {
	return BallotKeyPrefix + "/" + k.Hex()
}

func (k DerivedKey) String() string {
	return k.Hex()
}

// ParseDerivedKey decodes a hex key as produced by DerivedKey.Hex.
func ParseDerivedKey(s string) (DerivedKey, error) {
	var key DerivedKey
	if len(s) != DerivedKeyLength*2 {
		return key, errors.New("derived key must be 128 hex characters")
	}
	raw := common.Hex2Bytes(s)
	if len(raw) != DerivedKeyLength {
		return key, errors.New("derived key is not valid hex")
	}
	copy(key[:], raw)
	return key, nil
}

// StorageRecord is one stored ballot object.
type StorageRecord struct {
	Key         string      `json:"key"`
	Body        []byte      `json:"body"`
	ContentType string      `json:"content_type"`
	Digest      common.Hash `json:"digest"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// NewStorageRecord builds the record stored for key. The body is copied so
// later mutation of payload by the caller cannot alter the record.
func NewStorageRecord(key DerivedKey, payload []byte) StorageRecord {
	body := make([]byte, len(payload))
	copy(body, payload)
	return StorageRecord{
		Key:         key.ObjectKey(),
		Body:        body,
		ContentType: BallotContentType,
		Digest:      BodyDigest(body),
		UpdatedAt:   time.Now().UTC(),
	}
}

// BodyDigest is the Keccak-256 hash of a ballot body.
func BodyDigest(body []byte) common.Hash {
	return crypto.Keccak256Hash(body)
}

// Verify reports whether the record body still matches its digest.
func (r StorageRecord) Verify() bool {
	return BodyDigest(r.Body) == r.Digest
}
