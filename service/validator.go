package service

import (
	"unicode/utf8"

	"github.com/tidwall/gjson"

	"ballot-backend/models"
)

// ValidateBallot checks the structure of a raw ballot. Rules are applied in
// order and the first failing one decides the outcome, so an oversized
// payload is TooLarge even when it is also not JSON.
func ValidateBallot(raw []byte) models.ValidationOutcome {
	if len(raw) == 0 {
		return models.Empty
	}
	if len(raw) >= models.MaxBallotBytes {
		return models.TooLarge
	}
	if !utf8.Valid(raw) || !gjson.ValidBytes(raw) {
		return models.Malformed
	}

	doc := gjson.ParseBytes(raw)
	if !doc.IsObject() {
		return models.Malformed
	}

	// Duplicate keys count once.
	keys := make(map[string]struct{})
	tooMany := false
	doc.ForEach(func(key, _ gjson.Result) bool {
		keys[key.String()] = struct{}{}
		if len(keys) >= models.MaxBallotEntries {
			tooMany = true
			return false
		}
		return true
	})
	if tooMany {
		return models.TooManyEntries
	}
	return models.Valid
}
