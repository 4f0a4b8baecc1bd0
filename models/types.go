// File: models/types.go
package models

// Validation limits. Both bounds are exclusive: a ballot of MaxBallotBytes
// bytes or with MaxBallotEntries keys is rejected. They are part of the
// stored-data contract and are not runtime tunable.
const (
	MaxBallotBytes   = 1024
	MaxBallotEntries = 50
)

// ValidationOutcome is the result of structural ballot validation.
type ValidationOutcome int

const (
	Valid ValidationOutcome = iota
	Empty
	TooLarge
	Malformed
	TooManyEntries
)

func (o ValidationOutcome) String() string {
	switch o {
	case Valid:
		return "valid"
	case Empty:
		return "empty"
	case TooLarge:
		return "too_large"
	case Malformed:
		return "malformed"
	case TooManyEntries:
		return "too_many_entries"
	default:
		return "unknown"
	}
}
