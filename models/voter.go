package models

import "github.com/ethereum/go-ethereum/common"

// SubmissionState is a step of the submission pipeline.
type SubmissionState string

const (
	StateStart           SubmissionState = "start"
	StateIdentityChecked SubmissionState = "identity_checked"
	StateValidated       SubmissionState = "validated"
	StateKeyDerived      SubmissionState = "key_derived"
	StateWritten         SubmissionState = "written"
	StateResponded       SubmissionState = "responded"
	StateAborted         SubmissionState = "aborted"
)

// AbortReason says why a submission ended in StateAborted.
type AbortReason string

const (
	ReasonNone             AbortReason = ""
	ReasonMissingIdentity  AbortReason = "missing_identity"
	ReasonEmpty            AbortReason = "empty"
	ReasonTooLarge         AbortReason = "too_large"
	ReasonMalformed        AbortReason = "malformed"
	ReasonTooManyEntries   AbortReason = "too_many_entries"
	ReasonDerivationBusy   AbortReason = "derivation_busy"
	ReasonStoreUnavailable AbortReason = "store_unavailable"
)

// ReasonForOutcome maps a failed validation outcome to its abort reason.
func ReasonForOutcome(o ValidationOutcome) AbortReason {
	switch o {
	case Empty:
		return ReasonEmpty
	case TooLarge:
		return ReasonTooLarge
	case Malformed:
		return ReasonMalformed
	case TooManyEntries:
		return ReasonTooManyEntries
	default:
		return ReasonNone
	}
}

// Retryable reports whether the same request may succeed if resent later.
func (r AbortReason) Retryable() bool {
	return r == ReasonDerivationBusy || r == ReasonStoreUnavailable
}

// Receipt describes how one submission ended.
type Receipt struct {
	RequestID string          `json:"request_id"`
	State     SubmissionState `json:"state"`
	Reason    AbortReason     `json:"reason,omitempty"`
	Digest    common.Hash     `json:"digest"`
}
