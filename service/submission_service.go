package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"ballot-backend/models"
	"ballot-backend/storage"
)

const tracerName = "ballot-backend/service"

// ErrMissingIdentity is wrapped by the SubmissionError of a request that
// carried no identity claim.
var ErrMissingIdentity = errors.New("identity claim missing")

// SubmissionError reports why a submission was aborted.
type SubmissionError struct {
	Reason models.AbortReason
	Err    error
}

func (e *SubmissionError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("submission aborted: %s", e.Reason)
	}
	return fmt.Sprintf("submission aborted: %s: %v", e.Reason, e.Err)
}

func (e *SubmissionError) Unwrap() error {
	return e.Err
}

// Retryable reports whether resending the same request may succeed.
func (e *SubmissionError) Retryable() bool {
	return e.Reason.Retryable()
}

// SubmissionService runs one ballot submission through identity check,
// validation, key derivation and the store write. It keeps no per-request
// state; the only shared secret lives inside the deriver behind the pool.
type SubmissionService struct {
	store            storage.BallotStore
	pool             *DerivationPool
	metricsCollector *MetricsCollector
	logger           log.Logger
	tracer           trace.Tracer
}

// NewSubmissionService wires the orchestrator. The pool must be started by
// the caller.
func NewSubmissionService(store storage.BallotStore, pool *DerivationPool, logger log.Logger) (*SubmissionService, error) {
	if store == nil {
		return nil, errors.New("submission service requires a ballot store")
	}
	if pool == nil {
		return nil, errors.New("submission service requires a derivation pool")
	}
	if logger == nil {
		logger = log.Root()
	}
	return &SubmissionService{
		store:            store,
		pool:             pool,
		metricsCollector: NewMetricsCollector(),
		logger:           logger.New("module", "submission"),
		tracer:           otel.Tracer(tracerName),
	}, nil
}

// Metrics returns the collector fed by every submission.
func (s *SubmissionService) Metrics() *MetricsCollector {
	return s.metricsCollector
}

// Submit stores raw as the ballot of identity, replacing any earlier ballot
// of the same identity. On abort the returned receipt is in StateAborted and
// the error is a *SubmissionError; nothing was written unless the reason is
// ReasonStoreUnavailable, in which case the write outcome is unknown.
func (s *SubmissionService) Submit(ctx context.Context, identity string, raw []byte) (*models.Receipt, error) {
	receipt := &models.Receipt{
		RequestID: uuid.NewString(),
		State:     models.StateStart,
	}
	ctx, span := s.tracer.Start(ctx, "ballot.submit", trace.WithAttributes(
		attribute.String("ballot.request_id", receipt.RequestID),
		attribute.Int("ballot.size", len(raw)),
	))
	defer span.End()

	s.metricsCollector.RecordSubmissionStart()
	logger := s.logger.New("request", receipt.RequestID)

	if strings.TrimSpace(identity) == "" {
		logger.Info("Ballot rejected", "reason", models.ReasonMissingIdentity)
		return s.abort(span, receipt, models.ReasonMissingIdentity, ErrMissingIdentity)
	}
	receipt.State = models.StateIdentityChecked

	if outcome := ValidateBallot(raw); outcome != models.Valid {
		reason := models.ReasonForOutcome(outcome)
		logger.Info("Ballot rejected", "identity", identity, "reason", reason, "size", len(raw))
		return s.abort(span, receipt, reason, nil)
	}
	receipt.State = models.StateValidated

	key, err := s.deriveKey(ctx, identity)
	if err != nil {
		logger.Warn("Key derivation unavailable", "err", err, "pending", s.pool.Pending())
		return s.abort(span, receipt, models.ReasonDerivationBusy, err)
	}
	receipt.State = models.StateKeyDerived

	if err := s.put(ctx, key, raw); err != nil {
		logger.Error("Ballot store write failed", "err", err)
		return s.abort(span, receipt, models.ReasonStoreUnavailable, err)
	}
	receipt.State = models.StateWritten
	receipt.Digest = models.BodyDigest(raw)

	receipt.State = models.StateResponded
	s.metricsCollector.RecordAccepted()
	span.SetStatus(codes.Ok, "")
	logger.Debug("Ballot stored", "digest", receipt.Digest)
	return receipt, nil
}

func (s *SubmissionService) deriveKey(ctx context.Context, identity string) (models.DerivedKey, error) {
	ctx, span := s.tracer.Start(ctx, "ballot.derive_key")
	defer span.End()

	start := time.Now()
	key, err := s.pool.Derive(ctx, identity)
	s.metricsCollector.RecordDerivation(time.Since(start))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return models.DerivedKey{}, err
	}
	return key, nil
}

func (s *SubmissionService) put(ctx context.Context, key models.DerivedKey, raw []byte) error {
	ctx, span := s.tracer.Start(ctx, "ballot.put", trace.WithAttributes(
		attribute.String("ballot.content_type", models.BallotContentType),
	))
	defer span.End()

	start := time.Now()
	err := s.store.Put(ctx, key, raw)
	s.metricsCollector.RecordStoreWrite(time.Since(start))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "store unavailable")
		return err
	}
	return nil
}

func (s *SubmissionService) abort(span trace.Span, receipt *models.Receipt, reason models.AbortReason, err error) (*models.Receipt, error) {
	receipt.State = models.StateAborted
	receipt.Reason = reason
	s.metricsCollector.RecordAborted(reason)
	span.SetAttributes(attribute.String("ballot.abort_reason", string(reason)))
	span.SetStatus(codes.Error, string(reason))
	return receipt, &SubmissionError{Reason: reason, Err: err}
}
