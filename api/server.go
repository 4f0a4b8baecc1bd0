// File: api/server.go
package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/log"

	"ballot-backend/models"
	"ballot-backend/service"
)

// RequestIDHeader carries the submission request id on every response.
const RequestIDHeader = "X-Request-Id"

type ErrorResponse struct {
	Error string `json:"error"`
}

type Server struct {
	submissions *service.SubmissionService
	identity    IdentitySource
	logger      log.Logger
	httpServer  *http.Server
}

func NewServer(addr string, submissions *service.SubmissionService, identity IdentitySource, logger log.Logger) *Server {
	if logger == nil {
		logger = log.Root()
	}
	s := &Server{
		submissions: submissions,
		identity:    identity,
		logger:      logger.New("module", "api"),
	}
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the routes of the ballot API.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ballot", s.handleSubmitBallot)
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/metrics", s.handleGetMetrics)
	return mux
}

// Start serves until Shutdown is called.
func (s *Server) Start() error {
	s.logger.Info("Starting server", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests and waits for active ones to finish.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleSubmitBallot(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut && r.Method != http.MethodPost {
		w.Header().Set("Allow", "PUT, POST")
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	// Anything at or past the limit is rejected, so reading one byte more
	// than a valid ballot can hold is enough to classify it.
	raw, err := io.ReadAll(io.LimitReader(r.Body, models.MaxBallotBytes))
	if err != nil {
		s.logger.Warn("Failed to read request body", "err", err)
		writeError(w, http.StatusBadRequest, string(models.ReasonMalformed))
		return
	}

	receipt, err := s.submissions.Submit(r.Context(), s.identity.Identity(r), raw)
	if receipt != nil {
		w.Header().Set(RequestIDHeader, receipt.RequestID)
	}
	if err != nil {
		var subErr *service.SubmissionError
		if !errors.As(err, &subErr) {
			s.logger.Error("Unexpected submission failure", "err", err)
			writeError(w, http.StatusInternalServerError, "internal")
			return
		}
		if subErr.Reason == models.ReasonDerivationBusy {
			w.Header().Set("Retry-After", "1")
		}
		writeError(w, StatusForReason(subErr.Reason), string(subErr.Reason))
		return
	}

	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	io.WriteString(w, "ok")
}

func (s *Server) handleGetMetrics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(s.submissions.Metrics().GetMetrics())
}

// StatusForReason maps an abort reason to the HTTP status returned to the
// client.
func StatusForReason(reason models.AbortReason) int {
	switch reason {
	case models.ReasonMissingIdentity:
		return http.StatusUnauthorized
	case models.ReasonEmpty, models.ReasonMalformed:
		return http.StatusBadRequest
	case models.ReasonTooLarge:
		return http.StatusRequestEntityTooLarge
	case models.ReasonTooManyEntries:
		return http.StatusUnprocessableEntity
	case models.ReasonDerivationBusy, models.ReasonStoreUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, status int, reason string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{Error: reason})
}
