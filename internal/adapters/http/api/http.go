// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/okian/detbench/internal/adapters/eventlog"
	"github.com/okian/detbench/internal/adapters/repository"
	service "github.com/okian/detbench/internal/app"
	"github.com/okian/detbench/internal/domain/cyclic"
	"github.com/okian/detbench/internal/domain/model"
	"github.com/okian/detbench/internal/domain/scenario"
	"github.com/okian/detbench/pkg/errkind"
)

const (
	defaultMaxListLimit = 100
	defaultListLimit    = 10
	defaultMaxBodyBytes = 8 << 20
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	EvaluationDependencies
	ValidationDependencies
	CoprimeDependencies
	JobDependencies
	StatsProvider
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler     *HealthHandler
	statsHandler      *StatsHandler
	evaluationHandler *EvaluationHandler
	validationHandler *ValidationHandler
	coprimeHandler    *CoprimeHandler
	jobsHandler       *JobsHandler
}

type serverOptions struct {
	maxListLimit int
	maxBodyBytes int64
}

// Option configures a Server.
type Option func(*serverOptions)

// WithMaxListLimit caps the limit accepted by GET /jobs.
func WithMaxListLimit(n int) Option {
	return func(o *serverOptions) {
		if n > 0 {
			o.maxListLimit = n
		}
	}
}

// WithMaxBodyBytes caps request bodies.
func WithMaxBodyBytes(n int64) Option {
	return func(o *serverOptions) {
		if n > 0 {
			o.maxBodyBytes = n
		}
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, opts ...Option) *Server {
	o := serverOptions{maxListLimit: defaultMaxListLimit, maxBodyBytes: defaultMaxBodyBytes}
	for _, opt := range opts {
		opt(&o)
	}
	return &Server{
		healthHandler:     NewHealthHandler(),
		statsHandler:      NewStatsHandler(deps),
		evaluationHandler: NewEvaluationHandler(deps, o.maxBodyBytes),
		validationHandler: NewValidationHandler(deps, o.maxBodyBytes),
		coprimeHandler:    NewCoprimeHandler(deps),
		jobsHandler:       NewJobsHandler(deps, o.maxListLimit, o.maxBodyBytes),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("POST /evaluations", MetricsMiddleware(s.evaluationHandler.HandlePostEvaluation, "evaluations"))
	mux.HandleFunc("POST /validations", MetricsMiddleware(s.validationHandler.HandlePostValidation, "validations"))
	mux.HandleFunc("GET /coprimes", MetricsMiddleware(s.coprimeHandler.HandleGetCoprimes, "coprimes"))
	mux.HandleFunc("POST /jobs", MetricsMiddleware(s.jobsHandler.HandlePostJob, "jobs"))
	mux.HandleFunc("GET /jobs", MetricsMiddleware(s.jobsHandler.HandleListJobs, "jobs"))
	mux.HandleFunc("GET /jobs/{id}", MetricsMiddleware(s.jobsHandler.HandleGetJob, "job"))
}

// sampleSource carries observed samples either as JSON or as an inline
// "offset,name" log.
type sampleSource struct {
	Samples []model.Sample `json:"samples"`
	Log     string         `json:"log"`
}

func (s sampleSource) load(ctx context.Context) ([]model.Sample, error) {
	if len(s.Samples) > 0 && s.Log != "" {
		return nil, ErrSamplesAndLog
	}
	if s.Log != "" {
		return eventlog.Read(ctx, strings.NewReader(s.Log))
	}
	if s.Samples == nil {
		return []model.Sample{}, nil
	}
	return s.Samples, nil
}

// targetFields mirror service.Target on the wire.
type targetFields struct {
	Pattern        model.PatternSpec `json:"pattern"`
	StartOffset    int               `json:"start_offset"`
	MaxOffset      int               `json:"max_offset"`
	SequenceLength int               `json:"sequence_length"`
	Tolerance      *int              `json:"tolerance"`
}

func (t targetFields) target() service.Target {
	return service.Target{
		Pattern:        t.Pattern,
		StartOffset:    t.StartOffset,
		MaxOffset:      t.MaxOffset,
		SequenceLength: t.SequenceLength,
		Tolerance:      t.Tolerance,
	}
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeKindError maps an error's kind onto an HTTP status.
func writeKindError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, errkind.ErrMalformed):
		writeError(w, http.StatusBadRequest, "bad_request", err)
	case errors.Is(err, errkind.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", err)
	case errors.Is(err, errkind.ErrBackpressure):
		writeError(w, http.StatusTooManyRequests, "backpressure", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err)
	}
}

// decodeBody reads a JSON body capped at limit bytes. Oversized and invalid
// bodies are reported as malformed.
func decodeBody(w http.ResponseWriter, r *http.Request, limit int64, op string, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return errkind.WrapKind(op, errkind.ErrMalformed, fmt.Errorf("body exceeds %d bytes", tooLarge.Limit))
		}
		return errkind.WrapKind(op, errkind.ErrMalformed, fmt.Errorf("%w: %w", ErrBadRequest, err))
	}
	return nil
}

// intQuery parses an optional integer query parameter.
func intQuery(r *http.Request, key string, def int) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s", ErrInvalidQueryNo, key)
	}
	return n, nil
}

// Response shapes.

type evaluationResponse struct {
	ID             string                `json:"id"`
	Scenario       *scenario.Scenario    `json:"scenario,omitempty"`
	Tolerance      int                   `json:"tolerance"`
	Report         model.Report          `json:"report"`
	FalsePositives []model.FalsePositive `json:"false_positives"`
	FalseNegatives []model.ExpectedEvent `json:"false_negatives"`
	CorrectMatches []model.Match         `json:"correct_matches"`
}

type coprimeResponse struct {
	N     int   `json:"n"`
	Roots []int `json:"roots"`
}

type jobAccepted struct {
	ID     string            `json:"id"`
	Status repository.Status `json:"status"`
}

type validationResponse = cyclic.Result
