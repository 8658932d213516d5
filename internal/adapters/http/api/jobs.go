package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/okian/detbench/internal/adapters/repository"
	service "github.com/okian/detbench/internal/app"
	"github.com/okian/detbench/pkg/errkind"
)

// JobDependencies defines the batch job operations.
type JobDependencies interface {
	Submit(ctx context.Context, path string, t service.Target) (string, error)
	Job(ctx context.Context, id string) (repository.Record, error)
	Jobs(ctx context.Context, limit int) ([]repository.Record, error)
}

// jobRequest mirrors the OpenAPI schema for POST /jobs.
type jobRequest struct {
	Path string `json:"path"`
	targetFields
}

// JobsHandler handles batch job requests.
type JobsHandler struct {
	deps         JobDependencies
	maxLimit     int
	maxBodyBytes int64
}

// NewJobsHandler creates a new jobs handler.
func NewJobsHandler(deps JobDependencies, maxLimit int, maxBodyBytes int64) *JobsHandler {
	return &JobsHandler{
		deps:         deps,
		maxLimit:     maxLimit,
		maxBodyBytes: maxBodyBytes,
	}
}

// HandlePostJob handles POST /jobs requests. Accepted jobs answer 202 with
// the job id; a full queue answers 429.
func (h *JobsHandler) HandlePostJob(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_job"
	var req jobRequest
	if err := decodeBody(w, r, h.maxBodyBytes, op, &req); err != nil {
		writeKindError(w, err)
		return
	}
	id, err := h.deps.Submit(r.Context(), strings.TrimSpace(req.Path), req.target())
	if err != nil {
		writeKindError(w, err)
		return
	}
	w.Header().Set("Location", "/jobs/"+id)
	writeJSON(w, http.StatusAccepted, jobAccepted{ID: id, Status: repository.StatusPending})
}

// HandleGetJob handles GET /jobs/{id} requests.
func (h *JobsHandler) HandleGetJob(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_job"
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "bad_request", errkind.WrapKind(op, errkind.ErrMalformed, ErrMissingJobID))
		return
	}
	rec, err := h.deps.Job(r.Context(), id)
	if err != nil {
		writeKindError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// HandleListJobs handles GET /jobs?limit=N requests.
func (h *JobsHandler) HandleListJobs(w http.ResponseWriter, r *http.Request) {
	const op = "api.list_jobs"
	n, err := intQuery(r, "limit", min(defaultListLimit, h.maxLimit))
	if err != nil || n < 1 {
		writeError(w, http.StatusBadRequest, "bad_request", errkind.NewKind(op, errkind.ErrMalformed))
		return
	}
	if n > h.maxLimit {
		writeError(w, http.StatusBadRequest, "limit_exceeded",
			errkind.WrapKind(op, errkind.ErrMalformed, fmt.Errorf("%w: %d > %d", ErrLimitExceeded, n, h.maxLimit)))
		return
	}
	recs, err := h.deps.Jobs(r.Context(), n)
	if err != nil {
		writeKindError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, recs)
}
