package api

import (
	"context"
	"net/http"

	service "github.com/okian/detbench/internal/app"
	"github.com/okian/detbench/internal/domain/model"
	"github.com/okian/detbench/pkg/errkind"
)

// EvaluationDependencies scores observed samples against a target.
type EvaluationDependencies interface {
	Evaluate(ctx context.Context, t service.Target, samples []model.Sample) (service.Evaluation, error)
}

// evaluationRequest mirrors the OpenAPI schema for POST /evaluations.
type evaluationRequest struct {
	targetFields
	sampleSource
}

// EvaluationHandler handles evaluation requests.
type EvaluationHandler struct {
	deps         EvaluationDependencies
	maxBodyBytes int64
}

// NewEvaluationHandler creates a new evaluation handler.
func NewEvaluationHandler(deps EvaluationDependencies, maxBodyBytes int64) *EvaluationHandler {
	return &EvaluationHandler{deps: deps, maxBodyBytes: maxBodyBytes}
}

// HandlePostEvaluation handles POST /evaluations requests.
func (h *EvaluationHandler) HandlePostEvaluation(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_evaluation"
	var req evaluationRequest
	if err := decodeBody(w, r, h.maxBodyBytes, op, &req); err != nil {
		writeKindError(w, err)
		return
	}
	samples, err := req.load(r.Context())
	if err != nil {
		writeKindError(w, errkind.WrapKind(op, errkind.ErrMalformed, err))
		return
	}

	ev, err := h.deps.Evaluate(r.Context(), req.target(), samples)
	if err != nil {
		writeKindError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, evaluationResponse{
		ID:             ev.ID,
		Scenario:       ev.Scenario,
		Tolerance:      ev.Tolerance,
		Report:         ev.Report,
		FalsePositives: ev.Result.FalsePositives,
		FalseNegatives: ev.Result.FalseNegatives,
		CorrectMatches: ev.Result.Matches(),
	})
}
