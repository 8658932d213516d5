package api

import (
	"context"
	"net/http"

	"github.com/okian/detbench/internal/domain/cyclic"
	"github.com/okian/detbench/internal/domain/model"
	"github.com/okian/detbench/pkg/errkind"
)

// ValidationDependencies runs the cyclic validator.
type ValidationDependencies interface {
	Validate(ctx context.Context, sequence []string, samples []model.Sample) (cyclic.Result, error)
}

type validationRequest struct {
	Sequence []string `json:"sequence"`
	sampleSource
}

// ValidationHandler handles validation requests.
type ValidationHandler struct {
	deps         ValidationDependencies
	maxBodyBytes int64
}

// NewValidationHandler creates a new validation handler.
func NewValidationHandler(deps ValidationDependencies, maxBodyBytes int64) *ValidationHandler {
	return &ValidationHandler{deps: deps, maxBodyBytes: maxBodyBytes}
}

// HandlePostValidation handles POST /validations requests. Without a
// sequence the service's configured labels are used.
func (h *ValidationHandler) HandlePostValidation(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_validation"
	var req validationRequest
	if err := decodeBody(w, r, h.maxBodyBytes, op, &req); err != nil {
		writeKindError(w, err)
		return
	}
	samples, err := req.load(r.Context())
	if err != nil {
		writeKindError(w, errkind.WrapKind(op, errkind.ErrMalformed, err))
		return
	}
	res, err := h.deps.Validate(r.Context(), req.Sequence, samples)
	if err != nil {
		writeKindError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, validationResponse(res))
}
