package api

import (
	"context"
	"net/http"

	"github.com/okian/detbench/pkg/errkind"
)

// CoprimeDependencies produces sequence roots.
type CoprimeDependencies interface {
	Coprimes(ctx context.Context, n, count int) ([]int, error)
}

// CoprimeHandler handles coprime requests.
type CoprimeHandler struct {
	deps CoprimeDependencies
}

// NewCoprimeHandler creates a new coprime handler.
func NewCoprimeHandler(deps CoprimeDependencies) *CoprimeHandler {
	return &CoprimeHandler{deps: deps}
}

// HandleGetCoprimes handles GET /coprimes?n=N&count=C requests. count defaults to 1.
func (h *CoprimeHandler) HandleGetCoprimes(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_coprimes"
	if r.URL.Query().Get("n") == "" {
		writeError(w, http.StatusBadRequest, "bad_request", errkind.NewKind(op, errkind.ErrMalformed))
		return
	}
	n, err := intQuery(r, "n", 0)
	if err != nil {
		writeKindError(w, errkind.WrapKind(op, errkind.ErrMalformed, err))
		return
	}
	count, err := intQuery(r, "count", 1)
	if err != nil {
		writeKindError(w, errkind.WrapKind(op, errkind.ErrMalformed, err))
		return
	}
	roots, err := h.deps.Coprimes(r.Context(), n, count)
	if err != nil {
		writeKindError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, coprimeResponse{N: n, Roots: roots})
}
