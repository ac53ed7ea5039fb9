package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/okian/raffle/pkg/errs"
)

// WinnerDependencies defines the engine calls behind POST /winners.
type WinnerDependencies interface {
	RunWinnerSelection(ctx context.Context, target int64) (int, error)
	DefaultTarget() int64
}

// WinnersHandler handles winner selection requests.
type WinnersHandler struct {
	deps WinnerDependencies
}

// NewWinnersHandler creates a new winners handler.
func NewWinnersHandler(deps WinnerDependencies) *WinnersHandler {
	return &WinnersHandler{deps: deps}
}

type winnersRequest struct {
	Target *int64 `json:"target"`
}

type winnersResponse struct {
	Target  int64 `json:"target"`
	Winners int   `json:"winners"`
}

// HandlePostWinners handles POST /winners. An empty body or a missing
// target uses the default target.
func (h *WinnersHandler) HandlePostWinners(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_winners"
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}

	var req winnersRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "bad_target", errs.WrapKind(op, ErrBadRequest, err))
		return
	}
	target := h.deps.DefaultTarget()
	if req.Target != nil {
		target = *req.Target
	}

	n, err := h.deps.RunWinnerSelection(r.Context(), target)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, winnersResponse{Target: target, Winners: n})
}
