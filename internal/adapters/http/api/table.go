package api

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/okian/raffle/internal/domain/ranking"
	"github.com/okian/raffle/internal/domain/types"
	"github.com/okian/raffle/pkg/errs"
)

// TableDependencies defines the engine calls behind GET /table.
type TableDependencies interface {
	DisplayTable(ctx context.Context, target int64) ([]ranking.Ranked, error)
	DefaultTarget() int64
}

// TableHandler handles display table requests.
type TableHandler struct {
	deps TableDependencies
}

// NewTableHandler creates a new table handler.
func NewTableHandler(deps TableDependencies) *TableHandler {
	return &TableHandler{deps: deps}
}

type tableResponse struct {
	Target int64       `json:"target"`
	Rows   []types.Row `json:"rows"`
}

// HandleGetTable handles GET /table?target=N requests.
func (h *TableHandler) HandleGetTable(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_table"
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}

	target := h.deps.DefaultTarget()
	if raw := strings.TrimSpace(r.URL.Query().Get("target")); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "bad_target", errs.WrapKind(op, ErrBadRequest, err))
			return
		}
		target = n
	}

	ranked, err := h.deps.DisplayTable(r.Context(), target)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tableResponse{Target: target, Rows: toRows(ranked)})
}

func toRows(ranked []ranking.Ranked) []types.Row {
	rows := make([]types.Row, len(ranked))
	for i, rk := range ranked {
		rows[i] = types.Row{Position: rk.Position, Distance: rk.Distance, Entry: rk.Entry}
	}
	return rows
}
