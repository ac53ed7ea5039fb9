package api

import (
	"context"
	"net/http"
	"strings"

	service "github.com/okian/raffle/internal/app"
	"github.com/okian/raffle/pkg/errs"
)

// ExportDependencies defines the engine calls behind /exports.
type ExportDependencies interface {
	ExportCurrentData(ctx context.Context) (service.ExportResult, error)
	EnqueueExport(ctx context.Context) (service.JobStatus, error)
	ExportJob(ctx context.Context, id string) (service.JobStatus, error)
}

// ExportsHandler handles export requests.
type ExportsHandler struct {
	deps ExportDependencies
}

// NewExportsHandler creates a new exports handler.
func NewExportsHandler(deps ExportDependencies) *ExportsHandler {
	return &ExportsHandler{deps: deps}
}

// HandlePostExport handles POST /exports: a synchronous export.
func (h *ExportsHandler) HandlePostExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}
	res, err := h.deps.ExportCurrentData(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

// HandlePostExportJob handles POST /exports/jobs: a background export.
func (h *ExportsHandler) HandlePostExportJob(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}
	status, err := h.deps.EnqueueExport(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	w.Header().Set("Location", "/exports/jobs/"+status.ID)
	writeJSON(w, http.StatusAccepted, status)
}

// HandleGetExportJob handles GET /exports/jobs/{id}.
func (h *ExportsHandler) HandleGetExportJob(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_export_job"
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/exports/jobs/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, http.StatusBadRequest, "bad_request", errs.NewKind(op, ErrBadRequest))
		return
	}
	status, err := h.deps.ExportJob(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}
