// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	RegistrationDependencies
	TableDependencies
	WinnerDependencies
	ExportDependencies
}

// Server wires HTTP routes for the engine API.
type Server struct {
	healthHandler        *HealthHandler
	statsHandler         *StatsHandler
	registrationsHandler *RegistrationsHandler
	tableHandler         *TableHandler
	winnersHandler       *WinnersHandler
	exportsHandler       *ExportsHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler:        NewHealthHandler(),
		statsHandler:         NewStatsHandler(statsProvider),
		registrationsHandler: NewRegistrationsHandler(deps),
		tableHandler:         NewTableHandler(deps),
		winnersHandler:       NewWinnersHandler(deps),
		exportsHandler:       NewExportsHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/registrations", MetricsMiddleware(s.registrationsHandler.HandleRegistrations, "registrations"))
	mux.HandleFunc("/table", MetricsMiddleware(s.tableHandler.HandleGetTable, "table"))
	mux.HandleFunc("/winners", MetricsMiddleware(s.winnersHandler.HandlePostWinners, "winners"))
	mux.HandleFunc("/exports", MetricsMiddleware(s.exportsHandler.HandlePostExport, "exports"))
	mux.HandleFunc("/exports/jobs", MetricsMiddleware(s.exportsHandler.HandlePostExportJob, "export_jobs"))
	mux.HandleFunc("/exports/jobs/", MetricsMiddleware(s.exportsHandler.HandleGetExportJob, "export_job"))
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
	tagErrorCode(w, code)
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

func methodNotAllowed(w http.ResponseWriter, allow string) {
	w.Header().Set("Allow", allow)
	writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", ErrMethodNotAllowed)
}
