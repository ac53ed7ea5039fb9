package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/okian/raffle/internal/domain/model"
	"github.com/okian/raffle/pkg/errs"
)

// IdempotencyKeyHeader carries an optional client key for POST /registrations.
const IdempotencyKeyHeader = "Idempotency-Key"

// RegistrationDependencies defines the engine calls behind /registrations.
type RegistrationDependencies interface {
	SubmitRegistrationOnce(ctx context.Context, key, firstName, surname, email, numberText string) (model.Entry, bool, error)
	Entries(ctx context.Context) ([]model.Entry, error)
}

// RegistrationsHandler handles registration requests.
type RegistrationsHandler struct {
	deps RegistrationDependencies
}

// NewRegistrationsHandler creates a new registrations handler.
func NewRegistrationsHandler(deps RegistrationDependencies) *RegistrationsHandler {
	return &RegistrationsHandler{deps: deps}
}

// registrationRequest mirrors the OpenAPI schema for POST /registrations.
// Number is the raw form text; a bare JSON number is accepted too.
type registrationRequest struct {
	FirstName string     `json:"first_name"`
	Surname   string     `json:"surname"`
	Email     string     `json:"email"`
	Number    numberText `json:"number"`
}

// numberText keeps the literal text of a JSON string or number so that the
// engine, not the decoder, decides whether it is a valid whole number.
type numberText string

func (n *numberText) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case bytes.Equal(b, []byte("null")):
		*n = ""
	case len(b) > 0 && b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*n = numberText(s)
	case len(b) > 0 && (b[0] == '-' || (b[0] >= '0' && b[0] <= '9')):
		*n = numberText(b)
	default:
		return fmt.Errorf("number must be a string or a number")
	}
	return nil
}

// HandleRegistrations dispatches POST and GET /registrations.
func (h *RegistrationsHandler) HandleRegistrations(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.handlePost(w, r)
	case http.MethodGet:
		h.handleList(w, r)
	default:
		methodNotAllowed(w, "GET, POST")
	}
}

func (h *RegistrationsHandler) handlePost(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_registration"

	var req registrationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", errs.WrapKind(op, ErrBadRequest, err))
		return
	}

	key := r.Header.Get(IdempotencyKeyHeader)
	entry, replayed, err := h.deps.SubmitRegistrationOnce(r.Context(), key,
		req.FirstName, req.Surname, req.Email, string(req.Number))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if replayed {
		w.Header().Set("Idempotent-Replayed", "true")
		writeJSON(w, http.StatusOK, entry)
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}

func (h *RegistrationsHandler) handleList(w http.ResponseWriter, r *http.Request) {
	entries, err := h.deps.Entries(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if entries == nil {
		entries = []model.Entry{}
	}
	writeJSON(w, http.StatusOK, entries)
}
