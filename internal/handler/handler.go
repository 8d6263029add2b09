package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/hiimjupter/ris-api/internal/access"
	"github.com/hiimjupter/ris-api/internal/middleware"
	"github.com/hiimjupter/ris-api/internal/service"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("ERROR: failed to encode JSON response: %v", err)
	}
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// writeError maps a service or gate error to its HTTP status. Messages of
// 4xx errors are returned as-is; anything else is logged and hidden.
func writeError(w http.ResponseWriter, err error) {
	status, code := classify(err)
	switch {
	case status == http.StatusServiceUnavailable:
		log.Printf("ERROR: %v", err)
		w.Header().Set("Retry-After", "1")
		writeJSON(w, status, errorResponse{Error: service.ErrStorageUnavailable.Error(), Code: code})
	case status >= 500:
		log.Printf("ERROR: %v", err)
		writeJSON(w, status, errorResponse{Error: "internal server error", Code: code})
	default:
		writeJSON(w, status, errorResponse{Error: err.Error(), Code: code})
	}
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrStorageUnavailable):
		return http.StatusServiceUnavailable, "storage_unavailable"
	case errors.Is(err, access.ErrInactiveAccount):
		return http.StatusForbidden, "inactive_account"
	case errors.Is(err, access.ErrUnauthorized):
		return http.StatusForbidden, "unauthorized"
	case errors.Is(err, service.ErrInvalidInput):
		return http.StatusBadRequest, "invalid_input"
	case errors.Is(err, service.ErrNoDishes):
		return http.StatusNotFound, "no_dishes"
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, service.ErrInvalidTransition):
		return http.StatusConflict, "invalid_transition"
	case errors.Is(err, service.ErrActiveOrderExists):
		return http.StatusConflict, "active_order_exists"
	case errors.Is(err, service.ErrNoActiveOrder):
		return http.StatusConflict, "no_active_order"
	case errors.Is(err, service.ErrDuplicateName):
		return http.StatusConflict, "duplicate_name"
	}
	return http.StatusInternalServerError, "internal"
}

// principal returns the caller loaded by middleware.LoadPrincipal, writing a
// 401 when the route was mounted without it.
func principal(w http.ResponseWriter, r *http.Request) (access.Principal, bool) {
	p, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "not authenticated", Code: "unauthenticated"})
		return access.Principal{}, false
	}
	return p, true
}

func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body", Code: "invalid_input"})
		return false
	}
	return true
}

// intParam parses a small-integer id (tables, menu sections) from the URL.
func intParam(w http.ResponseWriter, r *http.Request, name string) (int32, bool) {
	v, err := strconv.ParseInt(chi.URLParam(r, name), 10, 32)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: fmt.Sprintf("invalid %s", name), Code: "invalid_input"})
		return 0, false
	}
	return int32(v), true
}

func uuidParam(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: fmt.Sprintf("invalid %s", name), Code: "invalid_input"})
		return uuid.Nil, false
	}
	return id, true
}

// --- Helpers ---

func numericToString(n pgtype.Numeric) string {
	if !n.Valid {
		return "0.00"
	}
	val, err := n.Value()
	if err != nil || val == nil {
		return "0.00"
	}
	d, err := decimal.NewFromString(val.(string))
	if err != nil {
		return "0.00"
	}
	return d.StringFixed(2)
}

func textPtr(t pgtype.Text) *string {
	if !t.Valid {
		return nil
	}
	return &t.String
}

func uuidPtr(u pgtype.UUID) *uuid.UUID {
	if !u.Valid {
		return nil
	}
	id := uuid.UUID(u.Bytes)
	return &id
}
