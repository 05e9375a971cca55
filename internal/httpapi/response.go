package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/bibektako/borrow-lend-backend/internal/borrow"
	"github.com/bibektako/borrow-lend-backend/internal/catalog"
	"github.com/bibektako/borrow-lend-backend/internal/logging"
)

type errorBody struct {
	Error string `json:"error"`
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

func respondError(w http.ResponseWriter, status int, key string) {
	respondJSON(w, status, errorBody{Error: key})
}

// respondDomainError maps the domain error taxonomy onto HTTP statuses.
// Anything outside the taxonomy is a persistence or lookup fault: it is
// logged with full context and surfaced as a generic 500 without leaking
// details.
func respondDomainError(w http.ResponseWriter, log *slog.Logger, err error) {
	switch {
	case errors.Is(err, catalog.ErrItemNotFound), errors.Is(err, borrow.ErrRequestNotFound):
		respondError(w, http.StatusNotFound, "not_found")
	case errors.Is(err, borrow.ErrForbidden):
		respondError(w, http.StatusForbidden, "forbidden")
	case errors.Is(err, borrow.ErrSelfBorrow),
		errors.Is(err, borrow.ErrItemUnavailable),
		errors.Is(err, borrow.ErrInvalidTransition),
		errors.Is(err, borrow.ErrUnknownStatus):
		respondError(w, http.StatusBadRequest, "invalid_operation")
	case errors.Is(err, borrow.ErrConflict):
		respondError(w, http.StatusConflict, "conflict")
	default:
		log.Error("request failed", logging.Error(err))
		respondError(w, http.StatusInternalServerError, "internal_server_error")
	}
}
