package httpapi

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/bibektako/borrow-lend-backend/internal/borrow"
	"github.com/bibektako/borrow-lend-backend/internal/notify"
	"github.com/bibektako/borrow-lend-backend/internal/realtime"
)

type handlers struct {
	requests      *borrow.Service
	notifications notify.Store
	hub           *realtime.Hub
	log           *slog.Logger
}

func (h *handlers) createRequest(w http.ResponseWriter, r *http.Request) {
	itemID := chi.URLParam(r, "itemID")
	borrowerID := UserID(r.Context())

	req, err := h.requests.Create(r.Context(), itemID, borrowerID)
	if err != nil {
		respondDomainError(w, h.log, err)
		return
	}
	respondJSON(w, http.StatusCreated, req)
}

func (h *handlers) listRequests(w http.ResponseWriter, r *http.Request) {
	views, err := h.requests.List(r.Context(), UserID(r.Context()))
	if err != nil {
		respondDomainError(w, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, views)
}

type updateStatusBody struct {
	Status borrow.Status `json:"status"`
}

func (h *handlers) updateRequestStatus(w http.ResponseWriter, r *http.Request) {
	var body updateStatusBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "bad_request")
		return
	}

	req, err := h.requests.Transition(r.Context(), chi.URLParam(r, "requestID"), UserID(r.Context()), body.Status)
	if err != nil {
		respondDomainError(w, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, req)
}
