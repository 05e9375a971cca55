// Package httpapi exposes the borrow lifecycle and notification operations
// over HTTP. Handlers stay thin: decode, call the domain service, map the
// error taxonomy onto status codes.
package httpapi

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/bibektako/borrow-lend-backend/internal/borrow"
	"github.com/bibektako/borrow-lend-backend/internal/notify"
	"github.com/bibektako/borrow-lend-backend/internal/realtime"
)

// Deps carries everything the router needs.
type Deps struct {
	Requests      *borrow.Service
	Notifications notify.Store
	Hub           *realtime.Hub
	Log           *slog.Logger

	// Readiness checks run by the health endpoint, typically the mongo
	// ping.
	Readiness []func(context.Context) error
}

// NewRouter builds the API router.
func NewRouter(deps Deps) chi.Router {
	h := &handlers{
		requests:      deps.Requests,
		notifications: deps.Notifications,
		hub:           deps.Hub,
		log:           deps.Log,
	}

	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", healthHandler(deps.Log, deps.Readiness...))

	r.Route("/api", func(api chi.Router) {
		api.Use(RequireUser)

		api.Route("/borrow", func(br chi.Router) {
			br.Get("/", h.listRequests)
			br.Post("/{itemID}", h.createRequest)
			br.Patch("/{requestID}", h.updateRequestStatus)
		})

		api.Route("/notifications", func(nr chi.Router) {
			nr.Get("/", h.listNotifications)
			nr.Patch("/read", h.markNotificationsRead)
		})

		api.Get("/events", h.streamEvents)
	})

	return r
}

func healthHandler(log *slog.Logger, checks ...func(context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		for _, check := range checks {
			if err := check(r.Context()); err != nil {
				log.Error("readiness check failed", slog.Any("error", err))
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = w.Write([]byte("NOT_READY"))
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("READY"))
	}
}
