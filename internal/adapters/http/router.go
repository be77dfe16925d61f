package http

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/viralforge/birthday-reminder/internal/application"
	"github.com/viralforge/birthday-reminder/internal/ports"
)

// ReadinessCheck reports whether backing dependencies can serve traffic.
type ReadinessCheck func(ctx context.Context) error

type Handler struct {
	service  *application.Service
	verifier ports.AdminTokenVerifier
	ready    ReadinessCheck
}

func NewHandler(service *application.Service, verifier ports.AdminTokenVerifier, ready ReadinessCheck) *Handler {
	return &Handler{service: service, verifier: verifier, ready: ready}
}

// NewRouter mounts the probes and the admin API. Admin routes are only
// registered when a token verifier is configured.
func NewRouter(handler *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(recoverMiddleware)
	r.Use(loggingMiddleware)

	r.Get("/healthz", handler.healthz)
	r.Get("/readyz", handler.readyz)

	if handler.verifier != nil {
		r.Route("/v1/admin", func(r chi.Router) {
			r.Use(handler.adminAuthMiddleware)
			r.Post("/birthday-reminders/run", handler.triggerRun)
			r.Get("/birthday-reminders/eligible", handler.previewEligible)
			r.Get("/batches/{batch_id}", handler.batchStatus)
		})
	}
	return r
}
