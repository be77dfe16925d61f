package http

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/viralforge/birthday-reminder/internal/domain"
)

func (h *Handler) healthz(w http.ResponseWriter, _ *http.Request) {
	writeMessage(w, http.StatusOK, "ok")
}

func (h *Handler) readyz(w http.ResponseWriter, r *http.Request) {
	if h.ready != nil {
		if err := h.ready(r.Context()); err != nil {
			err = fmt.Errorf("%w: %v", domain.ErrDependencyUnavailable, err)
			status, code, msg := mapDomainError(err)
			logHTTPOperationError(r.Context(), "readyz", status, code, msg, err)
			writeError(w, status, code, msg)
			return
		}
	}
	writeMessage(w, http.StatusOK, "ready")
}

func (h *Handler) adminAuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, err := bearerTokenFromHeader(r.Header.Get("Authorization"))
		if err != nil {
			writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing bearer token")
			return
		}
		claims, err := h.verifier.Verify(raw)
		if err != nil {
			status, code, msg := mapDomainError(err)
			logHTTPOperationError(r.Context(), "admin_auth", status, code, msg, err)
			writeError(w, status, code, msg)
			return
		}
		next.ServeHTTP(w, r.WithContext(contextWithClaims(r.Context(), claims)))
	})
}

func (h *Handler) triggerRun(w http.ResponseWriter, r *http.Request) {
	report := h.service.TriggerRun(r.Context())
	if report.ResolutionFailed {
		err := domain.ErrResolutionFailed
		status, code, msg := mapDomainError(err)
		logHTTPOperationError(r.Context(), "trigger_run", status, code, msg, err)
		writeError(w, status, code, msg)
		return
	}
	claims, _ := claimsFromContext(r.Context())
	httpLogger().InfoContext(r.Context(), "reminder run triggered",
		"operation", "trigger_run",
		"outcome", "success",
		"subject", claims.Subject,
		"batch_id", report.BatchID,
		"request_id", requestIDFromContext(r.Context()),
	)
	writeSuccess(w, http.StatusAccepted, report)
}

func (h *Handler) previewEligible(w http.ResponseWriter, r *http.Request) {
	cfg := h.service.Config()
	cutoff, err := intQuery(r, "cutoff_hours", cfg.CutoffHours)
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}
	clearance, err := intQuery(r, "clearance_hours", cfg.ClearanceHours)
	if err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	items, err := h.service.PreviewEligible(r.Context(), cutoff, clearance)
	if err != nil {
		status, code, msg := mapDomainError(err)
		logHTTPOperationError(r.Context(), "preview_eligible", status, code, msg, err)
		writeError(w, status, code, msg)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{
		"cutoff_hours":    cutoff,
		"clearance_hours": clearance,
		"items":           items,
	})
}

func (h *Handler) batchStatus(w http.ResponseWriter, r *http.Request) {
	batchID := strings.TrimSpace(chi.URLParam(r, "batch_id"))
	if batchID == "" {
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "batch_id is required")
		return
	}
	res, err := h.service.BatchStatus(batchID)
	if err != nil {
		status, code, msg := mapDomainError(err)
		if !errors.Is(err, domain.ErrNotFound) {
			logHTTPOperationError(r.Context(), "batch_status", status, code, msg, err)
		}
		writeError(w, status, code, msg)
		return
	}
	writeSuccess(w, http.StatusOK, res)
}

func intQuery(r *http.Request, name string, fallback int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer", name)
	}
	return v, nil
}
