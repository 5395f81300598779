package health

import (
	"context"
	"log/slog"
	"net/http"

	corehealth "3tcapital/ms_fiscal_receipts/internal/core/health"
	httperrors "3tcapital/ms_fiscal_receipts/internal/infrastructure/http"
)

// StatusService is the health use case the handler exposes.
type StatusService interface {
	Status(ctx context.Context) corehealth.Status
}

// Handler bridges HTTP traffic with the health application service.
type Handler struct {
	service StatusService
	log     *slog.Logger
}

func NewHandler(service StatusService, log *slog.Logger) *Handler {
	return &Handler{service: service, log: log}
}

// ServeHTTP answers 200 while healthy and 503 when a dependency is down.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	status := h.service.Status(r.Context())

	code := http.StatusOK
	if !status.Healthy() {
		code = http.StatusServiceUnavailable
	}
	httperrors.WriteJSON(w, code, status, h.log)
}
