package http

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/ellistech/leadgate/internal/lead_service/domain"
	"github.com/ellistech/leadgate/internal/lead_service/repository"
	"github.com/go-chi/chi/v5"
)

const (
	defaultDeliveryPageSize = 50
	maxDeliveryPageSize     = 500
)

// AdminHandler exposes the delivery ledger. Routes must sit behind
// middleware.AdminAuth.
type AdminHandler struct {
	deliveries repository.DeliveryRepository
	logger     *slog.Logger
}

func NewAdminHandler(deliveries repository.DeliveryRepository, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{deliveries: deliveries, logger: logger.With("handler", "admin")}
}

func (h *AdminHandler) RegisterRoutes(r chi.Router) {
	r.Get("/deliveries", h.ListDeliveries)
}

// ListDeliveries returns delivery attempts newest first.
// Query: form, limit (1..500, default 50), offset.
func (h *AdminHandler) ListDeliveries(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	limit, err := intParam(q.Get("limit"), defaultDeliveryPageSize)
	if err != nil || limit < 1 || limit > maxDeliveryPageSize {
		respondWithError(w, http.StatusBadRequest, "Invalid limit", "limit must be between 1 and 500")
		return
	}
	offset, err := intParam(q.Get("offset"), 0)
	if err != nil || offset < 0 {
		respondWithError(w, http.StatusBadRequest, "Invalid offset", "offset must be a non-negative integer")
		return
	}

	opts := domain.DeliveryListOptions{Form: domain.FormKind(q.Get("form")), Limit: limit, Offset: offset}
	attempts, err := h.deliveries.List(ctx, opts)
	if err != nil {
		h.logger.ErrorContext(ctx, "Failed to list deliveries", "error", err)
		respondWithError(w, http.StatusInternalServerError, "Failed to list deliveries", "")
		return
	}

	resp := ListDeliveriesResponse{Deliveries: make([]DeliveryResponse, len(attempts)), Limit: limit, Offset: offset}
	for i, a := range attempts {
		resp.Deliveries[i] = newDeliveryResponse(a)
	}
	respondWithJSON(w, http.StatusOK, resp)
}

func intParam(raw string, def int) (int, error) {
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}
