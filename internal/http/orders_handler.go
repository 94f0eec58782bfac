package http

import (
	"context"
	"net/http"
	"time"

	"github.com/fjod/bagshop/internal/orders"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type OrderLookup interface {
	Get(ctx context.Context, id uuid.UUID) (orders.TrackingView, error)
	ListForCustomer(ctx context.Context, phone string) ([]orders.TrackingView, error)
}

type OrdersHandler struct {
	lookup  OrderLookup
	timeout time.Duration
}

func NewOrdersHandler(lookup OrderLookup, timeout time.Duration) *OrdersHandler {
	return &OrdersHandler{
		lookup:  lookup,
		timeout: timeout,
	}
}

// GET /api/v1/orders
func (h *OrdersHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	sess := sessionFromContext(r.Context())
	if sess == nil {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	views, err := h.lookup.ListForCustomer(ctx, sess.Phone)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, views)
}

// GET /api/v1/orders/{order_id}
//
// The order id is an unguessable UUID and works as the tracking link, so
// no session is needed.
func (h *OrdersHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	raw := chi.URLParam(r, "order_id")
	if raw == "" {
		respondError(w, http.StatusBadRequest, "missing_order_id", "order_id is required")
		return
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_order_id", "order_id must be a UUID")
		return
	}

	view, err := h.lookup.Get(ctx, id)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, view)
}
