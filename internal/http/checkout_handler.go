package http

import (
	"context"
	"net/http"
	"time"

	"github.com/fjod/bagshop/internal/checkout"
)

type CheckoutSubmitter interface {
	Submit(ctx context.Context, req checkout.Request) (*checkout.Confirmation, error)
}

type CheckoutHandler struct {
	orchestrator CheckoutSubmitter
	timeout      time.Duration
}

func NewCheckoutHandler(orchestrator CheckoutSubmitter, timeout time.Duration) *CheckoutHandler {
	return &CheckoutHandler{
		orchestrator: orchestrator,
		timeout:      timeout,
	}
}

// POST /api/v1/checkout
func (h *CheckoutHandler) Submit(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req checkout.Request
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	req.OwnerID = ownerFromContext(r.Context())
	if key := r.Header.Get("Idempotency-Key"); key != "" {
		req.IdempotencyKey = key
	}
	// a signed-in customer always orders under the verified number
	if sess := sessionFromContext(r.Context()); sess != nil {
		req.Contact.Phone = sess.Phone
	}

	conf, err := h.orchestrator.Submit(ctx, req)
	if err != nil {
		handleError(w, r, err)
		return
	}

	status := http.StatusCreated
	if conf.Duplicate {
		status = http.StatusOK
	}
	respondJSON(w, status, conf)
}
