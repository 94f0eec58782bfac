package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/fjod/bagshop/internal/auth"
	"github.com/fjod/bagshop/internal/cart"
	catalog "github.com/fjod/bagshop/internal/catalog/repository"
	"github.com/fjod/bagshop/internal/checkout"
	"github.com/fjod/bagshop/internal/circuitbreaker"
	"github.com/fjod/bagshop/internal/logger"
	orders "github.com/fjod/bagshop/internal/orders/repository"
	"github.com/fjod/bagshop/internal/payment"
	"go.uber.org/zap"
)

var errTrailingData = errors.New("unexpected data after JSON body")

type errorMapping struct {
	target  error
	status  int
	code    string
	message string
}

// errorTable is checked in order; the first match wins. An empty message
// means the error text is safe to show.
var errorTable = []errorMapping{
	{cart.ErrLineLimit, http.StatusUnprocessableEntity, "quantity_limit", "a cart line may hold at most 99 units"},
	{checkout.ErrEmptyCart, http.StatusUnprocessableEntity, "empty_cart", ""},
	{checkout.ErrPaymentUnavailable, http.StatusServiceUnavailable, "payment_unavailable",
		"online payment is unavailable, your cart was kept"},
	{orders.ErrOrderNotFound, http.StatusNotFound, "not_found", "order not found"},
	{catalog.ErrProductNotFound, http.StatusNotFound, "not_found", "product not found"},
	{auth.ErrSessionNotFound, http.StatusUnauthorized, "unauthenticated", "session not found or expired"},
	{auth.ErrInvalidOTP, http.StatusUnauthorized, "invalid_otp", "invalid or expired otp"},
	{auth.ErrInvalidPhone, http.StatusBadRequest, "invalid_phone", "phone must be a 10-digit Indian mobile number"},
	{auth.ErrOTPRequestInvalid, http.StatusBadRequest, "invalid_argument", "otp request rejected"},
	{auth.ErrOTPUnavailable, http.StatusServiceUnavailable, "service_unavailable", "verification is unavailable, try again later"},
	{payment.ErrGatewayUnavailable, http.StatusBadGateway, "bad_gateway", "payment gateway unavailable"},
	{circuitbreaker.ErrOpen, http.StatusServiceUnavailable, "service_unavailable", "service unavailable, try again later"},
	{context.DeadlineExceeded, http.StatusGatewayTimeout, "timeout", "request timed out"},
}

// handleError maps domain errors to HTTP responses in one place. Anything
// unrecognized is logged and reported as a generic 500.
func handleError(w http.ResponseWriter, r *http.Request, err error) {
	var verrs checkout.ValidationErrors
	if errors.As(err, &verrs) {
		respondJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:  "some fields are invalid",
			Code:   "validation_failed",
			Fields: verrs,
		})
		return
	}

	for _, m := range errorTable {
		if errors.Is(err, m.target) {
			msg := m.message
			if msg == "" {
				msg = m.target.Error()
			}
			if m.status >= http.StatusInternalServerError {
				logger.Ctx(r.Context(), zap.L()).Warn("upstream failure",
					zap.String("path", r.URL.Path), zap.Error(err))
			}
			respondError(w, m.status, m.code, msg)
			return
		}
	}

	logger.Ctx(r.Context(), zap.L()).Error("unhandled error", zap.String("path", r.URL.Path), zap.Error(err))
	respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
}
