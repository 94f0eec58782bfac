package checkout

import (
	"context"
	"time"

	"github.com/fjod/bagshop/internal/cart"
	"github.com/fjod/bagshop/internal/domain"
	"github.com/fjod/bagshop/internal/payment"
)

type CartService interface {
	GetCart(ctx context.Context, ownerID string) (cart.View, error)
	Settle(ctx context.Context, ownerID string, items []domain.OrderItem, placedAt time.Time) error
}

type PaymentGateway interface {
	CreateSession(ctx context.Context, req payment.SessionRequest) (*payment.Session, error)
}

// CartHandler bounds every cart call made during checkout.
type CartHandler struct {
	carts   CartService
	timeout time.Duration
}

func NewCartHandler(carts CartService, timeout time.Duration) *CartHandler {
	return &CartHandler{carts: carts, timeout: timeout}
}

func (h *CartHandler) get(ctx context.Context, ownerID string) (cart.View, error) {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()
	return h.carts.GetCart(ctx, ownerID)
}

// settle removes the ordered lines from the cart, leaving anything the
// shopper added since the snapshot.
func (h *CartHandler) settle(ctx context.Context, ownerID string, items []domain.OrderItem) error {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()
	return h.carts.Settle(ctx, ownerID, items, time.Time{})
}

type PaymentHandler struct {
	gateway PaymentGateway
	timeout time.Duration
}

func NewPaymentHandler(gateway PaymentGateway, timeout time.Duration) *PaymentHandler {
	return &PaymentHandler{gateway: gateway, timeout: timeout}
}

func (h *PaymentHandler) open(ctx context.Context, req payment.SessionRequest) (*payment.Session, error) {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()
	return h.gateway.CreateSession(ctx, req)
}
