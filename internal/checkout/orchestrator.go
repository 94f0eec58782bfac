// Package checkout turns a cart and a submitted form into an order.
package checkout

import (
	"context"
	"errors"
	"fmt"

	"github.com/fjod/bagshop/internal/cart"
	"github.com/fjod/bagshop/internal/domain"
	"github.com/fjod/bagshop/internal/logger"
	"github.com/fjod/bagshop/internal/orders/repository"
	"github.com/fjod/bagshop/internal/payment"
	"github.com/fjod/bagshop/internal/pricing"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type OrderStore interface {
	CreateOrder(ctx context.Context, order *domain.Order) error
	GetOrderByIdempotencyKey(ctx context.Context, ownerID, key string) (*domain.Order, error)
	SetPaymentReference(ctx context.Context, id uuid.UUID, reference string) error
	MarkPaymentFailed(ctx context.Context, id uuid.UUID) error
}

type Orchestrator struct {
	orders  OrderStore
	cart    *CartHandler
	payment *PaymentHandler
	pricing pricing.Policy
	log     *zap.Logger
}

func NewOrchestrator(orders OrderStore, cart *CartHandler, payment *PaymentHandler, policy pricing.Policy, log *zap.Logger) *Orchestrator {
	return &Orchestrator{
		orders:  orders,
		cart:    cart,
		payment: payment,
		pricing: policy,
		log:     log,
	}
}

// Submit places an order for the owner's cart. Until the order is placed
// the cart is left as it was, so a failed submit can simply be retried.
func (o *Orchestrator) Submit(ctx context.Context, req Request) (*Confirmation, error) {
	req.trim()
	if errs := Validate(req); errs != nil {
		return nil, errs
	}
	phone, _ := domain.NormalizePhone(req.Contact.Phone)
	method, _ := domain.ParsePaymentMethod(req.PaymentMethod)
	log := logger.Ctx(ctx, o.log).With(zap.String("owner", req.OwnerID))

	if req.IdempotencyKey != "" {
		existing, err := o.orders.GetOrderByIdempotencyKey(ctx, req.OwnerID, req.IdempotencyKey)
		if err == nil {
			log.Info("duplicate checkout detected",
				zap.String("idempotency_key", req.IdempotencyKey),
				zap.String("order_id", existing.ID.String()))
			return confirmationFor(existing, true), nil
		}
		if !errors.Is(err, repository.ErrOrderNotFound) {
			return nil, fmt.Errorf("failed to check idempotency: %w", err)
		}
	}

	view, err := o.cart.get(ctx, req.OwnerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get cart: %w", err)
	}
	if view.IsEmpty {
		return nil, ErrEmptyCart
	}

	items, total := o.buildSnapshot(view)
	order := &domain.Order{
		ID:          uuid.New(),
		CartOwnerID: req.OwnerID,
		Customer: domain.Customer{
			Name:  req.Contact.Name,
			Phone: phone,
			Email: req.Contact.Email,
		},
		Shipping:       req.Shipping,
		Items:          items,
		TotalAmount:    total,
		Currency:       domain.Currency.String(),
		Status:         domain.OrderStatusPending,
		PaymentStatus:  domain.PaymentStatusPending,
		PaymentMethod:  method,
		IdempotencyKey: req.IdempotencyKey,
	}

	if err := o.orders.CreateOrder(ctx, order); err != nil {
		if errors.Is(err, repository.ErrDuplicateOrder) {
			// lost a race with a concurrent submit carrying the same key
			existing, getErr := o.orders.GetOrderByIdempotencyKey(ctx, req.OwnerID, req.IdempotencyKey)
			if getErr != nil {
				return nil, fmt.Errorf("failed to load duplicate order: %w", getErr)
			}
			return confirmationFor(existing, true), nil
		}
		return nil, fmt.Errorf("failed to create order: %w", err)
	}
	log = log.With(zap.String("order_id", order.ID.String()))

	conf := confirmationFor(order, false)
	if method == domain.PaymentMethodOnline {
		session, err := o.openPayment(ctx, order)
		if err != nil {
			log.Warn("payment session failed, order cancelled", zap.Error(err))
			return nil, fmt.Errorf("%w: %w", ErrPaymentUnavailable, err)
		}
		conf.PaymentReference = session.Reference
		conf.RedirectURL = session.RedirectURL
	}

	if err := o.cart.settle(ctx, req.OwnerID, order.Items); err != nil {
		log.Warn("failed to settle cart after checkout", zap.Error(err))
	}

	log.Info("order placed", zap.Int64("total", order.TotalAmount), zap.String("payment_method", string(method)))
	return conf, nil
}

// openPayment starts a gateway session and records its reference. On any
// failure the order is cancelled with a failed payment, which also frees its
// idempotency key for a retry.
func (o *Orchestrator) openPayment(ctx context.Context, order *domain.Order) (*payment.Session, error) {
	session, err := o.payment.open(ctx, payment.SessionRequest{
		OrderID:       order.ID.String(),
		Amount:        order.TotalAmount,
		Currency:      order.Currency,
		CustomerName:  order.Customer.Name,
		CustomerPhone: order.Customer.Phone,
		CustomerEmail: order.Customer.Email,
	})
	if err == nil {
		err = o.orders.SetPaymentReference(ctx, order.ID, session.Reference)
	}
	if err != nil {
		if markErr := o.orders.MarkPaymentFailed(context.WithoutCancel(ctx), order.ID); markErr != nil {
			logger.Ctx(ctx, o.log).Error("failed to cancel order after payment failure",
				zap.String("order_id", order.ID.String()), zap.Error(markErr))
		}
		return nil, err
	}
	order.PaymentReference = session.Reference
	return session, nil
}

// buildSnapshot captures the items at the sale price in effect now.
func (o *Orchestrator) buildSnapshot(view cart.View) ([]domain.OrderItem, int64) {
	items := make([]domain.OrderItem, 0, len(view.Items))
	var total int64
	for _, it := range view.Items {
		q := o.pricing.QuoteItem(it)
		items = append(items, domain.OrderItem{
			ProductID:     it.Product.ID,
			ProductName:   it.Product.Name,
			Quantity:      it.Quantity,
			UnitPrice:     q.SalePrice,
			SelectedColor: it.SelectedColor,
		})
		total += q.LineTotal
	}
	return items, total
}

func confirmationFor(order *domain.Order, duplicate bool) *Confirmation {
	return &Confirmation{
		OrderID:          order.ID.String(),
		Status:           order.Status,
		PaymentMethod:    order.PaymentMethod,
		PaymentReference: order.PaymentReference,
		Total:            order.TotalAmount,
		TotalFormatted:   pricing.FormatINR(order.TotalAmount),
		Duplicate:        duplicate,
	}
}
