package orders

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fjod/bagshop/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProgress_IsTotalOverStatuses(t *testing.T) {
	cases := map[domain.OrderStatus]int{
		domain.OrderStatusPending:    1,
		domain.OrderStatusConfirmed:  2,
		domain.OrderStatusProcessing: 2,
		domain.OrderStatusShipped:    3,
		domain.OrderStatusDelivered:  4,
		domain.OrderStatusCancelled:  0,
	}
	for status, want := range cases {
		assert.Equal(t, want, Progress(status), status)
		assert.Equal(t, Progress(status), NewTracker().View(testOrder(status)).Step, status)
	}
}

func TestProgress_UnknownStatusAgreesWithView(t *testing.T) {
	assert.NotPanics(t, func() { Progress("lost") })
	assert.Equal(t, StepOffTrack, Progress("lost"))

	v := NewTracker().View(testOrder("lost"))
	assert.Equal(t, Progress("lost"), v.Step)
	assert.Equal(t, "help-circle", v.Icon)
	assert.Equal(t, "lost", v.Label)
}

func testOrder(status domain.OrderStatus) *domain.Order {
	return &domain.Order{
		ID:          uuid.MustParse("7b0c4a58-1f1e-4d5f-9d43-3d1e2c7b8a10"),
		CartOwnerID: "customer:9876543210",
		Customer:    domain.Customer{Name: "Asha Rao", Phone: "9876543210", Email: "asha@example.com"},
		Items: []domain.OrderItem{
			{ProductID: "tote-classic", ProductName: "Classic Leather Tote", Quantity: 2, UnitPrice: 3499},
			{ProductID: "wallet-card", ProductName: "Slim Card Holder", Quantity: 1, UnitPrice: 489},
		},
		TotalAmount:   7487,
		Currency:      "INR",
		Status:        status,
		PaymentStatus: domain.PaymentStatusPending,
		PaymentMethod: domain.PaymentMethodCOD,
		CreatedAt:     time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
	}
}

func TestTrackerView_Shipped(t *testing.T) {
	v := NewTracker().View(testOrder(domain.OrderStatusShipped))

	assert.Equal(t, "Shipped", v.Label)
	assert.Equal(t, "truck", v.Icon)
	assert.Equal(t, 3, v.Step)
	assert.False(t, v.Cancelled)
	require.Len(t, v.Timeline, 4)
	assert.True(t, v.Timeline[0].Reached)
	assert.True(t, v.Timeline[2].Reached)
	assert.True(t, v.Timeline[2].Current)
	assert.False(t, v.Timeline[3].Reached)
	assert.Equal(t, "₹7,487", v.TotalText)
	assert.Equal(t, int64(6998), v.Items[0].LineTotal)
	assert.Equal(t, "₹6,998", v.Items[0].LineTotalText)
	assert.Equal(t, "₹489", v.Items[1].UnitPriceText)
}

func TestTrackerView_Cancelled(t *testing.T) {
	v := NewTracker().View(testOrder(domain.OrderStatusCancelled))

	assert.True(t, v.Cancelled)
	assert.Equal(t, 0, v.Step)
	for _, s := range v.Timeline {
		assert.False(t, s.Reached)
		assert.False(t, s.Current)
	}
}

func TestTrackerView_ConfirmedAndProcessingShareStep(t *testing.T) {
	tr := NewTracker()
	a := tr.View(testOrder(domain.OrderStatusConfirmed))
	b := tr.View(testOrder(domain.OrderStatusProcessing))

	assert.Equal(t, a.Step, b.Step)
	assert.NotEqual(t, a.Label, b.Label)
}

type stubReader struct {
	order  *domain.Order
	orders []*domain.Order
	err    error
}

func (s *stubReader) GetOrderByID(context.Context, uuid.UUID) (*domain.Order, error) {
	return s.order, s.err
}

func (s *stubReader) ListOrdersByPhone(context.Context, string) ([]*domain.Order, error) {
	return s.orders, s.err
}

func TestLookup(t *testing.T) {
	o := testOrder(domain.OrderStatusDelivered)
	l := NewLookup(&stubReader{order: o, orders: []*domain.Order{o, o}}, NewTracker())

	v, err := l.Get(context.Background(), o.ID)
	require.NoError(t, err)
	assert.Equal(t, o.ID.String(), v.OrderID)
	assert.Equal(t, 4, v.Step)

	list, err := l.ListForCustomer(context.Background(), "9876543210")
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestLookup_PropagatesSentinel(t *testing.T) {
	notFound := errors.New("order not found")
	l := NewLookup(&stubReader{err: notFound}, NewTracker())

	_, err := l.Get(context.Background(), uuid.New())
	assert.ErrorIs(t, err, notFound)

	_, err = l.ListForCustomer(context.Background(), "9876543210")
	assert.ErrorIs(t, err, notFound)
}
