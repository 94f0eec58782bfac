package repository

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/fjod/bagshop/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

func setupTestDB(t *testing.T) *Repository {
	t.Helper()
	ctx := context.Background()

	ctr, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("orders"),
		postgres.WithUsername("shop"),
		postgres.WithPassword("shop-secret"),
		postgres.BasicWaitStrategies(),
	)
	testcontainers.CleanupContainer(t, ctr)
	require.NoError(t, err)

	host, err := ctr.Host(ctx)
	require.NoError(t, err)
	port, err := ctr.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)

	creds := &Credentials{
		Host:              host,
		Port:              port.Int(),
		User:              "shop",
		Password:          "shop-secret",
		DBName:            "orders",
		MigrationsDirPath: "./migrations",
	}
	repo, err := NewRepository(creds)
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })

	require.NoError(t, repo.RunMigrations(creds))
	// a second run is a no-op
	require.NoError(t, repo.RunMigrations(creds))
	return repo
}

func newTestOrder(phone, idempotencyKey string) *domain.Order {
	return &domain.Order{
		ID:          uuid.New(),
		CartOwnerID: "customer:" + phone,
		Customer:    domain.Customer{Name: "Asha Rao", Phone: phone, Email: "asha@example.com"},
		Shipping: domain.ShippingAddress{
			Line1: "12 MG Road", City: "Bengaluru", State: "Karnataka", PostalCode: "560001", Country: "IN",
		},
		Items: []domain.OrderItem{
			{ProductID: "tote-classic", ProductName: "Classic Leather Tote", Quantity: 1, UnitPrice: 3499,
				SelectedColor: &domain.SelectedColor{Name: "Tan", Swatch: "#c19a6b"}},
		},
		TotalAmount:    3499,
		Currency:       domain.Currency.String(),
		Status:         domain.OrderStatusPending,
		PaymentStatus:  domain.PaymentStatusPending,
		PaymentMethod:  domain.PaymentMethodCOD,
		IdempotencyKey: idempotencyKey,
	}
}

func TestCreateOrder_Success(t *testing.T) {
	repo := setupTestDB(t)

	ctx := context.Background()
	order := newTestOrder("9876543210", "")

	require.NoError(t, repo.CreateOrder(ctx, order))
	assert.False(t, order.CreatedAt.IsZero())

	fetched, err := repo.GetOrderByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.ID, fetched.ID)
	assert.Equal(t, order.CartOwnerID, fetched.CartOwnerID)
	assert.Equal(t, order.Customer, fetched.Customer)
	assert.Equal(t, order.Shipping, fetched.Shipping)
	assert.Equal(t, order.Items, fetched.Items)
	assert.Equal(t, int64(3499), fetched.TotalAmount)
	assert.Equal(t, "INR", fetched.Currency)
	assert.Equal(t, domain.OrderStatusPending, fetched.Status)
	assert.Equal(t, domain.PaymentStatusPending, fetched.PaymentStatus)
	assert.Equal(t, domain.PaymentMethodCOD, fetched.PaymentMethod)
	assert.Empty(t, fetched.IdempotencyKey)
}

func TestCreateOrder_WritesOutboxEvent(t *testing.T) {
	repo := setupTestDB(t)

	ctx := context.Background()
	order := newTestOrder("9876543210", "")
	require.NoError(t, repo.CreateOrder(ctx, order))

	events, err := repo.GetUnprocessedEvents(ctx, 10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, order.ID.String(), events[0].AggregateID)
	assert.Equal(t, EventOrderCreated, events[0].EventType)

	var payload OrderCreatedPayload
	require.NoError(t, json.Unmarshal(events[0].Payload, &payload))
	assert.Equal(t, order.CartOwnerID, payload.CartOwnerID)
	assert.Equal(t, order.TotalAmount, payload.TotalAmount)

	require.NoError(t, repo.MarkEventAsProcessed(ctx, events[0].ID))
	events, err = repo.GetUnprocessedEvents(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestCreateOrder_DuplicateIdempotencyKey(t *testing.T) {
	repo := setupTestDB(t)

	ctx := context.Background()
	first := newTestOrder("9876543210", "idem-1")
	require.NoError(t, repo.CreateOrder(ctx, first))

	err := repo.CreateOrder(ctx, newTestOrder("9876543210", "idem-1"))
	assert.ErrorIs(t, err, ErrDuplicateOrder)

	events, err := repo.GetUnprocessedEvents(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, events, 1, "rolled back order must not leave an event")

	fetched, err := repo.GetOrderByIdempotencyKey(ctx, first.CartOwnerID, "idem-1")
	require.NoError(t, err)
	assert.Equal(t, first.ID, fetched.ID)
}

func TestCreateOrder_IdempotencyKeyIsScopedToOwner(t *testing.T) {
	repo := setupTestDB(t)

	ctx := context.Background()
	first := newTestOrder("9876543210", "idem-1")
	second := newTestOrder("9123456780", "idem-1")
	require.NoError(t, repo.CreateOrder(ctx, first))
	require.NoError(t, repo.CreateOrder(ctx, second))

	fetched, err := repo.GetOrderByIdempotencyKey(ctx, second.CartOwnerID, "idem-1")
	require.NoError(t, err)
	assert.Equal(t, second.ID, fetched.ID)

	_, err = repo.GetOrderByIdempotencyKey(ctx, "guest:someone-else", "idem-1")
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestCreateOrder_EmptyKeysDoNotCollide(t *testing.T) {
	repo := setupTestDB(t)

	ctx := context.Background()
	require.NoError(t, repo.CreateOrder(ctx, newTestOrder("9876543210", "")))
	require.NoError(t, repo.CreateOrder(ctx, newTestOrder("9876543210", "")))
}

func TestGetOrderByID_NotFound(t *testing.T) {
	repo := setupTestDB(t)

	_, err := repo.GetOrderByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrOrderNotFound)

	_, err = repo.GetOrderByIdempotencyKey(context.Background(), "customer:9876543210", "missing")
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestGetOrderByID_UnknownStatusFailsToDecode(t *testing.T) {
	repo := setupTestDB(t)

	ctx := context.Background()
	order := newTestOrder("9876543210", "")
	require.NoError(t, repo.CreateOrder(ctx, order))

	_, err := repo.db.ExecContext(ctx, `ALTER TABLE orders DROP CONSTRAINT orders_status_check`)
	require.NoError(t, err)
	_, err = repo.db.ExecContext(ctx, `UPDATE orders SET status = 'lost' WHERE id = $1`, order.ID)
	require.NoError(t, err)

	_, err = repo.GetOrderByID(ctx, order.ID)
	assert.ErrorIs(t, err, domain.ErrUnknownEnum)
}

func TestListOrdersByPhone_NewestFirst(t *testing.T) {
	repo := setupTestDB(t)

	ctx := context.Background()
	phone := "9123456780"

	order1 := newTestOrder(phone, "")
	require.NoError(t, repo.CreateOrder(ctx, order1))

	// Small sleep to ensure different created_at timestamps
	time.Sleep(10 * time.Millisecond)

	order2 := newTestOrder(phone, "")
	order2.PaymentMethod = domain.PaymentMethodOnline
	require.NoError(t, repo.CreateOrder(ctx, order2))

	require.NoError(t, repo.CreateOrder(ctx, newTestOrder("9000000000", "")))

	orders, err := repo.ListOrdersByPhone(ctx, phone)
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, order2.ID, orders[0].ID)
	assert.Equal(t, order1.ID, orders[1].ID)

	orders, err = repo.ListOrdersByPhone(ctx, "9999999999")
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func newOnlineOrder(phone, idempotencyKey string) *domain.Order {
	order := newTestOrder(phone, idempotencyKey)
	order.PaymentMethod = domain.PaymentMethodOnline
	return order
}

func TestPaymentUpdates(t *testing.T) {
	repo := setupTestDB(t)

	ctx := context.Background()
	order := newOnlineOrder("9876543210", "")
	require.NoError(t, repo.CreateOrder(ctx, order))

	require.NoError(t, repo.SetPaymentReference(ctx, order.ID, "pay_123"))
	fetched, err := repo.GetOrderByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, "pay_123", fetched.PaymentReference)

	require.NoError(t, repo.MarkPaymentFailed(ctx, order.ID))
	fetched, err = repo.GetOrderByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusCancelled, fetched.Status)
	assert.Equal(t, domain.PaymentStatusFailed, fetched.PaymentStatus)

	assert.ErrorIs(t, repo.SetPaymentReference(ctx, uuid.New(), "x"), ErrOrderNotFound)
	assert.ErrorIs(t, repo.MarkPaymentFailed(ctx, uuid.New()), ErrOrderNotFound)
}

func TestOnlineOrder_EventWrittenWithPaymentReference(t *testing.T) {
	repo := setupTestDB(t)

	ctx := context.Background()
	order := newOnlineOrder("9876543210", "idem-1")
	require.NoError(t, repo.CreateOrder(ctx, order))

	events, err := repo.GetUnprocessedEvents(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, events, "an online order is not announced before its payment session exists")

	require.NoError(t, repo.SetPaymentReference(ctx, order.ID, "pay_123"))

	events, err = repo.GetUnprocessedEvents(ctx, 10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, order.ID.String(), events[0].AggregateID)

	var payload OrderCreatedPayload
	require.NoError(t, json.Unmarshal(events[0].Payload, &payload))
	assert.Equal(t, order.CartOwnerID, payload.CartOwnerID)
	assert.Equal(t, string(domain.PaymentMethodOnline), payload.PaymentMethod)
	assert.Equal(t, order.Items, payload.Items)
}

func TestOnlineOrder_PaymentFailureLeavesNoEventAndReleasesKey(t *testing.T) {
	repo := setupTestDB(t)

	ctx := context.Background()
	failed := newOnlineOrder("9876543210", "idem-1")
	require.NoError(t, repo.CreateOrder(ctx, failed))
	require.NoError(t, repo.MarkPaymentFailed(ctx, failed.ID))

	events, err := repo.GetUnprocessedEvents(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, events, "a cancelled order must never clear the cart")

	assert.ErrorIs(t, repo.SetPaymentReference(ctx, failed.ID, "pay_late"), ErrOrderNotFound)
	events, err = repo.GetUnprocessedEvents(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, events)

	_, err = repo.GetOrderByIdempotencyKey(ctx, failed.CartOwnerID, "idem-1")
	assert.ErrorIs(t, err, ErrOrderNotFound)

	retry := newOnlineOrder("9876543210", "idem-1")
	require.NoError(t, repo.CreateOrder(ctx, retry))
	fetched, err := repo.GetOrderByIdempotencyKey(ctx, retry.CartOwnerID, "idem-1")
	require.NoError(t, err)
	assert.Equal(t, retry.ID, fetched.ID)

	cancelled, err := repo.GetOrderByID(ctx, failed.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusCancelled, cancelled.Status)
	assert.Empty(t, cancelled.IdempotencyKey)
}

func TestContextCancellation(t *testing.T) {
	repo := setupTestDB(t)

	ctx, cancel := context.WithTimeout(context.Background(), 1*time.Nanosecond)
	defer cancel()

	time.Sleep(10 * time.Millisecond) // Ensure context is cancelled

	_, err := repo.GetOrderByID(ctx, uuid.New())
	assert.Error(t, err)
}
