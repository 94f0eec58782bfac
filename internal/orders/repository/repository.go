package repository

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/url"
	"strconv"
	"time"

	"github.com/fjod/bagshop/internal/domain"
	"github.com/google/uuid"
)

var (
	ErrOrderNotFound  = errors.New("order not found")
	ErrDuplicateOrder = errors.New("order with this idempotency key already exists")
)

// EventOrderCreated is written to the outbox with every new order.
const EventOrderCreated = "order.created"

type Credentials struct {
	Host              string
	Port              int
	User              string
	Password          string
	DBName            string
	MigrationsDirPath string
}

// DSN renders the credentials as a lib/pq connection URL.
func (c *Credentials) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     net.JoinHostPort(c.Host, strconv.Itoa(c.Port)),
		Path:     "/" + c.DBName,
		RawQuery: "sslmode=disable",
	}
	return u.String()
}

type OrderRepository interface {
	// CreateOrder stores the order. Its order.created outbox event is written
	// in the same transaction for cash on delivery, and by SetPaymentReference
	// for online orders.
	CreateOrder(ctx context.Context, order *domain.Order) error
	GetOrderByID(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	GetOrderByIdempotencyKey(ctx context.Context, ownerID, key string) (*domain.Order, error)
	ListOrdersByPhone(ctx context.Context, phone string) ([]*domain.Order, error)
	SetPaymentReference(ctx context.Context, id uuid.UUID, reference string) error
	MarkPaymentFailed(ctx context.Context, id uuid.UUID) error
}

type OutboxRepository interface {
	GetUnprocessedEvents(ctx context.Context, limit int) ([]*OutboxEvent, error)
	MarkEventAsProcessed(ctx context.Context, id int64) error
}

type OutboxEvent struct {
	ID          int64
	AggregateID string
	EventType   string
	Payload     json.RawMessage
	CreatedAt   time.Time
}

// OrderCreatedPayload is the body of an order.created event.
type OrderCreatedPayload struct {
	OrderID       string             `json:"order_id"`
	CartOwnerID   string             `json:"cart_owner_id"`
	CustomerPhone string             `json:"customer_phone"`
	Items         []domain.OrderItem `json:"items"`
	TotalAmount   int64              `json:"total_amount"`
	Currency      string             `json:"currency"`
	PaymentMethod string             `json:"payment_method"`
	CreatedAt     time.Time          `json:"created_at"`
}
