package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/fjod/bagshop/internal/domain"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

type Repository struct {
	db *sql.DB
}

// NewRepository opens the orders database and checks it answers.
func NewRepository(cred *Credentials) (*Repository, error) {
	db, err := sql.Open("postgres", cred.DSN())
	if err != nil {
		return nil, fmt.Errorf("open orders db: %w", err)
	}
	db.SetMaxOpenConns(50)
	db.SetMaxIdleConns(10)
	db.SetConnMaxIdleTime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping orders db %s:%d: %w", cred.Host, cred.Port, err)
	}
	return &Repository{db: db}, nil
}

// RunMigrations applies the schema under cred.MigrationsDirPath. The orders
// schema keeps its own version table so it can share a database.
func (r *Repository) RunMigrations(cred *Credentials) error {
	driver, err := postgres.WithInstance(r.db, &postgres.Config{
		MigrationsTable: "orders_schema_migrations",
	})
	if err != nil {
		return fmt.Errorf("migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance("file://"+cred.MigrationsDirPath, "postgres", driver)
	if err != nil {
		return fmt.Errorf("load migrations from %s: %w", cred.MigrationsDirPath, err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply order migrations: %w", err)
	}
	return nil
}

func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// CreateOrder stores a new order. Cash on delivery orders get their
// order.created outbox event in the same transaction.
func (r *Repository) CreateOrder(ctx context.Context, order *domain.Order) error {
	itemsJSON, err := json.Marshal(order.Items)
	if err != nil {
		return fmt.Errorf("failed to marshal order items: %w", err)
	}
	shippingJSON, err := json.Marshal(order.Shipping)
	if err != nil {
		return fmt.Errorf("failed to marshal shipping address: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	query := `INSERT INTO orders (id, cart_owner_id, customer_name, customer_phone, customer_email, shipping, items,
	                              total_amount, currency, status, payment_status, payment_method, payment_reference,
	                              idempotency_key, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, NOW(), NOW())
	          RETURNING created_at, updated_at`

	insertErr := tx.QueryRowContext(ctx, query,
		order.ID,
		order.CartOwnerID,
		order.Customer.Name,
		order.Customer.Phone,
		order.Customer.Email,
		shippingJSON,
		itemsJSON,
		order.TotalAmount,
		order.Currency,
		order.Status,
		order.PaymentStatus,
		order.PaymentMethod,
		order.PaymentReference,
		nullable(order.IdempotencyKey),
	).Scan(&order.CreatedAt, &order.UpdatedAt)
	if insertErr != nil {
		var pqErr *pq.Error
		if errors.As(insertErr, &pqErr) && pqErr.Code == "23505" {
			return ErrDuplicateOrder
		}
		return fmt.Errorf("insert order: %w", insertErr)
	}

	// Online orders are announced once their payment session is recorded.
	if order.PaymentMethod == domain.PaymentMethodCOD {
		if err := insertOrderCreated(ctx, tx, order); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit order: %w", err)
	}
	return nil
}

const orderColumns = `id, cart_owner_id, customer_name, customer_phone, customer_email, shipping, items,
	total_amount, currency, status, payment_status, payment_method, payment_reference,
	COALESCE(idempotency_key, ''), created_at, updated_at`

func (r *Repository) GetOrderByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	order, err := scanOrder(r.db.QueryRowContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query order by id: %w", err)
	}
	return order, nil
}

// GetOrderByIdempotencyKey finds the owner's live order for a key. Keys are
// scoped per cart owner and released when an order's payment fails.
func (r *Repository) GetOrderByIdempotencyKey(ctx context.Context, ownerID, key string) (*domain.Order, error) {
	order, err := scanOrder(r.db.QueryRowContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE cart_owner_id = $1 AND idempotency_key = $2`, ownerID, key))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query order by idempotency key: %w", err)
	}
	return order, nil
}

func (r *Repository) ListOrdersByPhone(ctx context.Context, phone string) ([]*domain.Order, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE customer_phone = $1 ORDER BY created_at DESC`, phone)
	if err != nil {
		return nil, fmt.Errorf("query orders by phone: %w", err)
	}
	defer rows.Close()

	orders := []*domain.Order{}
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order row: %w", err)
		}
		orders = append(orders, order)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return orders, nil
}

// SetPaymentReference records the gateway session of an online order and
// writes its order.created outbox event in the same transaction. Cancelled
// orders are not found.
func (r *Repository) SetPaymentReference(ctx context.Context, id uuid.UUID, reference string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	order, err := scanOrder(tx.QueryRowContext(ctx,
		`UPDATE orders SET payment_reference = $2, updated_at = NOW()
		 WHERE id = $1 AND status <> $3
		 RETURNING `+orderColumns, id, reference, domain.OrderStatusCancelled))
	if errors.Is(err, sql.ErrNoRows) {
		return ErrOrderNotFound
	}
	if err != nil {
		return fmt.Errorf("set payment reference: %w", err)
	}

	if err := insertOrderCreated(ctx, tx, order); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit payment reference: %w", err)
	}
	return nil
}

// MarkPaymentFailed cancels an order whose payment session could not be
// opened and releases its idempotency key so the shopper can retry.
func (r *Repository) MarkPaymentFailed(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE orders SET status = $2, payment_status = $3, idempotency_key = NULL, updated_at = NOW() WHERE id = $1`,
		id, domain.OrderStatusCancelled, domain.PaymentStatusFailed)
	if err != nil {
		return fmt.Errorf("mark payment failed: %w", err)
	}
	return expectOneRow(res)
}

func (r *Repository) GetUnprocessedEvents(ctx context.Context, limit int) ([]*OutboxEvent, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, aggregate_id, event_type, payload, created_at
		 FROM outbox_events
		 WHERE processed_at IS NULL
		 ORDER BY id
		 LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("query outbox events: %w", err)
	}
	defer rows.Close()

	var events []*OutboxEvent
	for rows.Next() {
		var e OutboxEvent
		if err := rows.Scan(&e.ID, &e.AggregateID, &e.EventType, &e.Payload, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan outbox event: %w", err)
		}
		events = append(events, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return events, nil
}

func (r *Repository) MarkEventAsProcessed(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE outbox_events SET processed_at = NOW() WHERE id = $1 AND processed_at IS NULL`, id)
	if err != nil {
		return fmt.Errorf("mark event processed: %w", err)
	}
	return nil
}

func (r *Repository) Close() error {
	return r.db.Close()
}

func insertOrderCreated(ctx context.Context, tx *sql.Tx, order *domain.Order) error {
	payload, err := json.Marshal(OrderCreatedPayload{
		OrderID:       order.ID.String(),
		CartOwnerID:   order.CartOwnerID,
		CustomerPhone: order.Customer.Phone,
		Items:         order.Items,
		TotalAmount:   order.TotalAmount,
		Currency:      order.Currency,
		PaymentMethod: string(order.PaymentMethod),
		CreatedAt:     order.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal order event: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO outbox_events (aggregate_id, event_type, payload) VALUES ($1, $2, $3)`,
		order.ID.String(), EventOrderCreated, payload)
	if err != nil {
		return fmt.Errorf("insert outbox event: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(s rowScanner) (*domain.Order, error) {
	var (
		order                   domain.Order
		shippingJSON, itemsJSON []byte
	)
	err := s.Scan(
		&order.ID,
		&order.CartOwnerID,
		&order.Customer.Name,
		&order.Customer.Phone,
		&order.Customer.Email,
		&shippingJSON,
		&itemsJSON,
		&order.TotalAmount,
		&order.Currency,
		&order.Status,
		&order.PaymentStatus,
		&order.PaymentMethod,
		&order.PaymentReference,
		&order.IdempotencyKey,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(shippingJSON, &order.Shipping); err != nil {
		return nil, fmt.Errorf("unmarshal shipping address: %w", err)
	}
	if err := json.Unmarshal(itemsJSON, &order.Items); err != nil {
		return nil, fmt.Errorf("unmarshal order items: %w", err)
	}
	return &order, nil
}

func expectOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrOrderNotFound
	}
	return nil
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
