// Package poller consumes order events and settles the carts they were
// placed from.
package poller

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/fjod/bagshop/internal/domain"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const (
	GroupID          = "cart-service-consumer"
	eventTypeHeader  = "event_type"
	orderCreatedType = "order.created"
)

// CartSettler is the part of cart.Service the poller needs.
type CartSettler interface {
	Settle(ctx context.Context, ownerID string, items []domain.OrderItem, placedAt time.Time) error
}

type messageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

type Poller struct {
	carts  CartSettler
	reader messageReader
	log    *zap.Logger
}

func NewPoller(carts CartSettler, log *zap.Logger, topic string, brokers ...string) *Poller {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  GroupID,
		MaxBytes: 10e6, // 10MB
	})
	return &Poller{carts: carts, reader: reader, log: log}
}

func (p *Poller) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		p.handleNext(ctx)
	}
}

func (p *Poller) Close() {
	if err := p.reader.Close(); err != nil {
		p.log.Warn("error closing reader", zap.Error(err))
	}
}

type orderCreated struct {
	OrderID     string             `json:"order_id"`
	CartOwnerID string             `json:"cart_owner_id"`
	Items       []domain.OrderItem `json:"items"`
	CreatedAt   time.Time          `json:"created_at"`
}

func (p *Poller) handleNext(ctx context.Context) {
	m, err := p.reader.ReadMessage(ctx)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			p.log.Warn("error reading message", zap.Error(err))
		}
		return
	}

	if t := header(m, eventTypeHeader); t != "" && t != orderCreatedType {
		return
	}

	var event orderCreated
	if err := json.Unmarshal(m.Value, &event); err != nil {
		p.log.Warn("error parsing message", zap.Error(err), zap.ByteString("key", m.Key))
		return
	}
	if event.CartOwnerID == "" {
		p.log.Warn("missing cart_owner_id", zap.String("order_id", event.OrderID))
		return
	}

	if err := p.carts.Settle(ctx, event.CartOwnerID, event.Items, event.CreatedAt); err != nil {
		p.log.Error("failed to settle cart",
			zap.String("order_id", event.OrderID),
			zap.String("owner", event.CartOwnerID),
			zap.Error(err))
		return
	}
	p.log.Debug("cart settled", zap.String("order_id", event.OrderID), zap.String("owner", event.CartOwnerID))
}

func header(m kafka.Message, key string) string {
	for _, h := range m.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}
