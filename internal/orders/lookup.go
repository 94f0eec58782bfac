package orders

import (
	"context"
	"fmt"

	"github.com/fjod/bagshop/internal/domain"
	"github.com/google/uuid"
)

// OrderReader is the read side of the order store.
type OrderReader interface {
	GetOrderByID(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	ListOrdersByPhone(ctx context.Context, phone string) ([]*domain.Order, error)
}

// Lookup fetches orders and renders them with a Tracker.
type Lookup struct {
	repo    OrderReader
	tracker *Tracker
}

func NewLookup(repo OrderReader, tracker *Tracker) *Lookup {
	return &Lookup{repo: repo, tracker: tracker}
}

func (l *Lookup) Get(ctx context.Context, id uuid.UUID) (TrackingView, error) {
	o, err := l.repo.GetOrderByID(ctx, id)
	if err != nil {
		return TrackingView{}, fmt.Errorf("get order %s: %w", id, err)
	}
	return l.tracker.View(o), nil
}

// ListForCustomer returns the customer's orders, newest first.
func (l *Lookup) ListForCustomer(ctx context.Context, phone string) ([]TrackingView, error) {
	list, err := l.repo.ListOrdersByPhone(ctx, phone)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	views := make([]TrackingView, 0, len(list))
	for _, o := range list {
		views = append(views, l.tracker.View(o))
	}
	return views, nil
}
