package repository

import (
	"context"
	"errors"

	"github.com/fjod/bagshop/internal/domain"
)

var (
	ErrCartNotFound  = errors.New("cart not found")
	ErrMalformedCart = errors.New("stored cart document is malformed")
)

// CartRepository stores one cart document per owner. Writes replace the whole
// line-item list; the last writer wins.
type CartRepository interface {
	GetCart(ctx context.Context, ownerID string) (*domain.Cart, error)
	UpsertCart(ctx context.Context, cart *domain.Cart) error
	DeleteCart(ctx context.Context, ownerID string) error
}
