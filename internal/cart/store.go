// Package cart holds the shopping cart state engine and the service that
// persists it per owner.
package cart

import (
	"encoding/json"
	"time"

	"github.com/fjod/bagshop/internal/domain"
)

// Store is the cart reducer. It is not safe for concurrent use; Service
// serializes access per owner.
type Store struct {
	ownerID   string
	items     []domain.CartItem
	open      bool
	createdAt time.Time
	updatedAt time.Time

	subtotal   int64
	totalItems int
}

func New() *Store {
	return &Store{}
}

// FromCart rebuilds a store from its persisted form, dropping lines that
// could never have been produced by the store itself.
func FromCart(c *domain.Cart) *Store {
	s := New()
	if c == nil {
		return s
	}
	s.ownerID = c.OwnerID
	s.open = c.IsOpen
	s.createdAt = c.CreatedAt
	s.updatedAt = c.UpdatedAt
	for _, item := range c.Items {
		if item.Product.ID == "" || item.Quantity < 1 {
			continue
		}
		if i := s.indexOf(item.Product.ID); i >= 0 {
			s.items[i].Quantity += item.Quantity
			continue
		}
		s.items = append(s.items, item)
	}
	s.recompute()
	return s
}

// Restore decodes a persisted cart blob. Absent or malformed data yields an
// empty cart.
func Restore(data []byte) *Store {
	if len(data) == 0 {
		return New()
	}
	var c domain.Cart
	if err := json.Unmarshal(data, &c); err != nil {
		return New()
	}
	return FromCart(&c)
}

func (s *Store) Marshal() ([]byte, error) {
	return json.Marshal(s.Cart())
}

// Add appends a line or grows the quantity of the existing line for the
// product. Quantities below one are ignored.
func (s *Store) Add(p domain.Product, quantity int, color *domain.SelectedColor) {
	if quantity < 1 || p.ID == "" {
		return
	}
	if i := s.indexOf(p.ID); i >= 0 {
		s.items[i].Quantity += quantity
		if color != nil {
			s.items[i].SelectedColor = color
		}
	} else {
		s.items = append(s.items, domain.CartItem{
			Product:       p,
			Quantity:      quantity,
			SelectedColor: color,
		})
	}
	s.recompute()
}

// UpdateQuantity sets the quantity of a line; zero or less removes it.
func (s *Store) UpdateQuantity(productID string, quantity int) {
	i := s.indexOf(productID)
	if i < 0 {
		return
	}
	if quantity <= 0 {
		s.removeAt(i)
	} else {
		s.items[i].Quantity = quantity
	}
	s.recompute()
}

func (s *Store) Remove(productID string) {
	if i := s.indexOf(productID); i >= 0 {
		s.removeAt(i)
		s.recompute()
	}
}

func (s *Store) Clear() {
	s.items = nil
	s.recompute()
}

func (s *Store) Open()  { s.open = true }
func (s *Store) Close() { s.open = false }

func (s *Store) IsOpen() bool       { return s.open }
func (s *Store) Subtotal() int64    { return s.subtotal }
func (s *Store) TotalItems() int    { return s.totalItems }
func (s *Store) IsEmpty() bool      { return len(s.items) == 0 }
func (s *Store) OwnerID() string    { return s.ownerID }
func (s *Store) SetOwner(id string) { s.ownerID = id }

func (s *Store) Items() []domain.CartItem {
	out := make([]domain.CartItem, len(s.items))
	copy(out, s.items)
	return out
}

func (s *Store) Find(productID string) (domain.CartItem, bool) {
	if i := s.indexOf(productID); i >= 0 {
		return s.items[i], true
	}
	return domain.CartItem{}, false
}

// Cart returns the persisted form of the store.
func (s *Store) Cart() *domain.Cart {
	items := s.Items()
	if items == nil {
		items = []domain.CartItem{}
	}
	return &domain.Cart{
		OwnerID:   s.ownerID,
		Items:     items,
		IsOpen:    s.open,
		CreatedAt: s.createdAt,
		UpdatedAt: s.updatedAt,
	}
}

func (s *Store) indexOf(productID string) int {
	for i := range s.items {
		if s.items[i].Product.ID == productID {
			return i
		}
	}
	return -1
}

func (s *Store) removeAt(i int) {
	s.items = append(s.items[:i], s.items[i+1:]...)
}

func (s *Store) recompute() {
	var subtotal int64
	var count int
	for _, item := range s.items {
		subtotal += item.Product.Price * int64(item.Quantity)
		count += item.Quantity
	}
	s.subtotal = subtotal
	s.totalItems = count
}
