package checkout

import (
	"context"
	"sync"
	"time"

	"github.com/fjod/bagshop/internal/cart"
	"github.com/fjod/bagshop/internal/domain"
	"github.com/fjod/bagshop/internal/orders/repository"
	"github.com/fjod/bagshop/internal/payment"
	"github.com/google/uuid"
)

// MockOrderStore implements OrderStore for testing
type MockOrderStore struct {
	m            sync.Mutex
	Orders       map[uuid.UUID]*domain.Order
	CreateErr    error
	GetErr       error
	SetRefErr    error
	FailedIDs    []uuid.UUID
	CreateCalled int
}

func newMockOrderStore() *MockOrderStore {
	return &MockOrderStore{Orders: map[uuid.UUID]*domain.Order{}}
}

func (m *MockOrderStore) CreateOrder(_ context.Context, order *domain.Order) error {
	m.m.Lock()
	defer m.m.Unlock()
	m.CreateCalled++
	if m.CreateErr != nil {
		return m.CreateErr
	}
	if order.IdempotencyKey != "" {
		for _, o := range m.Orders {
			if o.CartOwnerID == order.CartOwnerID && o.IdempotencyKey == order.IdempotencyKey {
				return repository.ErrDuplicateOrder
			}
		}
	}
	stored := *order
	m.Orders[order.ID] = &stored
	return nil
}

func (m *MockOrderStore) GetOrderByIdempotencyKey(_ context.Context, ownerID, key string) (*domain.Order, error) {
	m.m.Lock()
	defer m.m.Unlock()
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	for _, o := range m.Orders {
		if o.CartOwnerID == ownerID && o.IdempotencyKey == key {
			return o, nil
		}
	}
	return nil, repository.ErrOrderNotFound
}

func (m *MockOrderStore) SetPaymentReference(_ context.Context, id uuid.UUID, reference string) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.SetRefErr != nil {
		return m.SetRefErr
	}
	o, ok := m.Orders[id]
	if !ok {
		return repository.ErrOrderNotFound
	}
	o.PaymentReference = reference
	return nil
}

func (m *MockOrderStore) MarkPaymentFailed(_ context.Context, id uuid.UUID) error {
	m.m.Lock()
	defer m.m.Unlock()
	m.FailedIDs = append(m.FailedIDs, id)
	if o, ok := m.Orders[id]; ok {
		o.Status = domain.OrderStatusCancelled
		o.PaymentStatus = domain.PaymentStatusFailed
		o.IdempotencyKey = ""
	}
	return nil
}

func (m *MockOrderStore) only() *domain.Order {
	m.m.Lock()
	defer m.m.Unlock()
	for _, o := range m.Orders {
		return o
	}
	return nil
}

// MockCartService implements CartService for testing
type MockCartService struct {
	View      cart.View
	GetErr    error
	SettleErr error
	Settled   []string
	Items     [][]domain.OrderItem
}

func (m *MockCartService) GetCart(context.Context, string) (cart.View, error) {
	return m.View, m.GetErr
}

func (m *MockCartService) Settle(_ context.Context, ownerID string, items []domain.OrderItem, _ time.Time) error {
	if m.SettleErr != nil {
		return m.SettleErr
	}
	m.Settled = append(m.Settled, ownerID)
	m.Items = append(m.Items, items)
	return nil
}

// MockGateway implements PaymentGateway for testing
type MockGateway struct {
	Session  *payment.Session
	Err      error
	Requests []payment.SessionRequest
}

func (m *MockGateway) CreateSession(_ context.Context, req payment.SessionRequest) (*payment.Session, error) {
	m.Requests = append(m.Requests, req)
	return m.Session, m.Err
}
