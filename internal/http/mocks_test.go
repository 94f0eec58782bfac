package http

import (
	"context"
	"net/http"
	"sort"
	"sync"

	"github.com/fjod/bagshop/internal/auth"
	"github.com/fjod/bagshop/internal/cart"
	catalog "github.com/fjod/bagshop/internal/catalog/repository"
	"github.com/fjod/bagshop/internal/checkout"
	"github.com/fjod/bagshop/internal/domain"
	"github.com/fjod/bagshop/internal/orders"
	orderrepo "github.com/fjod/bagshop/internal/orders/repository"
	"github.com/fjod/bagshop/internal/pricing"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

var (
	tote = domain.Product{
		ID:       "tote-classic",
		Name:     "Classic Tote",
		Category: "totes",
		Price:    1000,
		Colors: []domain.ColorOption{
			{Name: "Tan", Swatch: "#c8a27a"},
			{Name: "Black", Swatch: "#111111"},
		},
	}
	wallet = domain.Product{
		ID:       "wallet-slim",
		Name:     "Slim Wallet",
		Category: "wallets",
		Price:    500,
	}
)

func testPolicy() pricing.Policy {
	p, err := pricing.NewPolicy(0.30)
	if err != nil {
		panic(err)
	}
	return p
}

type mockProducts struct {
	products   []domain.Product
	categories []string
	err        error

	gotCategory string
	gotLimit    int
	gotOffset   int
}

func (m *mockProducts) ListProducts(_ context.Context, category string, limit, offset int) ([]domain.Product, int, error) {
	m.gotCategory, m.gotLimit, m.gotOffset = category, limit, offset
	if m.err != nil {
		return nil, 0, m.err
	}
	var matched []domain.Product
	for _, p := range m.products {
		if category == "" || p.Category == category {
			matched = append(matched, p)
		}
	}
	total := len(matched)
	if offset >= total {
		return []domain.Product{}, total, nil
	}
	return matched[offset:min(offset+limit, total)], total, nil
}

func (m *mockProducts) GetProduct(_ context.Context, id string) (*domain.Product, error) {
	if m.err != nil {
		return nil, m.err
	}
	for _, p := range m.products {
		if p.ID == id {
			return &p, nil
		}
	}
	return nil, catalog.ErrProductNotFound
}

func (m *mockProducts) Categories(context.Context) ([]string, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.categories, nil
}

// mockCarts keeps one cart.Store per owner.
type mockCarts struct {
	mu     sync.Mutex
	stores map[string]*cart.Store
	err    error

	imported []byte
}

func newMockCarts() *mockCarts {
	return &mockCarts{stores: make(map[string]*cart.Store)}
}

func (m *mockCarts) store(owner string) *cart.Store {
	s, ok := m.stores[owner]
	if !ok {
		s = cart.New()
		s.SetOwner(owner)
		m.stores[owner] = s
	}
	return s
}

func (m *mockCarts) mutate(owner string, fn func(*cart.Store)) (cart.View, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return cart.View{}, m.err
	}
	s := m.store(owner)
	fn(s)
	return s.View(), nil
}

func (m *mockCarts) GetCart(_ context.Context, owner string) (cart.View, error) {
	return m.mutate(owner, func(*cart.Store) {})
}

func (m *mockCarts) AddItem(_ context.Context, owner string, p domain.Product, qty int, color *domain.SelectedColor) (cart.View, error) {
	return m.mutate(owner, func(s *cart.Store) { s.Add(p, qty, color) })
}

func (m *mockCarts) UpdateQuantity(_ context.Context, owner, productID string, qty int) (cart.View, error) {
	return m.mutate(owner, func(s *cart.Store) { s.UpdateQuantity(productID, qty) })
}

func (m *mockCarts) RemoveItem(_ context.Context, owner, productID string) (cart.View, error) {
	return m.mutate(owner, func(s *cart.Store) { s.Remove(productID) })
}

func (m *mockCarts) SetOpen(_ context.Context, owner string, open bool) (cart.View, error) {
	return m.mutate(owner, func(s *cart.Store) {
		if open {
			s.Open()
		} else {
			s.Close()
		}
	})
}

func (m *mockCarts) ClearCart(_ context.Context, owner string) error {
	_, err := m.mutate(owner, func(s *cart.Store) { s.Clear() })
	return err
}

func (m *mockCarts) Import(_ context.Context, owner string, blob []byte) (cart.View, error) {
	m.imported = blob
	return m.mutate(owner, func(s *cart.Store) {
		for _, it := range cart.Restore(blob).Items() {
			s.Add(it.Product, it.Quantity, it.SelectedColor)
		}
	})
}

type mockSubmitter struct {
	got  checkout.Request
	conf *checkout.Confirmation
	err  error
}

func (m *mockSubmitter) Submit(_ context.Context, req checkout.Request) (*checkout.Confirmation, error) {
	m.got = req
	if m.err != nil {
		return nil, m.err
	}
	return m.conf, nil
}

type mockLookup struct {
	views map[uuid.UUID]orders.TrackingView
	err   error

	gotPhone string
}

func (m *mockLookup) Get(_ context.Context, id uuid.UUID) (orders.TrackingView, error) {
	if m.err != nil {
		return orders.TrackingView{}, m.err
	}
	v, ok := m.views[id]
	if !ok {
		return orders.TrackingView{}, orderrepo.ErrOrderNotFound
	}
	return v, nil
}

func (m *mockLookup) ListForCustomer(_ context.Context, phone string) ([]orders.TrackingView, error) {
	m.gotPhone = phone
	if m.err != nil {
		return nil, m.err
	}
	out := []orders.TrackingView{}
	for _, v := range m.views {
		if v.Customer.Phone == phone {
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PlacedAt.After(out[j].PlacedAt) })
	return out, nil
}

type mockAuth struct {
	sessions map[string]*auth.Session
	sendErr  error
	otp      string

	sentTo    string
	loggedOut string
}

func (m *mockAuth) Session(_ context.Context, token string) (*auth.Session, error) {
	s, ok := m.sessions[token]
	if !ok {
		return nil, auth.ErrSessionNotFound
	}
	return s, nil
}

func (m *mockAuth) SendOTP(_ context.Context, phone string) error {
	if m.sendErr != nil {
		return m.sendErr
	}
	normalized, ok := domain.NormalizePhone(phone)
	if !ok {
		return auth.ErrInvalidPhone
	}
	m.sentTo = normalized
	return nil
}

func (m *mockAuth) VerifyOTP(_ context.Context, phone, otp string) (*auth.Session, error) {
	if otp != m.otp {
		return nil, auth.ErrInvalidOTP
	}
	sess := &auth.Session{Token: uuid.NewString(), Phone: phone}
	if m.sessions == nil {
		m.sessions = make(map[string]*auth.Session)
	}
	m.sessions[sess.Token] = sess
	return sess, nil
}

func (m *mockAuth) Logout(_ context.Context, token string) error {
	m.loggedOut = token
	delete(m.sessions, token)
	return nil
}

func withSession(r *http.Request, sess *auth.Session) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), sessionKey, sess))
}

func withOwner(r *http.Request, owner string) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), ownerKey, owner))
}

func withURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}
