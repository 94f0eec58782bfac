package cart

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/fjod/bagshop/internal/cart/cache"
	"github.com/fjod/bagshop/internal/cart/repository"
	"github.com/fjod/bagshop/internal/domain"
	"github.com/fjod/bagshop/internal/logger"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// MaxLineQuantity is the most units a single cart line may hold.
const MaxLineQuantity = 99

var ErrLineLimit = errors.New("line quantity limit exceeded")

// View is a cart with its derived totals.
type View struct {
	OwnerID    string            `json:"ownerId"`
	Items      []domain.CartItem `json:"items"`
	Subtotal   int64             `json:"subtotal"`
	TotalItems int               `json:"totalItems"`
	IsEmpty    bool              `json:"isEmpty"`
	IsOpen     bool              `json:"isOpen"`
	UpdatedAt  time.Time         `json:"updatedAt"`
}

func (s *Store) View() View {
	c := s.Cart()
	return View{
		OwnerID:    s.ownerID,
		Items:      c.Items,
		Subtotal:   s.subtotal,
		TotalItems: s.totalItems,
		IsEmpty:    s.IsEmpty(),
		IsOpen:     s.open,
		UpdatedAt:  s.updatedAt,
	}
}

type Service struct {
	repo  repository.CartRepository
	cache cache.CartCache
	log   *zap.Logger
	sfg   singleflight.Group

	locksMu sync.Mutex
	locks   map[string]*ownerLock
}

type ownerLock struct {
	mu   sync.Mutex
	refs int
}

func NewService(repo repository.CartRepository, cache cache.CartCache, log *zap.Logger) *Service {
	return &Service{
		repo:  repo,
		cache: cache,
		log:   log,
		locks: make(map[string]*ownerLock),
	}
}

// GetCart reads through the cache. A missing or unreadable cart is returned
// as an empty cart.
func (s *Service) GetCart(ctx context.Context, ownerID string) (View, error) {
	v, err, _ := s.sfg.Do(ownerID, func() (interface{}, error) {
		cached, err := s.cache.Get(ctx, ownerID)
		if err == nil {
			return FromCart(cached), nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			logger.Ctx(ctx, s.log).Warn("cart cache get failed", zap.String("owner", ownerID), zap.Error(err))
		}

		// Load and fill under the owner lock: a mutation committed in
		// between would otherwise be shadowed by the older copy.
		unlock := s.lock(ownerID)
		defer unlock()

		store, stored, err := s.load(ctx, ownerID)
		if err != nil {
			return nil, err
		}
		if stored != nil {
			s.fillCache(ownerID, stored)
		}
		return store, nil
	})
	if err != nil {
		return View{}, err
	}

	store := v.(*Store)
	view := store.View()
	view.OwnerID = ownerID
	return view, nil
}

// AddItem grows the product's line. A line may not exceed MaxLineQuantity;
// an add that would push it past the limit fails with ErrLineLimit.
func (s *Service) AddItem(ctx context.Context, ownerID string, p domain.Product, quantity int, color *domain.SelectedColor) (View, error) {
	return s.mutate(ctx, ownerID, func(st *Store) error {
		line, _ := st.Find(p.ID)
		if line.Quantity+quantity > MaxLineQuantity {
			return ErrLineLimit
		}
		st.Add(p, quantity, color)
		return nil
	})
}

func (s *Service) UpdateQuantity(ctx context.Context, ownerID, productID string, quantity int) (View, error) {
	return s.mutate(ctx, ownerID, func(st *Store) error {
		if quantity > MaxLineQuantity {
			return ErrLineLimit
		}
		st.UpdateQuantity(productID, quantity)
		return nil
	})
}

func (s *Service) RemoveItem(ctx context.Context, ownerID, productID string) (View, error) {
	return s.mutate(ctx, ownerID, func(st *Store) error {
		st.Remove(productID)
		return nil
	})
}

func (s *Service) SetOpen(ctx context.Context, ownerID string, open bool) (View, error) {
	return s.mutate(ctx, ownerID, func(st *Store) error {
		if open {
			st.Open()
		} else {
			st.Close()
		}
		return nil
	})
}

// Import merges a client-persisted cart blob into the owner's cart. Lines of
// the blob are added to existing lines the same way Add does, and merged
// lines are clamped to MaxLineQuantity.
func (s *Service) Import(ctx context.Context, ownerID string, blob []byte) (View, error) {
	incoming := Restore(blob)
	return s.mutate(ctx, ownerID, func(st *Store) error {
		for _, item := range incoming.Items() {
			st.Add(item.Product, item.Quantity, item.SelectedColor)
			if line, ok := st.Find(item.Product.ID); ok && line.Quantity > MaxLineQuantity {
				st.UpdateQuantity(item.Product.ID, MaxLineQuantity)
			}
		}
		return nil
	})
}

// Settle takes the lines of a placed order out of the owner's cart. Lines
// the shopper added after the snapshot stay, and a line whose quantity grew
// keeps the difference. When placedAt is set and the stored cart was
// modified after it, the cart is left untouched.
func (s *Service) Settle(ctx context.Context, ownerID string, items []domain.OrderItem, placedAt time.Time) error {
	unlock := s.lock(ownerID)
	defer unlock()

	store, stored, err := s.load(ctx, ownerID)
	if err != nil {
		return err
	}
	if stored == nil {
		return nil
	}
	if !placedAt.IsZero() && stored.UpdatedAt.After(placedAt) {
		logger.Ctx(ctx, s.log).Info("cart changed after order, not settling",
			zap.String("owner", ownerID),
			zap.Time("placed_at", placedAt),
			zap.Time("updated_at", stored.UpdatedAt))
		return nil
	}

	for _, item := range items {
		if line, ok := store.Find(item.ProductID); ok {
			store.UpdateQuantity(item.ProductID, line.Quantity-item.Quantity)
		}
	}

	if store.IsEmpty() {
		err = s.repo.DeleteCart(ctx, ownerID)
		if errors.Is(err, repository.ErrCartNotFound) {
			err = nil
		}
	} else {
		persisted := store.Cart()
		persisted.OwnerID = ownerID
		err = s.repo.UpsertCart(ctx, persisted)
	}
	if err != nil {
		logger.Ctx(ctx, s.log).Error("repo settle cart failed", zap.String("owner", ownerID), zap.Error(err))
		return err
	}
	s.invalidateCache(ownerID)
	return nil
}

// ClearCart deletes the owner's cart. Clearing a cart that does not exist is
// not an error.
func (s *Service) ClearCart(ctx context.Context, ownerID string) error {
	unlock := s.lock(ownerID)
	defer unlock()

	err := s.repo.DeleteCart(ctx, ownerID)
	if err != nil && !errors.Is(err, repository.ErrCartNotFound) {
		logger.Ctx(ctx, s.log).Error("repo delete cart failed", zap.String("owner", ownerID), zap.Error(err))
		return err
	}
	s.invalidateCache(ownerID)
	return nil
}

func (s *Service) mutate(ctx context.Context, ownerID string, op func(*Store) error) (View, error) {
	unlock := s.lock(ownerID)
	defer unlock()

	store, _, err := s.load(ctx, ownerID)
	if err != nil {
		return View{}, err
	}
	if err := op(store); err != nil {
		return View{}, err
	}

	persisted := store.Cart()
	persisted.OwnerID = ownerID
	if err := s.repo.UpsertCart(ctx, persisted); err != nil {
		logger.Ctx(ctx, s.log).Error("repo upsert cart failed", zap.String("owner", ownerID), zap.Error(err))
		return View{}, err
	}
	s.invalidateCache(ownerID)

	view := store.View()
	view.OwnerID = ownerID
	view.UpdatedAt = persisted.UpdatedAt
	return view, nil
}

// load returns the repository copy of the cart. stored is nil when the owner
// has no usable document.
func (s *Service) load(ctx context.Context, ownerID string) (*Store, *domain.Cart, error) {
	stored, err := s.repo.GetCart(ctx, ownerID)
	switch {
	case err == nil:
		store := FromCart(stored)
		store.SetOwner(ownerID)
		return store, stored, nil
	case errors.Is(err, repository.ErrCartNotFound):
	case errors.Is(err, repository.ErrMalformedCart):
		logger.Ctx(ctx, s.log).Warn("discarding malformed cart", zap.String("owner", ownerID), zap.Error(err))
	default:
		return nil, nil, err
	}

	store := New()
	store.SetOwner(ownerID)
	return store, nil, nil
}

func (s *Service) fillCache(ownerID string, c *domain.Cart) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.cache.Set(ctx, ownerID, c); err != nil {
		s.log.Warn("cart cache set failed", zap.String("owner", ownerID), zap.Error(err))
	}
}

func (s *Service) invalidateCache(ownerID string) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.cache.Delete(ctx, ownerID); err != nil {
		s.log.Warn("cart cache invalidate failed", zap.String("owner", ownerID), zap.Error(err))
	}
}

func (s *Service) lock(ownerID string) func() {
	s.locksMu.Lock()
	l, ok := s.locks[ownerID]
	if !ok {
		l = &ownerLock{}
		s.locks[ownerID] = l
	}
	l.refs++
	s.locksMu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		s.locksMu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(s.locks, ownerID)
		}
		s.locksMu.Unlock()
	}
}
