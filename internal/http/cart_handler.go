package http

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/fjod/bagshop/internal/cart"
	catalog "github.com/fjod/bagshop/internal/catalog/repository"
	"github.com/fjod/bagshop/internal/domain"
	"github.com/fjod/bagshop/internal/pricing"
	"github.com/go-chi/chi/v5"
)

type CartService interface {
	GetCart(ctx context.Context, ownerID string) (cart.View, error)
	AddItem(ctx context.Context, ownerID string, p domain.Product, quantity int, color *domain.SelectedColor) (cart.View, error)
	UpdateQuantity(ctx context.Context, ownerID, productID string, quantity int) (cart.View, error)
	RemoveItem(ctx context.Context, ownerID, productID string) (cart.View, error)
	SetOpen(ctx context.Context, ownerID string, open bool) (cart.View, error)
	ClearCart(ctx context.Context, ownerID string) error
	Import(ctx context.Context, ownerID string, blob []byte) (cart.View, error)
}

type ProductGetter interface {
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
}

type CartHandler struct {
	carts    CartService
	products ProductGetter
	policy   pricing.Policy
	timeout  time.Duration
}

func NewCartHandler(carts CartService, products ProductGetter, policy pricing.Policy, timeout time.Duration) *CartHandler {
	return &CartHandler{
		carts:    carts,
		products: products,
		policy:   policy,
		timeout:  timeout,
	}
}

type AddItemRequestDTO struct {
	ProductID     string                `json:"productId"`
	Quantity      int                   `json:"quantity"`
	SelectedColor *domain.SelectedColor `json:"selectedColor,omitempty"`
}

type UpdateQuantityRequestDTO struct {
	Quantity int `json:"quantity"`
}

type CartItemDTO struct {
	domain.CartItem
	Pricing pricing.Quote `json:"pricing"`
}

type CartDTO struct {
	OwnerID           string        `json:"ownerId"`
	Items             []CartItemDTO `json:"items"`
	TotalItems        int           `json:"totalItems"`
	IsEmpty           bool          `json:"isEmpty"`
	IsOpen            bool          `json:"isOpen"`
	Subtotal          int64         `json:"subtotal"`
	SubtotalFormatted string        `json:"subtotalFormatted"`
	Total             int64         `json:"total"`
	TotalFormatted    string        `json:"totalFormatted"`
	Savings           int64         `json:"savings"`
	SavingsFormatted  string        `json:"savingsFormatted"`
	UpdatedAt         *time.Time    `json:"updatedAt,omitempty"`
}

// GET /api/v1/cart
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	view, err := h.carts.GetCart(ctx, ownerFromContext(r.Context()))
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, h.toDTO(view))
}

// POST /api/v1/cart/items
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req AddItemRequestDTO
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.ProductID == "" {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id is required")
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}
	if req.Quantity < 1 || req.Quantity > cart.MaxLineQuantity {
		respondError(w, http.StatusBadRequest, "invalid_quantity", "quantity must be between 1 and 99")
		return
	}

	product, err := h.products.GetProduct(ctx, req.ProductID)
	if err != nil {
		handleError(w, r, err)
		return
	}
	color, ok := resolveColor(product, req.SelectedColor)
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid_color", "selected color is not offered for this product")
		return
	}

	view, err := h.carts.AddItem(ctx, ownerFromContext(r.Context()), *product, req.Quantity, color)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, h.toDTO(view))
}

// PUT /api/v1/cart/items/{product_id}
func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	productID := chi.URLParam(r, "product_id")
	if productID == "" {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id is required")
		return
	}

	var req UpdateQuantityRequestDTO
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.Quantity < 0 || req.Quantity > cart.MaxLineQuantity {
		respondError(w, http.StatusBadRequest, "invalid_quantity", "quantity must be between 0 and 99")
		return
	}

	view, err := h.carts.UpdateQuantity(ctx, ownerFromContext(r.Context()), productID, req.Quantity)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, h.toDTO(view))
}

// DELETE /api/v1/cart/items/{product_id}
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	productID := chi.URLParam(r, "product_id")
	if productID == "" {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id is required")
		return
	}

	view, err := h.carts.RemoveItem(ctx, ownerFromContext(r.Context()), productID)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, h.toDTO(view))
}

// POST /api/v1/cart/open
func (h *CartHandler) Open(w http.ResponseWriter, r *http.Request) {
	h.setOpen(w, r, true)
}

// POST /api/v1/cart/close
func (h *CartHandler) Close(w http.ResponseWriter, r *http.Request) {
	h.setOpen(w, r, false)
}

func (h *CartHandler) setOpen(w http.ResponseWriter, r *http.Request, open bool) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	view, err := h.carts.SetOpen(ctx, ownerFromContext(r.Context()), open)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, h.toDTO(view))
}

// POST /api/v1/cart/import
//
// Merges a cart saved on the client. Products are re-read from the catalog so
// the client cannot set prices; lines for unknown products are dropped.
func (h *CartHandler) Import(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	body, err := io.ReadAll(r.Body)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "could not read body")
		return
	}

	incoming := cart.Restore(body)
	fresh := cart.New()
	for _, item := range incoming.Items() {
		p, err := h.products.GetProduct(ctx, item.Product.ID)
		if errors.Is(err, catalog.ErrProductNotFound) {
			continue
		}
		if err != nil {
			handleError(w, r, err)
			return
		}
		color, ok := resolveColor(p, item.SelectedColor)
		if !ok {
			color = nil
		}
		fresh.Add(*p, min(item.Quantity, cart.MaxLineQuantity), color)
	}
	blob, err := fresh.Marshal()
	if err != nil {
		handleError(w, r, err)
		return
	}

	view, err := h.carts.Import(ctx, ownerFromContext(r.Context()), blob)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, h.toDTO(view))
}

// DELETE /api/v1/cart
func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	owner := ownerFromContext(r.Context())
	if err := h.carts.ClearCart(ctx, owner); err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, h.toDTO(cart.View{OwnerID: owner, Items: []domain.CartItem{}, IsEmpty: true}))
}

func (h *CartHandler) toDTO(v cart.View) CartDTO {
	items := make([]CartItemDTO, 0, len(v.Items))
	var total int64
	for _, it := range v.Items {
		q := h.policy.QuoteItem(it)
		total += q.LineTotal
		items = append(items, CartItemDTO{CartItem: it, Pricing: q})
	}
	dto := CartDTO{
		OwnerID:           v.OwnerID,
		Items:             items,
		TotalItems:        v.TotalItems,
		IsEmpty:           v.IsEmpty,
		IsOpen:            v.IsOpen,
		Subtotal:          v.Subtotal,
		SubtotalFormatted: pricing.FormatINR(v.Subtotal),
		Total:             total,
		TotalFormatted:    pricing.FormatINR(total),
		Savings:           v.Subtotal - total,
		SavingsFormatted:  pricing.FormatINR(v.Subtotal - total),
	}
	if !v.UpdatedAt.IsZero() {
		dto.UpdatedAt = &v.UpdatedAt
	}
	return dto
}

// resolveColor matches a requested color against the product's options by
// name and returns the catalog's swatch for it.
func resolveColor(p *domain.Product, requested *domain.SelectedColor) (*domain.SelectedColor, bool) {
	if requested == nil || requested.Name == "" {
		return nil, true
	}
	if len(p.Colors) == 0 {
		return nil, false
	}
	for _, c := range p.Colors {
		if c.Name == requested.Name {
			return &domain.SelectedColor{Name: c.Name, Swatch: c.Swatch}, true
		}
	}
	return nil, false
}
