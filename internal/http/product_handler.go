package http

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/fjod/bagshop/internal/domain"
	"github.com/fjod/bagshop/internal/pricing"
	"github.com/go-chi/chi/v5"
)

const (
	defaultPageSize = 12
	maxPageSize     = 48
	// keeps (page-1)*size far from overflowing
	maxPage = 10000
)

type ProductReader interface {
	ListProducts(ctx context.Context, category string, limit, offset int) ([]domain.Product, int, error)
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
	Categories(ctx context.Context) ([]string, error)
}

type ProductHandler struct {
	products ProductReader
	policy   pricing.Policy
	timeout  time.Duration
}

func NewProductHandler(products ProductReader, policy pricing.Policy, timeout time.Duration) *ProductHandler {
	return &ProductHandler{
		products: products,
		policy:   policy,
		timeout:  timeout,
	}
}

type ProductDTO struct {
	domain.Product
	Pricing pricing.Quote `json:"pricing"`
}

type ProductListDTO struct {
	Items      []ProductDTO `json:"items"`
	Category   string       `json:"category,omitempty"`
	Page       int          `json:"page"`
	PageSize   int          `json:"pageSize"`
	Total      int          `json:"total"`
	TotalPages int          `json:"totalPages"`
}

// GET /api/v1/products
func (h *ProductHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	q := r.URL.Query()
	page, err := positiveInt(q.Get("page"), 1)
	if err != nil || page > maxPage {
		respondError(w, http.StatusBadRequest, "invalid_page", "page must be between 1 and 10000")
		return
	}
	size, err := positiveInt(q.Get("page_size"), defaultPageSize)
	if err != nil || size > maxPageSize {
		respondError(w, http.StatusBadRequest, "invalid_page_size", "page_size must be between 1 and 48")
		return
	}
	category := q.Get("category")

	products, total, err := h.products.ListProducts(ctx, category, size, (page-1)*size)
	if err != nil {
		handleError(w, r, err)
		return
	}

	dtos := make([]ProductDTO, 0, len(products))
	for _, p := range products {
		dtos = append(dtos, h.toDTO(p))
	}
	respondJSON(w, http.StatusOK, ProductListDTO{
		Items:      dtos,
		Category:   category,
		Page:       page,
		PageSize:   size,
		Total:      total,
		TotalPages: (total + size - 1) / size,
	})
}

// GET /api/v1/products/{product_id}
func (h *ProductHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	id := chi.URLParam(r, "product_id")
	if id == "" {
		respondError(w, http.StatusBadRequest, "missing_product_id", "product_id is required")
		return
	}

	p, err := h.products.GetProduct(ctx, id)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, h.toDTO(*p))
}

// GET /api/v1/categories
func (h *ProductHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	categories, err := h.products.Categories(ctx)
	if err != nil {
		handleError(w, r, err)
		return
	}
	if categories == nil {
		categories = []string{}
	}
	respondJSON(w, http.StatusOK, categories)
}

func (h *ProductHandler) toDTO(p domain.Product) ProductDTO {
	return ProductDTO{Product: p, Pricing: h.policy.Quote(p.Price, 1)}
}

func positiveInt(raw string, def int) (int, error) {
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, strconv.ErrSyntax
	}
	return n, nil
}
