package checkout

import (
	"strings"

	"github.com/fjod/bagshop/internal/domain"
)

type Contact struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Email string `json:"email"`
}

// Request is a submitted checkout form.
type Request struct {
	OwnerID        string                 `json:"-"`
	Contact        Contact                `json:"contact"`
	Shipping       domain.ShippingAddress `json:"shipping"`
	PaymentMethod  string                 `json:"paymentMethod"`
	IdempotencyKey string                 `json:"idempotencyKey,omitempty"`
}

// Confirmation is what the buyer sees after a successful submit.
type Confirmation struct {
	OrderID          string               `json:"orderId"`
	Status           domain.OrderStatus   `json:"status"`
	PaymentMethod    domain.PaymentMethod `json:"paymentMethod"`
	PaymentReference string               `json:"paymentReference,omitempty"`
	RedirectURL      string               `json:"redirectUrl,omitempty"`
	Total            int64                `json:"total"`
	TotalFormatted   string               `json:"totalFormatted"`
	Duplicate        bool                 `json:"duplicate,omitempty"`
}

func (r *Request) trim() {
	r.Contact.Name = strings.TrimSpace(r.Contact.Name)
	r.Contact.Phone = strings.TrimSpace(r.Contact.Phone)
	r.Contact.Email = strings.ToLower(strings.TrimSpace(r.Contact.Email))
	r.Shipping.Line1 = strings.TrimSpace(r.Shipping.Line1)
	r.Shipping.Line2 = strings.TrimSpace(r.Shipping.Line2)
	r.Shipping.City = strings.TrimSpace(r.Shipping.City)
	r.Shipping.State = strings.TrimSpace(r.Shipping.State)
	r.Shipping.PostalCode = strings.ReplaceAll(r.Shipping.PostalCode, " ", "")
	r.Shipping.Country = strings.TrimSpace(r.Shipping.Country)
	if r.Shipping.Country == "" {
		r.Shipping.Country = "IN"
	}
	r.PaymentMethod = strings.ToLower(strings.TrimSpace(r.PaymentMethod))
	r.IdempotencyKey = strings.TrimSpace(r.IdempotencyKey)
}
