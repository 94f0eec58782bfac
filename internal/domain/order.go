package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/currency"
)

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusConfirmed  OrderStatus = "confirmed"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

// ParseOrderStatus rejects anything outside the closed set.
func ParseOrderStatus(s string) (OrderStatus, error) {
	switch st := OrderStatus(s); st {
	case OrderStatusPending, OrderStatusConfirmed, OrderStatusProcessing,
		OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled:
		return st, nil
	}
	return "", fmt.Errorf("%w: order status %q", ErrUnknownEnum, s)
}

func (s OrderStatus) String() string {
	return string(s)
}

// Scan lets database/sql reject unknown values while reading a row.
func (s *OrderStatus) Scan(src any) error {
	v, err := scanString(src)
	if err != nil {
		return err
	}
	parsed, err := ParseOrderStatus(v)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusFailed   PaymentStatus = "failed"
	PaymentStatusRefunded PaymentStatus = "refunded"
)

func ParsePaymentStatus(s string) (PaymentStatus, error) {
	switch st := PaymentStatus(s); st {
	case PaymentStatusPending, PaymentStatusPaid, PaymentStatusFailed, PaymentStatusRefunded:
		return st, nil
	}
	return "", fmt.Errorf("%w: payment status %q", ErrUnknownEnum, s)
}

func (s *PaymentStatus) Scan(src any) error {
	v, err := scanString(src)
	if err != nil {
		return err
	}
	parsed, err := ParsePaymentStatus(v)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

type PaymentMethod string

const (
	PaymentMethodOnline PaymentMethod = "online"
	PaymentMethodCOD    PaymentMethod = "cod"
)

func ParsePaymentMethod(s string) (PaymentMethod, error) {
	switch m := PaymentMethod(s); m {
	case PaymentMethodOnline, PaymentMethodCOD:
		return m, nil
	}
	return "", fmt.Errorf("%w: payment method %q", ErrUnknownEnum, s)
}

func (m *PaymentMethod) Scan(src any) error {
	v, err := scanString(src)
	if err != nil {
		return err
	}
	parsed, err := ParsePaymentMethod(v)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

func scanString(src any) (string, error) {
	switch v := src.(type) {
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	default:
		return "", fmt.Errorf("unsupported scan type %T", src)
	}
}

type Customer struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Email string `json:"email"`
}

type ShippingAddress struct {
	Line1      string `json:"line1"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
}

// OrderItem is the line snapshot taken at purchase time.
type OrderItem struct {
	ProductID     string         `json:"product_id"`
	ProductName   string         `json:"product_name"`
	Quantity      int            `json:"quantity"`
	UnitPrice     int64          `json:"unit_price"`
	SelectedColor *SelectedColor `json:"selected_color,omitempty"`
}

// Currency used for every order; the storefront only sells in rupees.
var Currency = currency.INR

type Order struct {
	ID               uuid.UUID
	CartOwnerID      string
	Customer         Customer
	Shipping         ShippingAddress
	Items            []OrderItem
	TotalAmount      int64
	Currency         string
	Status           OrderStatus
	PaymentStatus    PaymentStatus
	PaymentMethod    PaymentMethod
	PaymentReference string
	IdempotencyKey   string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}
