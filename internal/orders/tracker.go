// Package orders renders stored orders for the confirmation and tracking
// pages.
package orders

import (
	"time"

	"github.com/fjod/bagshop/internal/domain"
	"github.com/fjod/bagshop/internal/pricing"
)

// Steps on the linear tracker. Cancelled orders are off the track.
const (
	StepOffTrack = 0
	StepPlaced   = 1
	StepPacked   = 2
	StepShipped  = 3
	StepArrived  = 4
)

type statusDisplay struct {
	label string
	icon  string
	step  int
}

var statusDisplays = map[domain.OrderStatus]statusDisplay{
	domain.OrderStatusPending:    {"Order placed", "clock", StepPlaced},
	domain.OrderStatusConfirmed:  {"Confirmed", "check-circle", StepPacked},
	domain.OrderStatusProcessing: {"Being packed", "package", StepPacked},
	domain.OrderStatusShipped:    {"Shipped", "truck", StepShipped},
	domain.OrderStatusDelivered:  {"Delivered", "home", StepArrived},
	domain.OrderStatusCancelled:  {"Cancelled", "x-circle", StepOffTrack},
}

var timelineLabels = [...]string{"Placed", "Packed", "Shipped", "Delivered"}

// Progress maps a status to its tracker step. A status outside the closed
// set is off the track.
func Progress(s domain.OrderStatus) int {
	return display(s).step
}

func display(s domain.OrderStatus) statusDisplay {
	if d, ok := statusDisplays[s]; ok {
		return d
	}
	return statusDisplay{label: string(s), icon: "help-circle", step: StepOffTrack}
}

type TimelineStep struct {
	Step    int    `json:"step"`
	Label   string `json:"label"`
	Reached bool   `json:"reached"`
	Current bool   `json:"current"`
}

type ItemView struct {
	ProductID     string                `json:"productId"`
	ProductName   string                `json:"productName"`
	Quantity      int                   `json:"quantity"`
	UnitPrice     int64                 `json:"unitPrice"`
	LineTotal     int64                 `json:"lineTotal"`
	UnitPriceText string                `json:"unitPriceFormatted"`
	LineTotalText string                `json:"lineTotalFormatted"`
	SelectedColor *domain.SelectedColor `json:"selectedColor,omitempty"`
}

type TrackingView struct {
	OrderID          string                 `json:"orderId"`
	Status           domain.OrderStatus     `json:"status"`
	Label            string                 `json:"label"`
	Icon             string                 `json:"icon"`
	Step             int                    `json:"step"`
	Cancelled        bool                   `json:"cancelled"`
	Timeline         []TimelineStep         `json:"timeline"`
	Items            []ItemView             `json:"items"`
	Total            int64                  `json:"total"`
	TotalText        string                 `json:"totalFormatted"`
	Currency         string                 `json:"currency"`
	PaymentMethod    domain.PaymentMethod   `json:"paymentMethod"`
	PaymentStatus    domain.PaymentStatus   `json:"paymentStatus"`
	PaymentReference string                 `json:"paymentReference,omitempty"`
	Customer         domain.Customer        `json:"customer"`
	Shipping         domain.ShippingAddress `json:"shipping"`
	PlacedAt         time.Time              `json:"placedAt"`
	UpdatedAt        time.Time              `json:"updatedAt"`
}

type Tracker struct{}

func NewTracker() *Tracker {
	return &Tracker{}
}

func (t *Tracker) View(o *domain.Order) TrackingView {
	d := display(o.Status)

	items := make([]ItemView, 0, len(o.Items))
	for _, it := range o.Items {
		line := it.UnitPrice * int64(it.Quantity)
		items = append(items, ItemView{
			ProductID:     it.ProductID,
			ProductName:   it.ProductName,
			Quantity:      it.Quantity,
			UnitPrice:     it.UnitPrice,
			LineTotal:     line,
			UnitPriceText: pricing.FormatINR(it.UnitPrice),
			LineTotalText: pricing.FormatINR(line),
			SelectedColor: it.SelectedColor,
		})
	}

	return TrackingView{
		OrderID:          o.ID.String(),
		Status:           o.Status,
		Label:            d.label,
		Icon:             d.icon,
		Step:             d.step,
		Cancelled:        o.Status == domain.OrderStatusCancelled,
		Timeline:         timeline(d.step),
		Items:            items,
		Total:            o.TotalAmount,
		TotalText:        pricing.FormatINR(o.TotalAmount),
		Currency:         o.Currency,
		PaymentMethod:    o.PaymentMethod,
		PaymentStatus:    o.PaymentStatus,
		PaymentReference: o.PaymentReference,
		Customer:         o.Customer,
		Shipping:         o.Shipping,
		PlacedAt:         o.CreatedAt,
		UpdatedAt:        o.UpdatedAt,
	}
}

func timeline(step int) []TimelineStep {
	out := make([]TimelineStep, len(timelineLabels))
	for i, label := range timelineLabels {
		n := i + 1
		out[i] = TimelineStep{
			Step:    n,
			Label:   label,
			Reached: step >= n,
			Current: step == n,
		}
	}
	return out
}
