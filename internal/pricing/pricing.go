// Package pricing computes sale prices and renders rupee amounts.
package pricing

import (
	"errors"
	"strconv"
	"strings"

	"github.com/fjod/bagshop/internal/domain"
	"github.com/shopspring/decimal"
)

var ErrInvalidRate = errors.New("discount rate must be in [0, 1)")

// DiscountedPrice returns round(price * (1 - rate)), rounding half away from zero.
func DiscountedPrice(price int64, rate float64) int64 {
	p := decimal.NewFromInt(price)
	factor := decimal.NewFromInt(1).Sub(decimal.NewFromFloat(rate))
	return p.Mul(factor).Round(0).IntPart()
}

func LineTotal(price int64, quantity int, rate float64) int64 {
	return DiscountedPrice(price, rate) * int64(quantity)
}

// FormatINR renders an amount with Indian digit grouping and no decimals,
// e.g. 1234567 -> "₹12,34,567".
func FormatINR(amount int64) string {
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	digits := strconv.FormatInt(amount, 10)
	if len(digits) <= 3 {
		return sign + "₹" + digits
	}

	head, tail := digits[:len(digits)-3], digits[len(digits)-3:]
	var groups []string
	for len(head) > 2 {
		groups = append([]string{head[len(head)-2:]}, groups...)
		head = head[:len(head)-2]
	}
	groups = append([]string{head}, groups...)
	return sign + "₹" + strings.Join(groups, ",") + "," + tail
}

// Policy carries the one display discount applied across the storefront.
type Policy struct {
	rate float64
}

func NewPolicy(rate float64) (Policy, error) {
	if rate < 0 || rate >= 1 {
		return Policy{}, ErrInvalidRate
	}
	return Policy{rate: rate}, nil
}

func (p Policy) Rate() float64 {
	return p.rate
}

func (p Policy) UnitPrice(price int64) int64 {
	return DiscountedPrice(price, p.rate)
}

// Quote is the display pricing of a single line.
type Quote struct {
	ListPrice          int64  `json:"listPrice"`
	SalePrice          int64  `json:"salePrice"`
	LineTotal          int64  `json:"lineTotal"`
	ListPriceFormatted string `json:"listPriceFormatted"`
	SalePriceFormatted string `json:"salePriceFormatted"`
	LineTotalFormatted string `json:"lineTotalFormatted"`
}

func (p Policy) Quote(price int64, quantity int) Quote {
	sale := p.UnitPrice(price)
	total := sale * int64(quantity)
	return Quote{
		ListPrice:          price,
		SalePrice:          sale,
		LineTotal:          total,
		ListPriceFormatted: FormatINR(price),
		SalePriceFormatted: FormatINR(sale),
		LineTotalFormatted: FormatINR(total),
	}
}

func (p Policy) QuoteItem(item domain.CartItem) Quote {
	return p.Quote(item.Product.Price, item.Quantity)
}
