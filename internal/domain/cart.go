package domain

import (
	"encoding/json"
	"time"
)

// SelectedColor is the variant a shopper picked for a line item. It is
// encoded with the same swatch field as ColorOption.
type SelectedColor struct {
	Name   string `json:"name" bson:"name"`
	Swatch string `json:"swatch" bson:"swatch"`
}

// UnmarshalJSON also reads the swatch from "value", the field name used by
// carts saved before the rename.
func (c *SelectedColor) UnmarshalJSON(data []byte) error {
	var raw struct {
		Name   string `json:"name"`
		Swatch string `json:"swatch"`
		Value  string `json:"value"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	c.Name = raw.Name
	c.Swatch = raw.Swatch
	if c.Swatch == "" {
		c.Swatch = raw.Value
	}
	return nil
}

type CartItem struct {
	Product       Product        `json:"product" bson:"product"`
	Quantity      int            `json:"quantity" bson:"quantity"`
	SelectedColor *SelectedColor `json:"selectedColor,omitempty" bson:"selected_color,omitempty"`
}

// Cart is the persisted shape of a cart. Totals are derived by cart.Store and
// are never stored.
type Cart struct {
	OwnerID   string     `json:"ownerId,omitempty" bson:"owner_id"`
	Items     []CartItem `json:"items" bson:"items"`
	IsOpen    bool       `json:"isOpen" bson:"is_open"`
	CreatedAt time.Time  `json:"createdAt" bson:"created_at"`
	UpdatedAt time.Time  `json:"updatedAt" bson:"updated_at"`
}
