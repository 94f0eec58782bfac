package domain

// ColorOption is one color variant offered for a product. Swatch holds either
// a CSS color value or an image URL.
type ColorOption struct {
	Name   string `json:"name" bson:"name"`
	Swatch string `json:"swatch" bson:"swatch"`
}

type Product struct {
	ID          string        `json:"id" bson:"id"`
	Name        string        `json:"name" bson:"name"`
	Category    string        `json:"category" bson:"category"`
	Price       int64         `json:"price" bson:"price"` // whole rupees
	Color       string        `json:"color,omitempty" bson:"color,omitempty"`
	Colors      []ColorOption `json:"colors,omitempty" bson:"colors,omitempty"`
	Images      []string      `json:"images,omitempty" bson:"images,omitempty"`
	Rating      float64       `json:"rating" bson:"rating"`
	ReviewCount int           `json:"reviewCount" bson:"review_count"`
}
