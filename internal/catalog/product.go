package catalog

import (
	"encoding/json"
	"fmt"

	"github.com/example/storefront/internal/money"
)

// Rating is the aggregated review score of a product.
type Rating struct {
	Rate  float64 `json:"rate"`
	Count int     `json:"count"`
}

// Product is an immutable catalog entry. Price is in cents.
type Product struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Price       int64  `json:"price"`
	Category    string `json:"category"`
	Description string `json:"description"`
	Image       string `json:"image"`
	Rating      Rating `json:"rating"`
}

// apiProduct is the wire shape of the public catalog API, where ids are
// numbers and prices are decimal dollars.
type apiProduct struct {
	ID          json.Number `json:"id"`
	Title       string      `json:"title"`
	Price       float64     `json:"price"`
	Category    string      `json:"category"`
	Description string      `json:"description"`
	Image       string      `json:"image"`
	Rating      Rating      `json:"rating"`
}

func (p apiProduct) toProduct() (Product, error) {
	if p.ID == "" {
		return Product{}, fmt.Errorf("%w: missing id", ErrInvalidProduct)
	}
	if p.Price < 0 {
		return Product{}, fmt.Errorf("%w: negative price for %s", ErrInvalidProduct, p.ID)
	}
	return Product{
		ID:          p.ID.String(),
		Title:       p.Title,
		Price:       money.ToCents(p.Price),
		Category:    p.Category,
		Description: p.Description,
		Image:       p.Image,
		Rating:      p.Rating,
	}, nil
}
