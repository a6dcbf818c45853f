package catalog

import (
	"cmp"
	"slices"
)

// SortOrder selects a presentation order for a product list.
type SortOrder string

const (
	SortFeatured  SortOrder = "featured"
	SortPriceLow  SortOrder = "price-low"
	SortPriceHigh SortOrder = "price-high"
	SortRating    SortOrder = "rating"
	SortNewest    SortOrder = "newest"
)

// Sort returns a sorted copy of products. The input is never modified.
// Newest reverses fetch order since the catalog appends new products.
func Sort(products []Product, order SortOrder) []Product {
	sorted := slices.Clone(products)
	switch order {
	case SortPriceLow:
		slices.SortStableFunc(sorted, func(a, b Product) int {
			return cmp.Compare(a.Price, b.Price)
		})
	case SortPriceHigh:
		slices.SortStableFunc(sorted, func(a, b Product) int {
			return cmp.Compare(b.Price, a.Price)
		})
	case SortRating:
		slices.SortStableFunc(sorted, func(a, b Product) int {
			return cmp.Compare(b.Rating.Rate, a.Rating.Rate)
		})
	case SortNewest:
		slices.Reverse(sorted)
	}
	return sorted
}
