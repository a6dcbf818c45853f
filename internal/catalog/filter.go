package catalog

import (
	"math"
	"strings"
)

// CategoryAll matches every category.
const CategoryAll = "all"

// PriceRange is an inclusive range of prices in cents.
type PriceRange struct {
	Low  int64 `json:"low"`
	High int64 `json:"high"`
}

// Contains reports whether price lies within the range.
func (r PriceRange) Contains(price int64) bool {
	return price >= r.Low && price <= r.High
}

// Filter is the active browsing predicate over the catalog.
type Filter struct {
	Category   string     `json:"category"`
	PriceRange PriceRange `json:"price_range"`
	MinRating  int        `json:"min_rating"`
	Search     string     `json:"search"`
}

// DefaultFilter matches every product priced up to $1000.
func DefaultFilter() Filter {
	return Filter{
		Category:   CategoryAll,
		PriceRange: PriceRange{Low: 0, High: 1000_00},
		MinRating:  0,
		Search:     "",
	}
}

// Matches applies all four predicates. An empty search always matches.
func (f Filter) Matches(p Product) bool {
	if f.Category != CategoryAll && p.Category != f.Category {
		return false
	}
	if !f.PriceRange.Contains(p.Price) {
		return false
	}
	if int(math.Floor(p.Rating.Rate)) < f.MinRating {
		return false
	}
	if f.Search == "" {
		return true
	}
	q := strings.ToLower(f.Search)
	return strings.Contains(strings.ToLower(p.Title), q) ||
		strings.Contains(strings.ToLower(p.Description), q)
}

// FilterUpdate is a partial filter; nil fields are left unchanged.
type FilterUpdate struct {
	Category   *string
	PriceRange *PriceRange
	MinRating  *int
	Search     *string
}

func (f Filter) merge(u FilterUpdate) Filter {
	if u.Category != nil {
		f.Category = *u.Category
		if f.Category == "" {
			f.Category = CategoryAll
		}
	}
	if u.PriceRange != nil {
		f.PriceRange = *u.PriceRange
	}
	if u.MinRating != nil {
		f.MinRating = *u.MinRating
	}
	if u.Search != nil {
		f.Search = strings.ToLower(*u.Search)
	}
	return f
}

// Price bands offered by the storefront's price selector.
const (
	PriceBandAll     = "all"
	PriceBandUnder25 = "under25"
	PriceBand25To50  = "25to50"
	PriceBand50To100 = "50to100"
	PriceBandOver100 = "over100"
)

// PriceBandRange maps a price band to its range. Unknown bands fall into
// "over100", the way the selector treats any other value.
func PriceBandRange(band string) PriceRange {
	switch band {
	case PriceBandAll, "":
		return PriceRange{Low: 0, High: 1000_00}
	case PriceBandUnder25:
		return PriceRange{Low: 0, High: 25_00}
	case PriceBand25To50:
		return PriceRange{Low: 25_00, High: 50_00}
	case PriceBand50To100:
		return PriceRange{Low: 50_00, High: 100_00}
	default:
		return PriceRange{Low: 100_00, High: 1000_00}
	}
}
