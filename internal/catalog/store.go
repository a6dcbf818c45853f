package catalog

import (
	"context"
	"errors"
	"slices"
	"sync"

	"go.uber.org/zap"
)

var (
	ErrLoadInFlight   = errors.New("catalog load already in progress")
	ErrInvalidProduct = errors.New("invalid product")
)

// Status tracks the lifecycle of a catalog load.
type Status string

const (
	StatusIdle      Status = "idle"
	StatusLoading   Status = "loading"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Source fetches the full product list.
type Source interface {
	Products(ctx context.Context) ([]Product, error)
}

// Store holds the product list, the active filter and the filtered view.
type Store struct {
	mu       sync.Mutex
	source   Source
	logger   *zap.Logger
	products []Product
	filtered []Product
	filter   Filter
	status   Status
	err      error
}

func NewStore(source Source, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		source: source,
		logger: logger.Named("catalog"),
		filter: DefaultFilter(),
		status: StatusIdle,
	}
}

// Load fetches the catalog. A second call while one is pending returns
// ErrLoadInFlight without reaching the source.
func (s *Store) Load(ctx context.Context) error {
	s.mu.Lock()
	if s.status == StatusLoading {
		s.mu.Unlock()
		return ErrLoadInFlight
	}
	s.status = StatusLoading
	s.err = nil
	s.mu.Unlock()

	products, err := s.source.Products(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.status = StatusFailed
		s.err = err
		s.logger.Warn("catalog load failed", zap.Error(err))
		return err
	}
	s.products = products
	s.filtered = slices.Clone(products)
	s.status = StatusSucceeded
	s.logger.Debug("catalog loaded", zap.Int("products", len(products)))
	return nil
}

// SetFilter merges a partial update into the current filter. The filtered
// view is not recomputed until ApplyFilters.
func (s *Store) SetFilter(u FilterUpdate) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filter = s.filter.merge(u)
}

// ResetFilter restores the default filter.
func (s *Store) ResetFilter() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filter = DefaultFilter()
}

// ApplyFilters recomputes the filtered view from the current filter.
func (s *Store) ApplyFilters() []Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	filtered := make([]Product, 0, len(s.products))
	for _, p := range s.products {
		if s.filter.Matches(p) {
			filtered = append(filtered, p)
		}
	}
	s.filtered = filtered
	return slices.Clone(filtered)
}

func (s *Store) Filtered() []Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.filtered)
}

func (s *Store) Products() []Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.products)
}

func (s *Store) Filter() Filter {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filter
}

func (s *Store) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Err returns the error of the last failed load, if any.
func (s *Store) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Product looks up a product by id.
func (s *Store) Product(id string) (Product, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.products {
		if p.ID == id {
			return p, true
		}
	}
	return Product{}, false
}

// Categories returns the distinct categories in first-seen order.
func (s *Store) Categories() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	seen := make(map[string]struct{})
	var categories []string
	for _, p := range s.products {
		if _, ok := seen[p.Category]; ok {
			continue
		}
		seen[p.Category] = struct{}{}
		categories = append(categories, p.Category)
	}
	return categories
}
