package cart

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/example/storefront/internal/catalog"
)

var (
	ErrLineNotFound   = errors.New("cart line not found")
	ErrAggregateDrift = errors.New("cart aggregates do not match lines")
)

// Line is one product in the cart. Title, Price and Image are a snapshot
// taken when the product was first added.
type Line struct {
	ProductID string `json:"product_id"`
	Title     string `json:"title"`
	Price     int64  `json:"price"`
	Image     string `json:"image,omitempty"`
	Quantity  int    `json:"quantity"`
}

// Subtotal is price times quantity, in cents.
func (l Line) Subtotal() int64 {
	return l.Price * int64(l.Quantity)
}

// State is a point-in-time copy of the cart with its aggregates.
type State struct {
	Lines         []Line `json:"lines"`
	TotalQuantity int    `json:"total_quantity"`
	TotalAmount   int64  `json:"total_amount"`
}

// Verify checks the aggregates of s against its lines.
func (s State) Verify() error {
	quantity, amount := fold(s.Lines)
	if quantity != s.TotalQuantity || amount != s.TotalAmount {
		return fmt.Errorf("%w: quantity %d/%d, amount %d/%d",
			ErrAggregateDrift, s.TotalQuantity, quantity, s.TotalAmount, amount)
	}
	return nil
}

func fold(lines []Line) (quantity int, amount int64) {
	for _, l := range lines {
		quantity += l.Quantity
		amount += l.Subtotal()
	}
	return quantity, amount
}

// Store holds the cart lines in insertion order. Totals are never stored;
// they are folded from the lines on every read.
type Store struct {
	mu    sync.Mutex
	lines []Line
}

func NewStore() *Store {
	return &Store{}
}

// AddItem adds quantity units of p, merging into an existing line.
// Quantities below one are clamped to one.
func (s *Store) AddItem(p catalog.Product, quantity int) {
	if quantity < 1 {
		quantity = 1
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if i := s.find(p.ID); i >= 0 {
		s.lines[i].Quantity += quantity
		return
	}
	s.lines = append(s.lines, Line{
		ProductID: p.ID,
		Title:     p.Title,
		Price:     p.Price,
		Image:     p.Image,
		Quantity:  quantity,
	})
}

// RemoveOne takes one unit off a line, dropping the line at zero.
func (s *Store) RemoveOne(productID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.find(productID)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrLineNotFound, productID)
	}
	if s.lines[i].Quantity <= 1 {
		s.lines = slices.Delete(s.lines, i, i+1)
		return nil
	}
	s.lines[i].Quantity--
	return nil
}

// SetQuantity replaces a line's quantity. Zero or less removes the line.
func (s *Store) SetQuantity(productID string, quantity int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.find(productID)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrLineNotFound, productID)
	}
	if quantity <= 0 {
		s.lines = slices.Delete(s.lines, i, i+1)
		return nil
	}
	s.lines[i].Quantity = quantity
	return nil
}

// Remove drops a line regardless of its quantity.
func (s *Store) Remove(productID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.find(productID)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrLineNotFound, productID)
	}
	s.lines = slices.Delete(s.lines, i, i+1)
	return nil
}

// RemoveLines takes each line's quantity off the matching cart line and
// drops lines that reach zero. Products no longer in the cart are skipped.
func (s *Store) RemoveLines(lines []Line) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, l := range lines {
		i := s.find(l.ProductID)
		if i < 0 {
			continue
		}
		if s.lines[i].Quantity <= l.Quantity {
			s.lines = slices.Delete(s.lines, i, i+1)
			continue
		}
		s.lines[i].Quantity -= l.Quantity
	}
}

// Clear empties the cart. Safe to call repeatedly.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lines = nil
}

func (s *Store) Lines() []Line {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.lines)
}

// Line returns the line for productID.
func (s *Store) Line(productID string) (Line, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.find(productID); i >= 0 {
		return s.lines[i], true
	}
	return Line{}, false
}

func (s *Store) TotalQuantity() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	quantity, _ := fold(s.lines)
	return quantity
}

func (s *Store) TotalAmount() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, amount := fold(s.lines)
	return amount
}

func (s *Store) IsEmpty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.lines) == 0
}

// Snapshot returns the lines and their aggregates read under one lock.
func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	quantity, amount := fold(s.lines)
	lines := slices.Clone(s.lines)
	if lines == nil {
		lines = []Line{}
	}
	return State{
		Lines:         lines,
		TotalQuantity: quantity,
		TotalAmount:   amount,
	}
}

func (s *Store) find(productID string) int {
	return slices.IndexFunc(s.lines, func(l Line) bool {
		return l.ProductID == productID
	})
}
