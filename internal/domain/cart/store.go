package cart

import (
	"context"

	"github.com/example/storefront/internal/domain/catalog"
	"github.com/example/storefront/internal/infrastructure/storage"
)

// Line is one row of the cart: a product snapshot plus a quantity. The
// snapshot freezes the product fields (price included) at the time of the
// first add; later catalog changes do not retroactively affect the line.
type Line struct {
	catalog.Product
	Quantity int `json:"quantity"`
}

// Totals is the computed pricing of the current cart.
type Totals struct {
	Subtotal    float64 `json:"subtotal"`
	DeliveryFee float64 `json:"deliveryFee"`
	Total       float64 `json:"total"`
}

// Store owns the cart collection: an ordered list with at most one line
// per product id. Every mutation persists the full line list synchronously.
type Store struct {
	kv storage.Store

	freeShippingThreshold float64
	standardDeliveryFee   float64
}

func NewStore(kv storage.Store, freeShippingThreshold, standardDeliveryFee float64) *Store {
	return &Store{
		kv:                    kv,
		freeShippingThreshold: freeShippingThreshold,
		standardDeliveryFee:   standardDeliveryFee,
	}
}

// Add puts one unit of the product in the cart. An existing line for the
// same product id gains quantity instead of duplicating.
func (s *Store) Add(ctx context.Context, product catalog.Product) error {
	lines, err := s.Lines(ctx)
	if err != nil {
		return err
	}

	for i := range lines {
		if lines[i].ID == product.ID {
			lines[i].Quantity++
			return s.save(ctx, lines)
		}
	}

	lines = append(lines, Line{Product: product, Quantity: 1})
	return s.save(ctx, lines)
}

// UpdateQuantity sets a line's quantity exactly. A quantity of zero or
// less behaves as Remove.
func (s *Store) UpdateQuantity(ctx context.Context, productID string, quantity int) error {
	if quantity <= 0 {
		return s.Remove(ctx, productID)
	}

	lines, err := s.Lines(ctx)
	if err != nil {
		return err
	}

	for i := range lines {
		if lines[i].ID == productID {
			lines[i].Quantity = quantity
			return s.save(ctx, lines)
		}
	}
	// Unknown product: nothing to update.
	return nil
}

// Remove deletes the line if present; removing an absent product is a
// no-op, not an error.
func (s *Store) Remove(ctx context.Context, productID string) error {
	lines, err := s.Lines(ctx)
	if err != nil {
		return err
	}

	kept := lines[:0]
	for _, line := range lines {
		if line.ID != productID {
			kept = append(kept, line)
		}
	}
	if len(kept) == len(lines) {
		return nil
	}
	return s.save(ctx, kept)
}

// Clear empties the cart.
func (s *Store) Clear(ctx context.Context) error {
	return s.save(ctx, []Line{})
}

// Lines returns the cart contents in insertion order.
func (s *Store) Lines(ctx context.Context) ([]Line, error) {
	var lines []Line
	if err := storage.GetJSON(ctx, s.kv, storage.KeyCart, &lines); err != nil {
		return nil, err
	}
	return lines, nil
}

// Count returns the total number of units across all lines.
func (s *Store) Count(ctx context.Context) (int, error) {
	lines, err := s.Lines(ctx)
	if err != nil {
		return 0, err
	}
	count := 0
	for _, line := range lines {
		count += line.Quantity
	}
	return count, nil
}

// Totals computes the cart pricing. Delivery is free for an empty cart and
// for subtotals at or above the free-shipping threshold; otherwise the
// standard fee applies.
func (s *Store) Totals(ctx context.Context) (Totals, error) {
	lines, err := s.Lines(ctx)
	if err != nil {
		return Totals{}, err
	}
	return s.totalsFor(lines), nil
}

func (s *Store) totalsFor(lines []Line) Totals {
	var subtotal float64
	for _, line := range lines {
		subtotal += line.Price * float64(line.Quantity)
	}

	var fee float64
	if len(lines) > 0 && subtotal < s.freeShippingThreshold {
		fee = s.standardDeliveryFee
	}

	return Totals{
		Subtotal:    subtotal,
		DeliveryFee: fee,
		Total:       subtotal + fee,
	}
}

func (s *Store) save(ctx context.Context, lines []Line) error {
	return storage.PutJSON(ctx, s.kv, storage.KeyCart, lines)
}
