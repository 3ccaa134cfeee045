package order

import (
	"context"
	"strconv"
	"time"

	"github.com/example/storefront/internal/domain/cart"
	"github.com/example/storefront/internal/infrastructure/storage"
)

// Order is one completed checkout: a snapshot of the cart lines and their
// computed pricing, owned by the user who checked out. Orders are
// append-only and never mutated or deleted after creation.
type Order struct {
	ID          string      `json:"id"`
	OwnerEmail  string      `json:"userEmail"`
	Items       []cart.Line `json:"items"`
	Subtotal    float64     `json:"subtotal"`
	DeliveryFee float64     `json:"deliveryPrice"`
	Total       float64     `json:"total"`
	Date        time.Time   `json:"date"`
}

// NewID derives an order id from a timestamp: unique enough for display,
// roughly monotonic.
func NewID(at time.Time) string {
	return strconv.FormatInt(at.UnixMilli(), 10)
}

// Store owns the append-only order log.
type Store struct {
	kv storage.Store
}

func NewStore(kv storage.Store) *Store {
	return &Store{kv: kv}
}

// Append adds a completed order to the log.
func (s *Store) Append(ctx context.Context, o Order) error {
	orders, err := s.load(ctx)
	if err != nil {
		return err
	}
	orders = append(orders, o)
	return storage.PutJSON(ctx, s.kv, storage.KeyOrders, orders)
}

// ListByUser returns the user's order history in checkout order.
func (s *Store) ListByUser(ctx context.Context, email string) ([]Order, error) {
	orders, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	var out []Order
	for _, o := range orders {
		if o.OwnerEmail == email {
			out = append(out, o)
		}
	}
	return out, nil
}

func (s *Store) load(ctx context.Context) ([]Order, error) {
	var orders []Order
	if err := storage.GetJSON(ctx, s.kv, storage.KeyOrders, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}
