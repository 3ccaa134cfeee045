package checkout

import (
	"context"
	"time"

	"github.com/example/storefront/internal/domain/cart"
	"github.com/example/storefront/internal/domain/order"
	"github.com/example/storefront/internal/domain/session"
)

// Process turns the current cart into an order for the signed-in user.
type Process struct {
	sessions *session.Store
	carts    *cart.Store
	orders   *order.Store
	now      func() time.Time
}

func NewProcess(sessions *session.Store, carts *cart.Store, orders *order.Store) *Process {
	return &Process{
		sessions: sessions,
		carts:    carts,
		orders:   orders,
		now:      time.Now,
	}
}

// Checkout appends an order built from the current cart contents and
// totals, then empties the cart. A checkout with an empty cart is a
// no-op and returns no order. Requires a signed-in user.
func (p *Process) Checkout(ctx context.Context) (*order.Order, error) {
	current, ok, err := p.sessions.Current(ctx)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, session.ErrNotAuthenticated
	}

	lines, err := p.carts.Lines(ctx)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, nil
	}

	totals, err := p.carts.Totals(ctx)
	if err != nil {
		return nil, err
	}

	at := p.now()
	placed := order.Order{
		ID:          order.NewID(at),
		OwnerEmail:  current.Email,
		Items:       lines,
		Subtotal:    totals.Subtotal,
		DeliveryFee: totals.DeliveryFee,
		Total:       totals.Total,
		Date:        at,
	}

	if err := p.orders.Append(ctx, placed); err != nil {
		return nil, err
	}
	if err := p.carts.Clear(ctx); err != nil {
		return nil, err
	}
	return &placed, nil
}
