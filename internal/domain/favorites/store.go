package favorites

import (
	"context"

	"github.com/example/storefront/internal/domain/catalog"
	"github.com/example/storefront/internal/domain/session"
	"github.com/example/storefront/internal/infrastructure/storage"
)

// Store owns the per-user favorites mapping: email to a set of product
// snapshots, at most one entry per product id. The whole mapping is
// persisted on every call.
type Store struct {
	kv       storage.Store
	sessions *session.Store
}

func NewStore(kv storage.Store, sessions *session.Store) *Store {
	return &Store{kv: kv, sessions: sessions}
}

// Toggle flips the product's membership in the signed-in user's favorites
// and returns the new state: true when the product was added.
func (s *Store) Toggle(ctx context.Context, product catalog.Product) (bool, error) {
	current, ok, err := s.sessions.Current(ctx)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, session.ErrNotAuthenticated
	}

	all, err := s.load(ctx)
	if err != nil {
		return false, err
	}

	mine := all[current.Email]
	for i, p := range mine {
		if p.ID == product.ID {
			all[current.Email] = append(mine[:i], mine[i+1:]...)
			return false, s.save(ctx, all)
		}
	}

	all[current.Email] = append(mine, product)
	return true, s.save(ctx, all)
}

// Remove deletes a product from the signed-in user's favorites by id.
// Removing an absent product is a no-op.
func (s *Store) Remove(ctx context.Context, productID string) error {
	current, ok, err := s.sessions.Current(ctx)
	if err != nil {
		return err
	}
	if !ok {
		return session.ErrNotAuthenticated
	}

	all, err := s.load(ctx)
	if err != nil {
		return err
	}

	mine := all[current.Email]
	for i, p := range mine {
		if p.ID == productID {
			all[current.Email] = append(mine[:i], mine[i+1:]...)
			return s.save(ctx, all)
		}
	}
	return nil
}

// ListForCurrentUser returns the signed-in user's favorites; empty when
// nobody is signed in.
func (s *Store) ListForCurrentUser(ctx context.Context) ([]catalog.Product, error) {
	current, ok, err := s.sessions.Current(ctx)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}

	all, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	return all[current.Email], nil
}

func (s *Store) load(ctx context.Context) (map[string][]catalog.Product, error) {
	all := make(map[string][]catalog.Product)
	if err := storage.GetJSON(ctx, s.kv, storage.KeyFavorites, &all); err != nil {
		return nil, err
	}
	return all, nil
}

func (s *Store) save(ctx context.Context, all map[string][]catalog.Product) error {
	return storage.PutJSON(ctx, s.kv, storage.KeyFavorites, all)
}
