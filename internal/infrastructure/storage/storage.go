package storage

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Keys of the durable key-value store. Values are UTF-8 JSON.
const (
	KeyCart        = "cart"        // array of cart lines
	KeyCurrentUser = "currentUser" // session projection, absent when signed out
	KeyUsers       = "users"       // array of user records
	KeyOrders      = "orders"      // append-only array of orders
	KeyFavorites   = "favorites"   // email -> array of product snapshots
)

// Store is a durable key-value store with JSON values. Absence is a valid,
// non-exceptional outcome: Get returns (nil, false, nil) for a missing key.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Publisher broadcasts change events to other storefront instances.
// A nil publisher is valid and means no feed is configured.
type Publisher interface {
	Publish(ctx context.Context, key string, event any) error
}

// ChangeEvent notifies other instances that a key was written or deleted.
type ChangeEvent struct {
	ID  string    `json:"id"`
	Key string    `json:"key"`
	At  time.Time `json:"at"`
}

// NewChangeEvent creates a change event for the given key.
func NewChangeEvent(key string) ChangeEvent {
	return ChangeEvent{
		ID:  uuid.New().String(),
		Key: key,
		At:  time.Now(),
	}
}

// GetJSON decodes the value at key into out. A missing key leaves out
// untouched. A malformed value is treated as an empty collection: it is
// logged and out is left untouched, never surfaced as an error.
func GetJSON(ctx context.Context, s Store, key string, out any) error {
	data, ok, err := s.Get(ctx, key)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		logrus.WithFields(logrus.Fields{"key": key, "error": err}).
			Warn("discarding malformed persisted value")
		return nil
	}
	return nil
}

// PutJSON encodes v and writes it at key.
func PutJSON(ctx context.Context, s Store, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.Put(ctx, key, data)
}
