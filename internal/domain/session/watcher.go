package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/example/storefront/internal/infrastructure/storage"
)

// DefaultPollInterval bounds how stale another instance's sign-out can
// look when no change feed is configured.
const DefaultPollInterval = 500 * time.Millisecond

// Watcher re-reads the current session on a fixed interval and on change
// feed delivery, and notifies subscribers when the projection changed.
// This is a best-effort staleness window, not a consistency protocol.
// Cart, order and favorites state is not watched: concurrent edits there
// are last-writer-wins.
type Watcher struct {
	store    *Store
	interval time.Duration

	mu   sync.Mutex
	subs map[string]func(*Session)
	last *Session
}

// NewWatcher creates a watcher over the session store. A non-positive
// interval falls back to DefaultPollInterval.
func NewWatcher(store *Store, interval time.Duration) *Watcher {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Watcher{
		store:    store,
		interval: interval,
		subs:     make(map[string]func(*Session)),
	}
}

// Subscribe registers a callback invoked with the new session projection
// (nil on sign-out) whenever a change is observed. It returns an id for
// Unsubscribe.
func (w *Watcher) Subscribe(fn func(*Session)) string {
	id := uuid.New().String()
	w.mu.Lock()
	w.subs[id] = fn
	w.mu.Unlock()
	return id
}

// Unsubscribe removes a subscription. Unknown ids are a no-op.
func (w *Watcher) Unsubscribe(id string) {
	w.mu.Lock()
	delete(w.subs, id)
	w.mu.Unlock()
}

// Run polls until the context is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			w.Check(ctx)
		}
	}
}

// HandleChange is the change feed handler: a write to the session key by
// another instance triggers an immediate re-read.
func (w *Watcher) HandleChange(ctx context.Context, key, value []byte) error {
	if string(key) != storage.KeyCurrentUser {
		return nil
	}
	w.Check(ctx)
	return nil
}

// Check re-reads the session and notifies subscribers if it differs from
// the last observed value.
func (w *Watcher) Check(ctx context.Context) {
	session, ok, err := w.store.Current(ctx)
	if err != nil {
		logrus.WithError(err).Warn("reading session during watch")
		return
	}

	var observed *Session
	if ok {
		observed = &session
	}

	w.mu.Lock()
	if sameSession(w.last, observed) {
		w.mu.Unlock()
		return
	}
	w.last = observed
	subs := make([]func(*Session), 0, len(w.subs))
	for _, fn := range w.subs {
		subs = append(subs, fn)
	}
	w.mu.Unlock()

	for _, fn := range subs {
		fn(observed)
	}
}

func sameSession(a, b *Session) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
