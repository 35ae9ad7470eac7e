package config

import (
	"context"
	"sync"

	"github.com/zjrosen/quill/internal/log"
	"github.com/zjrosen/quill/internal/pubsub"
)

// Store holds the live settings and notifies subscribers of changes.
// Readers always receive value copies; a job's snapshot cannot be mutated
// from under it.
type Store struct {
	mu      sync.RWMutex
	current Settings
	broker  *pubsub.Broker[Settings]
}

// NewStore creates a store seeded with the given settings.
func NewStore(s Settings) *Store {
	return &Store{
		current: s.Normalize(),
		broker:  pubsub.NewBroker[Settings](),
	}
}

// Get returns a copy of the current settings.
func (st *Store) Get() Settings {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.current
}

// Update applies f to a copy of the current settings, normalizes the
// result, and publishes it. No-op updates publish nothing.
func (st *Store) Update(f func(*Settings)) Settings {
	st.mu.Lock()
	next := st.current
	f(&next)
	next = next.Normalize()
	changed := next != st.current
	st.current = next
	st.mu.Unlock()

	if changed {
		log.Debug(log.CatConfig, "settings updated")
		st.broker.Publish(pubsub.UpdatedEvent, next)
	}
	return next
}

// Subscribe delivers a copy of the settings after every change.
func (st *Store) Subscribe(ctx context.Context) <-chan pubsub.Event[Settings] {
	return st.broker.Subscribe(ctx)
}

// Close shuts down the notification broker.
func (st *Store) Close() {
	st.broker.Close()
}
