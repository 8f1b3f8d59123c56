package cart

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/ikkim/handmade-storefront/pkg/logger"
)

// StorageKeyPrefix namespaces every durable cart slot.
const StorageKeyPrefix = "cart-storage"

var ErrStateNotFound = errors.New("cart state not found")

// Persister stores one serialized State per key.
type Persister interface {
	Load(ctx context.Context, key string) (State, error)
	Save(ctx context.Context, key string, state State) error
}

// NopPersister keeps nothing; every Load misses.
type NopPersister struct{}

func (NopPersister) Load(context.Context, string) (State, error) {
	return State{}, ErrStateNotFound
}

func (NopPersister) Save(context.Context, string, State) error {
	return nil
}

const saveTimeout = 5 * time.Second

// writer is a per-store background writer. Callers never wait on it:
// submit records the newest snapshot and starts a drain goroutine if
// none is running. Snapshots queued while a write is in flight are
// coalesced so only the latest one is written next.
type writer struct {
	persister Persister
	key       string

	mu      sync.Mutex
	pending *State
	running bool
	done    chan struct{}
}

func newWriter(p Persister, key string) *writer {
	return &writer{persister: p, key: key}
}

func (w *writer) submit(s State) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.pending = &s
	if w.running {
		return
	}
	w.running = true
	w.done = make(chan struct{})
	go w.drain(w.done)
}

func (w *writer) drain(done chan struct{}) {
	defer close(done)
	for {
		w.mu.Lock()
		next := w.pending
		w.pending = nil
		if next == nil {
			w.running = false
			w.mu.Unlock()
			return
		}
		w.mu.Unlock()

		ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
		err := w.persister.Save(ctx, w.key, *next)
		cancel()
		if err != nil {
			logger.Warn("Failed to persist cart state", map[string]interface{}{
				"key":   w.key,
				"items": len(next.Items),
				"error": err.Error(),
			})
		}
	}
}

// flush blocks until every submitted snapshot has been handed to the persister.
func (w *writer) flush() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	done := w.done
	w.mu.Unlock()
	<-done
}
