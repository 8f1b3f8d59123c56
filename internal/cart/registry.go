package cart

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/ikkim/handmade-storefront/pkg/logger"
	"golang.org/x/sync/singleflight"
)

// ChangeFunc is told about every change to any store the registry owns.
type ChangeFunc func(key string, state State)

// DefaultEvictAfter is how long an empty store stays loaded after its
// last Get.
const DefaultEvictAfter = 30 * time.Minute

// Registry owns the one shared Store of every session that is in use.
type Registry struct {
	persister   Persister
	idleTimeout time.Duration
	evictAfter  time.Duration
	loads       singleflight.Group

	mu       sync.Mutex
	now      func() time.Time
	stores   map[string]*Store
	accessed map[string]time.Time
	onChange ChangeFunc
}

func NewRegistry(persister Persister, idleTimeout time.Duration) *Registry {
	if persister == nil {
		persister = NopPersister{}
	}
	if idleTimeout <= 0 {
		idleTimeout = DefaultIdleTimeout
	}
	return &Registry{
		persister:   persister,
		idleTimeout: idleTimeout,
		evictAfter:  DefaultEvictAfter,
		now:         time.Now,
		stores:      make(map[string]*Store),
		accessed:    make(map[string]time.Time),
	}
}

// SetClock replaces time.Now for stores created afterwards.
func (r *Registry) SetClock(now func() time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.now = now
}

// OnChange installs fn for stores created afterwards.
func (r *Registry) OnChange(fn ChangeFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onChange = fn
}

// Get returns the store of key, hydrating it from the persister the
// first time. A missing or unreadable slot gives an empty cart.
// Concurrent first calls for one key share a single load; loads for
// different keys run in parallel.
func (r *Registry) Get(ctx context.Context, key string) *Store {
	if s, ok := r.lookup(key); ok {
		return s
	}

	v, _, _ := r.loads.Do(key, func() (interface{}, error) {
		if s, ok := r.lookup(key); ok {
			return s, nil
		}
		s := r.hydrate(context.WithoutCancel(ctx), key)

		r.mu.Lock()
		r.stores[key] = s
		r.accessed[key] = r.now()
		r.mu.Unlock()
		return s, nil
	})
	return v.(*Store)
}

func (r *Registry) lookup(key string) (*Store, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.stores[key]
	if ok {
		r.accessed[key] = r.now()
	}
	return s, ok
}

// hydrate builds the store of key from the persister. It runs without
// r.mu held.
func (r *Registry) hydrate(ctx context.Context, key string) *Store {
	state, err := r.persister.Load(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrStateNotFound) {
			logger.Warn("Failed to load cart state, starting empty", map[string]interface{}{
				"key":   key,
				"error": err.Error(),
			})
		}
		state = State{}
	}

	r.mu.Lock()
	opts := []Option{
		WithClock(r.now),
		WithIdleTimeout(r.idleTimeout),
		WithPersister(r.persister),
	}
	if r.onChange != nil {
		onChange := r.onChange
		opts = append(opts, withHook(func(st State) {
			onChange(key, st)
		}))
	}
	r.mu.Unlock()

	s := NewStore(key, state, opts...)
	s.CheckExpiration()

	logger.Debug("Cart store hydrated", map[string]interface{}{
		"key":   key,
		"items": len(state.Items),
	})
	return s
}

// Sweep runs the expiry check on every loaded store and drops stores
// that hold nothing worth keeping in memory. A store is only dropped
// once nobody has asked for it for evictAfter. It returns how many
// carts it expired.
func (r *Registry) Sweep() int {
	r.mu.Lock()
	stores := make([]*Store, 0, len(r.stores))
	for _, s := range r.stores {
		stores = append(stores, s)
	}
	r.mu.Unlock()

	expired := 0
	for _, s := range stores {
		if s.CheckExpiration() {
			expired++
		}
	}

	r.mu.Lock()
	now := r.now()
	var evicted []*Store
	for key, s := range r.stores {
		if now.Sub(r.accessed[key]) < r.evictAfter {
			continue
		}
		snapshot := s.Snapshot()
		if len(snapshot.Items) == 0 && !snapshot.LastActivity.IsSet() && !s.Observed() {
			delete(r.stores, key)
			delete(r.accessed, key)
			evicted = append(evicted, s)
		}
	}
	remaining := len(r.stores)
	r.mu.Unlock()

	for _, s := range evicted {
		s.Flush()
	}

	logger.Debug("Cart sweep finished", map[string]interface{}{
		"expired":   expired,
		"evicted":   len(evicted),
		"remaining": remaining,
	})
	return expired
}

// Len is the number of stores held in memory.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.stores)
}

// Flush waits for every pending background write.
func (r *Registry) Flush() {
	r.mu.Lock()
	stores := make([]*Store, 0, len(r.stores))
	for _, s := range r.stores {
		stores = append(stores, s)
	}
	r.mu.Unlock()

	for _, s := range stores {
		s.Flush()
	}
}
