package cart

import (
	"sync"
	"time"

	"github.com/ikkim/handmade-storefront/pkg/logger"
	"github.com/shopspring/decimal"
)

// DefaultIdleTimeout is how long a cart may go without a mutation
// before CheckExpiration empties it.
const DefaultIdleTimeout = 24 * time.Hour

// Listener receives a snapshot after every change to the store. It runs
// while the store is locked, in mutation order, and must not call back
// into the store.
type Listener func(State)

type Option func(*Store)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

func WithIdleTimeout(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.idleTimeout = d
		}
	}
}

// WithPersister makes every change durable through p.
func WithPersister(p Persister) Option {
	return func(s *Store) {
		if p != nil {
			s.writer = newWriter(p, s.key)
		}
	}
}

func withHook(l Listener) Option {
	return func(s *Store) {
		s.hook = l
	}
}

// Store is the cart of one session. A single instance is shared by
// every reader and writer of that session; a mutation from any caller
// is visible to all of them as soon as the call returns.
type Store struct {
	key         string
	now         func() time.Time
	idleTimeout time.Duration
	writer      *writer
	hook        Listener

	mu    sync.Mutex
	state State

	listenersMu  sync.Mutex
	listeners    map[int]Listener
	nextListener int
}

// NewStore creates the store for key starting from initial.
func NewStore(key string, initial State, opts ...Option) *Store {
	s := &Store{
		key:         key,
		now:         time.Now,
		idleTimeout: DefaultIdleTimeout,
		state:       initial.Clone(),
		listeners:   make(map[int]Listener),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) Key() string {
	return s.key
}

// AddItem merges quantity into the row with item.ID, or appends item
// with that quantity. Stock clamping is the caller's job.
func (s *Store) AddItem(item LineItem, quantity int) {
	if quantity < 1 {
		logger.Warn("Ignoring cart add with non-positive quantity", map[string]interface{}{
			"key":      s.key,
			"item_id":  item.ID,
			"quantity": quantity,
		})
		return
	}

	s.mutate(func(st *State) {
		if i := st.indexOf(item.ID); i >= 0 {
			st.Items[i].Quantity += quantity
			return
		}
		row := item.clone()
		row.Quantity = quantity
		st.Items = append(st.Items, row)
	})
}

// RemoveItem deletes the row with id. Missing ids are not an error.
func (s *Store) RemoveItem(id string) {
	s.mutate(func(st *State) {
		st.Items = removeAt(st.Items, st.indexOf(id))
	})
}

// UpdateQuantity sets the quantity of id. Anything below one removes the row.
func (s *Store) UpdateQuantity(id string, quantity int) {
	s.mutate(func(st *State) {
		i := st.indexOf(id)
		if quantity < 1 {
			st.Items = removeAt(st.Items, i)
			return
		}
		if i >= 0 {
			st.Items[i].Quantity = quantity
		}
	})
}

// Clear empties the cart. The cart stays active: the activity time is
// set to now, not reset.
func (s *Store) Clear() {
	s.mutate(func(st *State) {
		st.Items = []LineItem{}
	})
}

// CheckExpiration empties the cart and resets its activity when the
// idle timeout has elapsed. It reports whether it cleared anything.
func (s *Store) CheckExpiration() bool {
	s.mu.Lock()
	last, ok := s.state.LastActivity.Time()
	if !ok || s.now().Sub(last) <= s.idleTimeout {
		s.mu.Unlock()
		return false
	}
	s.state.Items = []LineItem{}
	s.state.LastActivity = Activity{}
	s.publish(s.state.Clone())
	s.mu.Unlock()

	logger.Info("Cart expired after idle timeout", map[string]interface{}{
		"key":           s.key,
		"last_activity": last,
		"idle_timeout":  s.idleTimeout.String(),
	})
	return true
}

func (s *Store) TotalPrice() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.TotalPrice()
}

func (s *Store) TotalItemCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.TotalItemCount()
}

// Items returns a copy of the rows in insertion order.
func (s *Store) Items() []LineItem {
	return s.Snapshot().Items
}

// Item returns a copy of the row with id.
func (s *Store) Item(id string) (LineItem, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.state.indexOf(id)
	if i < 0 {
		return LineItem{}, false
	}
	return s.state.Items[i].clone(), true
}

// Snapshot returns an immutable copy of the whole state.
func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// Subscribe registers l; the returned func removes it.
func (s *Store) Subscribe(l Listener) (unsubscribe func()) {
	s.listenersMu.Lock()
	id := s.nextListener
	s.nextListener++
	s.listeners[id] = l
	s.listenersMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.listenersMu.Lock()
			delete(s.listeners, id)
			s.listenersMu.Unlock()
		})
	}
}

// Observed reports whether any listener is registered.
func (s *Store) Observed() bool {
	s.listenersMu.Lock()
	defer s.listenersMu.Unlock()
	return len(s.listeners) > 0
}

// Flush waits for pending background writes.
func (s *Store) Flush() {
	if s.writer != nil {
		s.writer.flush()
	}
}

func (s *Store) mutate(fn func(*State)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.state)
	s.touch()
	s.publish(s.state.Clone())
}

// touch keeps the activity time non-decreasing even if the clock steps back.
func (s *Store) touch() {
	now := s.now()
	if last, ok := s.state.LastActivity.Time(); ok && now.Before(last) {
		now = last
	}
	s.state.LastActivity = ActiveAt(now)
}

// publish must be called with s.mu held so writes and notifications
// keep mutation order.
func (s *Store) publish(snapshot State) {
	if s.writer != nil {
		s.writer.submit(snapshot)
	}
	if s.hook != nil {
		s.hook(snapshot.Clone())
	}

	s.listenersMu.Lock()
	listeners := make([]Listener, 0, len(s.listeners))
	for _, l := range s.listeners {
		listeners = append(listeners, l)
	}
	s.listenersMu.Unlock()

	for _, l := range listeners {
		l(snapshot.Clone())
	}
}

func removeAt(items []LineItem, i int) []LineItem {
	if i < 0 {
		return items
	}
	out := make([]LineItem, 0, len(items)-1)
	out = append(out, items[:i]...)
	return append(out, items[i+1:]...)
}
