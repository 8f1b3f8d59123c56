package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ikkim/handmade-storefront/internal/cart"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingSweeper struct {
	calls int32
}

func (s *countingSweeper) Sweep() int {
	atomic.AddInt32(&s.calls, 1)
	return 1
}

func TestCartExpiryScheduler_InvalidSchedule(t *testing.T) {
	s := NewCartExpiryScheduler(&countingSweeper{}, "every now and then")
	assert.Error(t, s.Start())
}

func TestCartExpiryScheduler_RunsSweep(t *testing.T) {
	sweeper := &countingSweeper{}
	s := NewCartExpiryScheduler(sweeper, "@every 1s")
	require.NoError(t, s.Start())
	defer s.Stop()

	assert.Eventually(t, func() bool {
		return atomic.LoadInt32(&sweeper.calls) > 0
	}, 3*time.Second, 50*time.Millisecond)
}

func TestCartExpiryScheduler_ExpiresIdleCarts(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	registry := cart.NewRegistry(nil, time.Hour)
	registry.SetClock(func() time.Time { return now })

	store := registry.Get(context.Background(), "s1")
	store.AddItem(cart.LineItem{ID: "a", Title: "A", UnitPrice: cart.PriceFromString("1")}, 1)

	now = now.Add(2 * time.Hour)
	NewCartExpiryScheduler(registry, "@every 1h").run()

	assert.Empty(t, store.Items())
	assert.Equal(t, 0, registry.Len())
}
