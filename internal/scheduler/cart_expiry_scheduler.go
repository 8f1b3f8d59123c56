package scheduler

import (
	"github.com/ikkim/handmade-storefront/pkg/logger"
	"github.com/robfig/cron/v3"
)

// CartSweeper expires idle carts; satisfied by *cart.Registry
type CartSweeper interface {
	Sweep() int
}

// CartExpiryScheduler periodically expires idle carts held in memory
type CartExpiryScheduler struct {
	cron     *cron.Cron
	schedule string
	sweeper  CartSweeper
}

// NewCartExpiryScheduler takes a robfig/cron spec such as "@every 15m"
func NewCartExpiryScheduler(sweeper CartSweeper, schedule string) *CartExpiryScheduler {
	return &CartExpiryScheduler{
		cron:     cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		schedule: schedule,
		sweeper:  sweeper,
	}
}

// Start registers the sweep job and starts the scheduler
func (s *CartExpiryScheduler) Start() error {
	_, err := s.cron.AddFunc(s.schedule, s.run)
	if err != nil {
		logger.Error("Failed to add cron job for cart expiry", err, map[string]interface{}{
			"schedule": s.schedule,
		})
		return err
	}

	s.cron.Start()
	logger.Info("Cart expiry scheduler started", map[string]interface{}{
		"schedule": s.schedule,
	})
	return nil
}

func (s *CartExpiryScheduler) run() {
	expired := s.sweeper.Sweep()
	if expired > 0 {
		logger.Info("Expired idle carts", map[string]interface{}{
			"expired": expired,
		})
	}
}

// Stop stops the scheduler and waits for a running sweep to finish
func (s *CartExpiryScheduler) Stop() {
	logger.Info("Stopping cart expiry scheduler...")
	<-s.cron.Stop().Done()
	logger.Info("Cart expiry scheduler stopped")
}
