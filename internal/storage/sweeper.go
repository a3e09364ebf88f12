package storage

import (
	"context"
	"time"

	"github.com/rise-and-shine/quote3d/pkg/logger"
)

// Sweeper periodically runs retention sweeps against a Manager.
// Construct with NewSweeper, then Start once; Stop waits for an in-flight
// sweep to finish before returning.
type Sweeper struct {
	manager  *Manager
	interval time.Duration
	log      logger.Logger

	stop chan struct{}
	done chan struct{}
}

// NewSweeper creates a Sweeper running at the given interval.
func NewSweeper(manager *Manager, interval time.Duration, log logger.Logger) *Sweeper {
	return &Sweeper{
		manager:  manager,
		interval: interval,
		log:      log.Named("storage.sweeper"),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start launches the background sweep loop. The first sweep runs after one
// full interval, not immediately, so startup is never delayed by storage I/O.
func (s *Sweeper) Start() {
	go s.run()
}

// Stop terminates the sweep loop and waits for it to exit.
func (s *Sweeper) Stop() {
	close(s.stop)
	<-s.done
}

func (s *Sweeper) run() {
	defer close(s.done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.sweepOnce()
		}
	}
}

func (s *Sweeper) sweepOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), s.interval)
	defer cancel()

	removed, err := s.manager.Sweep(ctx, s.manager.Retention())
	if err != nil {
		s.log.With("removed", removed).Warnx(err)
		return
	}

	if removed > 0 {
		s.log.With("removed", removed).Info("retention sweep completed")
	}
}
