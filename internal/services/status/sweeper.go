package status

import (
	"context"
	"sync"
	"time"

	"github.com/fgeck/gowol-homelab/internal/models"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Sweeper periodically re-checks a set of addresses and owns the resulting
// DeviceStatusMap. A failed check marks its address offline.
type Sweeper struct {
	checker     Checker
	logger      zerolog.Logger
	interval    time.Duration
	concurrency int

	runMu  sync.Mutex // serializes Start and Stop
	cancel context.CancelFunc
	done   chan struct{}

	mu        sync.Mutex
	statuses  models.DeviceStatusMap
	lastSweep time.Time
	onSweep   func(models.DeviceStatusMap)
}

// NewSweeper creates a sweeper. concurrency < 1 means one check at a time.
func NewSweeper(logger zerolog.Logger, checker Checker, interval time.Duration, concurrency int) *Sweeper {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Sweeper{
		checker:     checker,
		logger:      logger,
		interval:    interval,
		concurrency: concurrency,
		statuses:    models.DeviceStatusMap{},
	}
}

// OnSweep registers fn to receive a snapshot after each completed sweep.
func (s *Sweeper) OnSweep(fn func(models.DeviceStatusMap)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onSweep = fn
}

// Start replaces the running sweep loop, if any, with one over addresses.
// The first sweep runs immediately. Empty addresses are ignored and entries
// for addresses no longer swept are dropped from the status map.
func (s *Sweeper) Start(ctx context.Context, addresses []string) {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	s.stopLocked()

	targets := uniqueAddresses(addresses)
	s.prune(targets)

	if len(targets) == 0 {
		s.logger.Debug().Msg("no addresses to sweep")
		return
	}

	loopCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})

	s.logger.Debug().
		Int("addresses", len(targets)).
		Dur("interval", s.interval).
		Msg("starting status sweep")

	go s.run(loopCtx, targets, s.done)
}

// Stop cancels the sweep loop and waits for it to exit.
func (s *Sweeper) Stop() {
	s.runMu.Lock()
	defer s.runMu.Unlock()
	s.stopLocked()
}

// Statuses returns a snapshot of the status map.
func (s *Sweeper) Statuses() models.DeviceStatusMap {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.statuses.Clone()
}

// LastSweep returns when the last sweep completed.
func (s *Sweeper) LastSweep() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSweep
}

func (s *Sweeper) stopLocked() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
	s.cancel = nil
	s.done = nil
}

func (s *Sweeper) run(ctx context.Context, targets []string, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		s.sweep(ctx, targets)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// sweep checks every target once. Results are merged into the current map as
// they arrive, never from a snapshot taken before the checks started.
func (s *Sweeper) sweep(ctx context.Context, targets []string) {
	var g errgroup.Group
	g.SetLimit(s.concurrency)

	for _, address := range targets {
		g.Go(func() error {
			online, err := s.checker.CheckStatus(ctx, address)
			if ctx.Err() != nil {
				return nil
			}
			if err != nil {
				s.logger.Warn().Err(err).Str("address", address).Msg("status check failed, marking offline")
				online = false
			}

			s.mu.Lock()
			s.statuses[address] = online
			s.mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	if ctx.Err() != nil {
		return
	}

	s.mu.Lock()
	s.lastSweep = time.Now()
	snapshot := s.statuses.Clone()
	fn := s.onSweep
	s.mu.Unlock()

	if fn != nil {
		fn(snapshot)
	}
}

func (s *Sweeper) prune(targets []string) {
	keep := make(map[string]struct{}, len(targets))
	for _, t := range targets {
		keep[t] = struct{}{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for address := range s.statuses {
		if _, ok := keep[address]; !ok {
			delete(s.statuses, address)
		}
	}
}

func uniqueAddresses(addresses []string) []string {
	seen := make(map[string]struct{}, len(addresses))
	out := make([]string, 0, len(addresses))
	for _, a := range addresses {
		if a == "" {
			continue
		}
		if _, ok := seen[a]; ok {
			continue
		}
		seen[a] = struct{}{}
		out = append(out, a)
	}
	return out
}
