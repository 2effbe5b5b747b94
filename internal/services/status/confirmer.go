package status

import (
	"context"
	"time"

	"github.com/fgeck/gowol-homelab/internal/models"
	"github.com/rs/zerolog"
)

// Confirmer polls one address after a wake until it reports online or the
// attempt bound is reached. Each Confirm call is independent.
type Confirmer struct {
	checker     Checker
	logger      zerolog.Logger
	interval    time.Duration
	maxAttempts int
}

// NewConfirmer creates a confirmer. maxAttempts < 1 means a single check.
func NewConfirmer(logger zerolog.Logger, checker Checker, interval time.Duration, maxAttempts int) *Confirmer {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &Confirmer{
		checker:     checker,
		logger:      logger,
		interval:    interval,
		maxAttempts: maxAttempts,
	}
}

// Confirm runs the loop and blocks until a terminal outcome. The first check
// runs immediately. When attempts run out the outcome is timed_out if the
// last check answered, check_failed if it errored.
func (c *Confirmer) Confirm(ctx context.Context, address string) models.ConfirmResult {
	start := time.Now()
	result := models.ConfirmResult{Address: address}

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return c.finish(result, models.OutcomeCancelled, start)
			case <-ticker.C:
			}
		}

		result.Attempts = attempt
		online, err := c.checker.CheckStatus(ctx, address)
		if ctx.Err() != nil {
			return c.finish(result, models.OutcomeCancelled, start)
		}
		if err != nil {
			result.Error = err
			c.logger.Debug().
				Err(err).
				Str("address", address).
				Int("attempt", attempt).
				Msg("status check failed")
			continue
		}

		result.Error = nil
		if online {
			return c.finish(result, models.OutcomeOnline, start)
		}

		c.logger.Debug().
			Str("address", address).
			Int("attempt", attempt).
			Int("max_attempts", c.maxAttempts).
			Msg("target not online yet")
	}

	if result.Error != nil {
		return c.finish(result, models.OutcomeCheckFailed, start)
	}
	return c.finish(result, models.OutcomeTimedOut, start)
}

func (c *Confirmer) finish(result models.ConfirmResult, outcome models.ConfirmOutcome, start time.Time) models.ConfirmResult {
	result.Outcome = outcome
	result.Duration = time.Since(start)

	c.logger.Info().
		Str("address", result.Address).
		Str("outcome", string(outcome)).
		Int("attempts", result.Attempts).
		Dur("duration", result.Duration).
		Msg("confirmation finished")

	return result
}
