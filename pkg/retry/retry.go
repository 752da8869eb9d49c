// Package retry provides backoff scheduling for transient failures
package retry

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"
)

var (
	randMu     sync.Mutex
	randSource = rand.New(rand.NewSource(time.Now().UnixNano()))
)

// jitterFor returns up to 25% of delay, drawn from the shared source.
func jitterFor(delay time.Duration) time.Duration {
	if delay < 4 {
		return 0
	}
	randMu.Lock()
	defer randMu.Unlock()
	return time.Duration(randSource.Int63n(int64(delay / 4)))
}

// NonRetryableError marks an error the Do loop must surface immediately.
type NonRetryableError struct {
	Err error
}

func (e *NonRetryableError) Error() string {
	return fmt.Sprintf("non-retryable: %v", e.Err)
}

func (e *NonRetryableError) Unwrap() error {
	return e.Err
}

// NonRetryable marks err so that Do stops instead of retrying it.
func NonRetryable(err error) error {
	if err == nil {
		return nil
	}
	return &NonRetryableError{Err: err}
}

// IsNonRetryable reports whether err carries the NonRetryable marker.
func IsNonRetryable(err error) bool {
	var nre *NonRetryableError
	return errors.As(err, &nre)
}

// Policy computes the delay before each reconnection attempt. Attempt
// numbering starts at 0 for the first retry.
//
// Linear policies wait BaseDelay before every attempt. Exponential policies
// wait BaseDelay * 2^attempt, capped at MaxDelay when MaxDelay is set.
type Policy struct {
	BaseDelay   time.Duration // Delay unit (linear) or starting delay (exponential)
	Exponential bool          // Multiply by 2^attempt instead of staying flat
	MaxDelay    time.Duration // Cap on the computed delay (0 = uncapped)
	AddJitter   bool          // Add up to 25% randomness to prevent thundering herd
}

// DelayFor returns the delay to wait before the given retry attempt.
func (p Policy) DelayFor(attempt int) time.Duration {
	if p.BaseDelay <= 0 {
		return 0
	}
	if attempt < 0 {
		attempt = 0
	}

	delay := p.BaseDelay
	if p.Exponential {
		for i := 0; i < attempt; i++ {
			delay *= 2
			if p.MaxDelay > 0 && delay >= p.MaxDelay {
				delay = p.MaxDelay
				break
			}
			// Guard against overflow for absurd attempt counts
			if delay <= 0 {
				delay = p.MaxDelay
				if delay <= 0 {
					delay = p.BaseDelay
				}
				break
			}
		}
	}
	if p.MaxDelay > 0 && delay > p.MaxDelay {
		delay = p.MaxDelay
	}

	if p.AddJitter {
		delay += jitterFor(delay)
	}

	return delay
}

// Config parameterizes the Do loop.
type Config struct {
	MaxAttempts  int           // Total attempts including the first (0 runs fn once)
	InitialDelay time.Duration // Delay before the second attempt
	MaxDelay     time.Duration // Ceiling for the growing delay
	Multiplier   float64       // Growth factor applied after each failure
	AddJitter    bool          // Randomize each sleep by up to 25%
}

// DefaultConfig suits short-lived setup calls such as dialing a broker.
func DefaultConfig() Config {
	return Config{
		MaxAttempts:  3,
		InitialDelay: 100 * time.Millisecond,
		MaxDelay:     5 * time.Second,
		Multiplier:   2.0,
		AddJitter:    true,
	}
}

// Quick retries aggressively with short sleeps, for startup paths where a
// dependency is expected to come up within a second or two.
func Quick() Config {
	return Config{
		MaxAttempts:  10,
		InitialDelay: 50 * time.Millisecond,
		MaxDelay:     1 * time.Second,
		Multiplier:   1.5,
		AddJitter:    true,
	}
}

// normalize validates cfg and fills zero values with defaults.
func (cfg *Config) normalize() error {
	switch {
	case cfg.InitialDelay < 0:
		return errors.New("retry: InitialDelay cannot be negative")
	case cfg.MaxDelay < 0:
		return errors.New("retry: MaxDelay cannot be negative")
	case cfg.Multiplier < 0:
		return errors.New("retry: Multiplier cannot be negative")
	}

	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 1
	}
	if cfg.InitialDelay == 0 {
		cfg.InitialDelay = 100 * time.Millisecond
	}
	if cfg.MaxDelay == 0 {
		cfg.MaxDelay = 5 * time.Second
	}
	if cfg.Multiplier == 0 {
		cfg.Multiplier = 2.0
	}

	if cfg.MaxDelay < cfg.InitialDelay {
		return errors.New("retry: MaxDelay must be >= InitialDelay")
	}
	return nil
}

// Do runs fn until it succeeds, the attempt budget runs out, ctx is
// cancelled, or fn returns a NonRetryable error.
func Do(ctx context.Context, cfg Config, fn func() error) error {
	if err := cfg.normalize(); err != nil {
		return err
	}

	var lastErr error
	delay := cfg.InitialDelay

	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err

		if IsNonRetryable(err) {
			return err
		}
		if ctx.Err() != nil {
			return fmt.Errorf("retry cancelled before attempt %d: %w", attempt, ctx.Err())
		}
		if attempt == cfg.MaxAttempts {
			break
		}

		sleep := delay
		if cfg.AddJitter {
			sleep += jitterFor(delay)
		}

		timer := time.NewTimer(sleep)
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("retry cancelled during backoff for attempt %d: %w", attempt+1, ctx.Err())
		case <-timer.C:
		}

		if next := float64(delay) * cfg.Multiplier; next > float64(cfg.MaxDelay) {
			delay = cfg.MaxDelay
		} else {
			delay = time.Duration(next)
		}
	}

	return fmt.Errorf("retry failed after %d attempts: %w", cfg.MaxAttempts, lastErr)
}

// DoWithResult is Do for functions that also produce a value.
func DoWithResult[T any](ctx context.Context, cfg Config, fn func() (T, error)) (T, error) {
	var result T
	err := Do(ctx, cfg, func() error {
		var innerErr error
		result, innerErr = fn()
		return innerErr
	})
	return result, err
}
