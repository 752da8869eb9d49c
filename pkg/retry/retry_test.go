package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// quickConfig keeps Do loops fast and deterministic under test.
func quickConfig(maxAttempts int, initial time.Duration) Config {
	return Config{
		MaxAttempts:  maxAttempts,
		InitialDelay: initial,
		MaxDelay:     time.Second,
		Multiplier:   2.0,
	}
}

func TestRetry_Success(t *testing.T) {
	attempts := 0
	err := Do(context.Background(), quickConfig(3, 10*time.Millisecond), func() error {
		attempts++
		if attempts < 3 {
			return errors.New("transient error")
		}
		return nil
	})

	assert.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestRetry_AllAttemptsFail(t *testing.T) {
	attempts := 0
	err := Do(context.Background(), quickConfig(3, 10*time.Millisecond), func() error {
		attempts++
		return errors.New("persistent error")
	})

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed after 3 attempts")
	assert.Equal(t, 3, attempts)
}

func TestRetry_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	attempts := 0
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	err := Do(ctx, quickConfig(5, 100*time.Millisecond), func() error {
		attempts++
		return errors.New("error")
	})

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "retry cancelled")
	assert.Less(t, attempts, 5)
}

func TestRetry_RejectsBadConfig(t *testing.T) {
	cases := []struct {
		name string
		cfg  Config
	}{
		{"negative initial delay", Config{InitialDelay: -time.Second}},
		{"negative max delay", Config{MaxDelay: -time.Second}},
		{"negative multiplier", Config{Multiplier: -1}},
		{"max below initial", Config{InitialDelay: time.Second, MaxDelay: time.Millisecond}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			called := false
			err := Do(context.Background(), tc.cfg, func() error {
				called = true
				return nil
			})
			assert.Error(t, err)
			assert.False(t, called)
		})
	}
}

func TestRetry_NonRetryable(t *testing.T) {
	ctx := context.Background()
	cfg := Config{
		MaxAttempts:  5,
		InitialDelay: 10 * time.Millisecond,
		AddJitter:    false,
	}

	attempts := 0
	base := errors.New("bad config")
	err := Do(ctx, cfg, func() error {
		attempts++
		return NonRetryable(base)
	})

	assert.Error(t, err)
	assert.True(t, errors.Is(err, base))
	assert.Equal(t, 1, attempts)
}

func TestPolicy_Linear(t *testing.T) {
	p := Policy{BaseDelay: 50 * time.Millisecond}

	for attempt := 0; attempt < 5; attempt++ {
		assert.Equal(t, 50*time.Millisecond, p.DelayFor(attempt),
			"linear policy should be flat at attempt %d", attempt)
	}
}

func TestPolicy_Exponential(t *testing.T) {
	p := Policy{BaseDelay: 50 * time.Millisecond, Exponential: true}

	assert.Equal(t, 50*time.Millisecond, p.DelayFor(0))
	assert.Equal(t, 100*time.Millisecond, p.DelayFor(1))
	assert.Equal(t, 200*time.Millisecond, p.DelayFor(2))
	assert.Equal(t, 400*time.Millisecond, p.DelayFor(3))
}

func TestPolicy_ExponentialCapped(t *testing.T) {
	p := Policy{
		BaseDelay:   50 * time.Millisecond,
		Exponential: true,
		MaxDelay:    150 * time.Millisecond,
	}

	assert.Equal(t, 50*time.Millisecond, p.DelayFor(0))
	assert.Equal(t, 100*time.Millisecond, p.DelayFor(1))
	assert.Equal(t, 150*time.Millisecond, p.DelayFor(2))
	assert.Equal(t, 150*time.Millisecond, p.DelayFor(10))
	// Huge attempt counts must not overflow
	assert.Equal(t, 150*time.Millisecond, p.DelayFor(200))
}

func TestPolicy_Jitter(t *testing.T) {
	p := Policy{BaseDelay: 100 * time.Millisecond, AddJitter: true}

	for i := 0; i < 20; i++ {
		d := p.DelayFor(0)
		assert.GreaterOrEqual(t, d, 100*time.Millisecond)
		assert.LessOrEqual(t, d, 125*time.Millisecond)
	}
}

func TestPolicy_ZeroBase(t *testing.T) {
	p := Policy{}
	assert.Equal(t, time.Duration(0), p.DelayFor(0))
	assert.Equal(t, time.Duration(0), p.DelayFor(5))
}

func TestPolicy_NegativeAttempt(t *testing.T) {
	p := Policy{BaseDelay: 10 * time.Millisecond, Exponential: true}
	assert.Equal(t, 10*time.Millisecond, p.DelayFor(-1))
}

func TestDoWithResult(t *testing.T) {
	ctx := context.Background()
	cfg := Config{MaxAttempts: 3, InitialDelay: time.Millisecond, AddJitter: false}

	attempts := 0
	result, err := DoWithResult(ctx, cfg, func() (string, error) {
		attempts++
		if attempts < 2 {
			return "", errors.New("not yet")
		}
		return "value", nil
	})

	assert.NoError(t, err)
	assert.Equal(t, "value", result)
	assert.Equal(t, 2, attempts)
}
