package resilience

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"time"

	tberrors "github.com/kbukum/talkback/errors"
	"github.com/kbukum/talkback/validation"
)

// RetryConfig configures how often and how soon a failed source is re-invoked.
type RetryConfig struct {
	// MaxAttempts is the maximum number of attempts, the first included.
	MaxAttempts int `yaml:"max_attempts" mapstructure:"max_attempts" validate:"gte=0"`
	// InitialBackoff is the delay before the second attempt. Zero retries immediately.
	InitialBackoff time.Duration `yaml:"initial_backoff" mapstructure:"initial_backoff" validate:"gte=0"`
	// MaxBackoff caps the delay between attempts.
	MaxBackoff time.Duration `yaml:"max_backoff" mapstructure:"max_backoff" validate:"gte=0"`
	// BackoffFactor is the multiplier for exponential backoff.
	BackoffFactor float64 `yaml:"backoff_factor" mapstructure:"backoff_factor" validate:"gte=0"`
	// Jitter adds randomness to backoff (0.0 to 1.0).
	Jitter float64 `yaml:"jitter" mapstructure:"jitter" validate:"gte=0,lte=1"`
	// RetryIf determines if an error should be retried.
	RetryIf func(error) bool `yaml:"-" mapstructure:"-"`
	// OnRetry is called before each retry.
	OnRetry func(attempt int, err error, backoff time.Duration) `yaml:"-" mapstructure:"-"`
}

// DefaultRetryConfig returns three attempts with 100ms exponential backoff.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:    3,
		InitialBackoff: 100 * time.Millisecond,
		MaxBackoff:     10 * time.Second,
		BackoffFactor:  2.0,
		Jitter:         0.1,
		RetryIf:        DefaultRetryIf,
	}
}

// ApplyDefaults fills unset fields. A zero InitialBackoff is kept so that
// retries can run without delay.
func (c *RetryConfig) ApplyDefaults() {
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 3
	}
	if c.MaxBackoff <= 0 {
		c.MaxBackoff = 10 * time.Second
	}
	if c.BackoffFactor <= 0 {
		c.BackoffFactor = 2.0
	}
	if c.RetryIf == nil {
		c.RetryIf = DefaultRetryIf
	}
}

// Validate rejects combinations the field tags cannot express. It is meant
// to run after ApplyDefaults.
func (c RetryConfig) Validate() error {
	return validation.New().
		Min("max_attempts", c.MaxAttempts, 1).
		Custom(c.BackoffFactor >= 1, "backoff_factor", "must be at least 1").
		Custom(c.MaxBackoff >= c.InitialBackoff, "max_backoff", "must not be below initial_backoff").
		Err()
}

// DefaultRetryIf retries stream errors marked retryable and any plain error,
// but never context cancellation or a non-retryable stream error.
func DefaultRetryIf(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if se, ok := tberrors.AsStreamError(err); ok {
		return se.Retryable
	}
	return true
}

// Backoff returns the delay to wait after the given failed attempt (1-based).
func (c RetryConfig) Backoff(attempt int) time.Duration {
	if c.InitialBackoff <= 0 {
		return 0
	}
	factor := c.BackoffFactor
	if factor <= 0 {
		factor = 2.0
	}
	backoff := float64(c.InitialBackoff) * math.Pow(factor, float64(attempt-1))

	if c.Jitter > 0 {
		jitterRange := backoff * c.Jitter
		backoff += (rand.Float64()*2 - 1) * jitterRange
	}

	if c.MaxBackoff > 0 && backoff > float64(c.MaxBackoff) {
		backoff = float64(c.MaxBackoff)
	}
	if backoff < 0 {
		backoff = float64(c.InitialBackoff)
	}
	return time.Duration(backoff)
}

// ShouldRetry reports whether another attempt may follow the given failed
// attempt (1-based).
func (c RetryConfig) ShouldRetry(attempt int, err error) bool {
	if attempt >= c.MaxAttempts {
		return false
	}
	retryIf := c.RetryIf
	if retryIf == nil {
		retryIf = DefaultRetryIf
	}
	return retryIf(err)
}
