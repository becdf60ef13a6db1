// Package retry decides whether a failed attempt is retried and how long to
// wait before the next one.
package retry

import (
	"math"
	"math/rand/v2"
	"slices"
	"time"

	"github.com/fivetwenty-io/blocks-sdk/internal/constants"
	"github.com/fivetwenty-io/blocks-sdk/pkg/blocks"
)

// ShouldRetry reports whether err is transient under cfg. Only the configured
// statuses and pure network failures (no response at all) are retried.
func ShouldRetry(err *blocks.Error, cfg *blocks.RetryConfig) bool {
	if err == nil {
		return false
	}

	if cfg == nil {
		cfg = blocks.DefaultRetryConfig()
	}

	statuses := cfg.RetryableStatuses
	if statuses == nil {
		statuses = blocks.DefaultRetryableStatuses()
	}

	if slices.Contains(statuses, err.Status) {
		return true
	}

	return err.Status == 0 && err.Code == blocks.CodeNetwork
}

// ComputeDelay returns the jittered back-off delay before retry number
// attempt (zero-based).
func ComputeDelay(attempt int, cfg *blocks.RetryConfig) time.Duration {
	return Jittered(attempt, cfg, rand.Float64)
}

// Base returns the un-jittered delay: InitialDelay * BackoffMultiplier^attempt,
// capped at MaxDelay.
func Base(attempt int, cfg *blocks.RetryConfig) time.Duration {
	if cfg == nil {
		cfg = blocks.DefaultRetryConfig()
	}

	if attempt < 0 {
		attempt = 0
	}

	multiplier := cfg.BackoffMultiplier
	if multiplier <= 0 {
		multiplier = constants.DefaultRetryMultiplier
	}

	delay := float64(cfg.InitialDelay) * math.Pow(multiplier, float64(attempt))
	if cfg.MaxDelay > 0 && delay > float64(cfg.MaxDelay) {
		delay = float64(cfg.MaxDelay)
	}

	return toDuration(delay)
}

// Jittered applies a uniform +/-25% spread to Base using rnd, which must
// return values in [0, 1). The result is floored at one millisecond, but never
// exceeds MaxDelay plus the jitter fraction.
func Jittered(attempt int, cfg *blocks.RetryConfig, rnd func() float64) time.Duration {
	if cfg == nil {
		cfg = blocks.DefaultRetryConfig()
	}

	base := float64(Base(attempt, cfg))
	spread := (rnd()*2 - 1) * constants.RetryJitterFraction

	delay := max(toDuration(base*(1+spread)), constants.MinRetryDelay)

	if cfg.MaxDelay > 0 {
		ceiling := max(toDuration(float64(cfg.MaxDelay)*(1+constants.RetryJitterFraction)), 1)
		delay = min(delay, ceiling)
	}

	return delay
}

// toDuration converts nanoseconds to a Duration, saturating instead of
// overflowing for huge or infinite values.
func toDuration(nanos float64) time.Duration {
	switch {
	case math.IsNaN(nanos) || nanos <= 0:
		return 0
	case nanos >= math.MaxInt64:
		return time.Duration(math.MaxInt64)
	default:
		return time.Duration(nanos)
	}
}
