package retry_test

import (
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/fivetwenty-io/blocks-sdk/internal/retry"
	"github.com/fivetwenty-io/blocks-sdk/pkg/blocks"
	"github.com/stretchr/testify/assert"
)

func TestShouldRetry(t *testing.T) {
	t.Parallel()

	cfg := blocks.DefaultRetryConfig()

	tests := []struct {
		name string
		err  *blocks.Error
		want bool
	}{
		{"rate limited", blocks.NewError(429, "", ""), true},
		{"bad gateway", blocks.NewError(502, "", ""), true},
		{"service unavailable", blocks.NewError(503, "", ""), true},
		{"gateway timeout", blocks.NewError(504, "", ""), true},
		{"network failure", &blocks.Error{Code: blocks.CodeNetwork}, true},
		{"internal server error", blocks.NewError(500, "", ""), false},
		{"bad request", blocks.NewError(400, "", ""), false},
		{"not found", blocks.NewError(404, "", ""), false},
		{"validation", blocks.NewError(422, "invalid_email", ""), false},
		{"client timeout", &blocks.Error{Code: blocks.CodeTimeout, Status: blocks.StatusClientTimeout}, false},
		{"aborted", &blocks.Error{Code: blocks.CodeRequestAborted}, false},
		{"nil", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, retry.ShouldRetry(tt.err, cfg))
		})
	}
}

func TestShouldRetry_CustomStatuses(t *testing.T) {
	t.Parallel()

	cfg := &blocks.RetryConfig{RetryableStatuses: []int{500}}

	assert.True(t, retry.ShouldRetry(blocks.NewError(500, "", ""), cfg))
	assert.False(t, retry.ShouldRetry(blocks.NewError(503, "", ""), cfg))
	assert.True(t, retry.ShouldRetry(&blocks.Error{Code: blocks.CodeNetwork}, cfg))
}

func TestBase(t *testing.T) {
	t.Parallel()

	cfg := &blocks.RetryConfig{
		InitialDelay:      500 * time.Millisecond,
		BackoffMultiplier: 2,
		MaxDelay:          3 * time.Second,
	}

	assert.Equal(t, 500*time.Millisecond, retry.Base(0, cfg))
	assert.Equal(t, time.Second, retry.Base(1, cfg))
	assert.Equal(t, 2*time.Second, retry.Base(2, cfg))
	assert.Equal(t, 3*time.Second, retry.Base(3, cfg))
	assert.Equal(t, 3*time.Second, retry.Base(10, cfg))
}

func TestJittered_Bounds(t *testing.T) {
	t.Parallel()

	cfg := blocks.DefaultRetryConfig()

	for attempt := range 8 {
		base := retry.Base(attempt, cfg)

		low := retry.Jittered(attempt, cfg, func() float64 { return 0 })
		mid := retry.Jittered(attempt, cfg, func() float64 { return 0.5 })
		high := retry.Jittered(attempt, cfg, func() float64 { return 0.999999 })

		assert.Equal(t, time.Duration(float64(base)*0.75), low, "attempt %d", attempt)
		assert.Equal(t, base, mid, "attempt %d", attempt)
		assert.LessOrEqual(t, high, time.Duration(float64(base)*1.25), "attempt %d", attempt)
		assert.LessOrEqual(t, high, time.Duration(float64(cfg.MaxDelay)*1.25))
	}
}

func TestComputeDelay_WithinJitterRange(t *testing.T) {
	t.Parallel()

	cfg := blocks.DefaultRetryConfig()

	for attempt := range 6 {
		t.Run(fmt.Sprintf("attempt_%d", attempt), func(t *testing.T) {
			t.Parallel()

			base := retry.Base(attempt, cfg)
			for range 50 {
				delay := retry.ComputeDelay(attempt, cfg)
				assert.GreaterOrEqual(t, delay, time.Duration(float64(base)*0.75))
				assert.LessOrEqual(t, delay, time.Duration(float64(base)*1.25))
			}
		})
	}
}

func TestJittered_NeverZero(t *testing.T) {
	t.Parallel()

	cfg := &blocks.RetryConfig{InitialDelay: 0, BackoffMultiplier: 2}

	assert.Equal(t, time.Millisecond, retry.Jittered(0, cfg, func() float64 { return 0 }))
	assert.Positive(t, retry.ComputeDelay(3, cfg))
}

func TestJittered_SubMillisecondMaxDelay(t *testing.T) {
	t.Parallel()

	cfg := &blocks.RetryConfig{
		InitialDelay:      100 * time.Microsecond,
		BackoffMultiplier: 2,
		MaxDelay:          200 * time.Microsecond,
	}

	ceiling := time.Duration(float64(cfg.MaxDelay) * 1.25)

	for attempt := range 5 {
		for _, r := range []float64{0, 0.5, 0.999999} {
			delay := retry.Jittered(attempt, cfg, func() float64 { return r })
			assert.Positive(t, delay, "attempt %d", attempt)
			assert.LessOrEqual(t, delay, ceiling, "attempt %d rnd %v", attempt, r)
		}
	}
}

func TestBase_SaturatesWithoutMaxDelay(t *testing.T) {
	t.Parallel()

	cfg := &blocks.RetryConfig{InitialDelay: time.Second, BackoffMultiplier: 10}

	assert.Equal(t, time.Duration(math.MaxInt64), retry.Base(5000, cfg))
	assert.Equal(t, time.Duration(math.MaxInt64), retry.Jittered(5000, cfg, func() float64 { return 0.999999 }))
	assert.Positive(t, retry.Jittered(5000, cfg, func() float64 { return 0 }))
}
