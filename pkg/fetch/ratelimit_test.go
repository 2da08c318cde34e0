package fetch

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func newTestRateLimiter() *RateLimiter {
	return NewRateLimiter(100*time.Millisecond, testLogger())
}

func TestApplyDelay_RespectsContextCancellation(t *testing.T) {
	rl := newTestRateLimiter()
	host := "example.com"
	rl.UpdateLastRequestTime(host)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	err := rl.ApplyDelay(ctx, host, 5*time.Second)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), 100*time.Millisecond)
}

func TestApplyDelay_SleepsForExpectedDuration(t *testing.T) {
	rl := newTestRateLimiter()
	host := "example.com"
	rl.UpdateLastRequestTime(host)

	start := time.Now()
	err := rl.ApplyDelay(context.Background(), host, 100*time.Millisecond)
	elapsed := time.Since(start)

	// Jitter is +/- 10%
	assert.NoError(t, err)
	assert.GreaterOrEqual(t, elapsed, 50*time.Millisecond)
	assert.Less(t, elapsed, 300*time.Millisecond)
}

func TestApplyDelay_UsesDefaultDelay(t *testing.T) {
	rl := newTestRateLimiter()
	host := "example.com"
	rl.UpdateLastRequestTime(host)

	start := time.Now()
	assert.NoError(t, rl.ApplyDelay(context.Background(), host, 0))
	assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)
}

func TestApplyDelay_NoDelayOnFirstRequest(t *testing.T) {
	rl := newTestRateLimiter()

	start := time.Now()
	assert.NoError(t, rl.ApplyDelay(context.Background(), "fresh-host.com", 5*time.Second))
	assert.Less(t, time.Since(start), 10*time.Millisecond)
}

func TestApplyDelay_DisabledDelay(t *testing.T) {
	rl := NewRateLimiter(0, testLogger())
	rl.UpdateLastRequestTime("example.com")

	start := time.Now()
	assert.NoError(t, rl.ApplyDelay(context.Background(), "example.com", 0))
	assert.Less(t, time.Since(start), 10*time.Millisecond)
}
