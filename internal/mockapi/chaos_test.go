package mockapi

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNilChaosInjectsNothing(t *testing.T) {
	var c *Chaos
	assert.False(t, c.Fail(OpWrite))
	assert.Zero(t, c.Latency())
	assert.NoError(t, c.Delay(context.Background()))
}

func TestChaosRates(t *testing.T) {
	always := NewChaos(ChaosConfig{FailureRate: 1, ReorderFailureRate: 1}, 1)
	assert.True(t, always.Fail(OpWrite))
	assert.True(t, always.Fail(OpReorder))
	assert.False(t, always.Fail(OpRead))

	never := NewChaos(ChaosConfig{}, 1)
	for range 100 {
		assert.False(t, never.Fail(OpReorder))
	}
}

func TestChaosFailureRateApproximate(t *testing.T) {
	c := NewChaos(DefaultChaos, 99)
	const n = 20000
	writes, reorders := 0, 0
	for range n {
		if c.Fail(OpWrite) {
			writes++
		}
		if c.Fail(OpReorder) {
			reorders++
		}
	}
	assert.InDelta(t, 0.08, float64(writes)/n, 0.02)
	assert.InDelta(t, 0.20, float64(reorders)/n, 0.02)
}

func TestChaosLatencyWithinRange(t *testing.T) {
	c := NewChaos(DefaultChaos, 3)
	for range 1000 {
		d := c.Latency()
		assert.GreaterOrEqual(t, d, 200*time.Millisecond)
		assert.Less(t, d, 1200*time.Millisecond)
	}
}

func TestChaosDelayHonorsContext(t *testing.T) {
	c := NewChaos(ChaosConfig{MinLatency: time.Hour, MaxLatency: 2 * time.Hour}, 5)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, c.Delay(ctx), context.Canceled)
}
