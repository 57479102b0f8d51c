package mockapi

import (
	"context"
	"errors"
	"math/rand/v2"
	"sync"
	"time"
)

// ErrInjected marks a synthetic failure produced by Chaos.
var ErrInjected = errors.New("injected failure")

// OpKind selects which failure rate applies to a request.
type OpKind int

const (
	OpRead OpKind = iota
	OpWrite
	OpReorder
)

// ChaosConfig describes simulated network conditions. The zero value means no
// latency and no failures.
type ChaosConfig struct {
	MinLatency         time.Duration
	MaxLatency         time.Duration
	FailureRate        float64
	ReorderFailureRate float64
	ReadFailureRate    float64
}

// DefaultChaos mirrors a flaky remote backend: 200ms to 1.2s per request, 8%
// of writes and 20% of reorders failing.
var DefaultChaos = ChaosConfig{
	MinLatency:         200 * time.Millisecond,
	MaxLatency:         1200 * time.Millisecond,
	FailureRate:        0.08,
	ReorderFailureRate: 0.20,
}

// Chaos injects latency and failures. A nil *Chaos injects nothing.
type Chaos struct {
	cfg ChaosConfig

	mu  sync.Mutex
	rng *rand.Rand
}

// NewChaos returns a Chaos drawing from a PCG source. A zero seed picks a
// time-based one.
func NewChaos(cfg ChaosConfig, seed uint64) *Chaos {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return &Chaos{cfg: cfg, rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func (c *Chaos) Config() ChaosConfig {
	if c == nil {
		return ChaosConfig{}
	}
	return c.cfg
}

// Latency draws a delay uniformly from [MinLatency, MaxLatency).
func (c *Chaos) Latency() time.Duration {
	if c == nil || c.cfg.MaxLatency <= 0 {
		return 0
	}
	span := c.cfg.MaxLatency - c.cfg.MinLatency
	if span <= 0 {
		return c.cfg.MinLatency
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cfg.MinLatency + time.Duration(c.rng.Int64N(int64(span)))
}

// Delay sleeps for one Latency draw or until ctx is done.
func (c *Chaos) Delay(ctx context.Context) error {
	d := c.Latency()
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Fail reports whether a request of the given kind should fail.
func (c *Chaos) Fail(kind OpKind) bool {
	if c == nil {
		return false
	}
	var rate float64
	switch kind {
	case OpReorder:
		rate = c.cfg.ReorderFailureRate
	case OpWrite:
		rate = c.cfg.FailureRate
	default:
		rate = c.cfg.ReadFailureRate
	}
	if rate <= 0 {
		return false
	}
	if rate >= 1 {
		return true
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rng.Float64() < rate
}
