// Package chain abstracts the host environment's block counter. All timing
// decisions (term expiry, cooldowns) are made against block heights, never
// wall-clock time.
package chain

import (
	"sync"
	"time"
)

// Clock exposes the current block height. Heights are monotonically
// non-decreasing.
type Clock interface {
	Height() uint64
}

// Interval derives a height from elapsed wall time since a genesis instant.
// It stands in for the host chain when running as a standalone service.
type Interval struct {
	genesis  time.Time
	interval time.Duration
}

// NewInterval builds a clock that advances one block every interval.
func NewInterval(genesis time.Time, interval time.Duration) *Interval {
	if interval <= 0 {
		interval = 12 * time.Second
	}
	return &Interval{genesis: genesis, interval: interval}
}

func (c *Interval) Height() uint64 {
	elapsed := time.Since(c.genesis)
	if elapsed < 0 {
		return 0
	}
	return uint64(elapsed / c.interval)
}

// Manual is a hand-advanced clock for tests.
type Manual struct {
	mu     sync.Mutex
	height uint64
}

// NewManual builds a manual clock starting at the given height.
func NewManual(height uint64) *Manual {
	return &Manual{height: height}
}

func (c *Manual) Height() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.height
}

// Advance moves the clock forward by n blocks.
func (c *Manual) Advance(n uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.height += n
}

// SetHeight jumps to an absolute height. Panics if the clock would move
// backwards, since heights are monotonic.
func (c *Manual) SetHeight(h uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if h < c.height {
		panic("chain: manual clock moved backwards")
	}
	c.height = h
}
