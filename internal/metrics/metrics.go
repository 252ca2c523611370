// Package metrics implements the small counters the persistence manager
// reports: queries-per-second over the trailing second, and a 32-sample
// rolling average, for inserts and updates. It is deliberately independent
// of any metrics-export library since there is no wider observability
// surface to plug into yet — sync.Mutex-guarded in-process counters are
// all two numbers per queue need.
package metrics

import (
	"sync"
	"time"
)

const rollingWindow = 32

// Counter tracks a single named operation rate: queries-per-second over
// the trailing second, and a rolling average over the last 32 flush
// batches.
type Counter struct {
	mu sync.Mutex

	windowStart time.Time
	windowCount int
	lastQPS     float64

	samples    [rollingWindow]int
	sampleIdx  int
	sampleFull bool
}

func NewCounter() *Counter {
	return &Counter{windowStart: time.Time{}}
}

// Observe records n occurrences at time now (a flush batch size, or 1 per
// write — callers are consistent about which).
func (c *Counter) Observe(now time.Time, n int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.windowStart.IsZero() {
		c.windowStart = now
	}
	if elapsed := now.Sub(c.windowStart); elapsed >= time.Second {
		c.lastQPS = float64(c.windowCount) / elapsed.Seconds()
		c.windowCount = 0
		c.windowStart = now
	}
	c.windowCount += n

	c.samples[c.sampleIdx] = n
	c.sampleIdx = (c.sampleIdx + 1) % rollingWindow
	if c.sampleIdx == 0 {
		c.sampleFull = true
	}
}

// QPS returns the most recently computed queries-per-second figure.
func (c *Counter) QPS() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastQPS
}

// RollingAverage returns the mean of the last up-to-32 Observe() calls.
func (c *Counter) RollingAverage() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := c.sampleIdx
	if c.sampleFull {
		n = rollingWindow
	}
	if n == 0 {
		return 0
	}
	sum := 0
	for i := 0; i < n; i++ {
		sum += c.samples[i]
	}
	return float64(sum) / float64(n)
}
