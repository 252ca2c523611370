package metrics

import (
	"testing"
	"time"
)

func TestRollingAverageAcrossWindow(t *testing.T) {
	c := NewCounter()
	base := time.Unix(0, 0)
	for i := 0; i < 40; i++ {
		c.Observe(base.Add(time.Duration(i)*time.Millisecond), 2)
	}
	if avg := c.RollingAverage(); avg != 2 {
		t.Fatalf("expected rolling average of 2, got %v", avg)
	}
}

func TestQPSComputesOverTrailingSecond(t *testing.T) {
	c := NewCounter()
	base := time.Unix(0, 0)
	c.Observe(base, 5)
	c.Observe(base.Add(1100*time.Millisecond), 5)
	if qps := c.QPS(); qps < 4 || qps > 5 {
		t.Fatalf("expected ~4.5 QPS, got %v", qps)
	}
}
