package ragdoll

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFrameClockTick(t *testing.T) {
	var c FrameClock
	start := time.Unix(1000, 0)

	assert.InDelta(t, 1.0/60, c.Tick(start), 1e-9)
	assert.InDelta(t, 0.02, c.Tick(start.Add(20*time.Millisecond)), 1e-12)
	assert.Equal(t, 20*time.Millisecond, c.Dt)

	// A stall is capped.
	assert.InDelta(t, 0.1, c.Tick(start.Add(3*time.Second)), 1e-12)
	// A clock going backwards falls back to the nominal step.
	assert.InDelta(t, 1.0/60, c.Tick(start), 1e-9)
}

func TestFrameClockCustomLimits(t *testing.T) {
	c := FrameClock{MaxDt: 50 * time.Millisecond, Fallback: 10 * time.Millisecond}
	start := time.Unix(0, 1)
	assert.InDelta(t, 0.01, c.Tick(start), 1e-12)
	assert.InDelta(t, 0.05, c.Tick(start.Add(time.Second)), 1e-12)
}
