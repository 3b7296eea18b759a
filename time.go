package ragdoll

import "time"

type Time struct {
	Time time.Time
	Dt   time.Duration
}

// FrameClock turns wall-clock ticks into simulation step lengths.
type FrameClock struct {
	Time
	// MaxDt caps a single step; zero means 100ms.
	MaxDt time.Duration
	// Fallback is used for the first tick and for non-positive gaps.
	Fallback time.Duration
}

// Tick records now and returns the step length in seconds.
func (c *FrameClock) Tick(now time.Time) float64 {
	maxDt := c.MaxDt
	if maxDt <= 0 {
		maxDt = 100 * time.Millisecond
	}
	fallback := c.Fallback
	if fallback <= 0 {
		fallback = time.Second / 60
	}

	dt := fallback
	if !c.Time.Time.IsZero() {
		if d := now.Sub(c.Time.Time); d > 0 {
			dt = d
		}
	}
	if dt > maxDt {
		dt = maxDt
	}
	c.Time.Dt = dt
	c.Time.Time = now
	return dt.Seconds()
}
