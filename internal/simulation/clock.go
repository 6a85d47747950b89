package simulation

import (
	"sync"
	"time"
)

// Clock provides the wall time for drift measurements.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// DriftSnapshot compares the simulated clock against the wall clock.
type DriftSnapshot struct {
	Wall      time.Duration `json:"wall_ms"`
	Simulated time.Duration `json:"simulated_ms"`
	Drift     time.Duration `json:"drift_ms"`
}

// DriftTracker measures how far the fixed-timestep simulation lags behind or
// runs ahead of real time. A persistently growing drift means the loop cannot
// keep up with its configured tick rate.
type DriftTracker struct {
	mu        sync.Mutex
	clock     Clock
	started   time.Time
	simulated time.Duration
}

// NewDriftTracker starts tracking from the current wall time.
func NewDriftTracker(clock Clock) *DriftTracker {
	if clock == nil {
		clock = systemClock{}
	}
	return &DriftTracker{clock: clock, started: clock.Now()}
}

// Advance credits one fixed step to the simulated clock.
func (d *DriftTracker) Advance(step time.Duration) {
	if d == nil || step <= 0 {
		return
	}
	d.mu.Lock()
	d.simulated += step
	d.mu.Unlock()
}

// Snapshot reports the wall time elapsed, the simulated time covered, and the
// difference between the two. Positive drift means the simulation is behind.
func (d *DriftTracker) Snapshot() DriftSnapshot {
	if d == nil {
		return DriftSnapshot{}
	}
	d.mu.Lock()
	simulated := d.simulated
	started := d.started
	d.mu.Unlock()

	wall := d.clock.Now().Sub(started)
	return DriftSnapshot{Wall: wall, Simulated: simulated, Drift: wall - simulated}
}
