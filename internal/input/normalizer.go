package input

import (
	"math"
	"sync/atomic"

	"carsim/backend/internal/vehicle"
)

// Normalizer coerces analog control channels into their legal ranges. Hostile
// or glitchy values are clamped rather than rejected so a stuck pedal never
// stalls the control stream, and each correction is counted for diagnostics.
type Normalizer struct {
	clamped atomic.Uint64
}

// NewNormalizer constructs a normalizer with zeroed counters.
func NewNormalizer() *Normalizer {
	return &Normalizer{}
}

// Normalize returns the controls with every channel clamped into range and
// reports whether any channel needed correction.
func (n *Normalizer) Normalize(controls vehicle.Controls) (vehicle.Controls, bool) {
	//1.- Non-finite channels zero out before clamping; they carry no usable intent.
	scrubbed := vehicle.Controls{
		SteeringDeg: finiteOrZero(controls.SteeringDeg),
		Accelerator: finiteOrZero(controls.Accelerator),
		Brake:       finiteOrZero(controls.Brake),
		Clutch:      finiteOrZero(controls.Clutch),
	}
	cleaned := scrubbed.Clamped()
	if cleaned == controls {
		return cleaned, false
	}
	//2.- Count the correction so operators can spot misbehaving clients.
	if n != nil {
		n.clamped.Add(1)
	}
	return cleaned, true
}

func finiteOrZero(value float64) float64 {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return 0
	}
	return value
}

// ClampedCount reports how many frames required at least one correction.
func (n *Normalizer) ClampedCount() uint64 {
	if n == nil {
		return 0
	}
	return n.clamped.Load()
}
