package physics

// Tuning groups the immutable physical constants for the dynamics engine. One
// consistent set is used everywhere; the values mirror the original backend's
// more conservative tune.
type Tuning struct {
	// AccelerationKmhPerSec is the speed gained per second at full throttle.
	AccelerationKmhPerSec float64
	// BrakeKmhPerSec is the speed shed per second at full brake.
	BrakeKmhPerSec float64
	// EngineBrakeKmhPerSec is the passive deceleration with the drivetrain coupled.
	EngineBrakeKmhPerSec float64
	// AccelDecayFactor tapers acceleration as speed approaches the gear ceiling.
	AccelDecayFactor float64
	// TurnRateDegPerSec is the heading change per second at full steering lock.
	TurnRateDegPerSec float64
	// SteeringFadeKmh is the speed at which steering authority reaches its floor.
	SteeringFadeKmh float64
	// SteeringFloor keeps a minimum of steering authority at any speed.
	SteeringFloor float64
	// IdleRPM is the engine speed with no throttle applied.
	IdleRPM float64
	// MaxRPM caps the engine speed in every regime.
	MaxRPM float64
	// NeutralRevRangeRPM bounds the throttle-proportional revs in Neutral.
	NeutralRevRangeRPM float64
	// InGearBoostRPM is the small throttle contribution on top of load-coupled revs.
	InGearBoostRPM float64
	// MovementThresholdKmh freezes heading and position below this speed.
	MovementThresholdKmh float64
}

// DefaultTuning returns the production constant set.
func DefaultTuning() Tuning {
	return Tuning{
		AccelerationKmhPerSec: 5,
		BrakeKmhPerSec:        15,
		EngineBrakeKmhPerSec:  2,
		AccelDecayFactor:      0.5,
		TurnRateDegPerSec:     45,
		SteeringFadeKmh:       250,
		SteeringFloor:         0.2,
		IdleRPM:               800,
		MaxRPM:                8000,
		NeutralRevRangeRPM:    3000,
		InGearBoostRPM:        500,
		MovementThresholdKmh:  0.1,
	}
}

const (
	// clutchEngagedBelowPct marks the pedal travel under which torque is coupled.
	clutchEngagedBelowPct = 50.0
	// gearChangeClutchPct is the pedal travel required for a moving gear change.
	gearChangeClutchPct = 70.0
	// freeShiftSpeedKmh allows gear changes without the clutch at crawling speed.
	freeShiftSpeedKmh = 5.0
)
