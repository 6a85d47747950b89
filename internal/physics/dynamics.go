package physics

import (
	"math"

	"carsim/backend/internal/geo"
	"carsim/backend/internal/vehicle"
)

// Engine is the deterministic vehicle dynamics state machine. It holds no
// mutable state beyond its tuning constants, so a single instance may serve
// every session.
type Engine struct {
	tuning Tuning
}

// NewEngine constructs a dynamics engine with the supplied tuning. Zero-valued
// tunings fall back to the defaults.
func NewEngine(tuning Tuning) *Engine {
	if tuning == (Tuning{}) {
		tuning = DefaultTuning()
	}
	return &Engine{tuning: tuning}
}

// Tuning exposes the active constant set for diagnostics and tests.
func (e *Engine) Tuning() Tuning {
	if e == nil {
		return DefaultTuning()
	}
	return e.tuning
}

// Step advances the vehicle by dtSeconds using the supplied operator controls
// and returns the next state. The function is pure: identical inputs always
// yield identical outputs, every branch produces a valid state, and dt <= 0
// returns the input unchanged. Callers clamp dt before invoking; Step does not
// re-validate it.
func (e *Engine) Step(state vehicle.State, controls vehicle.Controls, dtSeconds float64) vehicle.State {
	if e == nil || dtSeconds <= 0 {
		return state
	}
	t := e.tuning

	//1.- Fold the clamped operator inputs into the state snapshot.
	in := controls.Clamped()
	state.SteeringDeg = in.SteeringDeg
	state.Accelerator = in.Accelerator
	state.Brake = in.Brake
	state.Clutch = in.Clutch

	//2.- An engine that is off only coasts down; no revs, no movement.
	if !state.EngineOn {
		state.SpeedKmh = math.Max(0, state.SpeedKmh-t.EngineBrakeKmhPerSec*dtSeconds)
		state.RPM = 0
		return state
	}

	ceiling := vehicle.MaxSpeedForGear(state.Gear)
	speedRatio := vehicle.SpeedRatio(state.SpeedKmh, state.Gear)
	engaged := in.Clutch < clutchEngagedBelowPct
	throttle := in.Accelerator / 100
	brake := in.Brake / 100

	//3.- Propulsion and engine braking only act through a coupled drivetrain.
	if state.Gear != vehicle.GearNeutral && engaged {
		if throttle > 0 && state.SpeedKmh < ceiling {
			//4.- Acceleration tapers as the vehicle closes in on the gear ceiling.
			accel := t.AccelerationKmhPerSec * throttle * (1 - speedRatio*t.AccelDecayFactor)
			if state.Gear == vehicle.GearReverse {
				state.SpeedKmh = math.Min(vehicle.ReverseCapKmh, state.SpeedKmh+accel*dtSeconds)
			} else {
				state.SpeedKmh = math.Min(ceiling, state.SpeedKmh+accel*dtSeconds)
			}
		}
		if throttle == 0 && brake == 0 {
			state.SpeedKmh = math.Max(0, state.SpeedKmh-t.EngineBrakeKmhPerSec*dtSeconds)
		}
	} else {
		//5.- Neutral or a pressed clutch rolls with half the engine-brake drag.
		state.SpeedKmh = math.Max(0, state.SpeedKmh-t.EngineBrakeKmhPerSec*0.5*dtSeconds)
	}

	//6.- The brake pedal always bites, regardless of gear or clutch.
	if brake > 0 {
		state.SpeedKmh = math.Max(0, state.SpeedKmh-t.BrakeKmhPerSec*brake*dtSeconds)
	}

	//7.- Derive revs from the single active regime, in priority order.
	var rpm float64
	switch {
	case !engaged:
		rpm = t.IdleRPM + throttle*(t.MaxRPM-t.IdleRPM)
	case state.Gear == vehicle.GearNeutral:
		rpm = t.IdleRPM + throttle*t.NeutralRevRangeRPM
	default:
		rpm = t.IdleRPM + speedRatio*(t.MaxRPM-t.IdleRPM) + throttle*t.InGearBoostRPM
	}
	state.RPM = math.Round(math.Min(rpm, t.MaxRPM))

	//8.- Below the movement threshold the vehicle is stationary: freeze pose.
	if state.SpeedKmh > t.MovementThresholdKmh {
		state.HeadingDeg, state.Position = e.advancePose(state, dtSeconds)
	}

	state.RefreshDistance()
	return state
}

// advancePose integrates heading and position for one tick of movement.
func (e *Engine) advancePose(state vehicle.State, dtSeconds float64) (float64, geo.Coordinate) {
	t := e.tuning

	//1.- Steering authority fades with speed but never drops below the floor.
	authority := 1 - state.SpeedKmh/t.SteeringFadeKmh
	if authority < t.SteeringFloor {
		authority = t.SteeringFloor
	}
	turnRate := t.TurnRateDegPerSec * (state.SteeringDeg / vehicle.MaxSteeringDeg) * authority
	if state.Gear == vehicle.GearReverse {
		//2.- Backing up mirrors the steering feel on purpose.
		turnRate = -turnRate
	}
	heading := geo.NormalizeHeading(state.HeadingDeg + turnRate*dtSeconds)

	//3.- Convert km/h to meters covered this tick; Reverse moves against the heading.
	meters := state.SpeedKmh / 3.6 * dtSeconds
	if state.Gear == vehicle.GearReverse {
		meters = -meters
	}
	return heading, geo.Displace(state.Position, heading, meters)
}

// RequestGearChange applies the clutch gate: a change is accepted when the
// clutch pedal is pressed past the gate threshold or the vehicle is crawling.
// Rejected requests leave the state untouched; there is no error, only the
// boolean outcome for the caller to surface.
func (e *Engine) RequestGearChange(state vehicle.State, requested vehicle.Gear) (vehicle.State, bool) {
	if !requested.Valid() {
		return state, false
	}
	if requested == state.Gear {
		return state, true
	}
	if state.Clutch > gearChangeClutchPct || state.SpeedKmh < freeShiftSpeedKmh {
		state.Gear = requested
		return state, true
	}
	return state, false
}

// ToggleEngine flips the ignition. Turning on settles the engine at idle;
// turning off kills the revs immediately while speed decays naturally through
// subsequent steps.
func (e *Engine) ToggleEngine(state vehicle.State) vehicle.State {
	state.EngineOn = !state.EngineOn
	if state.EngineOn {
		state.RPM = e.Tuning().IdleRPM
	} else {
		state.RPM = 0
	}
	return state
}
