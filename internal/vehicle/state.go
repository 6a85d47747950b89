package vehicle

import (
	"carsim/backend/internal/geo"
)

// Gear enumerates the positions of the manual gear selector.
type Gear string

const (
	GearNeutral Gear = "N"
	GearReverse Gear = "R"
	GearFirst   Gear = "1"
	GearSecond  Gear = "2"
	GearThird   Gear = "3"
	GearFourth  Gear = "4"
	GearFifth   Gear = "5"
)

// Valid reports whether the gear is a known selector position.
func (g Gear) Valid() bool {
	switch g {
	case GearNeutral, GearReverse, GearFirst, GearSecond, GearThird, GearFourth, GearFifth:
		return true
	}
	return false
}

// String returns the selector label shown to operators.
func (g Gear) String() string { return string(g) }

// ParseGear normalises a wire value into a Gear, falling back to Neutral.
func ParseGear(raw string) (Gear, bool) {
	gear := Gear(raw)
	if gear.Valid() {
		return gear, true
	}
	return GearNeutral, false
}

// Controls carries the normalized analog operator inputs consumed by a physics step.
// Steering is in degrees, the pedal channels are percentages.
type Controls struct {
	SteeringDeg float64 `json:"steeringAngle"`
	Accelerator float64 `json:"accelerator"`
	Brake       float64 `json:"brake"`
	Clutch      float64 `json:"clutch"`
}

// Clamped returns a copy with every channel forced into its legal range.
func (c Controls) Clamped() Controls {
	return Controls{
		SteeringDeg: clamp(c.SteeringDeg, -MaxSteeringDeg, MaxSteeringDeg),
		Accelerator: clamp(c.Accelerator, 0, 100),
		Brake:       clamp(c.Brake, 0, 100),
		Clutch:      clamp(c.Clutch, 0, 100),
	}
}

// MaxSteeringDeg bounds the steering wheel travel in either direction.
const MaxSteeringDeg = 540.0

// DefaultPosition is where freshly created sessions spawn.
var DefaultPosition = geo.Coordinate{Lat: 12.9716, Lng: 77.5946}

// State is the authoritative snapshot of a simulated vehicle. It is owned by
// the simulation loop; every other component works on clones.
type State struct {
	SessionID   string         `json:"sessionId,omitempty"`
	Position    geo.Coordinate `json:"position"`
	HeadingDeg  float64        `json:"heading"`
	SpeedKmh    float64        `json:"speed"`
	RPM         float64        `json:"rpm"`
	Gear        Gear           `json:"gear"`
	EngineOn    bool           `json:"engineOn"`
	SteeringDeg float64        `json:"steeringAngle"`
	Clutch      float64        `json:"clutch"`
	Brake       float64        `json:"brake"`
	Accelerator float64        `json:"accelerator"`

	Destination   *geo.Coordinate  `json:"destination,omitempty"`
	Route         []geo.Coordinate `json:"route,omitempty"`
	DistanceToKm  float64          `json:"distanceToDestination"`
	SimulatedMs   int64            `json:"simulatedMs"`
	Tick          uint64           `json:"tick"`
}

// NewState builds the initial vehicle: engine off, neutral, stationary at the
// supplied position (or the default spawn when zero-valued).
func NewState(position geo.Coordinate) State {
	if position == (geo.Coordinate{}) {
		position = DefaultPosition
	}
	return State{
		Position: position,
		Gear:     GearNeutral,
	}
}

// Clone produces a deep copy so stored states and published snapshots never share memory.
func (s State) Clone() State {
	clone := s
	if s.Destination != nil {
		dest := *s.Destination
		clone.Destination = &dest
	}
	if s.Route != nil {
		clone.Route = append([]geo.Coordinate(nil), s.Route...)
	}
	return clone
}

// Controls extracts the analog channels currently recorded on the state.
func (s State) Controls() Controls {
	return Controls{
		SteeringDeg: s.SteeringDeg,
		Accelerator: s.Accelerator,
		Brake:       s.Brake,
		Clutch:      s.Clutch,
	}
}

// ArrivalThresholdKm is the distance below which the vehicle counts as arrived.
const ArrivalThresholdKm = 0.05

// SetDestination records the navigation target and refreshes the derived distance.
func (s *State) SetDestination(dest geo.Coordinate) {
	if s == nil {
		return
	}
	d := dest
	s.Destination = &d
	s.RefreshDistance()
}

// SetRoute replaces the presentation route polyline. The physics never reads it.
func (s *State) SetRoute(route []geo.Coordinate) {
	if s == nil {
		return
	}
	if route == nil {
		s.Route = nil
		return
	}
	s.Route = append([]geo.Coordinate(nil), route...)
}

// ClearRoute drops the destination, polyline, and derived distance together.
func (s *State) ClearRoute() {
	if s == nil {
		return
	}
	s.Destination = nil
	s.Route = nil
	s.DistanceToKm = 0
}

// RefreshDistance recomputes the great-circle distance to the destination.
func (s *State) RefreshDistance() {
	if s == nil {
		return
	}
	if s.Destination == nil {
		s.DistanceToKm = 0
		return
	}
	s.DistanceToKm = geo.HaversineKm(s.Position, *s.Destination)
}

// Arrived reports whether the vehicle is within the arrival threshold of its
// destination. It is a notification hint; the vehicle keeps rolling.
func (s *State) Arrived() bool {
	if s == nil || s.Destination == nil {
		return false
	}
	return s.DistanceToKm <= ArrivalThresholdKm
}

func clamp(value, low, high float64) float64 {
	if value < low {
		return low
	}
	if value > high {
		return high
	}
	return value
}
