package simulation

import (
	"sync"
	"time"

	"carsim/backend/internal/geo"
	"carsim/backend/internal/input"
	"carsim/backend/internal/logging"
	"carsim/backend/internal/physics"
	"carsim/backend/internal/vehicle"
)

// Publisher receives the per-tick state diff for fan-out to subscribers.
type Publisher func(diff vehicle.SessionDiff)

// ArrivalFunc is invoked once when a session first closes within the arrival
// threshold of its destination.
type ArrivalFunc func(sessionID string, state vehicle.State)

// Runner owns every vehicle state and is the only component that mutates them.
// Control frames land in a last-write-wins buffer and discrete commands take
// the runner lock directly, so each session state only ever has one writer.
type Runner struct {
	mu         sync.Mutex
	engine     *physics.Engine
	store      *vehicle.SessionStore
	gate       *input.Gate
	normalizer *input.Normalizer
	monitor    *TickMonitor
	drift      *DriftTracker
	logger     *logging.Logger

	maxStep   time.Duration
	publisher Publisher
	onArrival ArrivalFunc

	controlsMu sync.Mutex
	controls   map[string]vehicle.Controls
	arrived    map[string]bool

	clock Clock
}

// RunnerOption customises runner construction.
type RunnerOption func(*Runner)

// WithPublisher wires the per-tick diff consumer.
func WithPublisher(publisher Publisher) RunnerOption {
	return func(r *Runner) { r.publisher = publisher }
}

// WithArrivalFunc wires the one-shot arrival notification hook.
func WithArrivalFunc(fn ArrivalFunc) RunnerOption {
	return func(r *Runner) { r.onArrival = fn }
}

// WithRunnerClock overrides the wall clock used for tick timing.
func WithRunnerClock(clock Clock) RunnerOption {
	return func(r *Runner) {
		if clock != nil {
			r.clock = clock
		}
	}
}

// WithMaxStep caps the timestep handed to the physics per tick.
func WithMaxStep(maxStep time.Duration) RunnerOption {
	return func(r *Runner) {
		if maxStep > 0 {
			r.maxStep = maxStep
		}
	}
}

// NewRunner assembles the simulation owner around the supplied collaborators.
// Nil collaborators fall back to inert defaults so tests can wire only what
// they exercise.
func NewRunner(engine *physics.Engine, store *vehicle.SessionStore, gate *input.Gate, logger *logging.Logger, opts ...RunnerOption) *Runner {
	if engine == nil {
		engine = physics.NewEngine(physics.DefaultTuning())
	}
	if store == nil {
		store = vehicle.NewSessionStore()
	}
	runner := &Runner{
		engine:     engine,
		store:      store,
		gate:       gate,
		normalizer: input.NewNormalizer(),
		monitor:    NewTickMonitor(),
		logger:     logger,
		maxStep:    100 * time.Millisecond,
		controls:   make(map[string]vehicle.Controls),
		arrived:    make(map[string]bool),
		clock:      systemClock{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(runner)
		}
	}
	runner.drift = NewDriftTracker(runner.clock)
	return runner
}

// EnsureSession creates the session on first use and returns its state.
func (r *Runner) EnsureSession(sessionID string) vehicle.State {
	if r == nil {
		return vehicle.NewState(geo.Coordinate{})
	}
	return r.store.Ensure(sessionID)
}

// SessionState returns a clone of the session's current state.
func (r *Runner) SessionState(sessionID string) (vehicle.State, bool) {
	if r == nil {
		return vehicle.State{}, false
	}
	return r.store.Get(sessionID)
}

// SubmitControls gates, normalises, and buffers a control frame. The frame
// takes effect on the next tick; dropped frames leave the previous controls
// in force.
func (r *Runner) SubmitControls(frame input.Frame, controls vehicle.Controls) input.Decision {
	if r == nil {
		return input.Decision{}
	}
	decision := input.Decision{Accepted: true}
	if r.gate != nil {
		decision = r.gate.Evaluate(frame)
	}
	if !decision.Accepted {
		return decision
	}

	cleaned, _ := r.normalizer.Normalize(controls)
	//1.- Last write wins: a tick only ever consumes the freshest frame.
	r.controlsMu.Lock()
	r.controls[frame.SessionID] = cleaned
	r.controlsMu.Unlock()
	return decision
}

// ApplyControls normalises and buffers a control set without consulting the
// gate. REST bodies carry no sequence numbers, so each request is trusted as
// exactly one frame; streamed transports must use SubmitControls instead.
func (r *Runner) ApplyControls(sessionID string, controls vehicle.Controls) {
	if r == nil || sessionID == "" {
		return
	}
	cleaned, _ := r.normalizer.Normalize(controls)
	r.controlsMu.Lock()
	r.controls[sessionID] = cleaned
	r.controlsMu.Unlock()
}

// RequestGear applies the clutch-gated gear change immediately and reports
// whether it was accepted.
func (r *Runner) RequestGear(sessionID string, gear vehicle.Gear) (vehicle.State, bool) {
	if r == nil {
		return vehicle.State{}, false
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	state := r.store.Ensure(sessionID)
	next, ok := r.engine.RequestGearChange(state, gear)
	if ok {
		r.store.Put(sessionID, next)
	}
	return next, ok
}

// ToggleEngine flips the session's ignition.
func (r *Runner) ToggleEngine(sessionID string) vehicle.State {
	if r == nil {
		return vehicle.State{}
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	state := r.store.Ensure(sessionID)
	next := r.engine.ToggleEngine(state)
	r.store.Put(sessionID, next)
	return next
}

// ResetSession parks a fresh vehicle at the supplied position (default spawn
// when zero-valued) and clears any buffered controls.
func (r *Runner) ResetSession(sessionID string, position geo.Coordinate) vehicle.State {
	if r == nil {
		return vehicle.State{}
	}
	r.mu.Lock()
	state := r.store.Reset(sessionID, position)
	r.mu.Unlock()

	r.controlsMu.Lock()
	delete(r.controls, sessionID)
	delete(r.arrived, sessionID)
	r.controlsMu.Unlock()
	if r.gate != nil {
		r.gate.Forget(sessionID)
	}
	return state
}

// SetRoute records a navigation destination and its presentation polyline.
func (r *Runner) SetRoute(sessionID string, destination geo.Coordinate, route []geo.Coordinate) vehicle.State {
	if r == nil {
		return vehicle.State{}
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	state := r.store.Ensure(sessionID)
	state.SetDestination(destination)
	state.SetRoute(route)
	r.store.Put(sessionID, state)

	r.controlsMu.Lock()
	delete(r.arrived, sessionID)
	r.controlsMu.Unlock()
	return state
}

// ClearRoute drops the session's destination and polyline.
func (r *Runner) ClearRoute(sessionID string) vehicle.State {
	if r == nil {
		return vehicle.State{}
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	state := r.store.Ensure(sessionID)
	state.ClearRoute()
	r.store.Put(sessionID, state)

	r.controlsMu.Lock()
	delete(r.arrived, sessionID)
	r.controlsMu.Unlock()
	return state
}

// RemoveSession drops the session entirely.
func (r *Runner) RemoveSession(sessionID string) {
	if r == nil {
		return
	}
	r.mu.Lock()
	r.store.Remove(sessionID)
	r.mu.Unlock()

	r.controlsMu.Lock()
	delete(r.controls, sessionID)
	delete(r.arrived, sessionID)
	r.controlsMu.Unlock()
	if r.gate != nil {
		r.gate.Forget(sessionID)
	}
}

// Tick advances every session by the fixed step and publishes the diff. It is
// the Loop's StepFunc.
func (r *Runner) Tick(step time.Duration) {
	if r == nil || step <= 0 {
		return
	}
	started := r.clock.Now()

	//1.- Clamp runaway steps so a stalled process cannot teleport vehicles.
	if step > r.maxStep {
		step = r.maxStep
	}
	dt := step.Seconds()

	//2.- Snapshot the buffered controls outside the step lock.
	r.controlsMu.Lock()
	buffered := make(map[string]vehicle.Controls, len(r.controls))
	for id, controls := range r.controls {
		buffered[id] = controls
	}
	r.controlsMu.Unlock()

	r.mu.Lock()
	for _, sessionID := range r.store.Sessions() {
		state, ok := r.store.Get(sessionID)
		if !ok {
			continue
		}
		controls, ok := buffered[sessionID]
		if !ok {
			//3.- No frame this tick: the last applied controls persist.
			controls = state.Controls()
		}

		next := r.engine.Step(state, controls, dt)
		next.Tick++
		next.SimulatedMs += int64(step / time.Millisecond)
		r.store.Put(sessionID, next)

		if next.Arrived() {
			r.notifyArrival(sessionID, next)
		}
	}
	diff := r.store.ConsumeDiff()
	r.mu.Unlock()

	r.drift.Advance(step)
	if r.publisher != nil && (len(diff.Updated) > 0 || len(diff.Removed) > 0) {
		r.publisher(diff)
	}
	r.monitor.Observe(r.clock.Now().Sub(started))
}

// notifyArrival fires the hook exactly once per destination.
func (r *Runner) notifyArrival(sessionID string, state vehicle.State) {
	r.controlsMu.Lock()
	already := r.arrived[sessionID]
	r.arrived[sessionID] = true
	r.controlsMu.Unlock()
	if already || r.onArrival == nil {
		return
	}
	if r.logger != nil {
		r.logger.Info("destination reached",
			logging.String("session_id", sessionID),
			logging.Float64("distance_km", state.DistanceToKm),
		)
	}
	r.onArrival(sessionID, state)
}

// Monitor exposes the tick timing statistics.
func (r *Runner) Monitor() *TickMonitor {
	if r == nil {
		return nil
	}
	return r.monitor
}

// Drift exposes the simulated-versus-wall clock tracker.
func (r *Runner) Drift() *DriftTracker {
	if r == nil {
		return nil
	}
	return r.drift
}

// ClampedFrames reports how many control frames needed channel corrections.
func (r *Runner) ClampedFrames() uint64 {
	if r == nil {
		return 0
	}
	return r.normalizer.ClampedCount()
}

// DropCounters reports the gate's per-session drop statistics.
func (r *Runner) DropCounters() map[string]input.DropCounters {
	if r == nil || r.gate == nil {
		return nil
	}
	return r.gate.Metrics()
}

// SessionCount reports the number of live sessions.
func (r *Runner) SessionCount() int {
	if r == nil {
		return 0
	}
	return r.store.Len()
}

// Snapshot returns a defensive copy of every session state.
func (r *Runner) Snapshot() map[string]vehicle.State {
	if r == nil {
		return nil
	}
	return r.store.Snapshot()
}

// Restore seeds sessions from a persisted snapshot, skipping empty identifiers.
func (r *Runner) Restore(states map[string]vehicle.State) {
	if r == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for sessionID, state := range states {
		if sessionID == "" {
			continue
		}
		r.store.Put(sessionID, state)
	}
}
