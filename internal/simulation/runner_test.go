package simulation

import (
	"context"
	"testing"
	"time"

	"carsim/backend/internal/geo"
	"carsim/backend/internal/input"
	"carsim/backend/internal/vehicle"
)

type manualClock struct {
	now time.Time
}

func (m *manualClock) Now() time.Time { return m.now }

func newTestRunner(t *testing.T, opts ...RunnerOption) *Runner {
	t.Helper()
	gate := input.NewGate(input.Config{}, nil)
	return NewRunner(nil, nil, gate, nil, opts...)
}

func TestRunnerTickAppliesBufferedControls(t *testing.T) {
	runner := newTestRunner(t)
	runner.EnsureSession("alpha")
	runner.ToggleEngine("alpha")
	if _, ok := runner.RequestGear("alpha", vehicle.GearFirst); !ok {
		t.Fatal("expected standstill gear change to pass")
	}

	decision := runner.SubmitControls(
		input.Frame{SessionID: "alpha", SequenceID: 1},
		vehicle.Controls{Accelerator: 100},
	)
	if !decision.Accepted {
		t.Fatalf("expected frame accepted, got %+v", decision)
	}

	//1.- One tick at full throttle in first gear starts the vehicle moving.
	runner.Tick(time.Second)
	state, ok := runner.SessionState("alpha")
	if !ok {
		t.Fatal("expected session to exist")
	}
	if state.SpeedKmh <= 0 {
		t.Fatalf("expected forward motion, got speed %v", state.SpeedKmh)
	}
	if state.Tick != 1 || state.SimulatedMs != 100 {
		t.Fatalf("unexpected clocks tick=%d simulatedMs=%d", state.Tick, state.SimulatedMs)
	}

	//2.- Without a fresh frame the previous controls stay in force.
	runner.Tick(50 * time.Millisecond)
	next, _ := runner.SessionState("alpha")
	if next.SpeedKmh <= state.SpeedKmh {
		t.Fatalf("expected continued acceleration, got %v after %v", next.SpeedKmh, state.SpeedKmh)
	}
}

func TestRunnerApplyControlsSkipsGate(t *testing.T) {
	runner := newTestRunner(t)
	runner.EnsureSession("alpha")
	runner.ToggleEngine("alpha")
	if _, ok := runner.RequestGear("alpha", vehicle.GearFirst); !ok {
		t.Fatal("expected standstill gear change to pass")
	}

	//1.- No frame metadata at all: the controls buffer anyway.
	runner.ApplyControls("alpha", vehicle.Controls{Accelerator: 100})
	runner.Tick(time.Second)
	state, _ := runner.SessionState("alpha")
	if state.SpeedKmh <= 0 {
		t.Fatalf("expected forward motion, got speed %v", state.SpeedKmh)
	}

	//2.- Hostile values still pass through the normaliser.
	runner.ApplyControls("alpha", vehicle.Controls{Accelerator: -50, Brake: 900})
	runner.Tick(time.Second)
	next, _ := runner.SessionState("alpha")
	if next.Accelerator != 0 || next.Brake != 100 {
		t.Fatalf("expected clamped controls, got accel=%v brake=%v", next.Accelerator, next.Brake)
	}

	//3.- An empty session id is ignored rather than creating a phantom buffer.
	runner.ApplyControls("", vehicle.Controls{Accelerator: 100})
	if runner.SessionCount() != 1 {
		t.Fatalf("unexpected session count %d", runner.SessionCount())
	}
}

func TestRunnerTickClampsOversizedSteps(t *testing.T) {
	runner := newTestRunner(t, WithMaxStep(100*time.Millisecond))
	runner.EnsureSession("alpha")
	runner.ToggleEngine("alpha")
	runner.RequestGear("alpha", vehicle.GearFirst)
	runner.SubmitControls(input.Frame{SessionID: "alpha", SequenceID: 1}, vehicle.Controls{Accelerator: 100})

	//1.- A five second stall still only advances the physics by the cap.
	runner.Tick(5 * time.Second)
	state, _ := runner.SessionState("alpha")
	if state.SimulatedMs != 100 {
		t.Fatalf("expected clamped simulated time 100ms, got %d", state.SimulatedMs)
	}
	if state.SpeedKmh > 1 {
		t.Fatalf("expected at most one clamped step of acceleration, got speed %v", state.SpeedKmh)
	}
}

func TestRunnerPublishesDiffs(t *testing.T) {
	var published []vehicle.SessionDiff
	runner := newTestRunner(t, WithPublisher(func(diff vehicle.SessionDiff) {
		published = append(published, diff)
	}))

	runner.EnsureSession("alpha")
	runner.Tick(50 * time.Millisecond)
	if len(published) != 1 || len(published[0].Updated) != 1 {
		t.Fatalf("expected one diff with one update, got %+v", published)
	}

	//1.- Removals surface in the diff of the following tick.
	runner.RemoveSession("alpha")
	runner.Tick(50 * time.Millisecond)
	last := published[len(published)-1]
	if len(last.Removed) != 1 || last.Removed[0] != "alpha" {
		t.Fatalf("expected removal diff, got %+v", last)
	}
}

func TestRunnerArrivalFiresOnce(t *testing.T) {
	arrivals := 0
	runner := newTestRunner(t, WithArrivalFunc(func(sessionID string, state vehicle.State) {
		arrivals++
	}))

	runner.EnsureSession("alpha")
	state, _ := runner.SessionState("alpha")
	//1.- Aim at a destination a few meters from the spawn point.
	dest := geo.Displace(state.Position, 0, 10)
	runner.SetRoute("alpha", dest, nil)

	for i := 0; i < 5; i++ {
		runner.Tick(50 * time.Millisecond)
	}
	if arrivals != 1 {
		t.Fatalf("expected exactly one arrival notification, got %d", arrivals)
	}

	//2.- A new destination re-arms the notification.
	far := geo.Displace(state.Position, 0, 10000)
	runner.SetRoute("alpha", far, nil)
	runner.Tick(50 * time.Millisecond)
	if arrivals != 1 {
		t.Fatalf("distant destination should not notify, got %d", arrivals)
	}
}

func TestRunnerResetClearsBufferedControls(t *testing.T) {
	runner := newTestRunner(t)
	runner.EnsureSession("alpha")
	runner.ToggleEngine("alpha")
	runner.RequestGear("alpha", vehicle.GearFirst)
	runner.SubmitControls(input.Frame{SessionID: "alpha", SequenceID: 1}, vehicle.Controls{Accelerator: 100})
	runner.Tick(time.Second)

	spawn := geo.Coordinate{Lat: 51.5074, Lng: -0.1278}
	state := runner.ResetSession("alpha", spawn)
	if state.Position != spawn || state.SpeedKmh != 0 || state.EngineOn {
		t.Fatalf("unexpected reset state %+v", state)
	}

	//1.- The stale throttle frame must not survive the reset.
	runner.Tick(time.Second)
	after, _ := runner.SessionState("alpha")
	if after.SpeedKmh != 0 || after.Accelerator != 0 {
		t.Fatalf("expected parked vehicle after reset, got %+v", after)
	}

	//2.- The gate baseline also resets, so sequence one is valid again.
	if decision := runner.SubmitControls(input.Frame{SessionID: "alpha", SequenceID: 1}, vehicle.Controls{}); !decision.Accepted {
		t.Fatalf("expected fresh gate baseline, got %+v", decision)
	}
}

func TestRunnerSnapshotRestoreRoundTrip(t *testing.T) {
	runner := newTestRunner(t)
	runner.EnsureSession("alpha")
	runner.ToggleEngine("alpha")
	runner.RequestGear("alpha", vehicle.GearSecond)

	snapshot := runner.Snapshot()
	restored := newTestRunner(t)
	restored.Restore(snapshot)

	state, ok := restored.SessionState("alpha")
	if !ok {
		t.Fatal("expected restored session")
	}
	if state.Gear != vehicle.GearSecond || !state.EngineOn {
		t.Fatalf("unexpected restored state %+v", state)
	}
}

func TestLoopRunsFixedSteps(t *testing.T) {
	steps := make(chan time.Duration, 64)
	loop := NewLoop(100, func(step time.Duration) {
		steps <- step
	})
	if loop.StepDuration() != 10*time.Millisecond {
		t.Fatalf("unexpected step duration %v", loop.StepDuration())
	}

	ctx, cancel := context.WithCancel(context.Background())
	loop.Start(ctx)

	//1.- Wait for a handful of fixed steps, then stop the loop.
	deadline := time.After(2 * time.Second)
	for i := 0; i < 3; i++ {
		select {
		case step := <-steps:
			if step != 10*time.Millisecond {
				t.Fatalf("unexpected step %v", step)
			}
		case <-deadline:
			t.Fatal("timed out waiting for loop steps")
		}
	}
	cancel()
	loop.Stop()
}

func TestDriftTrackerMeasuresLag(t *testing.T) {
	clock := &manualClock{now: time.Unix(1700000000, 0)}
	tracker := NewDriftTracker(clock)

	//1.- Two simulated steps against three wall seconds leaves one second of drift.
	tracker.Advance(time.Second)
	tracker.Advance(time.Second)
	clock.now = clock.now.Add(3 * time.Second)

	snapshot := tracker.Snapshot()
	if snapshot.Simulated != 2*time.Second || snapshot.Wall != 3*time.Second {
		t.Fatalf("unexpected snapshot %+v", snapshot)
	}
	if snapshot.Drift != time.Second {
		t.Fatalf("expected one second of drift, got %v", snapshot.Drift)
	}
}

func TestTickMonitorAggregates(t *testing.T) {
	monitor := NewTickMonitor()
	monitor.Observe(10 * time.Millisecond)
	monitor.Observe(30 * time.Millisecond)
	monitor.Observe(0)

	snapshot := monitor.Snapshot()
	if snapshot.Samples != 2 || snapshot.Average != 20*time.Millisecond {
		t.Fatalf("unexpected snapshot %+v", snapshot)
	}
	if snapshot.Max != 30*time.Millisecond || snapshot.Last != 30*time.Millisecond {
		t.Fatalf("unexpected extremes %+v", snapshot)
	}
	if snapshot.AverageFPS() != 50 {
		t.Fatalf("unexpected fps %v", snapshot.AverageFPS())
	}

	monitor.Reset()
	if got := monitor.Snapshot(); got.Samples != 0 {
		t.Fatalf("expected cleared monitor, got %+v", got)
	}
}
