package input

import (
	"math"
	"testing"
	"time"

	"carsim/backend/internal/vehicle"
)

type fakeClock struct {
	now time.Time
}

func (f *fakeClock) Now() time.Time { return f.now }

func (f *fakeClock) advance(d time.Duration) { f.now = f.now.Add(d) }

func TestGateAcceptsOrderedFreshFrames(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1700000000, 0)}
	gate := NewGate(Config{MaxAge: 200 * time.Millisecond, MinInterval: 10 * time.Millisecond}, nil, WithClock(clock))

	//1.- The opening frame and each strictly newer frame pass the gate.
	for seq := uint64(1); seq <= 3; seq++ {
		clock.advance(50 * time.Millisecond)
		decision := gate.Evaluate(Frame{SessionID: "alpha", SequenceID: seq, SentAt: clock.now})
		if !decision.Accepted {
			t.Fatalf("frame %d rejected: %+v", seq, decision)
		}
	}
	if counters := gate.Metrics(); counters != nil {
		t.Fatalf("expected no drops, got %+v", counters)
	}
}

func TestGateRejectsSequenceViolations(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1700000000, 0)}
	gate := NewGate(Config{}, nil, WithClock(clock))

	//1.- Sequence zero is never valid.
	if decision := gate.Evaluate(Frame{SessionID: "alpha", SequenceID: 0}); decision.Accepted || decision.Reason != DropReasonSequence {
		t.Fatalf("expected sequence drop, got %+v", decision)
	}

	//2.- Replays and reordered frames are dropped once a newer one landed.
	gate.Evaluate(Frame{SessionID: "alpha", SequenceID: 5})
	if decision := gate.Evaluate(Frame{SessionID: "alpha", SequenceID: 5}); decision.Accepted || decision.Reason != DropReasonSequence {
		t.Fatalf("expected duplicate drop, got %+v", decision)
	}
	if decision := gate.Evaluate(Frame{SessionID: "alpha", SequenceID: 3}); decision.Accepted || decision.Reason != DropReasonSequence {
		t.Fatalf("expected stale-sequence drop, got %+v", decision)
	}

	counters := gate.Metrics()["alpha"]
	if counters.Sequence != 3 {
		t.Fatalf("expected three sequence drops, got %+v", counters)
	}
}

func TestGateRateLimitsAndFreshness(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1700000000, 0)}
	gate := NewGate(Config{MaxAge: 100 * time.Millisecond, MinInterval: 50 * time.Millisecond}, nil, WithClock(clock))

	gate.Evaluate(Frame{SessionID: "alpha", SequenceID: 1, SentAt: clock.now})

	//1.- A frame arriving inside the minimum interval is throttled.
	clock.advance(10 * time.Millisecond)
	if decision := gate.Evaluate(Frame{SessionID: "alpha", SequenceID: 2, SentAt: clock.now}); decision.Accepted || decision.Reason != DropReasonRateLimited {
		t.Fatalf("expected rate limit drop, got %+v", decision)
	}

	//2.- A frame captured too long ago is stale even when the interval passed.
	clock.advance(300 * time.Millisecond)
	old := clock.now.Add(-500 * time.Millisecond)
	if decision := gate.Evaluate(Frame{SessionID: "alpha", SequenceID: 3, SentAt: old}); decision.Accepted || decision.Reason != DropReasonStale {
		t.Fatalf("expected stale drop, got %+v", decision)
	}

	//3.- Dropped frames do not advance the accepted sequence.
	clock.advance(60 * time.Millisecond)
	if decision := gate.Evaluate(Frame{SessionID: "alpha", SequenceID: 2, SentAt: clock.now}); !decision.Accepted {
		t.Fatalf("expected sequence 2 to remain available, got %+v", decision)
	}
}

func TestGateForgetResetsSession(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1700000000, 0)}
	gate := NewGate(Config{}, nil, WithClock(clock))

	gate.Evaluate(Frame{SessionID: "alpha", SequenceID: 9})
	gate.Evaluate(Frame{SessionID: "alpha", SequenceID: 4})
	gate.Forget("alpha")

	//1.- A reconnecting session starts from a fresh sequence baseline.
	if decision := gate.Evaluate(Frame{SessionID: "alpha", SequenceID: 1}); !decision.Accepted {
		t.Fatalf("expected fresh session to accept sequence 1, got %+v", decision)
	}
	if counters := gate.Metrics(); counters != nil {
		t.Fatalf("expected cleared metrics, got %+v", counters)
	}
}

func TestNormalizerClampsAndCounts(t *testing.T) {
	normalizer := NewNormalizer()

	//1.- In-range controls pass through untouched and uncounted.
	clean := vehicle.Controls{SteeringDeg: -90, Accelerator: 40, Brake: 0, Clutch: 100}
	got, corrected := normalizer.Normalize(clean)
	if corrected || got != clean {
		t.Fatalf("expected passthrough, got %+v corrected=%v", got, corrected)
	}

	//2.- Out-of-range and non-finite channels are coerced, never rejected.
	hostile := vehicle.Controls{SteeringDeg: 1000, Accelerator: math.NaN(), Brake: math.Inf(1), Clutch: -3}
	got, corrected = normalizer.Normalize(hostile)
	want := vehicle.Controls{SteeringDeg: vehicle.MaxSteeringDeg, Accelerator: 0, Brake: 0, Clutch: 0}
	if !corrected || got != want {
		t.Fatalf("Normalize() = %+v corrected=%v, want %+v", got, corrected, want)
	}

	if normalizer.ClampedCount() != 1 {
		t.Fatalf("expected one clamp event, got %d", normalizer.ClampedCount())
	}
}
