package grpc

import "context"

// TelemetryEvent transports a state diff payload alongside its tick metadata.
type TelemetryEvent struct {
	Tick        uint64
	SimulatedMs uint64
	Payload     []byte
}

// TelemetrySource exposes subscription semantics for the per-tick diff fan-out.
type TelemetrySource interface {
	SubscribeTelemetry(ctx context.Context, sessionID string) (<-chan TelemetryEvent, func(), error)
}

// ControlSubmission carries a decoded control payload into the simulation.
type ControlSubmission struct {
	SessionID  string
	SequenceID uint64
	Payload    []byte
}

// ControlResult summarises how a control submission was handled.
type ControlResult struct {
	Accepted   bool
	Disconnect bool
	Err        error
}

// ControlSink ingests control submissions into the simulation pipeline.
type ControlSink interface {
	ProcessControls(ctx context.Context, submission *ControlSubmission) ControlResult
}

// SimulatorBridge aggregates the dependencies required by the gRPC service.
type SimulatorBridge interface {
	TelemetrySource
	ControlSink
}
