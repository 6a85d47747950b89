package main

import (
	"context"
	"errors"
	"sync"

	grpcstream "carsim/backend/internal/grpc"
	"carsim/backend/internal/logging"
)

// SubscribeTelemetry lets gRPC streams observe per-tick diffs via fan-out
// channels. An empty session ID subscribes to the full diff stream.
func (h *Hub) SubscribeTelemetry(ctx context.Context, sessionID string) (<-chan grpcstream.TelemetryEvent, func(), error) {
	if h == nil {
		return nil, func() {}, errors.New("hub is nil")
	}
	//1.- Allocate a buffered channel so slow consumers drop gracefully.
	ch := make(chan grpcstream.TelemetryEvent, 16)

	//2.- Register the subscriber under lock for concurrent safety.
	h.diffMu.Lock()
	h.nextDiffID++
	id := h.nextDiffID
	h.diffSubscribers[id] = &telemetrySubscriber{sessionID: sessionID, ch: ch}
	h.diffMu.Unlock()

	var once sync.Once
	cancel := func() {
		//3.- Ensure unsubscribe and close only happens once.
		once.Do(func() {
			h.diffMu.Lock()
			if sub, ok := h.diffSubscribers[id]; ok {
				delete(h.diffSubscribers, id)
				close(sub.ch)
			}
			h.diffMu.Unlock()
		})
	}

	if ctx != nil {
		//4.- Propagate context cancellation to the subscription lifecycle.
		go func() {
			<-ctx.Done()
			cancel()
		}()
	}

	return ch, cancel, nil
}

// ProcessControls decodes JSON payloads from the gRPC control stream and feeds
// them through the same pipeline that serves WebSocket frames.
func (h *Hub) ProcessControls(ctx context.Context, submission *grpcstream.ControlSubmission) grpcstream.ControlResult {
	if h == nil {
		return grpcstream.ControlResult{Err: errors.New("hub is nil")}
	}
	if submission == nil {
		return grpcstream.ControlResult{Err: errors.New("control submission is nil")}
	}
	//1.- Decode the JSON payload and fall back to the stream session ID when needed.
	payload, err := decodeControlPayload(submission.Payload)
	if err != nil {
		return grpcstream.ControlResult{Err: err}
	}
	if payload.SequenceID == 0 {
		payload.SequenceID = submission.SequenceID
	}
	if err := validateControlPayload(payload); err != nil {
		return grpcstream.ControlResult{Err: err}
	}
	sessionID := payload.SessionID
	if sessionID == "" {
		sessionID = submission.SessionID
	}
	//2.- Augment the logger so downstream helpers include consistent metadata.
	logger := h.log
	if logger != nil {
		logger = logger.With(
			logging.String("component", "grpc_controls"),
			logging.String("session_id", sessionID),
		)
	}
	if err := h.applyControls(sessionID, payload, logger); err != nil {
		return grpcstream.ControlResult{Err: err}
	}
	return grpcstream.ControlResult{Accepted: true}
}

var _ grpcstream.SimulatorBridge = (*Hub)(nil)
