package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"carsim/backend/internal/input"
	"carsim/backend/internal/logging"
	"carsim/backend/internal/vehicle"
)

var (
	errControlEmptyPayload   = errors.New("empty control payload")
	errControlMissingVersion = errors.New("control frame missing schema version")
)

// controlPayload mirrors the JSON layout of carsim.v1 control frames sent by
// drivers over WebSocket or the gRPC control stream.
type controlPayload struct {
	SchemaVersion string   `json:"schema_version"`
	SessionID     string   `json:"session_id"`
	SequenceID    uint64   `json:"sequence_id"`
	SteeringDeg   *float64 `json:"steeringAngle"`
	Accelerator   *float64 `json:"accelerator"`
	Brake         *float64 `json:"brake"`
	Clutch        *float64 `json:"clutch"`
	Gear          *string  `json:"gear"`
	EngineOn      *bool    `json:"engineOn"`
	SentAtMs      int64    `json:"sent_at_ms,omitempty"`
}

// decodeControlPayload parses a wire frame into a structured payload.
func decodeControlPayload(raw []byte) (*controlPayload, error) {
	//1.- Ensure we have data to decode before hitting JSON parsing.
	if len(raw) == 0 {
		return nil, errControlEmptyPayload
	}
	var payload controlPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// validateControlPayload enforces required metadata on the payload.
func validateControlPayload(payload *controlPayload) error {
	//2.- Guard against nil pointers coming from earlier processing steps.
	if payload == nil {
		return errors.New("control payload is nil")
	}
	if payload.SchemaVersion == "" {
		return errControlMissingVersion
	}
	if payload.SequenceID == 0 {
		return fmt.Errorf("control sequence id must be positive: %d", payload.SequenceID)
	}
	return nil
}

// SentAt converts the optional capture timestamp into a time.Time instance.
func (payload *controlPayload) SentAt() time.Time {
	//1.- Treat missing or zero timestamps as unset so freshness derives from arrival time.
	if payload == nil || payload.SentAtMs == 0 {
		return time.Time{}
	}
	return time.UnixMilli(payload.SentAtMs)
}

// applyControls routes a decoded control frame into the simulation. Discrete
// commands run immediately; the analog channels go through the gated
// last-write-wins buffer and land on the next tick.
func (h *Hub) applyControls(sessionID string, payload *controlPayload, logger *logging.Logger) error {
	if h == nil || h.runner == nil {
		return errors.New("hub is not wired to a simulation")
	}
	if payload == nil {
		return errors.New("control payload is nil")
	}
	if sessionID == "" {
		return errors.New("control frame missing session id")
	}
	current := h.runner.EnsureSession(sessionID)

	//1.- Ignition and gear are stateful commands, applied before the pedals.
	if payload.EngineOn != nil && *payload.EngineOn != current.EngineOn {
		current = h.runner.ToggleEngine(sessionID)
	}
	if payload.Gear != nil {
		gear, valid := vehicle.ParseGear(*payload.Gear)
		if valid {
			var accepted bool
			current, accepted = h.runner.RequestGear(sessionID, gear)
			if !accepted && logger != nil {
				logger.Debug("gear change refused",
					logging.String("session_id", sessionID),
					logging.String("gear", gear.String()),
				)
			}
		} else if logger != nil {
			logger.Debug("ignoring unknown gear", logging.String("gear", *payload.Gear))
		}
	}

	//2.- Absent channels keep their previous values; only sent ones change.
	controls := current.Controls()
	if payload.SteeringDeg != nil {
		controls.SteeringDeg = *payload.SteeringDeg
	}
	if payload.Accelerator != nil {
		controls.Accelerator = *payload.Accelerator
	}
	if payload.Brake != nil {
		controls.Brake = *payload.Brake
	}
	if payload.Clutch != nil {
		controls.Clutch = *payload.Clutch
	}

	frame := input.Frame{SessionID: sessionID, SequenceID: payload.SequenceID}
	if ts := payload.SentAt(); !ts.IsZero() {
		frame.SentAt = ts
	}
	decision := h.runner.SubmitControls(frame, controls)
	if !decision.Accepted {
		if logger != nil {
			fields := []logging.Field{
				logging.String("reason", decision.Reason.String()),
				logging.String("session_id", sessionID),
				logging.Field{Key: "sequence_id", Value: payload.SequenceID},
			}
			if decision.Delay > 0 {
				fields = append(fields, logging.Int64("delay_ms", decision.Delay.Milliseconds()))
			}
			logger.Debug("dropping control frame", fields...)
		}
		return fmt.Errorf("control gate rejected: %s", decision.Reason)
	}
	return nil
}
