package grpc

import (
	"context"
	"errors"
	"io"
	"time"

	simpb "carsim/backend/internal/proto/pb"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const controlProcessTimeout = 40 * time.Millisecond

// Option customises the behaviour of the gRPC streaming service.
type Option func(*Service)

// tickerFactory constructs cancellable tick channels for throttled streaming.
type tickerFactory func(time.Duration) (<-chan time.Time, func())

const telemetryStreamRateHz = 20

// WithCompressor overrides the default payload compressor.
func WithCompressor(compressor Compressor) Option {
	return func(s *Service) {
		if compressor != nil {
			s.compressor = compressor
		}
	}
}

// WithTickerFactory overrides the throttling ticker factory (used in tests).
func WithTickerFactory(factory tickerFactory) Option {
	return func(s *Service) {
		if factory != nil {
			s.newTicker = factory
		}
	}
}

// Service implements simpb.TelemetryServiceServer on top of the simulator bridge.
type Service struct {
	bridge     SimulatorBridge
	compressor Compressor
	newTicker  tickerFactory
	simpb.UnimplementedTelemetryServiceServer
}

// NewService wires the gRPC service to the simulator bridge. Zstd is the
// default codec, with gzip as the fallback when the encoder cannot be built.
func NewService(bridge SimulatorBridge, opts ...Option) *Service {
	compressor, err := NewZstdCompressor()
	if err != nil {
		compressor = NewGZIPCompressor()
	}
	service := &Service{bridge: bridge, compressor: compressor, newTicker: defaultTickerFactory}
	for _, opt := range opts {
		if opt != nil {
			opt(service)
		}
	}
	return service
}

func defaultTickerFactory(interval time.Duration) (<-chan time.Time, func()) {
	ticker := time.NewTicker(interval)
	stop := func() {
		ticker.Stop()
	}
	return ticker.C, stop
}

// StreamTelemetry relays authoritative state diffs to the subscriber.
func (s *Service) StreamTelemetry(req *simpb.TelemetryStreamRequest, stream simpb.TelemetryService_StreamTelemetryServer) error {
	if s == nil || s.bridge == nil {
		return status.Error(codes.FailedPrecondition, "streaming unavailable")
	}
	ctx := stream.Context()
	//1.- Subscribe to the fan-out so every future diff reaches this stream.
	eventCh, cancel, err := s.bridge.SubscribeTelemetry(ctx, req.GetSessionId())
	if err != nil {
		return status.Errorf(codes.Internal, "subscribe telemetry: %v", err)
	}
	defer cancel()

	compressor := s.compressor
	if compressor == nil {
		compressor = NewGZIPCompressor()
	}

	interval := time.Second / telemetryStreamRateHz
	tickCh, stop := s.newTicker(interval)
	defer stop()

	var (
		pending      []TelemetryEvent
		sourceClosed bool
	)

	for {
		select {
		case <-ctx.Done():
			//2.- Surface context cancellation so clients can retry.
			if errors.Is(ctx.Err(), context.Canceled) {
				return status.Error(codes.Canceled, "stream cancelled")
			}
			return status.Error(codes.DeadlineExceeded, "stream deadline exceeded")
		case event, ok := <-eventCh:
			if !ok {
				//3.- Note the closed channel so the loop terminates after draining.
				sourceClosed = true
				eventCh = nil
				if len(pending) == 0 {
					return nil
				}
				continue
			}
			//4.- Buffer diffs so they can be flushed at the throttled cadence.
			pending = append(pending, event)
		case <-tickCh:
			if len(pending) == 0 {
				if sourceClosed {
					return nil
				}
				continue
			}
			//5.- Pop the oldest buffered diff to preserve ordering.
			event := pending[0]
			pending = pending[1:]
			compressed, err := compressor.Compress(event.Payload)
			if err != nil {
				return status.Errorf(codes.Internal, "compress telemetry: %v", err)
			}
			frame := &simpb.TelemetryFrame{
				Tick:        event.Tick,
				SimulatedMs: event.SimulatedMs,
				Encoding:    compressor.Name(),
				Payload:     compressed,
			}
			if err := stream.Send(frame); err != nil {
				return err
			}
		}
	}
}

// PublishControls ingests compressed control frames and forwards them to the simulation.
func (s *Service) PublishControls(stream simpb.TelemetryService_PublishControlsServer) error {
	if s == nil || s.bridge == nil {
		return status.Error(codes.FailedPrecondition, "streaming unavailable")
	}
	compressor := s.compressor
	if compressor == nil {
		compressor = NewGZIPCompressor()
	}
	ctx := stream.Context()
	var summary simpb.ControlStreamAck

	for {
		frame, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			//1.- Return the aggregated acknowledgement once the client closes.
			return stream.SendAndClose(&summary)
		}
		if err != nil {
			return err
		}
		if frame == nil {
			continue
		}
		if frame.GetEncoding() != compressor.Name() {
			return status.Errorf(codes.InvalidArgument, "unsupported encoding %q", frame.GetEncoding())
		}
		payload, err := compressor.Decompress(frame.GetPayload())
		if err != nil {
			summary.Rejected++
			continue
		}
		//2.- Bound the simulation call so clients receive timely feedback.
		controlCtx, cancel := context.WithTimeout(ctx, controlProcessTimeout)
		result := s.bridge.ProcessControls(controlCtx, &ControlSubmission{
			SessionID:  frame.GetSessionId(),
			SequenceID: frame.GetSequenceId(),
			Payload:    payload,
		})
		cancel()
		if errors.Is(controlCtx.Err(), context.DeadlineExceeded) {
			summary.Rejected++
			continue
		}
		if result.Err != nil {
			summary.Rejected++
			if result.Disconnect {
				return status.Error(codes.PermissionDenied, result.Err.Error())
			}
			continue
		}
		if result.Accepted {
			summary.Accepted++
		} else {
			summary.Rejected++
		}
	}
}

var _ simpb.TelemetryServiceServer = (*Service)(nil)
