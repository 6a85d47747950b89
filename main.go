package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"google.golang.org/grpc"

	"carsim/backend/internal/config"
	grpcstream "carsim/backend/internal/grpc"
	httpapi "carsim/backend/internal/http"
	"carsim/backend/internal/input"
	"carsim/backend/internal/logging"
	"carsim/backend/internal/nav"
	"carsim/backend/internal/proto/pb"
	"carsim/backend/internal/simulation"
	"carsim/backend/internal/vehicle"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialise logging: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("simulator exited", logging.Error(err))
	}
}

func run(cfg *config.Config, logger *logging.Logger) error {
	//1.- The gate bounds control flooding to a handful of frames per tick.
	tickStep := time.Duration(float64(time.Second) / cfg.TickRateHz)
	gate := input.NewGate(input.Config{
		MaxAge:      time.Second,
		MinInterval: tickStep / 4,
	}, logger)

	//2.- The hub is wired through closures because the runner publishes to it
	// while the hub routes control frames back into the runner.
	var hub *Hub
	runner := simulation.NewRunner(nil, nil, gate, logger,
		simulation.WithMaxStep(time.Duration(cfg.MaxStepSeconds*float64(time.Second))),
		simulation.WithPublisher(func(diff vehicle.SessionDiff) { hub.PublishDiff(diff) }),
		simulation.WithArrivalFunc(func(sessionID string, state vehicle.State) { hub.NotifyArrival(sessionID, state) }),
	)

	var hubOpts []HubOption
	if cfg.AuthSecret != "" {
		authenticator, err := newHMACWebsocketAuthenticator(cfg.AuthSecret)
		if err != nil {
			return fmt.Errorf("configure websocket auth: %w", err)
		}
		hubOpts = append(hubOpts, WithWebsocketAuthenticator(authenticator))
	}
	hub = NewHub(cfg, runner, logger, hubOpts...)
	defer hub.Close()

	snapshotter, err := NewSessionSnapshotter(cfg.SessionSnapshotPath, cfg.SessionSnapshotInterval, runner, logger)
	if err != nil {
		return fmt.Errorf("restore session snapshot: %w", err)
	}
	if snapshotter != nil {
		defer func() { _ = snapshotter.Close() }()
	}

	geocoder := nav.NewGeocoder(cfg.GeocoderURL, cfg.NavTimeout, logger)
	router := nav.NewRouter(cfg.RouterURL, cfg.NavTimeout, logger)

	mux := http.NewServeMux()
	handlers := httpapi.NewHandlerSet(httpapi.Options{
		Logger:      logger,
		Simulator:   runner,
		Geocoder:    geocoder,
		Router:      router,
		Readiness:   hub,
		AdminToken:  cfg.AdminToken,
		RateLimiter: httpapi.NewSlidingWindowLimiter(cfg.ResetWindow, cfg.ResetBurst, nil),
	})
	handlers.Register(mux)
	registerControlDocEndpoints(mux)
	mux.HandleFunc("/ws", hub.ServeWS)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	//3.- The fixed-timestep loop drives every session from a single goroutine.
	loop := simulation.NewLoop(cfg.TickRateHz, runner.Tick)
	loop.Start(ctx)

	grpcErr := make(chan error, 1)
	grpcServer, err := startGRPC(cfg, hub, logger, grpcErr)
	if err != nil {
		return err
	}
	defer grpcServer.GracefulStop()

	server := &http.Server{
		Addr:    cfg.Address,
		Handler: logging.HTTPTraceMiddleware(logger)(mux),
	}
	tlsEnabled := cfg.TLSCertPath != "" && cfg.TLSKeyPath != ""
	logger.Info("simulator listening",
		logging.String("url", listenerURL(cfg.Address, tlsEnabled)),
		logging.String("grpc_addr", cfg.GRPCAddress),
		logging.Float64("tick_rate_hz", cfg.TickRateHz),
	)

	httpErr := make(chan error, 1)
	go func() {
		var err error
		if tlsEnabled {
			err = server.ListenAndServeTLS(cfg.TLSCertPath, cfg.TLSKeyPath)
		} else {
			err = server.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			hub.SetStartupError(err)
			httpErr <- err
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-httpErr:
		runErr = fmt.Errorf("http server: %w", err)
	case err := <-grpcErr:
		runErr = fmt.Errorf("grpc server: %w", err)
	}

	//4.- Cancel the loop context before waiting on the loop goroutine.
	stop()
	loop.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown incomplete", logging.Error(err))
	}
	if snapshotter != nil {
		if err := snapshotter.Flush(); err != nil {
			logger.Warn("final snapshot flush failed", logging.Error(err))
		}
	}
	return runErr
}

func startGRPC(cfg *config.Config, hub *Hub, logger *logging.Logger, errCh chan<- error) (*grpc.Server, error) {
	opts, err := configureGRPCSecurity(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("configure grpc security: %w", err)
	}
	listener, err := net.Listen("tcp", cfg.GRPCAddress)
	if err != nil {
		return nil, fmt.Errorf("listen grpc %s: %w", cfg.GRPCAddress, err)
	}
	server := grpc.NewServer(opts...)
	pb.RegisterTelemetryServiceServer(server, grpcstream.NewService(hub))
	go func() {
		if err := server.Serve(listener); err != nil {
			errCh <- err
		}
	}()
	return server, nil
}
