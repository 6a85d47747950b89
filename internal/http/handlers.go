package httpapi

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"carsim/backend/internal/geo"
	"carsim/backend/internal/input"
	"carsim/backend/internal/logging"
	"carsim/backend/internal/nav"
	"carsim/backend/internal/simulation"
	"carsim/backend/internal/vehicle"
)

// Simulator is the slice of the simulation runner the REST surface needs.
type Simulator interface {
	EnsureSession(sessionID string) vehicle.State
	SessionState(sessionID string) (vehicle.State, bool)
	SubmitControls(frame input.Frame, controls vehicle.Controls) input.Decision
	ApplyControls(sessionID string, controls vehicle.Controls)
	RequestGear(sessionID string, gear vehicle.Gear) (vehicle.State, bool)
	ToggleEngine(sessionID string) vehicle.State
	ResetSession(sessionID string, position geo.Coordinate) vehicle.State
	SetRoute(sessionID string, destination geo.Coordinate, route []geo.Coordinate) vehicle.State
	ClearRoute(sessionID string) vehicle.State
	SessionCount() int
	Monitor() *simulation.TickMonitor
	Drift() *simulation.DriftTracker
	ClampedFrames() uint64
	DropCounters() map[string]input.DropCounters
}

// Geocoder resolves addresses and coordinates against the upstream service.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (geo.Coordinate, error)
	ReverseGeocode(ctx context.Context, position geo.Coordinate) (string, error)
}

// RoutePlanner computes drivable routes between coordinates.
type RoutePlanner interface {
	Route(ctx context.Context, start, end geo.Coordinate) (*nav.Route, error)
}

// ReadinessProvider exposes server state required for readiness checks.
type ReadinessProvider interface {
	SnapshotClientCounts() (clients, pending int)
	StartupError() error
	Uptime() time.Duration
}

// RateLimiter gates how frequently sensitive operations may be invoked.
type RateLimiter interface {
	Allow() bool
}

// Options configures the HandlerSet.
type Options struct {
	Logger      *logging.Logger
	Simulator   Simulator
	Geocoder    Geocoder
	Router      RoutePlanner
	Readiness   ReadinessProvider
	AdminToken  string
	RateLimiter RateLimiter
	TimeSource  func() time.Time
}

// HandlerSet bundles the simulator's REST and operational handlers.
type HandlerSet struct {
	logger      *logging.Logger
	sim         Simulator
	geocoder    Geocoder
	router      RoutePlanner
	readiness   ReadinessProvider
	adminToken  string
	rateLimiter RateLimiter
	now         func() time.Time
}

// NewHandlerSet constructs a HandlerSet using the provided options.
func NewHandlerSet(opts Options) *HandlerSet {
	logger := opts.Logger
	if logger == nil {
		logger = logging.L()
	}
	now := opts.TimeSource
	if now == nil {
		now = time.Now
	}
	return &HandlerSet{
		logger:      logger,
		sim:         opts.Simulator,
		geocoder:    opts.Geocoder,
		router:      opts.Router,
		readiness:   opts.Readiness,
		adminToken:  strings.TrimSpace(opts.AdminToken),
		rateLimiter: opts.RateLimiter,
		now:         now,
	}
}

// Register attaches all handlers to the provided mux.
func (h *HandlerSet) Register(mux *http.ServeMux) {
	if mux == nil {
		return
	}
	mux.HandleFunc("/health", h.HealthHandler())
	mux.HandleFunc("/livez", h.LivenessHandler())
	mux.HandleFunc("/readyz", h.ReadinessHandler())
	mux.HandleFunc("/metrics", h.MetricsHandler())
	mux.HandleFunc("/update", h.UpdateHandler())
	mux.HandleFunc("/geocode", h.GeocodeHandler())
	mux.HandleFunc("/reverse-geocode", h.ReverseGeocodeHandler())
	mux.HandleFunc("/route", h.RouteHandler())
	mux.HandleFunc("/distance", h.DistanceHandler())
	mux.HandleFunc("/state/", h.StateHandler())
	mux.HandleFunc("/reset", h.ResetHandler())
}

// HealthHandler mirrors the legacy health check shape.
func (h *HandlerSet) HealthHandler() http.HandlerFunc {
	type response struct {
		Status  string `json:"status"`
		Service string `json:"service"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, response{Status: "healthy", Service: "car-simulator-backend"})
	}
}

// LivenessHandler reports that the HTTP server is reachable.
func (h *HandlerSet) LivenessHandler() http.HandlerFunc {
	type response struct {
		Status    string `json:"status"`
		Timestamp string `json:"timestamp"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, response{
			Status:    "alive",
			Timestamp: h.now().UTC().Format(time.RFC3339Nano),
		})
	}
}

// ReadinessHandler reports readiness, including client counts and startup status.
func (h *HandlerSet) ReadinessHandler() http.HandlerFunc {
	type response struct {
		Status         string  `json:"status"`
		Message        string  `json:"message,omitempty"`
		UptimeSeconds  float64 `json:"uptime_seconds"`
		Clients        int     `json:"clients"`
		PendingClients int     `json:"pending_clients"`
		Sessions       int     `json:"sessions"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		status := http.StatusOK
		resp := response{Status: "ok"}
		if h.sim != nil {
			resp.Sessions = h.sim.SessionCount()
		}
		if h.readiness != nil {
			clients, pending := h.readiness.SnapshotClientCounts()
			resp.Clients = clients
			resp.PendingClients = pending
			resp.UptimeSeconds = h.readiness.Uptime().Seconds()
			if err := h.readiness.StartupError(); err != nil {
				status = http.StatusServiceUnavailable
				resp.Status = "error"
				resp.Message = err.Error()
			}
		}
		writeJSON(w, status, resp)
	}
}

// MetricsHandler emits Prometheus compatible text metrics.
func (h *HandlerSet) MetricsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4")

		if h.readiness != nil {
			clients, pending := h.readiness.SnapshotClientCounts()
			fmt.Fprintf(w, "# HELP carsim_uptime_seconds Server uptime in seconds.\n")
			fmt.Fprintf(w, "# TYPE carsim_uptime_seconds gauge\n")
			fmt.Fprintf(w, "carsim_uptime_seconds %.0f\n", h.readiness.Uptime().Seconds())

			fmt.Fprintf(w, "# HELP carsim_clients Current connected WebSocket clients.\n")
			fmt.Fprintf(w, "# TYPE carsim_clients gauge\n")
			fmt.Fprintf(w, "carsim_clients %d\n", clients)

			fmt.Fprintf(w, "# HELP carsim_pending_clients Pending WebSocket handshakes awaiting upgrade.\n")
			fmt.Fprintf(w, "# TYPE carsim_pending_clients gauge\n")
			fmt.Fprintf(w, "carsim_pending_clients %d\n", pending)
		}

		if h.sim == nil {
			return
		}
		fmt.Fprintf(w, "# HELP carsim_sessions Live simulated vehicle sessions.\n")
		fmt.Fprintf(w, "# TYPE carsim_sessions gauge\n")
		fmt.Fprintf(w, "carsim_sessions %d\n", h.sim.SessionCount())

		if monitor := h.sim.Monitor(); monitor != nil {
			stats := monitor.Snapshot()
			fmt.Fprintf(w, "# HELP carsim_tick_duration_seconds Simulation tick compute time.\n")
			fmt.Fprintf(w, "# TYPE carsim_tick_duration_seconds gauge\n")
			fmt.Fprintf(w, "carsim_tick_duration_seconds{stat=\"average\"} %.6f\n", stats.Average.Seconds())
			fmt.Fprintf(w, "carsim_tick_duration_seconds{stat=\"max\"} %.6f\n", stats.Max.Seconds())
			fmt.Fprintf(w, "# HELP carsim_tick_rate_hz Observed average tick rate.\n")
			fmt.Fprintf(w, "# TYPE carsim_tick_rate_hz gauge\n")
			fmt.Fprintf(w, "carsim_tick_rate_hz %.2f\n", stats.AverageFPS())
		}

		if drift := h.sim.Drift(); drift != nil {
			snapshot := drift.Snapshot()
			fmt.Fprintf(w, "# HELP carsim_clock_drift_seconds Wall time minus simulated time.\n")
			fmt.Fprintf(w, "# TYPE carsim_clock_drift_seconds gauge\n")
			fmt.Fprintf(w, "carsim_clock_drift_seconds %.3f\n", snapshot.Drift.Seconds())
		}

		fmt.Fprintf(w, "# HELP carsim_control_frames_clamped_total Control frames needing channel clamps.\n")
		fmt.Fprintf(w, "# TYPE carsim_control_frames_clamped_total counter\n")
		fmt.Fprintf(w, "carsim_control_frames_clamped_total %d\n", h.sim.ClampedFrames())

		drops := h.sim.DropCounters()
		var sequence, stale, rate uint64
		for _, counters := range drops {
			sequence += counters.Sequence
			stale += counters.Stale
			rate += counters.RateLimited
		}
		fmt.Fprintf(w, "# HELP carsim_control_frames_dropped_total Control frames rejected by the gate.\n")
		fmt.Fprintf(w, "# TYPE carsim_control_frames_dropped_total counter\n")
		fmt.Fprintf(w, "carsim_control_frames_dropped_total{reason=\"sequence\"} %d\n", sequence)
		fmt.Fprintf(w, "carsim_control_frames_dropped_total{reason=\"stale\"} %d\n", stale)
		fmt.Fprintf(w, "carsim_control_frames_dropped_total{reason=\"rate_limit\"} %d\n", rate)
	}
}

type updateRequest struct {
	SessionID    string   `json:"session_id"`
	SequenceID   uint64   `json:"sequence_id"`
	SteeringDeg  *float64 `json:"steeringAngle"`
	Accelerator  *float64 `json:"accelerator"`
	Brake        *float64 `json:"brake"`
	Clutch       *float64 `json:"clutch"`
	Gear         *string  `json:"gear"`
	EngineOn     *bool    `json:"engineOn"`
}

// UpdateHandler ingests a control update over REST and returns the current state.
func (h *HandlerSet) UpdateHandler() http.HandlerFunc {
	type response struct {
		Success      bool           `json:"success"`
		GearAccepted *bool          `json:"gearAccepted,omitempty"`
		DropReason   string         `json:"dropReason,omitempty"`
		State        *vehicle.State `json:"state"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		if h.sim == nil {
			writeError(w, http.StatusServiceUnavailable, "simulation unavailable")
			return
		}
		if r.Method != http.MethodPost {
			w.Header().Set("Allow", http.MethodPost)
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		var req updateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		sessionID := req.SessionID
		if sessionID == "" {
			sessionID = "default"
		}
		current := h.sim.EnsureSession(sessionID)

		//1.- Ignition and gear are discrete commands, handled before the analog channels.
		if req.EngineOn != nil && *req.EngineOn != current.EngineOn {
			current = h.sim.ToggleEngine(sessionID)
		}
		resp := response{Success: true}
		if req.Gear != nil {
			gear, valid := vehicle.ParseGear(*req.Gear)
			accepted := false
			if valid {
				current, accepted = h.sim.RequestGear(sessionID, gear)
			}
			resp.GearAccepted = &accepted
		}

		//2.- Absent channels keep their previous values; only sent ones change.
		controls := current.Controls()
		if req.SteeringDeg != nil {
			controls.SteeringDeg = *req.SteeringDeg
		}
		if req.Accelerator != nil {
			controls.Accelerator = *req.Accelerator
		}
		if req.Brake != nil {
			controls.Brake = *req.Brake
		}
		if req.Clutch != nil {
			controls.Clutch = *req.Clutch
		}
		//3.- Bodies without a sequence_id are one frame per request and skip the
		// stream gate; sequenced bodies go through it and report any drop.
		if req.SequenceID == 0 {
			h.sim.ApplyControls(sessionID, controls)
		} else {
			decision := h.sim.SubmitControls(input.Frame{SessionID: sessionID, SequenceID: req.SequenceID}, controls)
			if !decision.Accepted {
				resp.Success = false
				resp.DropReason = decision.Reason.String()
			}
		}

		state, _ := h.sim.SessionState(sessionID)
		resp.State = &state
		writeJSON(w, http.StatusOK, resp)
	}
}

// GeocodeHandler resolves an address to coordinates.
func (h *HandlerSet) GeocodeHandler() http.HandlerFunc {
	type request struct {
		Address string `json:"address"`
	}
	type response struct {
		Success bool    `json:"success"`
		Lat     float64 `json:"lat"`
		Lng     float64 `json:"lng"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		if h.geocoder == nil {
			writeError(w, http.StatusServiceUnavailable, "geocoding unavailable")
			return
		}
		if r.Method != http.MethodPost {
			w.Header().Set("Allow", http.MethodPost)
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		var req request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Address) == "" {
			writeError(w, http.StatusBadRequest, "address required")
			return
		}
		position, err := h.geocoder.Geocode(r.Context(), req.Address)
		if errors.Is(err, nav.ErrNotFound) {
			writeError(w, http.StatusNotFound, "address not found")
			return
		}
		if err != nil {
			h.logger.Warn("geocode failed", logging.Error(err))
			writeError(w, http.StatusBadGateway, "geocoding failed")
			return
		}
		writeJSON(w, http.StatusOK, response{Success: true, Lat: position.Lat, Lng: position.Lng})
	}
}

// ReverseGeocodeHandler resolves coordinates to an address.
func (h *HandlerSet) ReverseGeocodeHandler() http.HandlerFunc {
	type request struct {
		Lat *float64 `json:"lat"`
		Lng *float64 `json:"lng"`
	}
	type response struct {
		Success bool   `json:"success"`
		Address string `json:"address"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		if h.geocoder == nil {
			writeError(w, http.StatusServiceUnavailable, "geocoding unavailable")
			return
		}
		if r.Method != http.MethodPost {
			w.Header().Set("Allow", http.MethodPost)
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		var req request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Lat == nil || req.Lng == nil {
			writeError(w, http.StatusBadRequest, "latitude and longitude required")
			return
		}
		address, err := h.geocoder.ReverseGeocode(r.Context(), geo.Coordinate{Lat: *req.Lat, Lng: *req.Lng})
		if errors.Is(err, nav.ErrNotFound) {
			writeError(w, http.StatusNotFound, "location not found")
			return
		}
		if err != nil {
			h.logger.Warn("reverse geocode failed", logging.Error(err))
			writeError(w, http.StatusBadGateway, "reverse geocoding failed")
			return
		}
		writeJSON(w, http.StatusOK, response{Success: true, Address: address})
	}
}

type coordinatePayload struct {
	Lat *float64 `json:"lat"`
	Lng *float64 `json:"lng"`
}

func (c *coordinatePayload) coordinate() (geo.Coordinate, bool) {
	if c == nil || c.Lat == nil || c.Lng == nil {
		return geo.Coordinate{}, false
	}
	return geo.Coordinate{Lat: *c.Lat, Lng: *c.Lng}, true
}

// RouteHandler computes a drivable route and, when a session is named, makes
// its end point that session's active destination.
func (h *HandlerSet) RouteHandler() http.HandlerFunc {
	type request struct {
		SessionID string             `json:"session_id"`
		Start     *coordinatePayload `json:"start"`
		End       *coordinatePayload `json:"end"`
	}
	type response struct {
		Success bool       `json:"success"`
		Route   *nav.Route `json:"route"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		//1.- DELETE abandons the session's active route without planning a new one.
		if r.Method == http.MethodDelete {
			if h.sim == nil {
				writeError(w, http.StatusServiceUnavailable, "simulation unavailable")
				return
			}
			sessionID := strings.TrimSpace(r.URL.Query().Get("session_id"))
			if sessionID == "" {
				sessionID = "default"
			}
			h.sim.ClearRoute(sessionID)
			writeJSON(w, http.StatusOK, response{Success: true})
			return
		}
		if h.router == nil {
			writeError(w, http.StatusServiceUnavailable, "routing unavailable")
			return
		}
		if r.Method != http.MethodPost {
			w.Header().Set("Allow", strings.Join([]string{http.MethodPost, http.MethodDelete}, ", "))
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		var req request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		start, okStart := req.Start.coordinate()
		end, okEnd := req.End.coordinate()
		if !okStart || !okEnd {
			writeError(w, http.StatusBadRequest, "start and end coordinates required")
			return
		}
		route, err := h.router.Route(r.Context(), start, end)
		if errors.Is(err, nav.ErrNotFound) {
			writeError(w, http.StatusNotFound, "could not calculate route")
			return
		}
		if err != nil {
			h.logger.Warn("routing failed", logging.Error(err))
			writeError(w, http.StatusBadGateway, "routing failed")
			return
		}
		if req.SessionID != "" && h.sim != nil {
			h.sim.SetRoute(req.SessionID, end, route.Coordinates)
		}
		writeJSON(w, http.StatusOK, response{Success: true, Route: route})
	}
}

// DistanceHandler computes the haversine distance between two points.
func (h *HandlerSet) DistanceHandler() http.HandlerFunc {
	type request struct {
		From *coordinatePayload `json:"from"`
		To   *coordinatePayload `json:"to"`
	}
	type response struct {
		Success    bool    `json:"success"`
		DistanceKm float64 `json:"distance_km"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.Header().Set("Allow", http.MethodPost)
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		var req request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		from, okFrom := req.From.coordinate()
		to, okTo := req.To.coordinate()
		if !okFrom || !okTo {
			writeError(w, http.StatusBadRequest, "from and to coordinates required")
			return
		}
		writeJSON(w, http.StatusOK, response{Success: true, DistanceKm: geo.HaversineKm(from, to)})
	}
}

// StateHandler fetches the current state for /state/{session_id}.
func (h *HandlerSet) StateHandler() http.HandlerFunc {
	type response struct {
		Success bool           `json:"success"`
		State   *vehicle.State `json:"state"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		if h.sim == nil {
			writeError(w, http.StatusServiceUnavailable, "simulation unavailable")
			return
		}
		sessionID := strings.TrimPrefix(r.URL.Path, "/state/")
		if sessionID == "" || strings.Contains(sessionID, "/") {
			writeError(w, http.StatusBadRequest, "session id required")
			return
		}
		state, ok := h.sim.SessionState(sessionID)
		if !ok {
			writeError(w, http.StatusNotFound, "session not found")
			return
		}
		writeJSON(w, http.StatusOK, response{Success: true, State: &state})
	}
}

// ResetHandler reinitialises a session at the default or supplied position.
// The operation is admin-gated and rate limited.
func (h *HandlerSet) ResetHandler() http.HandlerFunc {
	type request struct {
		SessionID string   `json:"session_id"`
		Lat       *float64 `json:"lat"`
		Lng       *float64 `json:"lng"`
	}
	type response struct {
		Success bool           `json:"success"`
		Message string         `json:"message"`
		State   *vehicle.State `json:"state"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		reqLogger := h.logger.With(
			logging.String("handler", "reset"),
			logging.String("remote_addr", r.RemoteAddr),
		)
		if h.sim == nil {
			writeError(w, http.StatusServiceUnavailable, "simulation unavailable")
			return
		}
		if r.Method != http.MethodPost {
			w.Header().Set("Allow", http.MethodPost)
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		if h.adminToken != "" && !h.authorise(r) {
			reqLogger.Warn("reset denied: unauthorized request")
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		if h.rateLimiter != nil && !h.rateLimiter.Allow() {
			reqLogger.Warn("reset denied: rate limit exceeded")
			writeError(w, http.StatusTooManyRequests, "too many requests")
			return
		}
		//1.- The body is optional; an empty or invalid one resets the default session.
		var req request
		_ = json.NewDecoder(r.Body).Decode(&req)
		sessionID := req.SessionID
		if sessionID == "" {
			sessionID = "default"
		}
		var position geo.Coordinate
		if req.Lat != nil && req.Lng != nil {
			position = geo.Coordinate{Lat: *req.Lat, Lng: *req.Lng}
		}
		state := h.sim.ResetSession(sessionID, position)
		reqLogger.Info("session reset", logging.String("session_id", sessionID))
		writeJSON(w, http.StatusOK, response{Success: true, Message: "State reset successfully", State: &state})
	}
}

func (h *HandlerSet) authorise(r *http.Request) bool {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	var token string
	if len(header) > 7 && strings.EqualFold(header[:7], "Bearer ") {
		token = strings.TrimSpace(header[7:])
	} else if header != "" {
		token = header
	}
	if token == "" {
		token = strings.TrimSpace(r.Header.Get("X-Admin-Token"))
	}
	if token == "" {
		token = strings.TrimSpace(r.URL.Query().Get("token"))
	}
	if token == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(token), []byte(h.adminToken)) == 1
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	if status != http.StatusOK {
		w.WriteHeader(status)
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	type errorResponse struct {
		Success bool   `json:"success"`
		Error   string `json:"error"`
	}
	writeJSON(w, status, errorResponse{Success: false, Error: message})
}
