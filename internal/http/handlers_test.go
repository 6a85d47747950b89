package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"carsim/backend/internal/geo"
	"carsim/backend/internal/input"
	"carsim/backend/internal/nav"
	"carsim/backend/internal/simulation"
	"carsim/backend/internal/vehicle"
)

type geocoderStub struct {
	position geo.Coordinate
	address  string
	err      error
}

func (g *geocoderStub) Geocode(ctx context.Context, address string) (geo.Coordinate, error) {
	return g.position, g.err
}

func (g *geocoderStub) ReverseGeocode(ctx context.Context, position geo.Coordinate) (string, error) {
	return g.address, g.err
}

type routerStub struct {
	route *nav.Route
	err   error
}

func (r *routerStub) Route(ctx context.Context, start, end geo.Coordinate) (*nav.Route, error) {
	return r.route, r.err
}

type readinessStub struct {
	clients int
	pending int
	err     error
	uptime  time.Duration
}

func (r *readinessStub) SnapshotClientCounts() (int, int) { return r.clients, r.pending }
func (r *readinessStub) StartupError() error              { return r.err }
func (r *readinessStub) Uptime() time.Duration            { return r.uptime }

func newTestMux(t *testing.T, opts Options) (*http.ServeMux, *simulation.Runner) {
	t.Helper()
	runner := simulation.NewRunner(nil, nil, input.NewGate(input.Config{}, nil), nil)
	if opts.Simulator == nil {
		opts.Simulator = runner
	}
	mux := http.NewServeMux()
	NewHandlerSet(opts).Register(mux)
	return mux, runner
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, out any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), out); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
}

func TestHealthAndLiveness(t *testing.T) {
	mux, _ := newTestMux(t, Options{})

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "car-simulator-backend") {
		t.Fatalf("unexpected health response %d %q", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/livez", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "alive") {
		t.Fatalf("unexpected livez response %d %q", rec.Code, rec.Body.String())
	}
}

func TestReadinessReportsStartupError(t *testing.T) {
	mux, _ := newTestMux(t, Options{Readiness: &readinessStub{err: errors.New("bind failed")}})

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "bind failed") {
		t.Fatalf("expected startup error in body, got %q", rec.Body.String())
	}
}

func TestMetricsExposesSimulationStats(t *testing.T) {
	mux, runner := newTestMux(t, Options{Readiness: &readinessStub{clients: 3, uptime: time.Minute}})
	runner.EnsureSession("alpha")
	runner.Tick(50 * time.Millisecond)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := rec.Body.String()

	for _, want := range []string{
		"carsim_uptime_seconds 60",
		"carsim_clients 3",
		"carsim_sessions 1",
		"carsim_tick_rate_hz",
		"carsim_control_frames_dropped_total{reason=\"sequence\"} 0",
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("metrics missing %q in:\n%s", want, body)
		}
	}
}

func TestUpdateDrivesSession(t *testing.T) {
	mux, runner := newTestMux(t, Options{})

	body := `{"session_id":"alpha","sequence_id":1,"engineOn":true,"gear":"1","accelerator":100,"clutch":0}`
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/update", strings.NewReader(body)))
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d %q", rec.Code, rec.Body.String())
	}

	var resp struct {
		Success      bool           `json:"success"`
		GearAccepted *bool          `json:"gearAccepted"`
		State        *vehicle.State `json:"state"`
	}
	decodeBody(t, rec, &resp)
	if !resp.Success || resp.GearAccepted == nil || !*resp.GearAccepted {
		t.Fatalf("unexpected response %+v", resp)
	}
	if resp.State == nil || !resp.State.EngineOn || resp.State.Gear != vehicle.GearFirst {
		t.Fatalf("unexpected state %+v", resp.State)
	}

	//1.- The buffered controls land on the next tick.
	runner.Tick(time.Second)
	state, _ := runner.SessionState("alpha")
	if state.SpeedKmh <= 0 {
		t.Fatalf("expected motion after tick, got %v", state.SpeedKmh)
	}

	//2.- A rolling vehicle without the clutch keeps its gear.
	body = `{"session_id":"alpha","sequence_id":2,"gear":"5"}`
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/update", strings.NewReader(body)))
	decodeBody(t, rec, &resp)
	if resp.GearAccepted == nil {
		t.Fatal("expected gear verdict")
	}
}

func TestUpdateWithoutSequenceAppliesControls(t *testing.T) {
	mux, runner := newTestMux(t, Options{})

	//1.- Plain REST bodies never carry a sequence_id; the channels must still land.
	body := `{"session_id":"legacy","engineOn":true,"gear":"1","accelerator":100,"clutch":0}`
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/update", strings.NewReader(body)))
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d %q", rec.Code, rec.Body.String())
	}

	var resp struct {
		Success    bool           `json:"success"`
		DropReason string         `json:"dropReason"`
		State      *vehicle.State `json:"state"`
	}
	decodeBody(t, rec, &resp)
	if !resp.Success || resp.DropReason != "" {
		t.Fatalf("unexpected response %+v", resp)
	}
	if resp.State == nil || !resp.State.EngineOn || resp.State.Gear != vehicle.GearFirst {
		t.Fatalf("unexpected state %+v", resp.State)
	}

	runner.Tick(time.Second)
	state, _ := runner.SessionState("legacy")
	if state.SpeedKmh <= 0 {
		t.Fatalf("expected motion after tick, got %v", state.SpeedKmh)
	}
	if state.Accelerator != 100 {
		t.Fatalf("expected accelerator applied, got %v", state.Accelerator)
	}

	//2.- Repeated unsequenced updates keep landing; nothing accumulates a gate rejection.
	body = `{"session_id":"legacy","accelerator":0,"brake":100}`
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/update", strings.NewReader(body)))
	decodeBody(t, rec, &resp)
	if !resp.Success {
		t.Fatalf("unexpected response %+v", resp)
	}
	before := state.SpeedKmh
	runner.Tick(time.Second)
	state, _ = runner.SessionState("legacy")
	if state.Brake != 100 || state.SpeedKmh >= before {
		t.Fatalf("expected braking, got brake=%v speed=%v (was %v)", state.Brake, state.SpeedKmh, before)
	}
}

func TestUpdateReportsGateRejection(t *testing.T) {
	mux, _ := newTestMux(t, Options{})

	body := `{"session_id":"seq","sequence_id":5,"accelerator":50}`
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/update", strings.NewReader(body)))

	var resp struct {
		Success    bool           `json:"success"`
		DropReason string         `json:"dropReason"`
		State      *vehicle.State `json:"state"`
	}
	decodeBody(t, rec, &resp)
	if !resp.Success {
		t.Fatalf("first sequenced frame should pass, got %+v", resp)
	}

	//1.- Replaying the same sequence number is rejected and the response says so.
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/update", strings.NewReader(body)))
	decodeBody(t, rec, &resp)
	if resp.Success || resp.DropReason != "sequence" {
		t.Fatalf("expected sequence drop, got %+v", resp)
	}
}

func TestGeocodeEndpoints(t *testing.T) {
	stub := &geocoderStub{position: geo.Coordinate{Lat: 12.97, Lng: 77.59}, address: "MG Road"}
	mux, _ := newTestMux(t, Options{Geocoder: stub})

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/geocode", strings.NewReader(`{"address":"MG Road"}`)))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "12.97") {
		t.Fatalf("unexpected geocode response %d %q", rec.Code, rec.Body.String())
	}

	//1.- Missing address is the caller's fault.
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/geocode", strings.NewReader(`{}`)))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}

	//2.- Upstream misses map to 404.
	stub.err = nav.ErrNotFound
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/reverse-geocode", strings.NewReader(`{"lat":1,"lng":2}`)))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}

	//3.- Other upstream failures map to 502.
	stub.err = errors.New("timeout")
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/geocode", strings.NewReader(`{"address":"x"}`)))
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", rec.Code)
	}
}

func TestRouteSetsSessionDestination(t *testing.T) {
	route := &nav.Route{
		Coordinates: []geo.Coordinate{{Lat: 12.97, Lng: 77.59}, {Lat: 12.98, Lng: 77.6}},
		DistanceM:   1200,
		DurationSec: 180,
	}
	mux, runner := newTestMux(t, Options{Router: &routerStub{route: route}})

	body := `{"session_id":"alpha","start":{"lat":12.97,"lng":77.59},"end":{"lat":12.98,"lng":77.6}}`
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/route", strings.NewReader(body)))
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d %q", rec.Code, rec.Body.String())
	}

	//1.- The routed end point becomes the session's destination.
	state, ok := runner.SessionState("alpha")
	if !ok || state.Destination == nil || state.Destination.Lat != 12.98 {
		t.Fatalf("expected destination recorded, got %+v", state)
	}
	if len(state.Route) != 2 {
		t.Fatalf("expected polyline stored, got %+v", state.Route)
	}

	//2.- Missing coordinates fail fast without touching the session.
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/route", strings.NewReader(`{"start":{"lat":1}}`)))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}

	//3.- DELETE abandons the active route and destination.
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/route?session_id=alpha", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	state, _ = runner.SessionState("alpha")
	if state.Destination != nil || state.Route != nil || state.DistanceToKm != 0 {
		t.Fatalf("expected cleared route, got %+v", state)
	}
}

func TestDistanceHandler(t *testing.T) {
	mux, _ := newTestMux(t, Options{})

	body := `{"from":{"lat":12.9716,"lng":77.5946},"to":{"lat":13.0827,"lng":80.2707}}`
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/distance", strings.NewReader(body)))
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", rec.Code)
	}
	var resp struct {
		Success    bool    `json:"success"`
		DistanceKm float64 `json:"distance_km"`
	}
	decodeBody(t, rec, &resp)
	if !resp.Success || resp.DistanceKm < 280 || resp.DistanceKm > 300 {
		t.Fatalf("unexpected distance %+v", resp)
	}
}

func TestStateHandler(t *testing.T) {
	mux, runner := newTestMux(t, Options{})

	//1.- Unknown sessions are a 404, not an implicit create.
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/state/ghost", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}

	runner.EnsureSession("alpha")
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/state/alpha", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp struct {
		Success bool           `json:"success"`
		State   *vehicle.State `json:"state"`
	}
	decodeBody(t, rec, &resp)
	if !resp.Success || resp.State == nil || resp.State.Gear != vehicle.GearNeutral {
		t.Fatalf("unexpected state response %+v", resp)
	}
}

func TestResetRequiresAdminToken(t *testing.T) {
	mux, runner := newTestMux(t, Options{
		AdminToken:  "secret",
		RateLimiter: NewSlidingWindowLimiter(time.Minute, 2, nil),
	})
	runner.EnsureSession("alpha")
	runner.ToggleEngine("alpha")

	//1.- No token, no reset.
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/reset", strings.NewReader(`{"session_id":"alpha"}`)))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}

	//2.- A bearer token resets the session at the supplied spawn.
	req := httptest.NewRequest(http.MethodPost, "/reset", strings.NewReader(`{"session_id":"alpha","lat":48.8566,"lng":2.3522}`))
	req.Header.Set("Authorization", "Bearer secret")
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d %q", rec.Code, rec.Body.String())
	}
	state, _ := runner.SessionState("alpha")
	if state.EngineOn || state.Position.Lat != 48.8566 {
		t.Fatalf("unexpected state after reset %+v", state)
	}

	//3.- The sliding window eventually throttles.
	for i := 0; i < 3; i++ {
		req = httptest.NewRequest(http.MethodPost, "/reset", strings.NewReader(`{}`))
		req.Header.Set("X-Admin-Token", "secret")
		rec = httptest.NewRecorder()
		mux.ServeHTTP(rec, req)
	}
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
}
