package nav

import (
	"context"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"carsim/backend/internal/geo"
)

func TestGeocodeParsesBestMatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		//1.- The upstream contract: JSON format, a query, and an identifying agent.
		if r.URL.Path != "/search" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("q"); got != "MG Road, Bangalore" {
			t.Errorf("unexpected query %q", got)
		}
		if got := r.Header.Get("User-Agent"); got != "CarSimulator/1.0" {
			t.Errorf("unexpected user agent %q", got)
		}
		w.Write([]byte(`[{"lat":"12.9758","lon":"77.6045","display_name":"MG Road"}]`))
	}))
	defer server.Close()

	geocoder := NewGeocoder(server.URL, time.Second, nil)
	got, err := geocoder.Geocode(context.Background(), "MG Road, Bangalore")
	if err != nil {
		t.Fatalf("Geocode() error: %v", err)
	}
	if math.Abs(got.Lat-12.9758) > 1e-9 || math.Abs(got.Lng-77.6045) > 1e-9 {
		t.Fatalf("unexpected coordinate %+v", got)
	}
}

func TestGeocodeNoMatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	}))
	defer server.Close()

	geocoder := NewGeocoder(server.URL, time.Second, nil)
	if _, err := geocoder.Geocode(context.Background(), "nowhere"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestGeocodeUpstreamFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	geocoder := NewGeocoder(server.URL, time.Second, nil)
	if _, err := geocoder.Geocode(context.Background(), "anywhere"); err == nil {
		t.Fatal("expected error for upstream failure")
	}
}

func TestReverseGeocode(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/reverse" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		//1.- Nominatim expects lat and lon as separate query parameters.
		if r.URL.Query().Get("lat") == "" || r.URL.Query().Get("lon") == "" {
			t.Errorf("missing coordinates in query %v", r.URL.Query())
		}
		w.Write([]byte(`{"display_name":"Vidhana Soudha, Bengaluru"}`))
	}))
	defer server.Close()

	geocoder := NewGeocoder(server.URL, time.Second, nil)
	address, err := geocoder.ReverseGeocode(context.Background(), geo.Coordinate{Lat: 12.9797, Lng: 77.5913})
	if err != nil {
		t.Fatalf("ReverseGeocode() error: %v", err)
	}
	if address != "Vidhana Soudha, Bengaluru" {
		t.Fatalf("unexpected address %q", address)
	}
}

func TestRouteFlipsCoordinatesAndFlattensSteps(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		//1.- The waypoint segment must be longitude-first.
		want := "/route/v1/driving/77.5946,12.9716;77.6045,12.9758"
		if r.URL.Path != want {
			t.Errorf("unexpected path %s, want %s", r.URL.Path, want)
		}
		if r.URL.Query().Get("geometries") != "geojson" || r.URL.Query().Get("steps") != "true" {
			t.Errorf("unexpected query %v", r.URL.Query())
		}
		w.Write([]byte(`{"routes":[{
			"geometry":{"coordinates":[[77.5946,12.9716],[77.6,12.974],[77.6045,12.9758]]},
			"distance":1500.5,
			"duration":240,
			"legs":[{"steps":[
				{"distance":800,"duration":120,"name":"MG Road","maneuver":{"type":"depart"}},
				{"distance":700.5,"duration":120,"name":"","maneuver":{"instruction":"Turn right"}}
			]}]
		}]}`))
	}))
	defer server.Close()

	router := NewRouter(server.URL, time.Second, nil)
	route, err := router.Route(context.Background(),
		geo.Coordinate{Lat: 12.9716, Lng: 77.5946},
		geo.Coordinate{Lat: 12.9758, Lng: 77.6045},
	)
	if err != nil {
		t.Fatalf("Route() error: %v", err)
	}

	//2.- The polyline comes back latitude-first for API consumers.
	if len(route.Coordinates) != 3 || route.Coordinates[0].Lat != 12.9716 || route.Coordinates[0].Lng != 77.5946 {
		t.Fatalf("unexpected polyline %+v", route.Coordinates)
	}
	if route.DistanceM != 1500.5 || route.DurationSec != 240 {
		t.Fatalf("unexpected totals %+v", route)
	}
	if len(route.Steps) != 2 {
		t.Fatalf("expected two steps, got %+v", route.Steps)
	}
	if route.Steps[0].Instruction != "depart onto MG Road" {
		t.Fatalf("unexpected synthesised instruction %q", route.Steps[0].Instruction)
	}
	if route.Steps[1].Instruction != "Turn right" {
		t.Fatalf("unexpected instruction %q", route.Steps[1].Instruction)
	}
}

func TestRouteNoRoutes(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"routes":[]}`))
	}))
	defer server.Close()

	router := NewRouter(server.URL, time.Second, nil)
	if _, err := router.Route(context.Background(), geo.Coordinate{}, geo.Coordinate{}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
