package nav

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"carsim/backend/internal/geo"
	"carsim/backend/internal/logging"
)

// RouteStep is one turn instruction along a computed route.
type RouteStep struct {
	Instruction string  `json:"instruction"`
	DistanceM   float64 `json:"distance"`
	DurationSec float64 `json:"duration"`
}

// Route is the drivable path between two coordinates.
type Route struct {
	Coordinates []geo.Coordinate `json:"coordinates"`
	DistanceM   float64          `json:"distance"`
	DurationSec float64          `json:"duration"`
	Steps       []RouteStep      `json:"steps"`
}

// Router computes driving routes against an OSRM instance.
type Router struct {
	baseURL string
	client  *http.Client
	logger  *logging.Logger
}

// NewRouter constructs a router for the given OSRM base URL.
func NewRouter(baseURL string, timeout time.Duration, logger *logging.Logger) *Router {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Router{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

type osrmResponse struct {
	Routes []struct {
		Geometry struct {
			Coordinates [][]float64 `json:"coordinates"`
		} `json:"geometry"`
		Distance float64 `json:"distance"`
		Duration float64 `json:"duration"`
		Legs     []struct {
			Steps []struct {
				Distance float64 `json:"distance"`
				Duration float64 `json:"duration"`
				Name     string  `json:"name"`
				Maneuver struct {
					Instruction string `json:"instruction"`
					Type        string `json:"type"`
					Modifier    string `json:"modifier"`
				} `json:"maneuver"`
			} `json:"steps"`
		} `json:"legs"`
	} `json:"routes"`
}

// Route computes the driving route from start to end.
func (r *Router) Route(ctx context.Context, start, end geo.Coordinate) (*Route, error) {
	if r == nil {
		return nil, errors.New("nav: router not configured")
	}

	//1.- OSRM addresses waypoints longitude-first.
	path := fmt.Sprintf("%s/route/v1/driving/%s,%s;%s,%s?overview=full&geometries=geojson&steps=true",
		r.baseURL,
		formatCoord(start.Lng), formatCoord(start.Lat),
		formatCoord(end.Lng), formatCoord(end.Lat),
	)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, fmt.Errorf("nav: build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("nav: router request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		if r.logger != nil {
			r.logger.Warn("router returned non-200", logging.Int("status", resp.StatusCode))
		}
		return nil, fmt.Errorf("nav: router status %d", resp.StatusCode)
	}

	var payload osrmResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("nav: decode router response: %w", err)
	}
	if len(payload.Routes) == 0 {
		return nil, ErrNotFound
	}

	best := payload.Routes[0]
	route := &Route{
		DistanceM:   best.Distance,
		DurationSec: best.Duration,
	}

	//2.- Flip the GeoJSON pairs back to latitude-first coordinates.
	route.Coordinates = make([]geo.Coordinate, 0, len(best.Geometry.Coordinates))
	for _, pair := range best.Geometry.Coordinates {
		if len(pair) < 2 {
			continue
		}
		route.Coordinates = append(route.Coordinates, geo.Coordinate{Lat: pair[1], Lng: pair[0]})
	}

	//3.- Flatten the per-leg steps into a single instruction list.
	for _, leg := range best.Legs {
		for _, step := range leg.Steps {
			instruction := step.Maneuver.Instruction
			if instruction == "" {
				instruction = describeManeuver(step.Maneuver.Type, step.Maneuver.Modifier, step.Name)
			}
			route.Steps = append(route.Steps, RouteStep{
				Instruction: instruction,
				DistanceM:   step.Distance,
				DurationSec: step.Duration,
			})
		}
	}
	return route, nil
}

// describeManeuver synthesises an instruction when OSRM omits the text form.
func describeManeuver(kind, modifier, road string) string {
	if kind == "" {
		return ""
	}
	text := kind
	if modifier != "" {
		text += " " + modifier
	}
	if road != "" {
		text += " onto " + road
	}
	return text
}

func formatCoord(value float64) string {
	return strconv.FormatFloat(value, 'f', -1, 64)
}
