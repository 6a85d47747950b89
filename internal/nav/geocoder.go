package nav

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"carsim/backend/internal/geo"
	"carsim/backend/internal/logging"
)

// userAgent identifies the simulator to the upstream OpenStreetMap services,
// which reject anonymous clients.
const userAgent = "CarSimulator/1.0"

// ErrNotFound reports that the upstream service returned no match.
var ErrNotFound = errors.New("nav: no match found")

// Geocoder resolves free-form addresses against a Nominatim instance.
type Geocoder struct {
	baseURL string
	client  *http.Client
	logger  *logging.Logger
}

// NewGeocoder constructs a geocoder for the given Nominatim base URL.
func NewGeocoder(baseURL string, timeout time.Duration, logger *logging.Logger) *Geocoder {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Geocoder{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

type searchResult struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

// Geocode resolves an address to its best-match coordinate.
func (g *Geocoder) Geocode(ctx context.Context, address string) (geo.Coordinate, error) {
	if g == nil {
		return geo.Coordinate{}, errors.New("nav: geocoder not configured")
	}

	//1.- Ask for the best match only; the simulator never disambiguates.
	query := url.Values{}
	query.Set("format", "json")
	query.Set("q", address)
	query.Set("limit", "1")

	var results []searchResult
	if err := g.get(ctx, "/search", query, &results); err != nil {
		return geo.Coordinate{}, err
	}
	if len(results) == 0 {
		return geo.Coordinate{}, ErrNotFound
	}

	//2.- Nominatim encodes coordinates as strings; parse them defensively.
	lat, err := strconv.ParseFloat(results[0].Lat, 64)
	if err != nil {
		return geo.Coordinate{}, fmt.Errorf("nav: parse latitude: %w", err)
	}
	lng, err := strconv.ParseFloat(results[0].Lon, 64)
	if err != nil {
		return geo.Coordinate{}, fmt.Errorf("nav: parse longitude: %w", err)
	}
	return geo.Coordinate{Lat: lat, Lng: lng}, nil
}

type reverseResult struct {
	DisplayName string `json:"display_name"`
}

// ReverseGeocode resolves a coordinate to a human-readable address.
func (g *Geocoder) ReverseGeocode(ctx context.Context, position geo.Coordinate) (string, error) {
	if g == nil {
		return "", errors.New("nav: geocoder not configured")
	}

	query := url.Values{}
	query.Set("format", "json")
	query.Set("lat", strconv.FormatFloat(position.Lat, 'f', -1, 64))
	query.Set("lon", strconv.FormatFloat(position.Lng, 'f', -1, 64))

	var result reverseResult
	if err := g.get(ctx, "/reverse", query, &result); err != nil {
		return "", err
	}
	if result.DisplayName == "" {
		return "", ErrNotFound
	}
	return result.DisplayName, nil
}

// get performs a JSON GET against the Nominatim instance.
func (g *Geocoder) get(ctx context.Context, path string, query url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+path+"?"+query.Encode(), nil)
	if err != nil {
		return fmt.Errorf("nav: build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("nav: geocoder request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		if g.logger != nil {
			g.logger.Warn("geocoder returned non-200",
				logging.String("path", path),
				logging.Int("status", resp.StatusCode),
			)
		}
		return fmt.Errorf("nav: geocoder status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("nav: decode geocoder response: %w", err)
	}
	return nil
}
