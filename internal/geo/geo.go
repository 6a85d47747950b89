package geo

import "math"

const (
	// MetersPerDegreeLat approximates one degree of latitude anywhere on Earth.
	MetersPerDegreeLat = 111_320.0
	// EarthRadiusKm is the mean Earth radius used by the haversine distance.
	EarthRadiusKm = 6371.0
)

// Coordinate is a WGS84 position in degrees.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// MetersPerDegreeLng returns the longitudinal scale at the given latitude.
func MetersPerDegreeLng(lat float64) float64 {
	return MetersPerDegreeLat * math.Cos(lat*math.Pi/180.0)
}

// NormalizeHeading wraps a heading in degrees into the [0, 360) range.
func NormalizeHeading(heading float64) float64 {
	//1.- Apply the double modulo so large negative headings also land in range.
	wrapped := math.Mod(heading, 360.0)
	if wrapped < 0 {
		wrapped += 360.0
	}
	return wrapped
}

// Displace advances the coordinate by the given distance in meters along a
// compass heading (0 = north, 90 = east). The flat-earth approximation holds
// for the short per-tick distances the simulation produces.
func Displace(origin Coordinate, headingDeg, meters float64) Coordinate {
	//1.- Convert the compass heading to a math angle measured from the east axis.
	bearing := (headingDeg - 90.0) * math.Pi / 180.0
	//2.- Project the travelled distance onto the axes; north is -sin of the math angle.
	latDelta := -meters * math.Sin(bearing) / MetersPerDegreeLat
	lngDelta := meters * math.Cos(bearing) / MetersPerDegreeLng(origin.Lat)
	return Coordinate{Lat: origin.Lat + latDelta, Lng: origin.Lng + lngDelta}
}

// HaversineKm returns the great-circle distance between two coordinates in kilometers.
func HaversineKm(a, b Coordinate) float64 {
	dLat := (b.Lat - a.Lat) * math.Pi / 180.0
	dLng := (b.Lng - a.Lng) * math.Pi / 180.0

	sinLat := math.Sin(dLat / 2)
	sinLng := math.Sin(dLng / 2)
	h := sinLat*sinLat + math.Cos(a.Lat*math.Pi/180.0)*math.Cos(b.Lat*math.Pi/180.0)*sinLng*sinLng

	return EarthRadiusKm * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}
