package domain

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
)

// Coordinate validation errors. Callers match them with errors.Is to map
// a failure onto the offending config field or payload element.
var (
	ErrPointFormat  = errors.New("coordinate must be \"lat,lon\"")
	ErrPointNumeric = errors.New("coordinate is not numeric")
	ErrPointRange   = errors.New("coordinate out of range")
)

// wgs84 is the legal envelope for any latitude/longitude input.
var wgs84 = orb.Bound{Min: orb.Point{-180, -90}, Max: orb.Point{180, 90}}

// GeoPoint is a validated WGS84 position.
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Point returns the orb representation, x=longitude y=latitude.
func (p GeoPoint) Point() orb.Point {
	return orb.Point{p.Lon, p.Lat}
}

func (p GeoPoint) String() string {
	return FormatPoint(p)
}

// FormatPoint renders the "lat,lon" wire form. ParsePoint inverts it
// exactly: the shortest float representation round-trips bit for bit.
func FormatPoint(p GeoPoint) string {
	return strconv.FormatFloat(p.Lat, 'f', -1, 64) + "," + strconv.FormatFloat(p.Lon, 'f', -1, 64)
}

// ParsePoint parses a "lat,lon" pair and validates it. bounds narrows the
// acceptable region beyond the WGS84 envelope; nil means no extra limit.
func ParsePoint(text string, bounds *orb.Bound) (GeoPoint, error) {
	parts := strings.Split(text, ",")
	if len(parts) != 2 {
		return GeoPoint{}, fmt.Errorf("%w: %q has %d fields", ErrPointFormat, text, len(parts))
	}

	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return GeoPoint{}, fmt.Errorf("%w: latitude %q", ErrPointNumeric, strings.TrimSpace(parts[0]))
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return GeoPoint{}, fmt.Errorf("%w: longitude %q", ErrPointNumeric, strings.TrimSpace(parts[1]))
	}

	p := GeoPoint{Lat: lat, Lon: lon}
	if err := p.Validate(bounds); err != nil {
		return GeoPoint{}, err
	}
	return p, nil
}

// Validate checks the WGS84 envelope, rejects the 0,0 null-island fix that
// GPS modules emit before their first lock, and applies the optional
// region bound.
func (p GeoPoint) Validate(bounds *orb.Bound) error {
	if !wgs84.Contains(p.Point()) {
		return fmt.Errorf("%w: %s outside WGS84", ErrPointRange, FormatPoint(p))
	}
	if p.Lat == 0 && p.Lon == 0 {
		return fmt.Errorf("%w: 0,0 is not a real fix", ErrPointRange)
	}
	if bounds != nil && !bounds.Contains(p.Point()) {
		return fmt.Errorf("%w: %s outside configured region", ErrPointRange, FormatPoint(p))
	}
	return nil
}

// ParseRing parses a ";"-separated list of "lat,lon" pairs, the form zone
// boundaries take in the profile.
func ParseRing(text string, bounds *orb.Bound) ([]GeoPoint, error) {
	raw := strings.Split(text, ";")
	ring := make([]GeoPoint, 0, len(raw))
	for i, part := range raw {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		p, err := ParsePoint(part, bounds)
		if err != nil {
			return nil, fmt.Errorf("point %d: %w", i+1, err)
		}
		ring = append(ring, p)
	}
	return ring, nil
}
