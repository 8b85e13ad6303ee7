package zone

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/paulmach/orb"

	"mowmap/internal/domain"
)

// Zone configuration errors, matched with errors.Is.
var (
	ErrPolygon = errors.New("zone polygon needs at least 4 points")
	ErrColor   = errors.New("zone color component out of range")
)

// Zone is a named geofence in geographic coordinates. A point query
// matches zones in their configuration order, so overlapping zones
// resolve deterministically to the one declared first.
type Zone struct {
	ID      string            `json:"id"`
	Name    string            `json:"name"`
	Ring    []domain.GeoPoint `json:"ring"`
	Color   [3]uint8          `json:"color"`
	Display bool              `json:"display"`
	Mowers  []string          `json:"mowers"`
}

// Slug derives a zone id from its display name: lowercased, trimmed,
// spaces turned into underscores.
func Slug(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), " ", "_")
}

// ValidateColor checks a raw RGB triple from the profile.
func ValidateColor(rgb []int) error {
	if len(rgb) != 3 {
		return fmt.Errorf("%w: want 3 components, got %d", ErrColor, len(rgb))
	}
	for _, c := range rgb {
		if c < 0 || c > 255 {
			return fmt.Errorf("%w: %d", ErrColor, c)
		}
	}
	return nil
}

// Validate enforces the polygon shape invariant.
func (z *Zone) Validate() error {
	if len(z.Ring) < 4 {
		return fmt.Errorf("%w: %q has %d", ErrPolygon, z.Name, len(z.Ring))
	}
	return nil
}

// AppliesTo reports whether the zone belongs to the given mower.
func (z *Zone) AppliesTo(mowerID string) bool {
	return slices.Contains(z.Mowers, mowerID)
}

// orbRing converts the boundary for the exact containment test. The ring
// stays open; the closing segment back to the first vertex is implied.
func (z *Zone) orbRing() orb.Ring {
	ring := make(orb.Ring, 0, len(z.Ring))
	for _, p := range z.Ring {
		ring = append(ring, p.Point())
	}
	return ring
}
