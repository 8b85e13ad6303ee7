package zone

import (
	"fmt"
	"sort"

	"github.com/dhconnelly/rtreego"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"

	"mowmap/internal/domain"
)

const (
	dimensions  = 2
	minChildren = 25
	maxChildren = 50

	// pointTolerance sizes the query rectangle around a position and pads
	// degenerate bounding boxes; rtreego rejects zero-length extents.
	pointTolerance = 1e-9
)

// entry is one indexed zone with its precomputed search geometry.
type entry struct {
	zone *Zone
	ring orb.Ring
	rect *rtreego.Rect
	seq  int
}

func (e *entry) Bounds() *rtreego.Rect {
	return e.rect
}

// Index answers point-in-zone queries for a fixed zone table. An R-tree
// over the zone bounding boxes prunes candidates before the exact ring
// test. The index is immutable after New and safe for concurrent use.
type Index struct {
	entries []*entry // configuration order
	tree    *rtreego.Rtree
}

// NewIndex validates the zones and builds the search structures.
func NewIndex(zones []Zone) (*Index, error) {
	idx := &Index{tree: rtreego.NewTree(dimensions, minChildren, maxChildren)}

	for i := range zones {
		z := zones[i]
		if err := z.Validate(); err != nil {
			return nil, err
		}

		ring := z.orbRing()
		rect, err := boundRect(ring)
		if err != nil {
			return nil, fmt.Errorf("zone %q: %w", z.Name, err)
		}

		e := &entry{zone: &z, ring: ring, rect: rect, seq: i}
		idx.tree.Insert(e)
		idx.entries = append(idx.entries, e)
	}
	return idx, nil
}

// Locate classifies a position for one mower. A docked mower with a
// configured home position is always Home regardless of its GPS fix,
// since fixes wander around the charging pad. Otherwise the first zone in
// configuration order whose boundary or interior holds the point wins,
// and Unknown is the fallback.
func (idx *Index) Locate(p domain.GeoPoint, mowerID string, home *domain.GeoPoint, atHome bool) domain.ZoneResult {
	if atHome && home != nil {
		return domain.ZoneHome
	}

	query := rtreego.Point{p.Lat, p.Lon}
	hits := idx.tree.SearchIntersect(query.ToRect(pointTolerance))

	candidates := make([]*entry, 0, len(hits))
	for _, hit := range hits {
		e := hit.(*entry)
		if e.zone.AppliesTo(mowerID) {
			candidates = append(candidates, e)
		}
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].seq < candidates[j].seq })

	for _, e := range candidates {
		if planar.RingContains(e.ring, p.Point()) {
			return domain.ZoneResult{Name: e.zone.Name, ID: e.zone.ID}
		}
	}
	return domain.ZoneUnknown
}

// Zones returns the zones owned by the given mower, in configuration
// order. An empty mower id returns all zones.
func (idx *Index) Zones(mowerID string) []Zone {
	out := make([]Zone, 0, len(idx.entries))
	for _, e := range idx.entries {
		if mowerID != "" && !e.zone.AppliesTo(mowerID) {
			continue
		}
		out = append(out, *e.zone)
	}
	return out
}

// Len returns the number of indexed zones.
func (idx *Index) Len() int {
	return len(idx.entries)
}

// boundRect computes the R-tree rectangle for a ring, padding flat axes.
func boundRect(ring orb.Ring) (*rtreego.Rect, error) {
	b := ring.Bound()
	dLat := b.Max.Lat() - b.Min.Lat()
	dLon := b.Max.Lon() - b.Min.Lon()
	if dLat <= 0 {
		dLat = pointTolerance
	}
	if dLon <= 0 {
		dLon = pointTolerance
	}
	return rtreego.NewRect(rtreego.Point{b.Min.Lat(), b.Min.Lon()}, []float64{dLat, dLon})
}
