package zone

import (
	"errors"
	"testing"

	"mowmap/internal/domain"
)

func frontLawn() Zone {
	return Zone{
		ID:   Slug("Front Lawn"),
		Name: "Front Lawn",
		Ring: []domain.GeoPoint{
			{Lat: 52.001, Lon: 13.000},
			{Lat: 52.001, Lon: 13.010},
			{Lat: 51.999, Lon: 13.010},
			{Lat: 51.999, Lon: 13.000},
		},
		Color:   [3]uint8{124, 252, 0},
		Display: true,
		Mowers:  []string{"mower-1"},
	}
}

func TestLocateFrontLawn(t *testing.T) {
	idx, err := NewIndex([]Zone{frontLawn()})
	if err != nil {
		t.Fatalf("NewIndex: %v", err)
	}

	got := idx.Locate(domain.GeoPoint{Lat: 52.0, Lon: 13.005}, "mower-1", nil, false)
	want := domain.ZoneResult{Name: "Front Lawn", ID: "front_lawn"}
	if got != want {
		t.Errorf("Locate inside = %v, want %v", got, want)
	}

	if got := idx.Locate(domain.GeoPoint{Lat: 52.5, Lon: 13.005}, "mower-1", nil, false); got != domain.ZoneUnknown {
		t.Errorf("Locate outside = %v, want Unknown", got)
	}
}

func TestLocateBoundaryInclusive(t *testing.T) {
	idx, err := NewIndex([]Zone{frontLawn()})
	if err != nil {
		t.Fatalf("NewIndex: %v", err)
	}

	onEdge := domain.GeoPoint{Lat: 52.001, Lon: 13.005}
	if got := idx.Locate(onEdge, "mower-1", nil, false); got.ID != "front_lawn" {
		t.Errorf("point on boundary = %v, want front_lawn", got)
	}

	onVertex := domain.GeoPoint{Lat: 52.001, Lon: 13.010}
	if got := idx.Locate(onVertex, "mower-1", nil, false); got.ID != "front_lawn" {
		t.Errorf("point on vertex = %v, want front_lawn", got)
	}
}

func TestLocateHomePrecedence(t *testing.T) {
	idx, err := NewIndex([]Zone{frontLawn()})
	if err != nil {
		t.Fatalf("NewIndex: %v", err)
	}

	inside := domain.GeoPoint{Lat: 52.0, Lon: 13.005}
	home := domain.GeoPoint{Lat: 52.0, Lon: 13.001}

	// Docked with a home position configured: Home wins over the polygon.
	if got := idx.Locate(inside, "mower-1", &home, true); got != domain.ZoneHome {
		t.Errorf("docked mower = %v, want Home", got)
	}

	// Docked but no home configured: fall through to the polygon test.
	if got := idx.Locate(inside, "mower-1", nil, true); got.ID != "front_lawn" {
		t.Errorf("docked without home = %v, want front_lawn", got)
	}

	// Not docked: polygon membership decides even with home configured.
	if got := idx.Locate(inside, "mower-1", &home, false); got.ID != "front_lawn" {
		t.Errorf("mowing mower = %v, want front_lawn", got)
	}
}

func TestLocateOwnerFiltering(t *testing.T) {
	idx, err := NewIndex([]Zone{frontLawn()})
	if err != nil {
		t.Fatalf("NewIndex: %v", err)
	}

	inside := domain.GeoPoint{Lat: 52.0, Lon: 13.005}
	if got := idx.Locate(inside, "mower-2", nil, false); got != domain.ZoneUnknown {
		t.Errorf("foreign mower matched zone: %v", got)
	}
}

func TestLocateOverlapOrder(t *testing.T) {
	whole := frontLawn()
	inner := Zone{
		ID:   "inner_patch",
		Name: "Inner Patch",
		Ring: []domain.GeoPoint{
			{Lat: 52.0005, Lon: 13.004},
			{Lat: 52.0005, Lon: 13.006},
			{Lat: 51.9995, Lon: 13.006},
			{Lat: 51.9995, Lon: 13.004},
		},
		Mowers: []string{"mower-1"},
	}

	point := domain.GeoPoint{Lat: 52.0, Lon: 13.005}

	idx, err := NewIndex([]Zone{whole, inner})
	if err != nil {
		t.Fatalf("NewIndex: %v", err)
	}
	if got := idx.Locate(point, "mower-1", nil, false); got.ID != "front_lawn" {
		t.Errorf("first configured zone should win, got %v", got)
	}

	reversed, err := NewIndex([]Zone{inner, whole})
	if err != nil {
		t.Fatalf("NewIndex: %v", err)
	}
	if got := reversed.Locate(point, "mower-1", nil, false); got.ID != "inner_patch" {
		t.Errorf("first configured zone should win after reorder, got %v", got)
	}
}

func TestNewIndexRejectsShortRing(t *testing.T) {
	z := frontLawn()
	z.Ring = z.Ring[:3]

	if _, err := NewIndex([]Zone{z}); !errors.Is(err, ErrPolygon) {
		t.Errorf("three-point ring accepted, err = %v", err)
	}
}

func TestZonesFilter(t *testing.T) {
	shared := frontLawn()
	other := frontLawn()
	other.ID = "back_lawn"
	other.Name = "Back Lawn"
	other.Mowers = []string{"mower-2"}

	idx, err := NewIndex([]Zone{shared, other})
	if err != nil {
		t.Fatalf("NewIndex: %v", err)
	}

	if got := idx.Zones("mower-1"); len(got) != 1 || got[0].ID != "front_lawn" {
		t.Errorf("Zones(mower-1) = %v", got)
	}
	if got := idx.Zones(""); len(got) != 2 {
		t.Errorf("Zones(\"\") returned %d zones, want 2", len(got))
	}
	if idx.Len() != 2 {
		t.Errorf("Len() = %d", idx.Len())
	}
}

func TestSlug(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Front Lawn", "front_lawn"},
		{"  Back Garden  ", "back_garden"},
		{"Wildflower Patch North", "wildflower_patch_north"},
		{"home", "home"},
	}
	for _, tt := range tests {
		if got := Slug(tt.in); got != tt.want {
			t.Errorf("Slug(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestValidateColor(t *testing.T) {
	if err := ValidateColor([]int{124, 252, 0}); err != nil {
		t.Errorf("valid color rejected: %v", err)
	}
	for _, rgb := range [][]int{{256, 0, 0}, {-1, 10, 10}, {10, 10}, {1, 2, 3, 4}} {
		if err := ValidateColor(rgb); !errors.Is(err, ErrColor) {
			t.Errorf("ValidateColor(%v) err = %v, want ErrColor", rgb, err)
		}
	}
}
