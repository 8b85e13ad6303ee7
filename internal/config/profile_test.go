package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"mowmap/internal/domain"
	"mowmap/internal/projection"
	"mowmap/internal/zone"
)

const validProfile = `
mowers:
  mower-1:
    name: Rasenbot
    map:
      image: garden.png
      icon: icon.png
      top_left: "52.0,13.0"
      bottom_right: "51.99,13.02"
      rotation: 10
      projection: linear
      path_color: [0, 0, 255]
      home: "51.9951,13.0185"
  mower-2:
    map:
      image: garden.png
      top_left: "52.0,13.0"
      bottom_right: "51.99,13.02"
zones:
  - name: Front Lawn
    coordinates: "51.9965,13.005;51.9965,13.0115;51.9935,13.0115;51.9935,13.005"
    color: [0, 255, 0]
    mowers: [mower-1]
  - name: Back Yard
    coordinates: "51.997,13.012;51.997,13.018;51.993,13.018;51.993,13.012"
    color: [255, 255, 0]
    display: false
    mowers: [mower-1, mower-2]
`

func writeProfile(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	for _, asset := range []string{"garden.png", "icon.png"} {
		if err := os.WriteFile(filepath.Join(dir, asset), []byte("img"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	path := filepath.Join(dir, "profile.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadProfile(t *testing.T) {
	path := writeProfile(t, validProfile)

	resolved, err := LoadProfile(path)
	if err != nil {
		t.Fatalf("LoadProfile() error = %v", err)
	}

	if len(resolved.Mowers) != 2 {
		t.Fatalf("got %d mowers, want 2", len(resolved.Mowers))
	}

	m1 := resolved.Mowers["mower-1"]
	if m1.Name != "Rasenbot" {
		t.Errorf("mower-1 name = %q, want Rasenbot", m1.Name)
	}
	if m1.Map.Mode != projection.ModeLinear {
		t.Errorf("mower-1 mode = %v, want linear", m1.Map.Mode)
	}
	if m1.Map.PathColor != [3]uint8{0, 0, 255} {
		t.Errorf("mower-1 path color = %v", m1.Map.PathColor)
	}
	if m1.Map.Home == nil {
		t.Error("mower-1 home not resolved")
	}
	wantImage := filepath.Join(filepath.Dir(path), "garden.png")
	if m1.Map.ImagePath != wantImage {
		t.Errorf("mower-1 image = %q, want %q", m1.Map.ImagePath, wantImage)
	}

	m2 := resolved.Mowers["mower-2"]
	if m2.Name != "mower-2" {
		t.Errorf("mower-2 name = %q, want id fallback", m2.Name)
	}
	if m2.Map.Mode != projection.ModeGeodesic {
		t.Errorf("mower-2 mode = %v, want geodesic default", m2.Map.Mode)
	}
	if m2.Map.PathColor != defaultPathColor {
		t.Errorf("mower-2 path color = %v, want default", m2.Map.PathColor)
	}
	if m2.Map.Home != nil {
		t.Error("mower-2 home should be nil")
	}

	if len(resolved.Zones) != 2 {
		t.Fatalf("got %d zones, want 2", len(resolved.Zones))
	}
	if resolved.Zones[0].ID != "front_lawn" || resolved.Zones[1].ID != "back_yard" {
		t.Errorf("zone order = %q, %q", resolved.Zones[0].ID, resolved.Zones[1].ID)
	}
	if !resolved.Zones[0].Display {
		t.Error("front_lawn should default to displayed")
	}
	if resolved.Zones[1].Display {
		t.Error("back_yard display=false not honored")
	}
}

func TestLoadProfileMissingFile(t *testing.T) {
	if _, err := LoadProfile(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing profile")
	}
}

func TestResolveCollectsAllErrors(t *testing.T) {
	path := writeProfile(t, `
mowers:
  mower-1:
    map:
      image: missing.png
      top_left: "not-a-point"
      bottom_right: "51.99,13.02"
      path_color: [300, 0, 0]
zones:
  - name: ""
    coordinates: "51.9965,13.005;51.9965,13.0115"
    mowers: [ghost]
`)

	_, err := LoadProfile(path)
	if err == nil {
		t.Fatal("expected validation errors")
	}
	if !errors.Is(err, domain.ErrPointFormat) {
		t.Errorf("missing point format error in %v", err)
	}
	if !errors.Is(err, zone.ErrColor) {
		t.Errorf("missing color error in %v", err)
	}
	if !errors.Is(err, zone.ErrPolygon) {
		t.Errorf("missing polygon error in %v", err)
	}
	for _, want := range []string{"missing.png", "unknown mower", "color: required", "name: required"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %v missing %q", err, want)
		}
	}
}

func TestResolveDuplicateZone(t *testing.T) {
	path := writeProfile(t, `
mowers:
  mower-1:
    map:
      image: garden.png
      top_left: "52.0,13.0"
      bottom_right: "51.99,13.02"
zones:
  - name: Front Lawn
    coordinates: "51.9965,13.005;51.9965,13.0115;51.9935,13.0115;51.9935,13.005"
    color: [0, 255, 0]
    mowers: [mower-1]
  - name: front lawn
    coordinates: "51.9965,13.005;51.9965,13.0115;51.9935,13.0115;51.9935,13.005"
    color: [0, 255, 0]
    mowers: [mower-1]
`)

	_, err := LoadProfile(path)
	if err == nil || !strings.Contains(err.Error(), "duplicate zone id") {
		t.Fatalf("expected duplicate zone error, got %v", err)
	}
}

func TestResolveRegionBound(t *testing.T) {
	path := writeProfile(t, `
region:
  top_left: "53.0,12.0"
  bottom_right: "51.0,14.0"
mowers:
  mower-1:
    map:
      image: garden.png
      top_left: "52.0,13.0"
      bottom_right: "51.99,13.02"
      home: "40.0,13.0"
`)

	_, err := LoadProfile(path)
	if !errors.Is(err, domain.ErrPointRange) {
		t.Fatalf("expected out-of-region error, got %v", err)
	}
}

func TestResolveRegionHalfSet(t *testing.T) {
	path := writeProfile(t, `
region:
  top_left: "53.0,12.0"
mowers:
  mower-1:
    map:
      image: garden.png
      top_left: "52.0,13.0"
      bottom_right: "51.99,13.02"
`)

	_, err := LoadProfile(path)
	if err == nil || !strings.Contains(err.Error(), "must be set together") {
		t.Fatalf("expected half-set region error, got %v", err)
	}
}

func TestResolveNoMowers(t *testing.T) {
	path := writeProfile(t, "zones: []\n")

	_, err := LoadProfile(path)
	if err == nil || !strings.Contains(err.Error(), "at least one mower") {
		t.Fatalf("expected no-mower error, got %v", err)
	}
}
