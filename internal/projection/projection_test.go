package projection

import (
	"errors"
	"image"
	"testing"

	"mowmap/internal/domain"
)

var (
	gardenTL = domain.GeoPoint{Lat: 52.0, Lon: 13.0}
	gardenBR = domain.GeoPoint{Lat: 51.99, Lon: 13.02}
)

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func TestLinearCorners(t *testing.T) {
	p, err := New(ModeLinear, gardenTL, gardenBR, 200, 200, 0)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if got := p.Project(gardenTL); got != (image.Point{X: 0, Y: 0}) {
		t.Errorf("top-left corner = %v, want (0,0)", got)
	}
	if got := p.Project(gardenBR); got != (image.Point{X: 200, Y: 200}) {
		t.Errorf("bottom-right corner = %v, want (200,200)", got)
	}
}

func TestProjectCenterBothModes(t *testing.T) {
	center := domain.GeoPoint{Lat: 51.995, Lon: 13.01}

	for _, mode := range []Mode{ModeLinear, ModeGeodesic} {
		p, err := New(mode, gardenTL, gardenBR, 200, 200, 0)
		if err != nil {
			t.Fatalf("New(%s): %v", mode, err)
		}
		got := p.Project(center)
		if absInt(got.X-100) > 2 || absInt(got.Y-100) > 2 {
			t.Errorf("%s: center projects to %v, want (100,100) within 2px", mode, got)
		}
	}
}

func TestGeodesicAxes(t *testing.T) {
	// Corners chosen so the calibration center sits at 52.0,13.0.
	tl := domain.GeoPoint{Lat: 52.001, Lon: 12.999}
	br := domain.GeoPoint{Lat: 51.999, Lon: 13.001}

	p, err := New(ModeGeodesic, tl, br, 200, 200, 0)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	center := p.Project(domain.GeoPoint{Lat: 52.0, Lon: 13.0})
	if center != (image.Point{X: 100, Y: 100}) {
		t.Fatalf("center projects to %v, want (100,100)", center)
	}

	east := p.Project(domain.GeoPoint{Lat: 52.0, Lon: 13.0005})
	if east.X <= center.X || absInt(east.Y-center.Y) > 1 {
		t.Errorf("point due east projects to %v, want x > %d on the same row", east, center.X)
	}

	north := p.Project(domain.GeoPoint{Lat: 52.0005, Lon: 13.0})
	if north.Y >= center.Y || absInt(north.X-center.X) > 1 {
		t.Errorf("point due north projects to %v, want y < %d on the same column", north, center.Y)
	}
}

func TestGeodesicRotation(t *testing.T) {
	tl := domain.GeoPoint{Lat: 52.001, Lon: 12.999}
	br := domain.GeoPoint{Lat: 51.999, Lon: 13.001}

	p, err := New(ModeGeodesic, tl, br, 200, 200, 90)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	// With the raster turned 90 degrees, east should render downward.
	east := p.Project(domain.GeoPoint{Lat: 52.0, Lon: 13.0005})
	if east.Y <= 100 || absInt(east.X-100) > 1 {
		t.Errorf("east with rotation 90 projects to %v, want y > 100 on the center column", east)
	}
}

func TestDegenerateCalibration(t *testing.T) {
	sameLat := domain.GeoPoint{Lat: 52.0, Lon: 13.02}
	if _, err := New(ModeLinear, gardenTL, sameLat, 200, 200, 0); !errors.Is(err, ErrCalibration) {
		t.Errorf("linear with shared latitude: err = %v, want ErrCalibration", err)
	}

	if _, err := New(ModeGeodesic, gardenTL, gardenTL, 200, 200, 0); !errors.Is(err, ErrCalibration) {
		t.Errorf("geodesic with coinciding corners: err = %v, want ErrCalibration", err)
	}

	if _, err := New(ModeLinear, gardenTL, gardenBR, 0, 200, 0); !errors.Is(err, ErrCalibration) {
		t.Error("zero-width raster accepted")
	}
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		in      string
		want    Mode
		wantErr bool
	}{
		{in: "", want: ModeGeodesic},
		{in: "geodesic", want: ModeGeodesic},
		{in: "linear", want: ModeLinear},
		{in: "mercator", wantErr: true},
	}

	for _, tt := range tests {
		got, err := ParseMode(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseMode(%q) accepted", tt.in)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("ParseMode(%q) = %v, %v; want %v", tt.in, got, err, tt.want)
		}
	}
}

func BenchmarkGeodesicProject(b *testing.B) {
	p, err := New(ModeGeodesic, gardenTL, gardenBR, 800, 600, 15)
	if err != nil {
		b.Fatal(err)
	}
	point := domain.GeoPoint{Lat: 51.995, Lon: 13.011}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		p.Project(point)
	}
}
