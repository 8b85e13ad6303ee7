package projection

import (
	"errors"
	"fmt"
	"image"
	"math"

	"github.com/paulmach/orb/geo"

	"mowmap/internal/domain"
)

// ErrCalibration marks a map calibration that cannot anchor a projection,
// such as reference corners sharing a latitude or longitude.
var ErrCalibration = errors.New("map calibration degenerate")

// Mode selects the projection algorithm.
type Mode string

const (
	// ModeGeodesic projects by distance and bearing from the calibration
	// center. Accurate at any rotation, the default.
	ModeGeodesic Mode = "geodesic"
	// ModeLinear interpolates latitude and longitude independently
	// between the reference corners. Only correct for north-up rasters.
	ModeLinear Mode = "linear"
)

// ParseMode validates a configured mode string. Empty selects geodesic.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeGeodesic, "":
		return ModeGeodesic, nil
	case ModeLinear:
		return ModeLinear, nil
	}
	return "", fmt.Errorf("unknown projection mode %q", s)
}

// Projector maps WGS84 positions onto pixel coordinates of a calibrated
// raster. Implementations are pure: same input, same output, no state.
type Projector interface {
	Project(p domain.GeoPoint) image.Point
}

// New builds a projector for a raster of width x height pixels whose
// top-left and bottom-right corners are anchored at the given positions.
// rotationDeg is how far the raster is turned clockwise from north-up;
// the linear mode ignores it.
func New(mode Mode, topLeft, bottomRight domain.GeoPoint, width, height int, rotationDeg float64) (Projector, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: raster %dx%d", ErrCalibration, width, height)
	}
	switch mode {
	case ModeLinear:
		return newLinear(topLeft, bottomRight, width, height)
	case ModeGeodesic, "":
		return newGeodesic(topLeft, bottomRight, width, height, rotationDeg)
	}
	return nil, fmt.Errorf("unknown projection mode %q", mode)
}

type linear struct {
	topLeft     domain.GeoPoint
	bottomRight domain.GeoPoint
	width       int
	height      int
}

func newLinear(tl, br domain.GeoPoint, width, height int) (*linear, error) {
	if tl.Lat == br.Lat || tl.Lon == br.Lon {
		return nil, fmt.Errorf("%w: corners %s and %s share an axis", ErrCalibration, tl, br)
	}
	return &linear{topLeft: tl, bottomRight: br, width: width, height: height}, nil
}

// Project interpolates longitude to column and latitude to row. Rows grow
// downward while latitude grows northward, so the row axis is inverted:
// the top-left corner lands on (0,0), the bottom-right on (width,height).
func (l *linear) Project(p domain.GeoPoint) image.Point {
	x := (p.Lon - l.topLeft.Lon) * float64(l.width) / (l.bottomRight.Lon - l.topLeft.Lon)
	y := (p.Lat - l.bottomRight.Lat) * float64(l.height) / (l.topLeft.Lat - l.bottomRight.Lat)
	return image.Point{X: int(x), Y: l.height - int(y)}
}

type geodesic struct {
	center         domain.GeoPoint
	centerPx       image.Point
	pixelsPerMeter float64
	rotationDeg    float64
}

func newGeodesic(tl, br domain.GeoPoint, width, height int, rotationDeg float64) (*geodesic, error) {
	cornerMeters := geo.Distance(tl.Point(), br.Point())
	if cornerMeters == 0 {
		return nil, fmt.Errorf("%w: corners %s and %s coincide", ErrCalibration, tl, br)
	}

	mid := geo.Midpoint(tl.Point(), br.Point())
	return &geodesic{
		center:         domain.GeoPoint{Lat: mid.Lat(), Lon: mid.Lon()},
		centerPx:       image.Point{X: width / 2, Y: height / 2},
		pixelsPerMeter: math.Hypot(float64(width), float64(height)) / cornerMeters,
		rotationDeg:    rotationDeg,
	}, nil
}

// Project places the point by its distance and compass bearing from the
// calibration center. Bearing 0 is north but the pixel x axis points
// east, hence the -90 shift before the raster rotation is applied.
func (g *geodesic) Project(p domain.GeoPoint) image.Point {
	meters := geo.Distance(g.center.Point(), p.Point())
	bearing := geo.Bearing(g.center.Point(), p.Point())
	theta := (bearing - 90 + g.rotationDeg) * math.Pi / 180

	px := meters * g.pixelsPerMeter
	return image.Point{
		X: g.centerPx.X + int(math.Round(px*math.Cos(theta))),
		Y: g.centerPx.Y + int(math.Round(px*math.Sin(theta))),
	}
}
