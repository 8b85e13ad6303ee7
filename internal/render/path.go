package render

import (
	"image"
	"image/color"
	"math"
)

// DefaultDashLength is the length in pixels of each drawn and skipped
// piece of the mower trail.
const DefaultDashLength = 10.0

// DashPoints walks from p1 toward p2 in dashLength steps and returns the
// visited points: p1 first, then one point per full step, then p2, always,
// even when the last step would overshoot. Drawing the pairs (0,1), (2,3)
// and so on of the result gives a dashed stroke.
func DashPoints(p1, p2 image.Point, dashLength float64) []image.Point {
	points := []image.Point{p1}

	dist := math.Hypot(float64(p2.X-p1.X), float64(p2.Y-p1.Y))
	if dashLength <= 0 || dist == 0 {
		return append(points, p2)
	}

	// The cursor stays in float space so step error does not accumulate
	// through the integer points handed back.
	cx, cy := float64(p1.X), float64(p1.Y)
	tx, ty := float64(p2.X), float64(p2.Y)

	dashes := int(dist / dashLength)
	for i := 0; i < dashes; i++ {
		nx, ny := cx-tx, cy-ty
		norm := math.Hypot(nx, ny)
		if norm == 0 {
			break
		}
		cx -= dashLength * nx / norm
		cy -= dashLength * ny / norm
		points = append(points, image.Point{X: int(math.Round(cx)), Y: int(math.Round(cy))})
	}
	return append(points, p2)
}

// drawDashedLine strokes one trail segment as alternating dashes.
func drawDashedLine(img *image.RGBA, p1, p2 image.Point, c color.Color, width int) {
	points := DashPoints(p1, p2, DefaultDashLength)
	for i := 0; i+1 < len(points); i += 2 {
		drawLine(img, points[i], points[i+1], c, width)
	}
}
