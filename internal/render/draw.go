package render

import (
	"image"
	"image/color"
	"image/draw"
	"sort"
)

// setPixel writes one pixel, ignoring coordinates off the raster.
func setPixel(img *image.RGBA, x, y int, c color.Color) {
	if !(image.Point{X: x, Y: y}).In(img.Bounds()) {
		return
	}
	img.Set(x, y, c)
}

// drawLine rasterizes a segment with Bresenham stepping. width 2 thickens
// the stroke by repeating it one pixel right and one pixel down.
func drawLine(img *image.RGBA, p1, p2 image.Point, c color.Color, width int) {
	x1, y1 := p1.X, p1.Y
	x2, y2 := p2.X, p2.Y

	dx := absInt(x2 - x1)
	dy := -absInt(y2 - y1)
	sx, sy := 1, 1
	if x1 > x2 {
		sx = -1
	}
	if y1 > y2 {
		sy = -1
	}
	err := dx + dy

	for {
		setPixel(img, x1, y1, c)
		if width > 1 {
			setPixel(img, x1+1, y1, c)
			setPixel(img, x1, y1+1, c)
		}
		if x1 == x2 && y1 == y2 {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x1 += sx
		}
		if e2 <= dx {
			err += dx
			y1 += sy
		}
	}
}

// drawDot fills a disc, the position marker when no mower icon is set.
func drawDot(img *image.RGBA, center image.Point, radius int, c color.Color) {
	for y := center.Y - radius; y <= center.Y+radius; y++ {
		for x := center.X - radius; x <= center.X+radius; x++ {
			dx, dy := x-center.X, y-center.Y
			if dx*dx+dy*dy <= radius*radius {
				setPixel(img, x, y, c)
			}
		}
	}
}

// fillPolygon paints the interior of a pixel ring using even-odd scanline
// crossings. The ring is open; the closing edge is implied.
func fillPolygon(img *image.RGBA, ring []image.Point, c color.Color) {
	if len(ring) < 3 {
		return
	}

	minY, maxY := ring[0].Y, ring[0].Y
	for _, p := range ring[1:] {
		if p.Y < minY {
			minY = p.Y
		}
		if p.Y > maxY {
			maxY = p.Y
		}
	}
	b := img.Bounds()
	if minY < b.Min.Y {
		minY = b.Min.Y
	}
	if maxY > b.Max.Y-1 {
		maxY = b.Max.Y - 1
	}

	for y := minY; y <= maxY; y++ {
		var xs []int
		j := len(ring) - 1
		for i := 0; i < len(ring); i++ {
			yi, yj := ring[i].Y, ring[j].Y
			if (yi <= y && yj > y) || (yj <= y && yi > y) {
				t := float64(y-yi) / float64(yj-yi)
				xs = append(xs, ring[i].X+int(t*float64(ring[j].X-ring[i].X)))
			}
			j = i
		}
		sort.Ints(xs)
		for k := 0; k+1 < len(xs); k += 2 {
			for x := xs[k]; x <= xs[k+1]; x++ {
				setPixel(img, x, y, c)
			}
		}
	}
}

// strokePolygon outlines the ring, closing the last vertex to the first.
func strokePolygon(img *image.RGBA, ring []image.Point, c color.Color, width int) {
	for i := range ring {
		drawLine(img, ring[i], ring[(i+1)%len(ring)], c, width)
	}
}

// cloneRGBA copies a raster, the per-frame working canvas.
func cloneRGBA(src *image.RGBA) *image.RGBA {
	dst := image.NewRGBA(src.Bounds())
	copy(dst.Pix, src.Pix)
	return dst
}

// toRGBA converts any decoded image into a drawable RGBA raster.
func toRGBA(src image.Image) *image.RGBA {
	if rgba, ok := src.(*image.RGBA); ok {
		return rgba
	}
	dst := image.NewRGBA(src.Bounds())
	draw.Draw(dst, dst.Bounds(), src, src.Bounds().Min, draw.Src)
	return dst
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
