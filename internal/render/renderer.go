package render

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"time"

	"mowmap/internal/domain"
	"mowmap/internal/projection"
	"mowmap/internal/zone"
)

// zoneFillAlpha is the opacity of a baked zone interior. Outlines stay
// fully opaque.
const zoneFillAlpha = 25

// markerRadius is the dot drawn when no mower icon is configured.
const markerRadius = 4

// Config calibrates one mower's renderer.
type Config struct {
	MapImagePath string
	IconPath     string // optional; a dot marker is drawn without one
	TopLeft      domain.GeoPoint
	BottomRight  domain.GeoPoint
	RotationDeg  float64
	Mode         projection.Mode
	PathColor    [3]uint8
	Home         *domain.GeoPoint
	Zones        []zone.Zone
}

// Renderer turns a mower's position history into PNG map frames. It keeps
// the frame pacing state and must be driven from a single goroutine;
// finished frames are handed off to the caller for sharing.
type Renderer struct {
	projector projection.Projector
	base      *image.RGBA // display zones baked in at load
	icon      *image.RGBA // nil means dot marker
	pathColor color.RGBA
	home      *domain.GeoPoint

	lastUpdate  time.Time
	interval    int
	avgInterval float64
}

// NewRenderer loads the raster assets, builds the projector and bakes the
// display zones onto the base map. Asset problems are fatal: a map camera
// without its base image serves nothing useful.
func NewRenderer(cfg Config) (*Renderer, error) {
	img, err := loadImage(cfg.MapImagePath)
	if err != nil {
		return nil, err
	}
	base := toRGBA(img)

	projector, err := projection.New(cfg.Mode, cfg.TopLeft, cfg.BottomRight,
		base.Bounds().Dx(), base.Bounds().Dy(), cfg.RotationDeg)
	if err != nil {
		return nil, err
	}

	var icon *image.RGBA
	if cfg.IconPath != "" {
		src, err := loadImage(cfg.IconPath)
		if err != nil {
			return nil, err
		}
		icon = scaleIcon(src)
	}

	r := &Renderer{
		projector: projector,
		base:      base,
		icon:      icon,
		pathColor: color.RGBA{R: cfg.PathColor[0], G: cfg.PathColor[1], B: cfg.PathColor[2], A: 255},
		home:      cfg.Home,
	}
	r.bakeZones(cfg.Zones)
	return r, nil
}

// bakeZones draws the zone overlays once. Every frame starts from the
// result instead of redrawing static geometry.
func (r *Renderer) bakeZones(zones []zone.Zone) {
	for _, z := range zones {
		if !z.Display {
			continue
		}

		ring := make([]image.Point, 0, len(z.Ring))
		for _, p := range z.Ring {
			ring = append(ring, r.projector.Project(p))
		}

		overlay := image.NewRGBA(r.base.Bounds())
		fillPolygon(overlay, ring, color.NRGBA{R: z.Color[0], G: z.Color[1], B: z.Color[2], A: zoneFillAlpha})
		strokePolygon(overlay, ring, color.NRGBA{R: z.Color[0], G: z.Color[1], B: z.Color[2], A: 255}, 1)
		draw.Draw(r.base, r.base.Bounds(), overlay, image.Point{}, draw.Over)
	}
}

// Render produces the next frame. skipped reports that the call landed in
// the same whole second as the previous frame, in which case that frame
// stays current and nothing is drawn. trail is ordered most recent first
// and drawn oldest to newest.
func (r *Renderer) Render(trail []domain.GeoPoint, current domain.GeoPoint, atHome bool, now time.Time) (frame []byte, info domain.FrameInfo, skipped bool, err error) {
	if !r.lastUpdate.IsZero() {
		elapsed := int(now.Sub(r.lastUpdate).Seconds())
		if elapsed == 0 {
			return nil, domain.FrameInfo{}, true, nil
		}
		r.interval = elapsed
		r.avgInterval = (r.avgInterval + float64(elapsed)) / 2
	}

	work := cloneRGBA(r.base)

	for i := len(trail) - 1; i > 0; i-- {
		drawDashedLine(work, r.projector.Project(trail[i]), r.projector.Project(trail[i-1]), r.pathColor, 2)
	}

	// A docked mower is drawn at its configured home position; the GPS
	// fix near the station is too noisy to pin the icon with.
	loc := current
	if atHome && r.home != nil {
		loc = *r.home
	}
	r.placeMarker(work, r.projector.Project(loc))

	var buf bytes.Buffer
	if err := png.Encode(&buf, work); err != nil {
		return nil, domain.FrameInfo{}, false, fmt.Errorf("encoding frame: %w", err)
	}

	r.lastUpdate = now
	return buf.Bytes(), domain.FrameInfo{
		LastUpdate:      now,
		IntervalSeconds: r.interval,
		AverageSeconds:  r.avgInterval,
		SizeBytes:       buf.Len(),
	}, false, nil
}

// placeMarker anchors the icon bottom-center on the position so the mower
// appears to stand on the spot rather than float over it.
func (r *Renderer) placeMarker(img *image.RGBA, at image.Point) {
	if r.icon == nil {
		drawDot(img, at, markerRadius, r.pathColor)
		return
	}

	w, h := r.icon.Bounds().Dx(), r.icon.Bounds().Dy()
	min := image.Point{X: at.X - w/2, Y: at.Y - h}
	draw.Draw(img, image.Rectangle{Min: min, Max: min.Add(image.Point{X: w, Y: h})},
		r.icon, r.icon.Bounds().Min, draw.Over)
}
