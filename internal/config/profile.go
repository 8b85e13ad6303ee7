package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/paulmach/orb"
	"github.com/spf13/viper"

	"mowmap/internal/domain"
	"mowmap/internal/projection"
	"mowmap/internal/zone"
)

// Profile is the raw garden configuration file: per-mower map calibration
// plus the zone table. Zones are a list so their order is preserved;
// lookup order decides which zone wins when polygons overlap.
type Profile struct {
	Region RegionProfile           `mapstructure:"region"`
	Mowers map[string]MowerProfile `mapstructure:"mowers"`
	Zones  []ZoneProfile           `mapstructure:"zones"`
}

// RegionProfile optionally narrows the acceptable coordinate envelope
// beyond WGS84. Fat-fingered coordinates on the other side of the planet
// fail fast instead of rendering off-canvas.
type RegionProfile struct {
	TopLeft     string `mapstructure:"top_left"`
	BottomRight string `mapstructure:"bottom_right"`
}

type MowerProfile struct {
	Name string     `mapstructure:"name"`
	Map  MapProfile `mapstructure:"map"`
}

type MapProfile struct {
	Image       string  `mapstructure:"image"`
	Icon        string  `mapstructure:"icon"`
	TopLeft     string  `mapstructure:"top_left"`
	BottomRight string  `mapstructure:"bottom_right"`
	Rotation    float64 `mapstructure:"rotation"`
	Projection  string  `mapstructure:"projection"`
	PathColor   []int   `mapstructure:"path_color"`
	Home        string  `mapstructure:"home"`
}

type ZoneProfile struct {
	Name        string   `mapstructure:"name"`
	Coordinates string   `mapstructure:"coordinates"`
	Color       []int    `mapstructure:"color"`
	Display     *bool    `mapstructure:"display"`
	Mowers      []string `mapstructure:"mowers"`
}

// ResolvedProfile is the validated, typed form of a profile.
type ResolvedProfile struct {
	Region *orb.Bound
	Mowers map[string]ResolvedMower
	Zones  []zone.Zone
}

type ResolvedMower struct {
	ID   string
	Name string
	Map  ResolvedMap
}

type ResolvedMap struct {
	ImagePath   string
	IconPath    string
	TopLeft     domain.GeoPoint
	BottomRight domain.GeoPoint
	RotationDeg float64
	Mode        projection.Mode
	PathColor   [3]uint8
	Home        *domain.GeoPoint
}

// defaultPathColor is the trail color when a mower map does not set one.
var defaultPathColor = [3]uint8{255, 0, 0}

// LoadProfile reads and validates a profile file. Relative asset paths
// resolve against the profile's directory.
func LoadProfile(path string) (*ResolvedProfile, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading profile: %w", err)
	}

	var p Profile
	if err := v.Unmarshal(&p); err != nil {
		return nil, fmt.Errorf("parsing profile: %w", err)
	}
	return p.Resolve(filepath.Dir(path))
}

// Resolve validates the raw profile and produces typed values. All
// problems are reported at once, joined into a single error.
func (p *Profile) Resolve(baseDir string) (*ResolvedProfile, error) {
	var errs []error

	resolved := &ResolvedProfile{Mowers: make(map[string]ResolvedMower, len(p.Mowers))}

	if (p.Region.TopLeft == "") != (p.Region.BottomRight == "") {
		errs = append(errs, errors.New("region: top_left and bottom_right must be set together"))
	} else if p.Region.TopLeft != "" {
		tl, err1 := domain.ParsePoint(p.Region.TopLeft, nil)
		br, err2 := domain.ParsePoint(p.Region.BottomRight, nil)
		if err1 != nil {
			errs = append(errs, fmt.Errorf("region.top_left: %w", err1))
		}
		if err2 != nil {
			errs = append(errs, fmt.Errorf("region.bottom_right: %w", err2))
		}
		if err1 == nil && err2 == nil {
			bound := orb.MultiPoint{tl.Point(), br.Point()}.Bound()
			resolved.Region = &bound
		}
	}

	if len(p.Mowers) == 0 {
		errs = append(errs, errors.New("mowers: at least one mower is required"))
	}

	for id, mp := range p.Mowers {
		rm, merrs := resolveMower(id, mp, baseDir, resolved.Region)
		if len(merrs) > 0 {
			errs = append(errs, merrs...)
			continue
		}
		resolved.Mowers[id] = rm
	}

	seen := make(map[string]bool, len(p.Zones))
	for i, zp := range p.Zones {
		z, zerrs := resolveZone(i, zp, resolved.Region, p.Mowers)
		if len(zerrs) > 0 {
			errs = append(errs, zerrs...)
			continue
		}
		if seen[z.ID] {
			errs = append(errs, fmt.Errorf("zones[%d]: duplicate zone id %q", i, z.ID))
			continue
		}
		seen[z.ID] = true
		resolved.Zones = append(resolved.Zones, z)
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("invalid profile: %w", errors.Join(errs...))
	}
	return resolved, nil
}

func resolveMower(id string, mp MowerProfile, baseDir string, region *orb.Bound) (ResolvedMower, []error) {
	var errs []error

	rm := ResolvedMower{ID: id, Name: mp.Name}
	if rm.Name == "" {
		rm.Name = id
	}

	if mp.Map.Image == "" {
		errs = append(errs, fmt.Errorf("mowers.%s.map.image: required", id))
	} else {
		rm.Map.ImagePath = resolvePath(baseDir, mp.Map.Image)
		if _, err := os.Stat(rm.Map.ImagePath); err != nil {
			errs = append(errs, fmt.Errorf("mowers.%s.map.image: %w", id, err))
		}
	}

	if mp.Map.Icon != "" {
		rm.Map.IconPath = resolvePath(baseDir, mp.Map.Icon)
		if _, err := os.Stat(rm.Map.IconPath); err != nil {
			errs = append(errs, fmt.Errorf("mowers.%s.map.icon: %w", id, err))
		}
	}

	tl, err := domain.ParsePoint(mp.Map.TopLeft, region)
	if err != nil {
		errs = append(errs, fmt.Errorf("mowers.%s.map.top_left: %w", id, err))
	}
	br, err := domain.ParsePoint(mp.Map.BottomRight, region)
	if err != nil {
		errs = append(errs, fmt.Errorf("mowers.%s.map.bottom_right: %w", id, err))
	}
	rm.Map.TopLeft, rm.Map.BottomRight = tl, br

	mode, err := projection.ParseMode(mp.Map.Projection)
	if err != nil {
		errs = append(errs, fmt.Errorf("mowers.%s.map.projection: %w", id, err))
	}
	rm.Map.Mode = mode
	rm.Map.RotationDeg = mp.Map.Rotation

	rm.Map.PathColor = defaultPathColor
	if mp.Map.PathColor != nil {
		if err := zone.ValidateColor(mp.Map.PathColor); err != nil {
			errs = append(errs, fmt.Errorf("mowers.%s.map.path_color: %w", id, err))
		} else {
			rm.Map.PathColor = toRGB(mp.Map.PathColor)
		}
	}

	if mp.Map.Home != "" {
		home, err := domain.ParsePoint(mp.Map.Home, region)
		if err != nil {
			errs = append(errs, fmt.Errorf("mowers.%s.map.home: %w", id, err))
		} else {
			rm.Map.Home = &home
		}
	}

	return rm, errs
}

func resolveZone(i int, zp ZoneProfile, region *orb.Bound, mowers map[string]MowerProfile) (zone.Zone, []error) {
	var errs []error

	if zp.Name == "" {
		errs = append(errs, fmt.Errorf("zones[%d].name: required", i))
	}

	ring, err := domain.ParseRing(zp.Coordinates, region)
	if err != nil {
		errs = append(errs, fmt.Errorf("zones[%d].coordinates: %w", i, err))
	}

	var color [3]uint8
	if zp.Color == nil {
		errs = append(errs, fmt.Errorf("zones[%d].color: required", i))
	} else if err := zone.ValidateColor(zp.Color); err != nil {
		errs = append(errs, fmt.Errorf("zones[%d].color: %w", i, err))
	} else {
		color = toRGB(zp.Color)
	}

	if len(zp.Mowers) == 0 {
		errs = append(errs, fmt.Errorf("zones[%d].mowers: required", i))
	}
	for _, mowerID := range zp.Mowers {
		if _, ok := mowers[mowerID]; !ok {
			errs = append(errs, fmt.Errorf("zones[%d].mowers: unknown mower %q", i, mowerID))
		}
	}

	z := zone.Zone{
		ID:      zone.Slug(zp.Name),
		Name:    zp.Name,
		Ring:    ring,
		Color:   color,
		Display: zp.Display == nil || *zp.Display,
		Mowers:  zp.Mowers,
	}
	if err == nil {
		if verr := z.Validate(); verr != nil {
			errs = append(errs, fmt.Errorf("zones[%d]: %w", i, verr))
		}
	}

	return z, errs
}

func resolvePath(baseDir, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(baseDir, path)
}

func toRGB(c []int) [3]uint8 {
	return [3]uint8{uint8(c[0]), uint8(c[1]), uint8(c[2])}
}
