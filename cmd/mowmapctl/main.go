package main

import (
	"fmt"
	"image"
	"os"
	"time"

	_ "image/jpeg"
	_ "image/png"

	"github.com/spf13/cobra"

	"mowmap/internal/config"
	"mowmap/internal/domain"
	"mowmap/internal/projection"
	"mowmap/internal/render"
	"mowmap/internal/zone"
)

var (
	profilePath string
	mowerID     string
	renderOut   string
)

var rootCmd = &cobra.Command{
	Use:   "mowmapctl",
	Short: "Inspect and exercise a mowmap garden profile offline",
	Long: `mowmapctl loads the same profile the server uses and runs single
operations against it: validate the profile, project coordinates onto the
map raster, resolve zones, or render a frame to a file.`,
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the profile and its map assets",
	Run:   runValidate,
}

var projectCmd = &cobra.Command{
	Use:   "project <lat,lon> [<lat,lon>...]",
	Short: "Project coordinates onto a mower's map raster",
	Args:  cobra.MinimumNArgs(1),
	Run:   runProject,
}

var locateCmd = &cobra.Command{
	Use:   "locate <lat,lon> [<lat,lon>...]",
	Short: "Resolve which zone contains each position",
	Args:  cobra.MinimumNArgs(1),
	Run:   runLocate,
}

var renderCmd = &cobra.Command{
	Use:   "render <lat,lon> [<lat,lon>...]",
	Short: "Render a frame from the given trail, most recent first",
	Args:  cobra.MinimumNArgs(1),
	Run:   runRender,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&profilePath, "profile", "p", os.Getenv("MOWMAP_PROFILE"), "Profile file path")
	rootCmd.PersistentFlags().StringVarP(&mowerID, "mower", "m", "", "Mower id (optional when the profile has exactly one)")

	renderCmd.Flags().StringVarP(&renderOut, "out", "o", "map.png", "Output PNG path")

	rootCmd.AddCommand(validateCmd, projectCmd, locateCmd, renderCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, "error:", err)
	os.Exit(1)
}

func loadProfile() *config.ResolvedProfile {
	if profilePath == "" {
		fatal(fmt.Errorf("no profile: pass --profile or set MOWMAP_PROFILE"))
	}
	profile, err := config.LoadProfile(profilePath)
	if err != nil {
		fatal(err)
	}
	return profile
}

func selectMower(profile *config.ResolvedProfile) config.ResolvedMower {
	if mowerID != "" {
		m, ok := profile.Mowers[mowerID]
		if !ok {
			fatal(fmt.Errorf("mower %q not in profile", mowerID))
		}
		return m
	}
	if len(profile.Mowers) == 1 {
		for _, m := range profile.Mowers {
			return m
		}
	}
	fatal(fmt.Errorf("profile has %d mowers, pick one with --mower", len(profile.Mowers)))
	return config.ResolvedMower{}
}

func parseArgs(args []string) []domain.GeoPoint {
	points := make([]domain.GeoPoint, 0, len(args))
	for _, arg := range args {
		p, err := domain.ParsePoint(arg, nil)
		if err != nil {
			fatal(err)
		}
		points = append(points, p)
	}
	return points
}

func imageSize(path string) (int, int) {
	f, err := os.Open(path)
	if err != nil {
		fatal(err)
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		fatal(fmt.Errorf("decoding %s: %w", path, err))
	}
	return cfg.Width, cfg.Height
}

func runValidate(cmd *cobra.Command, args []string) {
	profile := loadProfile()

	fmt.Printf("profile OK: %d mowers, %d zones\n", len(profile.Mowers), len(profile.Zones))
	for id, m := range profile.Mowers {
		w, h := imageSize(m.Map.ImagePath)
		fmt.Printf("  mower %s (%s): map %s %dx%d, projection %s\n",
			id, m.Name, m.Map.ImagePath, w, h, m.Map.Mode)
		if m.Map.Home != nil {
			fmt.Printf("    home: %s\n", m.Map.Home)
		}
	}
	for _, z := range profile.Zones {
		fmt.Printf("  zone %s (%q): %d points, mowers %v\n", z.ID, z.Name, len(z.Ring), z.Mowers)
	}
}

func runProject(cmd *cobra.Command, args []string) {
	profile := loadProfile()
	m := selectMower(profile)

	w, h := imageSize(m.Map.ImagePath)
	proj, err := projection.New(m.Map.Mode, m.Map.TopLeft, m.Map.BottomRight, w, h, m.Map.RotationDeg)
	if err != nil {
		fatal(err)
	}

	for _, p := range parseArgs(args) {
		px := proj.Project(p)
		fmt.Printf("%s -> (%d, %d)\n", p.String(), px.X, px.Y)
	}
}

func runLocate(cmd *cobra.Command, args []string) {
	profile := loadProfile()
	m := selectMower(profile)

	idx, err := zone.NewIndex(profile.Zones)
	if err != nil {
		fatal(err)
	}

	for _, p := range parseArgs(args) {
		result := idx.Locate(p, m.ID, nil, false)
		fmt.Printf("%s -> %s (%s)\n", p.String(), result.Name, result.ID)
	}
}

func runRender(cmd *cobra.Command, args []string) {
	profile := loadProfile()
	m := selectMower(profile)

	idx, err := zone.NewIndex(profile.Zones)
	if err != nil {
		fatal(err)
	}

	renderer, err := render.NewRenderer(render.Config{
		MapImagePath: m.Map.ImagePath,
		IconPath:     m.Map.IconPath,
		TopLeft:      m.Map.TopLeft,
		BottomRight:  m.Map.BottomRight,
		RotationDeg:  m.Map.RotationDeg,
		Mode:         m.Map.Mode,
		PathColor:    m.Map.PathColor,
		Home:         m.Map.Home,
		Zones:        idx.Zones(m.ID),
	})
	if err != nil {
		fatal(err)
	}

	trail := parseArgs(args)
	frame, info, _, err := renderer.Render(trail, trail[0], false, time.Now())
	if err != nil {
		fatal(err)
	}

	if err := os.WriteFile(renderOut, frame, 0o644); err != nil {
		fatal(err)
	}
	fmt.Printf("wrote %s (%d bytes, %d trail points)\n", renderOut, info.SizeBytes, len(trail))
}
