package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"lightfield-renderer/internal/mathutil"
	"lightfield-renderer/internal/scene"
)

// Names probed by Find, in order.
var defaultNames = []string{"lightfield.toml", "lightfield.json"}

// Config holds the window, rig, depth, capture and scene settings.
type Config struct {
	// Presentation
	Width  int    `json:"width" toml:"width"`
	Height int    `json:"height" toml:"height"`
	VSync  *bool  `json:"vsync,omitempty" toml:"vsync,omitempty"`
	Mode   string `json:"mode" toml:"mode"`

	Grid    GridConfig    `json:"grid" toml:"grid"`
	Camera  CameraConfig  `json:"camera" toml:"camera"`
	Depth   DepthConfig   `json:"depth" toml:"depth"`
	Capture CaptureConfig `json:"capture" toml:"capture"`

	Scene []scene.ObjectDesc `json:"scene" toml:"scene"`

	// BaseDir resolves relative model and texture paths. Load sets it to the
	// directory of the config file.
	BaseDir string `json:"-" toml:"-"`
}

type GridConfig struct {
	// Radius 0 is a single camera, so unset is nil rather than zero.
	Radius  *int    `json:"radius,omitempty" toml:"radius,omitempty"`
	Spacing float64 `json:"spacing" toml:"spacing"`
}

type CameraConfig struct {
	FovY     float64        `json:"fov_y" toml:"fov_y"`
	Near     float64        `json:"near" toml:"near"`
	Far      float64        `json:"far" toml:"far"`
	Position *mathutil.Vec3 `json:"position,omitempty" toml:"position,omitempty"`
	Rotation mathutil.Vec3  `json:"rotation" toml:"rotation"`
}

type DepthConfig struct {
	Gain    float64 `json:"gain" toml:"gain"`
	Epsilon float64 `json:"epsilon" toml:"epsilon"`
}

type CaptureConfig struct {
	Dir            string `json:"dir" toml:"dir"`
	Format         string `json:"format" toml:"format"`
	Quality        int    `json:"quality" toml:"quality"`
	Workers        int    `json:"workers" toml:"workers"`
	NormalizeDepth bool   `json:"normalize_depth" toml:"normalize_depth"`

	// 0 turns the contact sheet off, so unset is nil.
	SheetTile *int `json:"sheet_tile,omitempty" toml:"sheet_tile,omitempty"`
}

// Load reads a JSON or TOML config file, chosen by extension.
// Fields not set in the file keep their zero values.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	var cfg Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		err = toml.Unmarshal(data, &cfg)
	case ".json":
		err = json.Unmarshal(data, &cfg)
	default:
		return Config{}, fmt.Errorf("config: %s: %w", path, ErrUnknownFormat)
	}
	if err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}

	cfg.BaseDir = filepath.Dir(path)
	return cfg, nil
}

// Find looks for a config file next to the executable, then in the working
// directory. It returns "" when there is none.
func Find() string {
	var dirs []string
	if exe, _ := os.Executable(); exe != "" {
		dirs = append(dirs, filepath.Dir(exe))
	}
	if cwd, _ := os.Getwd(); cwd != "" {
		dirs = append(dirs, cwd)
	}
	for _, dir := range dirs {
		for _, name := range defaultNames {
			p := filepath.Join(dir, name)
			if _, err := os.Stat(p); err == nil {
				return p
			}
		}
	}
	return ""
}

// Flags holds CLI flag values that override config file settings.
type Flags struct {
	Width      int
	Height     int
	GridRadius int // negative when unset
	Spacing    float64
	Mode       string
	CaptureDir string
	Format     string
	Quality    int
	Workers    int
	NoVSync    bool
}

// Resolve fills in any empty fields with defaults.
// CLI flags take priority when set.
func (c *Config) Resolve(flags Flags) {
	// CLI flags override config file
	if flags.Width > 0 {
		c.Width = flags.Width
	}
	if flags.Height > 0 {
		c.Height = flags.Height
	}
	if flags.GridRadius >= 0 {
		r := flags.GridRadius
		c.Grid.Radius = &r
	}
	if flags.Spacing > 0 {
		c.Grid.Spacing = flags.Spacing
	}
	if flags.Mode != "" {
		c.Mode = flags.Mode
	}
	if flags.CaptureDir != "" {
		c.Capture.Dir = flags.CaptureDir
	}
	if flags.Format != "" {
		c.Capture.Format = flags.Format
	}
	if flags.Quality > 0 {
		c.Capture.Quality = flags.Quality
	}
	if flags.Workers > 0 {
		c.Capture.Workers = flags.Workers
	}
	if flags.NoVSync {
		off := false
		c.VSync = &off
	}

	if c.Width <= 0 {
		c.Width = 1280
	}
	if c.Height <= 0 {
		c.Height = 720
	}
	if c.VSync == nil {
		on := true
		c.VSync = &on
	}
	if c.Mode == "" {
		c.Mode = "color"
	}

	if c.Grid.Radius == nil {
		r := 1
		c.Grid.Radius = &r
	}
	if c.Grid.Spacing <= 0 {
		c.Grid.Spacing = 0.1
	}

	if c.Camera.FovY <= 0 {
		c.Camera.FovY = 1.25
	}
	if c.Camera.Near <= 0 {
		c.Camera.Near = 0.1
	}
	if c.Camera.Far <= c.Camera.Near {
		c.Camera.Far = 100
	}
	if c.Camera.Position == nil {
		p := mathutil.Vec3{0, 0, -10}
		c.Camera.Position = &p
	}

	if c.Depth.Gain <= 0 {
		c.Depth.Gain = 4
	}
	if c.Depth.Epsilon <= 0 {
		c.Depth.Epsilon = 1e-4
	}

	if c.Capture.Dir == "" {
		c.Capture.Dir = "screenshots"
	}
	if c.Capture.Format == "" {
		c.Capture.Format = "jpg"
	}
	if c.Capture.Quality <= 0 {
		c.Capture.Quality = 90
	}
	if c.Capture.Workers <= 0 {
		c.Capture.Workers = runtime.NumCPU()
	}
	if c.Capture.SheetTile == nil {
		tile := 256
		c.Capture.SheetTile = &tile
	} else if *c.Capture.SheetTile < 0 {
		tile := 0
		c.Capture.SheetTile = &tile
	}

	if len(c.Scene) == 0 {
		c.Scene = DefaultScene()
	}
}

// DefaultScene is a cube above a large floor quad.
func DefaultScene() []scene.ObjectDesc {
	return []scene.ObjectDesc{
		{
			Name:      "cube",
			Primitive: "cube",
			Position:  mathutil.Vec3{-3, -3, 0},
			Scale:     mathutil.Vec3{1, 1, 1},
		},
		{
			Name:      "floor",
			Primitive: "quad",
			Position:  mathutil.Vec3{0, -3.5, 0},
			Rotation:  mathutil.Vec3{90, 0, 0},
			Scale:     mathutil.Vec3{10, 10, 1},
		},
	}
}

// Radius returns the resolved grid radius.
func (c *Config) Radius() int {
	if c.Grid.Radius == nil {
		return 1
	}
	return *c.Grid.Radius
}

// SheetTile returns the resolved contact sheet tile size; 0 means no sheet.
func (c *Config) SheetTile() int {
	if c.Capture.SheetTile == nil {
		return 256
	}
	return *c.Capture.SheetTile
}

// VSyncEnabled returns the resolved vsync policy.
func (c *Config) VSyncEnabled() bool {
	return c.VSync == nil || *c.VSync
}
