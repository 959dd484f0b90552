// Package config loads the YAML configuration and resolves cosmetic variants.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/Zachdehooge/fire-map/internal/mapview"
	"github.com/Zachdehooge/fire-map/internal/overlay"
	"github.com/Zachdehooge/fire-map/internal/projection"
	"gopkg.in/yaml.v3"
)

// ErrUnknownVariant is returned when a variant name is not configured.
var ErrUnknownVariant = errors.New("unknown variant")

const (
	// EnvConfig overrides the config file path.
	EnvConfig = "FIREMAP_CONFIG"
	// EnvBasePath overrides base_path.
	EnvBasePath = "FIREMAP_BASE_PATH"

	// DefaultPath is used when neither a flag nor EnvConfig names a file.
	DefaultPath = "configs/config.yaml"

	// BaseVariant fills the fields other variants leave out.
	BaseVariant = "classic"
)

// Config is the application configuration.
type Config struct {
	BasePath string `yaml:"base_path"` // Directory relative data paths are resolved against

	Data struct {
		Locations  string        `yaml:"locations"`  // Fire locations GeoJSON, path or URL
		Boundaries string        `yaml:"boundaries"` // World boundaries GeoJSON, optional
		Timeout    time.Duration `yaml:"timeout"`    // HTTP timeout for URL sources
	} `yaml:"data"`

	Map struct {
		Center      projection.LngLat `yaml:"center"`      // Initial view center
		Zoom        float64           `yaml:"zoom"`        // Initial zoom
		MinZoom     float64           `yaml:"min_zoom"`    // Lowest allowed zoom
		MaxZoom     float64           `yaml:"max_zoom"`    // Highest allowed zoom
		Width       int               `yaml:"width"`       // Snapshot width in pixels
		Height      int               `yaml:"height"`      // Snapshot height in pixels
		Projection  string            `yaml:"projection"`  // natural-earth, mercator or equirectangular
		Mode        string            `yaml:"mode"`        // Initial display mode
		Interactive bool              `yaml:"interactive"` // Pan and zoom allowed unless the variant says otherwise
		Background  string            `yaml:"background"`  // Snapshot background color
	} `yaml:"map"`

	Ready          mapview.ReadyConfig `yaml:"ready"`           // Container readiness retry budget
	ResizeDebounce time.Duration       `yaml:"resize_debounce"` // Delay coalescing container resizes

	Server struct {
		Addr         string        `yaml:"addr"`          // Listen address
		RenderWait   time.Duration `yaml:"render_wait"`   // Upper bound for one snapshot render
		ReadTimeout  time.Duration `yaml:"read_timeout"`  // HTTP read timeout
		WriteTimeout time.Duration `yaml:"write_timeout"` // HTTP write timeout
		Refresh      time.Duration `yaml:"refresh"`       // Data reload and page poll interval, 0 disables
	} `yaml:"server"`

	Output struct {
		HTML    string `yaml:"html"`    // Generated page path
		Payload string `yaml:"payload"` // Generated JSON payload path
	} `yaml:"output"`

	DefaultVariant string             `yaml:"default_variant"`
	Variants       map[string]Variant `yaml:"variants"`
}

// Variant is a named cosmetic configuration of the map.
type Variant struct {
	Title       string        `yaml:"title"`
	Interactive *bool         `yaml:"interactive"` // nil means use map.interactive
	Style       overlay.Style `yaml:",inline"`
}

// Default returns the built-in configuration.
func Default() *Config {
	cfg := &Config{BasePath: "."}
	cfg.Data.Locations = "data/fires.geojson"
	cfg.Data.Boundaries = "data/world.geojson"
	cfg.Data.Timeout = 15 * time.Second

	cfg.Map.Center = projection.LngLat{Lng: 0, Lat: 20}
	cfg.Map.Zoom = 2
	cfg.Map.MinZoom = 1
	cfg.Map.MaxZoom = 8
	cfg.Map.Width = 1024
	cfg.Map.Height = 600
	cfg.Map.Projection = "natural-earth"
	cfg.Map.Mode = "points"
	cfg.Map.Interactive = true
	cfg.Map.Background = "#121212"

	cfg.Ready = mapview.ReadyConfig{Delay: 100 * time.Millisecond, MaxAttempts: 50}
	cfg.ResizeDebounce = 150 * time.Millisecond

	cfg.Server.Addr = ":8080"
	cfg.Server.RenderWait = 10 * time.Second
	cfg.Server.ReadTimeout = 15 * time.Second
	cfg.Server.WriteTimeout = 30 * time.Second
	cfg.Server.Refresh = 5 * time.Minute

	cfg.Output.HTML = "fires.html"
	cfg.Output.Payload = "fires.json"

	cfg.DefaultVariant = BaseVariant
	cfg.Variants = builtinVariants()
	return cfg
}

func builtinVariants() map[string]Variant {
	classic := overlay.DefaultStyle()

	ember := overlay.DefaultStyle()
	ember.Points.Glyph = "pin"
	ember.Points.Radius = 6
	ember.Points.Fill = "#ff3d00"
	ember.Points.Stroke = "#1a1a1a"
	ember.Heatmap.Radius = 30
	ember.Heatmap.Blur = overlay.Float(10)
	ember.Heatmap.Intensity = overlay.Float(0.75)
	ember.Heatmap.Gradient = []overlay.GradientStop{
		{Offset: 0.0, Color: "#000000"},
		{Offset: 0.3, Color: "darkred"},
		{Offset: 0.6, Color: "orangered"},
		{Offset: 0.85, Color: "gold"},
		{Offset: 1.0, Color: "#fffde7"},
	}
	ember.Boundary.Stroke = "#4b5563"
	ember.Boundary.Fill = "#111827"
	ember.Popup.Accent = "#ffab40"

	static := overlay.DefaultStyle()
	static.Points.Interaction = overlay.InteractionClick
	static.Points.HitSlop = overlay.Float(4)
	off := false

	return map[string]Variant{
		"classic": {Title: "Fire Locations", Style: classic},
		"ember":   {Title: "Fire Locations (ember)", Style: ember},
		"static":  {Title: "Fire Locations (static)", Interactive: &off, Style: static},
	}
}

// Load reads the YAML file at path over the defaults. An empty path falls
// back to EnvConfig and then to DefaultPath; a missing DefaultPath is not an
// error. Relative base paths resolve against the config file directory.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := true
	if path == "" {
		path = os.Getenv(EnvConfig)
	}
	if path == "" {
		path, explicit = DefaultPath, false
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
		if !filepath.IsAbs(cfg.BasePath) {
			cfg.BasePath = filepath.Join(filepath.Dir(path), cfg.BasePath)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
	default:
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if bp := os.Getenv(EnvBasePath); bp != "" {
		cfg.BasePath = bp
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that would make the map unusable.
func (c *Config) Validate() error {
	if c.Data.Locations == "" {
		return errors.New("data.locations must be set")
	}
	if c.Map.MinZoom > c.Map.MaxZoom {
		return fmt.Errorf("map.min_zoom %.1f exceeds map.max_zoom %.1f", c.Map.MinZoom, c.Map.MaxZoom)
	}
	if c.Map.Width <= 0 || c.Map.Height <= 0 {
		return fmt.Errorf("map size %dx%d must be positive", c.Map.Width, c.Map.Height)
	}
	if !c.Map.Center.Valid() {
		return fmt.Errorf("map.center %s is not a valid position", c.Map.Center)
	}
	if c.Server.Refresh < 0 {
		return fmt.Errorf("server.refresh %s must not be negative", c.Server.Refresh)
	}
	if _, err := projection.ByName(c.Map.Projection); err != nil {
		return err
	}
	if _, err := overlay.ParseMode(c.Map.Mode); err != nil {
		return err
	}
	if _, ok := c.Variants[c.DefaultVariant]; !ok {
		return fmt.Errorf("default_variant: %w: %q", ErrUnknownVariant, c.DefaultVariant)
	}
	return nil
}

// Variant returns the named variant with every unset style field filled
// from the base variant and the built-in defaults. An empty name selects
// the default variant.
func (c *Config) Variant(name string) (Variant, error) {
	if name == "" {
		name = c.DefaultVariant
	}
	v, ok := c.Variants[name]
	if !ok {
		return Variant{}, fmt.Errorf("%w: %q (have %v)", ErrUnknownVariant, name, c.VariantNames())
	}
	if base, ok := c.Variants[BaseVariant]; ok && name != BaseVariant {
		v.Style = v.Style.Fill(base.Style)
	}
	v.Style = v.Style.Fill(overlay.DefaultStyle())
	if v.Title == "" {
		v.Title = "Fire Locations"
	}
	return v, nil
}

// Interactive reports whether maps using v accept pan and zoom.
func (c *Config) Interactive(v Variant) bool {
	if v.Interactive != nil {
		return *v.Interactive
	}
	return c.Map.Interactive
}

// VariantNames returns the configured variant names, sorted.
func (c *Config) VariantNames() []string {
	names := make([]string, 0, len(c.Variants))
	for name := range c.Variants {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
