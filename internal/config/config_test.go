package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Zachdehooge/fire-map/internal/overlay"
	"github.com/Zachdehooge/fire-map/internal/projection"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, []string{"classic", "ember", "static"}, cfg.VariantNames())
}

func TestLoad_MissingDefaultFileUsesDefaults(t *testing.T) {
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	t.Setenv(EnvConfig, "")
	t.Setenv(EnvBasePath, "")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default().Data.Locations, cfg.Data.Locations)
	assert.Equal(t, ".", cfg.BasePath)
}

func TestLoad_ExplicitMissingFileFails(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoad_OverridesDefaults(t *testing.T) {
	t.Setenv(EnvBasePath, "")
	cfg, err := Load("testdata/custom.yaml")
	require.NoError(t, err)

	assert.Equal(t, filepath.Join("testdata", "../.."), cfg.BasePath)
	assert.Equal(t, "", cfg.Data.Boundaries)
	assert.Equal(t, 5*time.Second, cfg.Data.Timeout)
	assert.Equal(t, projection.LngLat{Lng: 10, Lat: 45}, cfg.Map.Center)
	assert.Equal(t, 3.0, cfg.Map.Zoom)
	assert.Equal(t, 8.0, cfg.Map.MaxZoom, "untouched fields keep their defaults")
	assert.Equal(t, "mercator", cfg.Map.Projection)
	assert.Equal(t, 20*time.Millisecond, cfg.Ready.Delay)
	assert.Equal(t, 3, cfg.Ready.MaxAttempts)
	assert.Contains(t, cfg.VariantNames(), "night")
	assert.Contains(t, cfg.VariantNames(), "classic")
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv(EnvConfig, "testdata/custom.yaml")
	t.Setenv(EnvBasePath, "/srv/fires")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "/srv/fires", cfg.BasePath)
	assert.Equal(t, "night", cfg.DefaultVariant)
}

func TestLoad_ShippedConfig(t *testing.T) {
	t.Setenv(EnvBasePath, "")
	cfg, err := Load("../../configs/config.yaml")
	require.NoError(t, err)

	assert.Equal(t, filepath.Join("../../configs", ".."), cfg.BasePath)
	assert.FileExists(t, filepath.Join(cfg.BasePath, cfg.Data.Locations))
	assert.FileExists(t, filepath.Join(cfg.BasePath, cfg.Data.Boundaries))
	assert.Equal(t, 5*time.Minute, cfg.Server.Refresh)
	assert.Equal(t, []string{"classic", "ember", "night", "static"}, cfg.VariantNames())

	night, err := cfg.Variant("night")
	require.NoError(t, err)
	assert.Equal(t, "#00e5ff", night.Style.Points.Fill)
	assert.Equal(t, "circle", night.Style.Points.Glyph, "filled from classic")
	assert.Len(t, night.Style.Heatmap.Gradient, 3)
}

func TestLoad_Invalid(t *testing.T) {
	_, err := Load("testdata/broken.yaml")
	assert.ErrorContains(t, err, "failed to parse config")

	_, err = Load("testdata/badzoom.yaml")
	assert.ErrorContains(t, err, "min_zoom")
}

func TestVariant_FillsFromClassic(t *testing.T) {
	t.Setenv(EnvBasePath, "")
	cfg, err := Load("testdata/custom.yaml")
	require.NoError(t, err)

	v, err := cfg.Variant("")
	require.NoError(t, err)
	assert.Equal(t, "Night Watch", v.Title)
	assert.False(t, cfg.Interactive(v))

	classic := overlay.DefaultStyle()
	assert.Equal(t, "#00e5ff", v.Style.Points.Fill)
	assert.Equal(t, "pin", v.Style.Points.Glyph)
	assert.Equal(t, classic.Points.Radius, v.Style.Points.Radius)
	assert.Equal(t, 40.0, v.Style.Heatmap.Radius)
	assert.Equal(t, classic.Heatmap.Gradient, v.Style.Heatmap.Gradient)
	assert.Equal(t, 0.0, *v.Style.Heatmap.Blur, "explicit zero is kept")
	assert.Equal(t, 0.0, *v.Style.Boundary.FillOpacity, "explicit zero is kept")
	assert.Equal(t, *classic.Heatmap.Intensity, *v.Style.Heatmap.Intensity)
	assert.Equal(t, classic.Popup, v.Style.Popup)
	assert.Equal(t, 650, v.Style.PaneZ("markers"))
	assert.Equal(t, classic.PaneZ("heatmap"), v.Style.PaneZ("heatmap"))

	// the stored variant is left untouched
	assert.Len(t, cfg.Variants["night"].Style.Panes, 1)
}

func TestVariant_Builtins(t *testing.T) {
	cfg := Default()

	classic, err := cfg.Variant("classic")
	require.NoError(t, err)
	assert.True(t, cfg.Interactive(classic))
	assert.Equal(t, overlay.InteractionHover, classic.Style.Points.Interaction)

	static, err := cfg.Variant("static")
	require.NoError(t, err)
	assert.False(t, cfg.Interactive(static))
	assert.Equal(t, overlay.InteractionClick, static.Style.Points.Interaction)

	ember, err := cfg.Variant("ember")
	require.NoError(t, err)
	assert.Equal(t, "pin", ember.Style.Points.Glyph)
	assert.Len(t, ember.Style.Heatmap.Gradient, 5)

	_, err = cfg.Variant("neon")
	assert.ErrorIs(t, err, ErrUnknownVariant)
}
