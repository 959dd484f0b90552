package dashboard

import (
	"bytes"
	"context"
	"image/color"
	"image/png"
	"os"
	"testing"
	"time"

	"github.com/Zachdehooge/fire-map/internal/config"
	"github.com/Zachdehooge/fire-map/internal/fetcher"
	"github.com/Zachdehooge/fire-map/internal/mapview"
	"github.com/Zachdehooge/fire-map/internal/overlay"
	"github.com/Zachdehooge/fire-map/internal/projection"
	geojson "github.com/paulmach/go.geojson"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Map.Center = projection.LngLat{Lng: 0, Lat: 0}
	cfg.Map.Zoom = 2
	cfg.Map.Width = 400
	cfg.Map.Height = 300
	cfg.Ready = mapview.ReadyConfig{Delay: 10 * time.Millisecond, MaxAttempts: 50}
	cfg.ResizeDebounce = 5 * time.Millisecond
	return cfg
}

func testDataset(t *testing.T) fetcher.Dataset {
	t.Helper()
	data, err := os.ReadFile("../fetcher/testdata/world.geojson")
	require.NoError(t, err)
	fc, err := geojson.UnmarshalFeatureCollection(data)
	require.NoError(t, err)
	return fetcher.Dataset{
		Locations: []fetcher.Location{
			{Longitude: 0, Latitude: 0, Name: "Null Island", CountryCode: "xx"},
			{Longitude: 20, Latitude: 10, Name: "Lake Chad", CountryCode: "TD"},
			{Longitude: 22, Latitude: 12, Name: "Abeche", CountryCode: "td"},
		},
		Boundaries: fc,
	}
}

func open(t *testing.T, cfg *config.Config, variant string, mode overlay.Mode) *Dashboard {
	t.Helper()
	d, err := New(cfg, testDataset(t), variant, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(d.Close)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, d.Open(ctx, mapview.NewElement(cfg.Map.Width, cfg.Map.Height), mode))
	return d
}

func TestDashboard_OpenAddsBoundaryAndMode(t *testing.T) {
	ctx := context.Background()
	d := open(t, testConfig(), "", "")

	mode, err := d.Mode(ctx)
	require.NoError(t, err)
	assert.Equal(t, overlay.ModePoints, mode)

	img, err := d.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, 400, img.Bounds().Dx())
	assert.Equal(t, 300, img.Bounds().Dy())
	assert.Equal(t, color.RGBA{0x12, 0x12, 0x12, 0xff}, img.RGBAAt(2, 2))

	assert.Equal(t, fetcher.Stats{Total: 3, Countries: 2, ByCountry: map[string]int{"XX": 1, "TD": 2}}, d.Stats())
}

func TestDashboard_ModeSwitching(t *testing.T) {
	ctx := context.Background()
	d := open(t, testConfig(), "", overlay.ModeHeatmap)

	mode, err := d.ToggleMode(ctx)
	require.NoError(t, err)
	assert.Equal(t, overlay.ModePoints, mode)

	require.NoError(t, d.SetMode(ctx, overlay.ModeHeatmap))
	mode, err = d.Mode(ctx)
	require.NoError(t, err)
	assert.Equal(t, overlay.ModeHeatmap, mode)

	assert.ErrorIs(t, d.SetMode(ctx, overlay.Mode("contours")), overlay.ErrUnknownMode)
}

func TestDashboard_NotReady(t *testing.T) {
	cfg := testConfig()
	cfg.Ready = mapview.ReadyConfig{Delay: 5 * time.Millisecond, MaxAttempts: 2}
	d, err := New(cfg, testDataset(t), "", zerolog.Nop())
	require.NoError(t, err)
	defer d.Close()

	err = d.Open(context.Background(), mapview.NewElement(0, 0), "")
	assert.ErrorIs(t, err, ErrNotReady)
}

func TestDashboard_OpenCanceledStopsWaiting(t *testing.T) {
	cfg := testConfig()
	cfg.Ready = mapview.ReadyConfig{Delay: 5 * time.Millisecond, MaxAttempts: 10000}
	d, err := New(cfg, testDataset(t), "", zerolog.Nop())
	require.NoError(t, err)
	defer d.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	err = d.Open(ctx, mapview.NewElement(0, 0), "")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	select {
	case <-d.ready.Done():
	default:
		t.Fatal("readiness still waiting after Open gave up")
	}
	var state mapview.ReadyState
	require.NoError(t, d.loop.Do(context.Background(), func() { state = d.ready.State() }))
	assert.Equal(t, mapview.StateFailed, state)
}

func TestDashboard_ReadyAfterLayout(t *testing.T) {
	d, err := New(testConfig(), testDataset(t), "", zerolog.Nop())
	require.NoError(t, err)
	defer d.Close()

	el := mapview.NewElement(0, 0)
	go func() {
		time.Sleep(30 * time.Millisecond)
		el.Resize(320, 200)
	}()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, d.Open(ctx, el, ""))

	view, err := d.View(ctx)
	require.NoError(t, err)
	assert.Equal(t, 320, view.Size.X)
	assert.Equal(t, 200, view.Size.Y)
}

func TestDashboard_StaticVariantIgnoresUserInput(t *testing.T) {
	ctx := context.Background()
	d := open(t, testConfig(), "static", "")

	ok, err := d.PanBy(ctx, 50, 0)
	require.NoError(t, err)
	assert.False(t, ok)
	ok, err = d.ZoomBy(ctx, 1)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, d.SetView(ctx, projection.LngLat{Lng: 20, Lat: 10}, 4))
	view, err := d.View(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4.0, view.Zoom)
	assert.InDelta(t, 20, view.Center.Lng, 1e-9)
}

func TestDashboard_SVGExport(t *testing.T) {
	ctx := context.Background()
	d := open(t, testConfig(), "static", overlay.ModePoints)

	var buf bytes.Buffer
	require.NoError(t, d.WriteSVG(ctx, &buf))
	doc := buf.String()
	assert.Contains(t, doc, "<svg")
	assert.Contains(t, doc, `<g id="boundaries">`)
	assert.Contains(t, doc, "<circle")
	assert.NotContains(t, doc, "data:image/png", "closed popup is not embedded")

	pt, ok, err := d.Locate(ctx, projection.LngLat{Lng: 0, Lat: 0})
	require.NoError(t, err)
	require.True(t, ok)
	require.NoError(t, d.Click(ctx, pt))

	buf.Reset()
	require.NoError(t, d.WriteSVG(ctx, &buf))
	assert.Contains(t, buf.String(), "data:image/png;base64,")
}

func TestDashboard_CloseIsIdempotent(t *testing.T) {
	d := open(t, testConfig(), "", "")
	d.Close()
	d.Close()
	_, err := d.Mode(context.Background())
	assert.Error(t, err)

	never, err := New(testConfig(), fetcher.Dataset{}, "", zerolog.Nop())
	require.NoError(t, err)
	never.Close()
	_, err = never.Snapshot(context.Background())
	assert.ErrorIs(t, err, ErrNotOpen)
}

func TestNew_UnknownVariant(t *testing.T) {
	_, err := New(testConfig(), fetcher.Dataset{}, "neon", zerolog.Nop())
	assert.ErrorIs(t, err, config.ErrUnknownVariant)
}

func TestRender(t *testing.T) {
	zoom := 3.0
	var buf bytes.Buffer
	err := Render(context.Background(), testConfig(), testDataset(t), Request{
		Mode:   overlay.ModeHeatmap,
		Width:  256,
		Height: 128,
		Center: &projection.LngLat{Lng: 20, Lat: 10},
		Zoom:   &zoom,
	}, &buf, zerolog.Nop())
	require.NoError(t, err)

	img, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, 256, img.Bounds().Dx())
	assert.Equal(t, 128, img.Bounds().Dy())

	buf.Reset()
	require.NoError(t, Render(context.Background(), testConfig(), fetcher.Dataset{}, Request{Format: FormatSVG}, &buf, zerolog.Nop()))
	assert.Contains(t, buf.String(), "</svg>")
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("SVG")
	require.NoError(t, err)
	assert.Equal(t, FormatSVG, f)
	assert.Equal(t, "image/svg+xml", f.ContentType())

	f, err = ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatPNG, f)

	_, err = ParseFormat("gif")
	assert.ErrorIs(t, err, ErrUnknownFormat)
}
