package overlay

import (
	"image/color"
	"testing"

	"github.com/Zachdehooge/fire-map/internal/fetcher"
	"github.com/Zachdehooge/fire-map/internal/projection"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestHeatmapLayer_EmptyIsNoop(t *testing.T) {
	m := newMap(t, projection.NaturalEarth{}, true)
	l := NewHeatmapLayer(nil, DefaultStyle(), zerolog.Nop())
	requireAdded(t, m, l)

	assert.Equal(t, 0, l.Drawn())
	assert.Equal(t, 0, opaquePixels(l.Surface().Image()))
}

func TestHeatmapLayer_DrawsBlurredBlobs(t *testing.T) {
	m := newMap(t, projection.NaturalEarth{}, true)
	l := NewHeatmapLayer(fires()[:1], DefaultStyle(), zerolog.Nop())
	requireAdded(t, m, l)

	assert.Equal(t, 1, l.Drawn())
	img := l.Surface().Image()
	assert.Equal(t, m.Size(), img.Bounds().Size())
	assert.Greater(t, alphaAt(img, 200, 150), uint32(0))
	assert.Equal(t, uint32(0), alphaAt(img, 0, 0))
	assert.Equal(t, uint32(0), alphaAt(img, 399, 299))
}

func TestHeatmapLayer_WithoutBlur(t *testing.T) {
	style := DefaultStyle()
	style.Heatmap.Blur = Float(0)
	m := newMap(t, projection.NaturalEarth{}, true)
	l := NewHeatmapLayer(fires()[:1], style, zerolog.Nop())
	requireAdded(t, m, l)

	img := l.Surface().Image()
	center := alphaAt(img, 200, 150)
	edge := alphaAt(img, 200+int(style.Heatmap.Radius)-2, 150)
	assert.Greater(t, center, edge)
	assert.Equal(t, uint32(0), alphaAt(img, 200+int(style.Heatmap.Radius)+2, 150))
}

func TestHeatmapLayer_SkipsPolesAndOffscreen(t *testing.T) {
	m := newMap(t, projection.Mercator{}, true)
	locs := []fetcher.Location{
		{Longitude: 0, Latitude: -90},
		{Longitude: 0, Latitude: 0},
	}
	l := NewHeatmapLayer(locs, DefaultStyle(), zerolog.Nop())
	requireAdded(t, m, l)
	assert.Equal(t, 1, l.Hidden())
	assert.Equal(t, 1, l.Drawn())

	m.SetView(projection.LngLat{Lng: 170, Lat: 0}, 4)
	assert.Equal(t, 0, l.Drawn())
	assert.Equal(t, 0, opaquePixels(l.Surface().Image()))
}

func TestHeatmapLayer_DetachTwice(t *testing.T) {
	m := newMap(t, projection.NaturalEarth{}, true)
	l := NewHeatmapLayer(fires(), DefaultStyle(), zerolog.Nop())
	requireAdded(t, m, l)

	m.RemoveLayer(l)
	l.Detach()
	assert.Empty(t, m.Pane("heatmap").Surfaces())
}

func TestHeatmapLayer_ColorsByDensity(t *testing.T) {
	style := DefaultStyle()
	style.Heatmap.Blur = Float(0)
	style.Heatmap.Intensity = Float(0.4)

	centerColor := func(locs []fetcher.Location) color.NRGBA {
		m := newMap(t, projection.NaturalEarth{}, true)
		l := NewHeatmapLayer(locs, style, zerolog.Nop())
		requireAdded(t, m, l)
		return color.NRGBAModel.Convert(l.Surface().Image().At(200, 150)).(color.NRGBA)
	}
	single := centerColor(fires()[:1])
	stacked := centerColor([]fetcher.Location{fires()[0], fires()[0]})

	// one blob sits at its own intensity on the gradient: cyan at 0.4
	want := NewGradient(style.Heatmap.Gradient, zerolog.Nop()).At(0.4)
	assert.InDelta(t, float64(want.R), float64(single.R), 20)
	assert.InDelta(t, float64(want.G), float64(single.G), 20)
	assert.InDelta(t, float64(want.B), float64(single.B), 20)

	// overlap moves up the gradient, toward green and yellow
	assert.Greater(t, stacked.A, single.A)
	assert.Less(t, stacked.B, single.B)
}
