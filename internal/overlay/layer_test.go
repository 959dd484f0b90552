package overlay

import (
	"image"
	"testing"

	"github.com/Zachdehooge/fire-map/internal/fetcher"
	"github.com/Zachdehooge/fire-map/internal/mapview"
	"github.com/Zachdehooge/fire-map/internal/projection"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

// newMap returns a 400x300 map centered on 0,0 at zoom 1. The loop is never
// started, so the test goroutine stands in for it.
func newMap(t *testing.T, proj projection.Projection, interactive bool) *mapview.Map {
	t.Helper()
	loop := mapview.NewLoop(zerolog.Nop())
	t.Cleanup(loop.Close)
	m := mapview.New(loop, mapview.NewElement(400, 300), mapview.Options{
		Zoom:        1,
		MaxZoom:     8,
		Interactive: interactive,
		Projection:  proj,
	}, zerolog.Nop())
	t.Cleanup(m.Remove)
	return m
}

func fires() []fetcher.Location {
	return []fetcher.Location{
		{Longitude: 0, Latitude: 0, Name: "Null Island", CountryCode: "XX", Date: "2024-01-01"},
		{Longitude: 30, Latitude: 10, Name: "Sahel", Address: "Somewhere dry", CountryCode: "TD",
			GoogleMapsURL: "https://maps.google.com/?q=10,30"},
	}
}

func opaquePixels(img image.Image) int {
	n := 0
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if _, _, _, a := img.At(x, y).RGBA(); a > 0 {
				n++
			}
		}
	}
	return n
}

func alphaAt(img image.Image, x, y int) uint32 {
	_, _, _, a := img.At(x, y).RGBA()
	return a
}

func requireAdded(t *testing.T, m *mapview.Map, l mapview.Layer) {
	t.Helper()
	require.NoError(t, m.AddLayer(l))
}
