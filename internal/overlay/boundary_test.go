package overlay

import (
	"image"
	"os"
	"strings"
	"testing"

	"github.com/Zachdehooge/fire-map/internal/projection"
	geojson "github.com/paulmach/go.geojson"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadWorld(t *testing.T) *geojson.FeatureCollection {
	t.Helper()
	data, err := os.ReadFile("../fetcher/testdata/world.geojson")
	require.NoError(t, err)
	fc, err := geojson.UnmarshalFeatureCollection(data)
	require.NoError(t, err)
	return fc
}

func TestBoundaryLayer_DrawsPolygons(t *testing.T) {
	m := newMap(t, projection.NaturalEarth{}, true)
	l := NewBoundaryLayer(loadWorld(t), DefaultStyle(), zerolog.Nop())
	requireAdded(t, m, l)

	assert.Equal(t, 2, l.Paths())
	doc := string(l.Surface().Bytes())
	assert.Equal(t, 2, strings.Count(doc, "<path"))
	// the multipolygon closes both of its rings
	assert.Equal(t, 3, strings.Count(doc, "Z"))
	assert.Contains(t, doc, "fill-rule:evenodd")
}

func TestBoundaryLayer_NilCollection(t *testing.T) {
	m := newMap(t, projection.NaturalEarth{}, true)
	l := NewBoundaryLayer(nil, DefaultStyle(), zerolog.Nop())
	requireAdded(t, m, l)

	assert.Equal(t, 0, l.Paths())
	assert.Equal(t, 0, l.Surface().Len())
}

func TestPathData_BreaksAtNonFiniteVertices(t *testing.T) {
	tr := projection.NewTransform(projection.Mercator{}, projection.Viewport{Zoom: 1, Size: image.Pt(400, 300)})
	g := geojson.NewLineStringGeometry([][]float64{{0, 0}, {10, 10}, {20, 90}, {30, 10}, {40, 0}})
	d := pathData(tr, g)
	assert.Equal(t, 2, strings.Count(d, "M"))
	assert.Equal(t, 2, strings.Count(d, "L"))
	assert.NotContains(t, d, "Z")
	assert.NotContains(t, d, "Inf")
}
