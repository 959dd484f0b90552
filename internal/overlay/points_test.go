package overlay

import (
	"strings"
	"testing"

	"github.com/Zachdehooge/fire-map/internal/fetcher"
	"github.com/Zachdehooge/fire-map/internal/mapview"
	"github.com/Zachdehooge/fire-map/internal/projection"
	"github.com/golang/geo/r2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPointsLayer_DrawsEveryLocation(t *testing.T) {
	m := newMap(t, projection.NaturalEarth{}, true)
	l := NewPointsLayer(fires(), DefaultStyle(), zerolog.Nop())
	requireAdded(t, m, l)

	assert.Equal(t, 2, l.Visible())
	assert.Equal(t, 0, l.Hidden())
	assert.Equal(t, 2, l.Markers().Len())

	pt, ok := l.Position(0)
	require.True(t, ok)
	assert.InDelta(t, 200, pt.X, 1e-6)
	assert.InDelta(t, 150, pt.Y, 1e-6)
	assert.True(t, strings.Contains(string(l.Markers().Bytes()), "<circle"))
}

func TestPointsLayer_HidesNonFiniteProjections(t *testing.T) {
	m := newMap(t, projection.Mercator{}, true)
	locs := append(fires(), fetcher.Location{Longitude: 0, Latitude: 90, Name: "North Pole"})
	l := NewPointsLayer(locs, DefaultStyle(), zerolog.Nop())
	requireAdded(t, m, l)

	assert.Equal(t, 1, l.Hidden())
	assert.Equal(t, 2, l.Visible())
	assert.Equal(t, 2, l.Markers().Len())
	_, ok := l.Position(2)
	assert.False(t, ok)
}

func TestPointsLayer_EmptyList(t *testing.T) {
	m := newMap(t, projection.NaturalEarth{}, true)
	l := NewPointsLayer(nil, DefaultStyle(), zerolog.Nop())
	requireAdded(t, m, l)

	assert.Equal(t, 0, l.Visible())
	assert.Equal(t, 0, l.Markers().Len())
	m.PointerMove(r2.Point{X: 200, Y: 150})
	_, open := l.Popup()
	assert.False(t, open)
}

func TestPointsLayer_RedrawFollowsView(t *testing.T) {
	m := newMap(t, projection.NaturalEarth{}, true)
	l := NewPointsLayer(fires(), DefaultStyle(), zerolog.Nop())
	requireAdded(t, m, l)

	before, _ := l.Position(1)
	m.SetView(projection.LngLat{Lng: 30, Lat: 10}, 1)
	after, _ := l.Position(1)
	assert.NotEqual(t, before, after)
	assert.InDelta(t, 200, after.X, 1e-6)
	assert.InDelta(t, 150, after.Y, 1e-6)
}

func TestPointsLayer_HoverOpensPopup(t *testing.T) {
	m := newMap(t, projection.NaturalEarth{}, true)
	l := NewPointsLayer(fires(), DefaultStyle(), zerolog.Nop())
	requireAdded(t, m, l)

	pt, _ := l.Position(1)
	m.PointerMove(r2.Point{X: pt.X + 2, Y: pt.Y})
	loc, open := l.Popup()
	require.True(t, open)
	assert.Equal(t, "Sahel", loc.Name)
	assert.Greater(t, opaquePixels(l.popup.Image()), 0)

	m.PointerMove(r2.Point{X: 5, Y: 5})
	_, open = l.Popup()
	assert.False(t, open)
	assert.Equal(t, 0, opaquePixels(l.popup.Image()))
}

func TestPointsLayer_ClickTogglesPopup(t *testing.T) {
	style := DefaultStyle()
	style.Points.Interaction = InteractionClick
	m := newMap(t, projection.NaturalEarth{}, false)
	l := NewPointsLayer(fires(), style, zerolog.Nop())
	requireAdded(t, m, l)

	assert.Equal(t, 0, m.Listeners(mapview.EventMouseMove))
	assert.Equal(t, 1, m.Listeners(mapview.EventClick))

	pt, _ := l.Position(0)
	m.PointerMove(pt)
	_, open := l.Popup()
	assert.False(t, open, "hover does nothing in click mode")

	m.Click(pt)
	loc, open := l.Popup()
	require.True(t, open)
	assert.Equal(t, "Null Island", loc.Name)

	m.Click(pt)
	_, open = l.Popup()
	assert.False(t, open)
}

func TestPointsLayer_DetachTwice(t *testing.T) {
	m := newMap(t, projection.NaturalEarth{}, true)
	l := NewPointsLayer(fires(), DefaultStyle(), zerolog.Nop())
	requireAdded(t, m, l)
	assert.ErrorIs(t, l.Attach(m), mapview.ErrAlreadyAttached)

	require.True(t, m.RemoveLayer(l))
	l.Detach()

	for _, ev := range []mapview.EventType{mapview.EventMoveEnd, mapview.EventResize, mapview.EventMouseMove} {
		assert.Equal(t, 0, m.Listeners(ev), ev)
	}
	assert.Empty(t, m.Pane("markers").Surfaces())
	assert.Empty(t, m.Pane("popups").Surfaces())

	// a detached layer can be attached again
	requireAdded(t, m, l)
	assert.Len(t, m.Pane("markers").Surfaces(), 1)
}

func TestPointsLayer_PinGlyph(t *testing.T) {
	style := DefaultStyle()
	style.Points.Glyph = "pin"
	m := newMap(t, projection.NaturalEarth{}, true)
	l := NewPointsLayer(fires()[:1], style, zerolog.Nop())
	requireAdded(t, m, l)

	assert.Equal(t, 2, l.Markers().Len())
	m.PointerMove(r2.Point{X: 200, Y: 150 - 2*style.Points.Radius})
	_, open := l.Popup()
	assert.True(t, open)
}

func TestPopupLines(t *testing.T) {
	lines := popupLines(fires()[1])
	assert.Equal(t, []string{"Sahel", "Somewhere dry", "Country: TD", "View on Google Maps"}, lines)
	assert.Equal(t, "Unnamed location", popupLines(fetcher.Location{})[0])
}
