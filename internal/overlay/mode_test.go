package overlay

import (
	"errors"
	"testing"

	"github.com/Zachdehooge/fire-map/internal/mapview"
	"github.com/Zachdehooge/fire-map/internal/projection"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMode(t *testing.T) {
	for in, want := range map[string]Mode{"": ModePoints, "Points": ModePoints, "heatmap": ModeHeatmap, " HEAT ": ModeHeatmap} {
		got, err := ParseMode(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseMode("choropleth")
	assert.ErrorIs(t, err, ErrUnknownMode)
	_, err = NewLayer(Mode("choropleth"), nil, DefaultStyle(), zerolog.Nop())
	assert.ErrorIs(t, err, ErrUnknownMode)
}

func TestNewLayer(t *testing.T) {
	l, err := NewLayer(ModePoints, fires(), DefaultStyle(), zerolog.Nop())
	require.NoError(t, err)
	assert.IsType(t, &PointsLayer{}, l)

	l, err = NewLayer(ModeHeatmap, fires(), DefaultStyle(), zerolog.Nop())
	require.NoError(t, err)
	assert.IsType(t, &HeatmapLayer{}, l)
}

// countingLayer wraps a layer and counts detaches.
type countingLayer struct {
	mapview.Layer
	detached *int
}

func (c countingLayer) Detach() {
	*c.detached++
	c.Layer.Detach()
}

func surfaces(m *mapview.Map) int {
	n := 0
	for _, p := range m.Panes() {
		n += len(p.Surfaces())
	}
	return n
}

func TestModeSwitch_RemovesEachLayerOnce(t *testing.T) {
	m := newMap(t, projection.NaturalEarth{}, true)
	detaches := map[Mode]*int{ModePoints: new(int), ModeHeatmap: new(int)}
	built := 0
	sw := NewModeSwitch(m, func(mode Mode) (mapview.Layer, error) {
		built++
		l, err := NewLayer(mode, fires(), DefaultStyle(), zerolog.Nop())
		if err != nil {
			return nil, err
		}
		return countingLayer{Layer: l, detached: detaches[mode]}, nil
	}, zerolog.Nop())

	require.NoError(t, sw.Set(ModePoints))
	assert.Equal(t, 2, surfaces(m)) // markers and popup

	require.NoError(t, sw.Set(ModePoints))
	assert.Equal(t, 1, built, "same mode is a no-op")

	require.NoError(t, sw.Toggle())
	assert.Equal(t, ModeHeatmap, sw.Mode())
	assert.Equal(t, 1, *detaches[ModePoints])
	assert.Equal(t, 1, surfaces(m))
	assert.Len(t, m.Pane("heatmap").Surfaces(), 1)
	assert.Equal(t, 0, m.Listeners(mapview.EventMouseMove))

	require.NoError(t, sw.Set(ModePoints))
	assert.Equal(t, 1, *detaches[ModeHeatmap])
	assert.Equal(t, 1, *detaches[ModePoints])
	assert.Equal(t, 2, surfaces(m))
	assert.Len(t, m.Layers(), 1)

	sw.Close()
	assert.Equal(t, 2, *detaches[ModePoints])
	assert.Equal(t, 0, surfaces(m))
	assert.Empty(t, m.Layers())
	assert.Nil(t, sw.Active())
	assert.Equal(t, 0, m.Listeners(mapview.EventMoveEnd))
}

func TestModeSwitch_BuildErrorKeepsCurrentLayer(t *testing.T) {
	m := newMap(t, projection.NaturalEarth{}, true)
	boom := errors.New("boom")
	sw := NewModeSwitch(m, func(mode Mode) (mapview.Layer, error) {
		if mode == ModeHeatmap {
			return nil, boom
		}
		return NewLayer(mode, fires(), DefaultStyle(), zerolog.Nop())
	}, zerolog.Nop())

	require.NoError(t, sw.Set(ModePoints))
	active := sw.Active()
	assert.ErrorIs(t, sw.Set(ModeHeatmap), boom)
	assert.Equal(t, ModePoints, sw.Mode())
	assert.Same(t, active, sw.Active())
	assert.True(t, m.HasLayer(active))
}
