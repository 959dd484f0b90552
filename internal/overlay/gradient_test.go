package overlay

import (
	"image/color"
	"math"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func testGradient() Gradient {
	return NewGradient(DefaultStyle().Heatmap.Gradient, zerolog.Nop())
}

func TestGradient_ExactAtStops(t *testing.T) {
	g := testGradient()
	assert.Equal(t, color.NRGBA{0, 0, 255, 255}, g.At(0))
	assert.Equal(t, color.NRGBA{0, 255, 255, 255}, g.At(0.4))
	assert.Equal(t, color.NRGBA{0, 255, 0, 255}, g.At(0.6))
	assert.Equal(t, color.NRGBA{255, 255, 0, 255}, g.At(0.8))
	assert.Equal(t, color.NRGBA{255, 0, 0, 255}, g.At(1))
}

func TestGradient_ClampsIntensity(t *testing.T) {
	g := testGradient()
	assert.Equal(t, g.At(0), g.At(-3))
	assert.Equal(t, g.At(1), g.At(42))
	assert.Equal(t, g.At(0), g.At(math.NaN()))
}

func TestGradient_InterpolatesBetweenStops(t *testing.T) {
	g := testGradient()
	// halfway between yellow and red
	assert.Equal(t, color.NRGBA{255, 128, 0, 255}, g.At(0.9))
	// halfway between blue and cyan
	assert.Equal(t, color.NRGBA{0, 128, 255, 255}, g.At(0.2))
}

func TestGradient_UnsortedAndOutOfRangeStops(t *testing.T) {
	g := NewGradient([]GradientStop{
		{Offset: 1.5, Color: "white"},
		{Offset: 0, Color: "black"},
	}, zerolog.Nop())
	assert.Equal(t, 2, g.Len())
	assert.Equal(t, color.NRGBA{0, 0, 0, 255}, g.At(0))
	assert.Equal(t, color.NRGBA{255, 255, 255, 255}, g.At(1))
	assert.Equal(t, color.NRGBA{128, 128, 128, 255}, g.At(0.5))
}

func TestGradient_BadColorUsesDefault(t *testing.T) {
	g := NewGradient([]GradientStop{{Offset: 0, Color: "nope"}}, zerolog.Nop())
	assert.Equal(t, DefaultColor, g.At(0.7))

	empty := NewGradient(nil, zerolog.Nop())
	assert.Equal(t, 1, empty.Len())
	assert.Equal(t, DefaultColor, empty.At(0.3))
}
