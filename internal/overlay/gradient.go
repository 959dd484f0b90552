package overlay

import (
	"image/color"
	"math"
	"sort"

	"github.com/rs/zerolog"
)

type stop struct {
	offset float64
	c      color.NRGBA
}

// Gradient interpolates colors between ordered stops.
type Gradient struct {
	stops []stop
}

// NewGradient parses stops. Unparseable colors become DefaultColor and are
// logged; an empty list yields a single DefaultColor stop.
func NewGradient(stops []GradientStop, logger zerolog.Logger) Gradient {
	g := Gradient{stops: make([]stop, 0, len(stops))}
	for _, s := range stops {
		g.stops = append(g.stops, stop{offset: clamp01(s.Offset), c: colorOr(s.Color, logger)})
	}
	if len(g.stops) == 0 {
		g.stops = append(g.stops, stop{offset: 0, c: DefaultColor})
	}
	sort.SliceStable(g.stops, func(i, j int) bool { return g.stops[i].offset < g.stops[j].offset })
	return g
}

// At returns the color for intensity t. t is clamped to [0,1]; values
// before the first stop or after the last take that stop's color.
func (g Gradient) At(t float64) color.NRGBA {
	t = clamp01(t)
	first, last := g.stops[0], g.stops[len(g.stops)-1]
	if t <= first.offset {
		return first.c
	}
	if t >= last.offset {
		return last.c
	}
	for i := 0; i < len(g.stops)-1; i++ {
		a, b := g.stops[i], g.stops[i+1]
		if t == a.offset {
			return a.c
		}
		if t < b.offset {
			f := (t - a.offset) / (b.offset - a.offset)
			return color.NRGBA{
				R: lerp(a.c.R, b.c.R, f),
				G: lerp(a.c.G, b.c.G, f),
				B: lerp(a.c.B, b.c.B, f),
				A: lerp(a.c.A, b.c.A, f),
			}
		}
	}
	return last.c
}

// Len returns the number of stops.
func (g Gradient) Len() int { return len(g.stops) }

func lerp(a, b uint8, f float64) uint8 {
	return uint8(math.Round(float64(a) + (float64(b)-float64(a))*f))
}
