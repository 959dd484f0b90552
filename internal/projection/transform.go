package projection

import (
	"image"
	"math"

	"github.com/golang/geo/r2"
)

// Viewport is the visible map region.
type Viewport struct {
	Center LngLat
	Zoom   float64
	Size   image.Point
}

// Empty reports whether the viewport has no drawable area.
func (v Viewport) Empty() bool {
	return v.Size.X <= 0 || v.Size.Y <= 0
}

// Transform maps geographic positions to viewport pixels. A Transform is
// bound to the viewport it was built from and must be rebuilt whenever the
// viewport changes.
type Transform struct {
	proj   Projection
	view   Viewport
	scale  float64
	origin r2.Point
}

// NewTransform builds the transform for v under proj.
func NewTransform(proj Projection, v Viewport) *Transform {
	scale := math.Exp2(v.Zoom)
	c := World(proj, v.Center)
	return &Transform{
		proj:  proj,
		view:  v,
		scale: scale,
		origin: r2.Point{
			X: c.X*scale - float64(v.Size.X)/2,
			Y: c.Y*scale - float64(v.Size.Y)/2,
		},
	}
}

// Project returns the pixel position of p. ok is false when the result is
// not finite, e.g. at a projection singularity.
func (t *Transform) Project(p LngLat) (pt r2.Point, ok bool) {
	w := World(t.proj, p)
	pt = r2.Point{X: w.X*t.scale - t.origin.X, Y: w.Y*t.scale - t.origin.Y}
	return pt, Finite(pt)
}

// Unproject returns the geographic position under pixel pt.
func (t *Transform) Unproject(pt r2.Point) LngLat {
	return Unworld(t.proj, r2.Point{X: (pt.X + t.origin.X) / t.scale, Y: (pt.Y + t.origin.Y) / t.scale})
}

// Viewport returns the viewport the transform was built for.
func (t *Transform) Viewport() Viewport { return t.view }

// Scale is the pixel scale factor relative to zoom 0.
func (t *Transform) Scale() float64 { return t.scale }

// Contains reports whether pt lies inside the viewport grown by margin.
func (t *Transform) Contains(pt r2.Point, margin float64) bool {
	return pt.X >= -margin && pt.Y >= -margin &&
		pt.X <= float64(t.view.Size.X)+margin && pt.Y <= float64(t.view.Size.Y)+margin
}
