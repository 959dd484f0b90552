package overlay

import (
	"image"
	"image/color"
	"math"

	"github.com/Zachdehooge/fire-map/internal/fetcher"
	"github.com/Zachdehooge/fire-map/internal/mapview"
	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// HeatmapLayer draws a blurred density field of radial gradients. Blobs
// accumulate into an alpha-only density map, then each pixel takes the
// gradient color of its density.
type HeatmapLayer struct {
	binding

	id        string
	locations []fetcher.Location
	style     HeatStyle
	z         int
	palette   [256]color.NRGBA
	logger    zerolog.Logger

	surface *RasterSurface
	pane    *mapview.Pane
	drawn   int
	hidden  int
}

// NewHeatmapLayer creates a heatmap layer for locations.
func NewHeatmapLayer(locations []fetcher.Location, style Style, logger zerolog.Logger) *HeatmapLayer {
	logger = logger.With().Str("layer", "heatmap").Logger()
	l := &HeatmapLayer{
		id:        uuid.NewString(),
		locations: locations,
		style:     style.Heatmap,
		z:         style.PaneZ(style.Heatmap.Pane),
		logger:    logger,
	}
	gradient := NewGradient(style.Heatmap.Gradient, logger)
	maxOpacity := clamp01(num(style.Heatmap.MaxOpacity))
	for i := range l.palette {
		t := float64(i) / 255
		l.palette[i] = withAlpha(gradient.At(t), t*maxOpacity)
	}
	return l
}

func (l *HeatmapLayer) ID() string { return l.id }

func (l *HeatmapLayer) Attach(m *mapview.Map) error {
	if err := l.bind(m); err != nil {
		return err
	}
	l.surface = NewRasterSurface(m.Size())
	l.pane = insert(m, l.style.Pane, l.z, l.surface)
	l.listen(mapview.EventMoveEnd, func(mapview.Event) { l.Redraw() })
	l.listen(mapview.EventResize, func(mapview.Event) { l.Redraw() })
	l.Redraw()
	return nil
}

// Redraw repaints the density field for the current viewport.
func (l *HeatmapLayer) Redraw() {
	if !l.attached() {
		return
	}
	tr := l.m.Transform()
	l.surface.Resize(tr.Viewport().Size)
	l.surface.Clear()
	l.drawn, l.hidden = 0, 0
	if len(l.locations) == 0 || tr.Viewport().Empty() {
		return
	}

	intensity := clamp01(num(l.style.Intensity))
	center := color.NRGBA{A: uint8(math.Round(intensity * 255))}
	edge := color.NRGBA{}
	r := l.style.Radius

	dc := l.surface.Context()
	for _, loc := range l.locations {
		pt, ok := tr.Project(loc.LngLat())
		if !ok {
			l.hidden++
			continue
		}
		if !tr.Contains(pt, r) {
			continue
		}
		grad := gg.NewRadialGradient(pt.X, pt.Y, 0, pt.X, pt.Y, r)
		grad.AddColorStop(0, center)
		grad.AddColorStop(1, edge)
		dc.SetFillStyle(grad)
		dc.DrawCircle(pt.X, pt.Y, r)
		dc.Fill()
		l.drawn++
	}
	if l.drawn == 0 {
		return
	}

	density := l.surface.Image()
	if blur := num(l.style.Blur); blur > 0 {
		density = imaging.Blur(density, blur)
	}
	l.surface.Replace(l.colorize(density))
}

// colorize maps the density in the alpha channel through the palette.
func (l *HeatmapLayer) colorize(density image.Image) *image.NRGBA {
	b := density.Bounds()
	out := image.NewNRGBA(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			_, _, _, a := density.At(x, y).RGBA()
			if a>>8 == 0 {
				continue
			}
			out.SetNRGBA(x, y, l.palette[a>>8])
		}
	}
	return out
}

// Detach removes the heatmap surface and listeners. Safe to call twice.
func (l *HeatmapLayer) Detach() {
	if l.release() == nil {
		return
	}
	l.pane.Remove(l.surface)
}

// Drawn returns how many blobs the last redraw painted.
func (l *HeatmapLayer) Drawn() int { return l.drawn }

// Hidden returns how many locations projected to non-finite coordinates.
func (l *HeatmapLayer) Hidden() int { return l.hidden }

// Surface returns the raster surface.
func (l *HeatmapLayer) Surface() *RasterSurface { return l.surface }

var _ mapview.Layer = (*HeatmapLayer)(nil)
