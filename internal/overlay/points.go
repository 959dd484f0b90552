package overlay

import (
	"fmt"
	"image/color"
	"math"

	"github.com/Zachdehooge/fire-map/internal/fetcher"
	"github.com/Zachdehooge/fire-map/internal/mapview"
	"github.com/Zachdehooge/fire-map/internal/projection"
	"github.com/golang/geo/r2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/image/font"
)

// PointsLayer draws one glyph per location and a popup for the selected one.
type PointsLayer struct {
	binding

	id        string
	locations []fetcher.Location
	style     PointStyle
	popStyle  PopupStyle
	full      Style
	logger    zerolog.Logger

	fill, stroke color.NRGBA
	markers      *VectorSurface
	popup        *RasterSurface
	markerPane   *mapview.Pane
	popupPane    *mapview.Pane
	regular      font.Face
	bold         font.Face

	projected []r2.Point
	visible   []bool
	hidden    int
	drawnFor  projection.Viewport
	open      int
}

// NewPointsLayer creates a points layer for locations.
func NewPointsLayer(locations []fetcher.Location, style Style, logger zerolog.Logger) *PointsLayer {
	l := &PointsLayer{
		id:        uuid.NewString(),
		locations: locations,
		style:     style.Points,
		popStyle:  style.Popup,
		full:      style,
		logger:    logger.With().Str("layer", "points").Logger(),
		open:      -1,
	}
	l.fill = withAlpha(colorOr(l.style.Fill, l.logger), num(l.style.FillOpacity))
	l.stroke = colorOr(l.style.Stroke, l.logger)
	return l
}

func (l *PointsLayer) ID() string { return l.id }

func (l *PointsLayer) Attach(m *mapview.Map) error {
	if err := l.bind(m); err != nil {
		return err
	}
	regular, bold, err := newFaces(l.popStyle.FontSize)
	if err != nil {
		l.release()
		return fmt.Errorf("failed to load popup font: %w", err)
	}
	l.regular, l.bold = regular, bold

	l.markers = NewVectorSurface(m.Size())
	l.popup = NewRasterSurface(m.Size())
	l.markerPane = insert(m, l.style.Pane, l.full.PaneZ(l.style.Pane), l.markers)
	l.popupPane = insert(m, l.popStyle.Pane, l.full.PaneZ(l.popStyle.Pane), l.popup)

	l.listen(mapview.EventMoveEnd, func(mapview.Event) { l.Redraw() })
	l.listen(mapview.EventResize, func(mapview.Event) { l.Redraw() })
	switch l.style.Interaction {
	case InteractionHover:
		l.listen(mapview.EventMouseMove, l.onHover)
	case InteractionClick:
		l.listen(mapview.EventClick, l.onClick)
	}

	l.Redraw()
	return nil
}

// Redraw reprojects every location for the current viewport.
func (l *PointsLayer) Redraw() {
	if !l.attached() {
		return
	}
	tr := l.m.Transform()
	view := tr.Viewport()

	l.markers.Resize(view.Size)
	l.markers.Clear()
	l.projected = l.projected[:0]
	l.visible = l.visible[:0]
	l.hidden = 0

	style := fmt.Sprintf("fill:%s;fill-opacity:%.2f;stroke:%s;stroke-width:%.2f",
		hex(l.fill), opacity(l.fill), hex(l.stroke), num(l.style.StrokeWidth))
	for _, loc := range l.locations {
		pt, ok := tr.Project(loc.LngLat())
		l.projected = append(l.projected, pt)
		l.visible = append(l.visible, ok)
		if !ok {
			l.hidden++
			continue
		}
		l.drawGlyph(pt, style)
	}
	l.drawnFor = view
	l.drawPopup()
}

func (l *PointsLayer) drawGlyph(pt r2.Point, style string) {
	r := l.style.Radius
	if l.style.Glyph == "pin" {
		// tip at the location, head above it
		l.markers.Path(fmt.Sprintf("M%.1f %.1f L%.1f %.1f L%.1f %.1f Z",
			pt.X, pt.Y, pt.X-r*0.8, pt.Y-r*1.6, pt.X+r*0.8, pt.Y-r*1.6), style)
		l.markers.Circle(pt.X, pt.Y-r*2, r, style)
		return
	}
	l.markers.Circle(pt.X, pt.Y, r, style)
}

// Detach removes the layer's surfaces and listeners. Safe to call twice.
func (l *PointsLayer) Detach() {
	if l.release() == nil {
		return
	}
	l.markerPane.Remove(l.markers)
	l.popupPane.Remove(l.popup)
	l.open = -1
}

// Visible returns how many locations were drawn by the last redraw.
func (l *PointsLayer) Visible() int { return len(l.locations) - l.hidden }

// Hidden returns how many locations projected to non-finite coordinates.
func (l *PointsLayer) Hidden() int { return l.hidden }

// Markers returns the marker surface.
func (l *PointsLayer) Markers() *VectorSurface { return l.markers }

// Popup returns the location whose popup is open.
func (l *PointsLayer) Popup() (fetcher.Location, bool) {
	if l.open < 0 {
		return fetcher.Location{}, false
	}
	return l.locations[l.open], true
}

// Position returns the pixel position of location i from the last redraw.
func (l *PointsLayer) Position(i int) (r2.Point, bool) {
	if i < 0 || i >= len(l.projected) {
		return r2.Point{}, false
	}
	return l.projected[i], l.visible[i]
}

// hit returns the index of the drawn glyph under pt, or -1.
func (l *PointsLayer) hit(pt r2.Point) int {
	if l.m.Viewport() != l.drawnFor {
		l.Redraw()
	}
	reach := l.style.Radius + num(l.style.HitSlop)
	best, bestDist := -1, math.Inf(1)
	for i, p := range l.projected {
		if !l.visible[i] {
			continue
		}
		c := p
		if l.style.Glyph == "pin" {
			c.Y -= l.style.Radius * 2
		}
		if d := c.Sub(pt).Norm(); d <= reach && d < bestDist {
			best, bestDist = i, d
		}
	}
	return best
}

func (l *PointsLayer) onHover(ev mapview.Event) {
	if idx := l.hit(ev.Point); idx != l.open {
		l.open = idx
		l.drawPopup()
	}
}

func (l *PointsLayer) onClick(ev mapview.Event) {
	idx := l.hit(ev.Point)
	if idx == l.open {
		idx = -1
	}
	l.open = idx
	l.drawPopup()
}

func (l *PointsLayer) drawPopup() {
	l.popup.Resize(l.drawnFor.Size)
	l.popup.Clear()
	if l.open < 0 || !l.visible[l.open] {
		return
	}
	anchor := l.projected[l.open]
	if l.style.Glyph == "pin" {
		anchor.Y -= l.style.Radius * 2
	}
	renderPopup(l.popup, anchor, l.style.Radius, l.locations[l.open], l.popStyle, l.regular, l.bold, l.logger)
}

var _ mapview.Layer = (*PointsLayer)(nil)
