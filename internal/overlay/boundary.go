package overlay

import (
	"fmt"
	"strings"

	"github.com/Zachdehooge/fire-map/internal/mapview"
	"github.com/Zachdehooge/fire-map/internal/projection"
	"github.com/google/uuid"
	geojson "github.com/paulmach/go.geojson"
	"github.com/rs/zerolog"
)

// BoundaryLayer draws country outlines under the fire layers.
type BoundaryLayer struct {
	binding

	id       string
	features *geojson.FeatureCollection
	style    BoundaryStyle
	z        int
	css      string
	logger   zerolog.Logger

	surface *VectorSurface
	pane    *mapview.Pane
	paths   int
}

// NewBoundaryLayer creates a layer for fc. A nil collection draws nothing.
func NewBoundaryLayer(fc *geojson.FeatureCollection, style Style, logger zerolog.Logger) *BoundaryLayer {
	logger = logger.With().Str("layer", "boundary").Logger()
	fill := withAlpha(colorOr(style.Boundary.Fill, logger), num(style.Boundary.FillOpacity))
	stroke := colorOr(style.Boundary.Stroke, logger)
	return &BoundaryLayer{
		id:       uuid.NewString(),
		features: fc,
		style:    style.Boundary,
		z:        style.PaneZ(style.Boundary.Pane),
		css: fmt.Sprintf("fill:%s;fill-opacity:%.2f;fill-rule:evenodd;stroke:%s;stroke-width:%.2f",
			hex(fill), opacity(fill), hex(stroke), num(style.Boundary.StrokeWidth)),
		logger: logger,
	}
}

func (l *BoundaryLayer) ID() string { return l.id }

func (l *BoundaryLayer) Attach(m *mapview.Map) error {
	if err := l.bind(m); err != nil {
		return err
	}
	l.surface = NewVectorSurface(m.Size())
	l.pane = insert(m, l.style.Pane, l.z, l.surface)
	l.listen(mapview.EventMoveEnd, func(mapview.Event) { l.Redraw() })
	l.listen(mapview.EventResize, func(mapview.Event) { l.Redraw() })
	l.Redraw()
	return nil
}

// Redraw reprojects every outline.
func (l *BoundaryLayer) Redraw() {
	if !l.attached() {
		return
	}
	tr := l.m.Transform()
	l.surface.Resize(tr.Viewport().Size)
	l.surface.Clear()
	l.paths = 0
	if l.features == nil {
		return
	}
	for _, f := range l.features.Features {
		if f.Geometry == nil {
			continue
		}
		d := pathData(tr, f.Geometry)
		if d == "" {
			continue
		}
		l.surface.Path(d, l.css)
		l.paths++
	}
}

// Detach removes the outline surface and listeners. Safe to call twice.
func (l *BoundaryLayer) Detach() {
	if l.release() == nil {
		return
	}
	l.pane.Remove(l.surface)
}

// Paths returns how many features the last redraw drew.
func (l *BoundaryLayer) Paths() int { return l.paths }

// Surface returns the vector surface.
func (l *BoundaryLayer) Surface() *VectorSurface { return l.surface }

// pathData converts g into SVG path data. Rings are closed; non-finite
// vertices split a ring into separate subpaths.
func pathData(tr *projection.Transform, g *geojson.Geometry) string {
	var b strings.Builder
	switch g.Type {
	case geojson.GeometryPolygon:
		writeRings(&b, tr, g.Polygon, true)
	case geojson.GeometryMultiPolygon:
		for _, poly := range g.MultiPolygon {
			writeRings(&b, tr, poly, true)
		}
	case geojson.GeometryLineString:
		writeRings(&b, tr, [][][]float64{g.LineString}, false)
	case geojson.GeometryMultiLineString:
		writeRings(&b, tr, g.MultiLineString, false)
	}
	return b.String()
}

func writeRings(b *strings.Builder, tr *projection.Transform, rings [][][]float64, closed bool) {
	for _, ring := range rings {
		pen := false
		segment := 0
		for _, c := range ring {
			if len(c) < 2 {
				continue
			}
			pt, ok := tr.Project(projection.LngLat{Lng: c[0], Lat: c[1]})
			if !ok {
				pen = false
				continue
			}
			cmd := 'L'
			if !pen {
				cmd = 'M'
				pen = true
			}
			fmt.Fprintf(b, "%c%.1f %.1f ", cmd, pt.X, pt.Y)
			segment++
		}
		if closed && segment > 0 {
			b.WriteString("Z ")
		}
	}
}

var _ mapview.Layer = (*BoundaryLayer)(nil)
