package mapview

import (
	"errors"
	"image"
	"image/color"
	"image/draw"
	"math"
	"sort"
	"time"

	"github.com/Zachdehooge/fire-map/internal/projection"
	"github.com/golang/geo/r2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var (
	// ErrAlreadyAttached is returned by a layer attached twice.
	ErrAlreadyAttached = errors.New("layer already attached")
	// ErrMapRemoved is returned when adding layers to a removed map.
	ErrMapRemoved = errors.New("map has been removed")
)

// EventType names a map event.
type EventType string

const (
	EventMoveEnd   EventType = "moveend"
	EventZoomEnd   EventType = "zoomend"
	EventResize    EventType = "resize"
	EventMouseMove EventType = "mousemove"
	EventClick     EventType = "click"
)

// Event is delivered to handlers registered with On. Point is set for
// pointer events.
type Event struct {
	Type  EventType
	Point r2.Point
}

// Handler handles a map event.
type Handler func(Event)

// ListenerID identifies a registered handler.
type ListenerID uint64

// Layer is something drawn on the map.
type Layer interface {
	ID() string
	Attach(m *Map) error
	Redraw()
	Detach()
}

// Surface is a drawing target placed in a pane.
type Surface interface {
	Image() image.Image
}

// Options configures a Map.
type Options struct {
	Center      projection.LngLat
	Zoom        float64
	MinZoom     float64
	MaxZoom     float64
	Interactive bool
	Projection  projection.Projection
	ResizeDelay time.Duration
	Background  color.Color
}

type listener struct {
	id ListenerID
	fn Handler
}

// Map is the host widget layers attach to. Except for New, every method
// must be called on the map's loop.
type Map struct {
	id        string
	loop      *Loop
	container Container
	opts      Options
	proj      projection.Projection
	view      projection.Viewport

	listeners map[EventType][]listener
	nextID    ListenerID
	panes     map[string]*Pane
	layers    []Layer

	resize    *Debouncer
	unobserve func()
	removed   bool
	logger    zerolog.Logger
}

// New creates a map inside container. The initial size is read from the
// container and may be zero until the container is laid out.
func New(loop *Loop, container Container, opts Options, logger zerolog.Logger) *Map {
	if opts.Projection == nil {
		opts.Projection = projection.NaturalEarth{}
	}
	if opts.MaxZoom == 0 {
		opts.MaxZoom = 18
	}
	m := &Map{
		id:        uuid.NewString(),
		loop:      loop,
		container: container,
		opts:      opts,
		proj:      opts.Projection,
		listeners: make(map[EventType][]listener),
		panes:     make(map[string]*Pane),
		logger:    logger.With().Str("component", "map").Logger(),
	}
	m.view = projection.Viewport{
		Center: m.clampCenter(opts.Center),
		Zoom:   m.clampZoom(opts.Zoom),
		Size:   container.Size(),
	}
	m.resize = NewDebouncer(loop, opts.ResizeDelay, func() { m.InvalidateSize() })
	m.unobserve = container.Observe(func() {
		loop.Post(func() {
			if !m.removed {
				m.resize.Trigger()
			}
		})
	})
	return m
}

func (m *Map) ID() string                        { return m.id }
func (m *Map) Loop() *Loop                       { return m.loop }
func (m *Map) Projection() projection.Projection { return m.proj }
func (m *Map) Size() image.Point                 { return m.view.Size }
func (m *Map) Center() projection.LngLat         { return m.view.Center }
func (m *Map) Zoom() float64                     { return m.view.Zoom }
func (m *Map) Viewport() projection.Viewport     { return m.view }
func (m *Map) Interactive() bool                 { return m.opts.Interactive }
func (m *Map) Removed() bool                     { return m.removed }

// Transform builds a transform for the current viewport.
func (m *Map) Transform() *projection.Transform {
	return projection.NewTransform(m.proj, m.view)
}

// On registers h for events of type t.
func (m *Map) On(t EventType, h Handler) ListenerID {
	m.nextID++
	m.listeners[t] = append(m.listeners[t], listener{id: m.nextID, fn: h})
	return m.nextID
}

// Off removes a handler. It reports whether the handler was registered.
func (m *Map) Off(t EventType, id ListenerID) bool {
	ls := m.listeners[t]
	for i, l := range ls {
		if l.id == id {
			m.listeners[t] = append(ls[:i:i], ls[i+1:]...)
			return true
		}
	}
	return false
}

// Listeners returns the number of handlers registered for t.
func (m *Map) Listeners(t EventType) int {
	return len(m.listeners[t])
}

func (m *Map) registered(t EventType, id ListenerID) bool {
	for _, l := range m.listeners[t] {
		if l.id == id {
			return true
		}
	}
	return false
}

func (m *Map) fire(ev Event) {
	if m.removed {
		return
	}
	ls := append([]listener(nil), m.listeners[ev.Type]...)
	for _, l := range ls {
		// an earlier handler may have detached this one
		if !m.registered(ev.Type, l.id) {
			continue
		}
		l.fn(ev)
	}
}

// CreatePane returns the pane called name, creating it at z if needed. An
// existing pane keeps its z-index.
func (m *Map) CreatePane(name string, z int) *Pane {
	if p, ok := m.panes[name]; ok {
		return p
	}
	p := &Pane{name: name, z: z}
	m.panes[name] = p
	return p
}

// Pane returns the pane called name, or nil.
func (m *Map) Pane(name string) *Pane {
	return m.panes[name]
}

// Panes returns all panes ordered bottom to top.
func (m *Map) Panes() []*Pane {
	out := make([]*Pane, 0, len(m.panes))
	for _, p := range m.panes {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].z != out[j].z {
			return out[i].z < out[j].z
		}
		return out[i].name < out[j].name
	})
	return out
}

// AddLayer attaches l. Adding a layer that is already on the map is a no-op.
func (m *Map) AddLayer(l Layer) error {
	if m.removed {
		return ErrMapRemoved
	}
	if m.HasLayer(l) {
		return nil
	}
	if err := l.Attach(m); err != nil {
		return err
	}
	m.layers = append(m.layers, l)
	m.logger.Debug().Str("layer", l.ID()).Msg("layer added")
	return nil
}

// RemoveLayer detaches l. It reports whether l was on the map.
func (m *Map) RemoveLayer(l Layer) bool {
	for i, cur := range m.layers {
		if cur.ID() == l.ID() {
			m.layers = append(m.layers[:i:i], m.layers[i+1:]...)
			l.Detach()
			m.logger.Debug().Str("layer", l.ID()).Msg("layer removed")
			return true
		}
	}
	return false
}

// HasLayer reports whether l is on the map.
func (m *Map) HasLayer(l Layer) bool {
	for _, cur := range m.layers {
		if cur.ID() == l.ID() {
			return true
		}
	}
	return false
}

// Layers returns the attached layers in insertion order.
func (m *Map) Layers() []Layer {
	return append([]Layer(nil), m.layers...)
}

// SetView moves the map. It always works, even on non-interactive maps.
func (m *Map) SetView(center projection.LngLat, zoom float64) {
	if m.removed {
		return
	}
	center = m.clampCenter(center)
	zoom = m.clampZoom(zoom)
	zoomed := zoom != m.view.Zoom
	moved := zoomed || center != m.view.Center
	m.view.Center = center
	m.view.Zoom = zoom
	if zoomed {
		m.fire(Event{Type: EventZoomEnd})
	}
	if moved {
		m.fire(Event{Type: EventMoveEnd})
	}
}

// PanBy moves the view by a pixel offset, as a drag would. Ignored on
// non-interactive maps.
func (m *Map) PanBy(dx, dy float64) bool {
	if !m.opts.Interactive || m.removed {
		return false
	}
	c := r2.Point{X: float64(m.view.Size.X)/2 + dx, Y: float64(m.view.Size.Y)/2 + dy}
	m.SetView(m.Transform().Unproject(c), m.view.Zoom)
	return true
}

// ZoomBy changes the zoom level, as a scroll would. Ignored on
// non-interactive maps.
func (m *Map) ZoomBy(delta float64) bool {
	if !m.opts.Interactive || m.removed {
		return false
	}
	m.SetView(m.view.Center, m.view.Zoom+delta)
	return true
}

// InvalidateSize re-reads the container size and fires a resize event if
// it changed.
func (m *Map) InvalidateSize() bool {
	if m.removed {
		return false
	}
	size := m.container.Size()
	if size == m.view.Size {
		return false
	}
	m.view.Size = size
	m.fire(Event{Type: EventResize})
	return true
}

// PointerMove delivers a pointer position in container pixels.
func (m *Map) PointerMove(pt r2.Point) {
	m.fire(Event{Type: EventMouseMove, Point: pt})
}

// Click delivers a click at pt.
func (m *Map) Click(pt r2.Point) {
	m.fire(Event{Type: EventClick, Point: pt})
}

// Composite flattens every pane surface, bottom to top, into one image.
func (m *Map) Composite() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, m.view.Size.X, m.view.Size.Y))
	if m.opts.Background != nil {
		draw.Draw(img, img.Bounds(), image.NewUniform(m.opts.Background), image.Point{}, draw.Src)
	}
	for _, p := range m.Panes() {
		for _, s := range p.surfaces {
			src := s.Image()
			if src == nil {
				continue
			}
			draw.Draw(img, img.Bounds(), src, src.Bounds().Min, draw.Over)
		}
	}
	return img
}

// Remove detaches every layer and stops observing the container. Calling
// it again is a no-op.
func (m *Map) Remove() {
	if m.removed {
		return
	}
	for len(m.layers) > 0 {
		m.RemoveLayer(m.layers[len(m.layers)-1])
	}
	m.resize.Cancel()
	if m.unobserve != nil {
		m.unobserve()
	}
	m.listeners = make(map[EventType][]listener)
	m.removed = true
	m.logger.Debug().Str("map", m.id).Msg("map removed")
}

func (m *Map) clampZoom(z float64) float64 {
	return math.Max(m.opts.MinZoom, math.Min(m.opts.MaxZoom, z))
}

func (m *Map) clampCenter(c projection.LngLat) projection.LngLat {
	c.Lat = projection.ClampLatitude(m.proj, c.Lat)
	c.Lng = math.Max(-180, math.Min(180, c.Lng))
	return c
}

// Pane is a named slot in the map's layer stack. Higher z-index panes are
// drawn on top.
type Pane struct {
	name     string
	z        int
	surfaces []Surface
}

func (p *Pane) Name() string { return p.name }
func (p *Pane) ZIndex() int  { return p.z }

// Insert adds s on top of the pane. Inserting the same surface twice is a
// no-op.
func (p *Pane) Insert(s Surface) {
	for _, cur := range p.surfaces {
		if cur == s {
			return
		}
	}
	p.surfaces = append(p.surfaces, s)
}

// Remove takes s out of the pane and reports whether it was there.
func (p *Pane) Remove(s Surface) bool {
	for i, cur := range p.surfaces {
		if cur == s {
			p.surfaces = append(p.surfaces[:i:i], p.surfaces[i+1:]...)
			return true
		}
	}
	return false
}

// Surfaces returns the pane's surfaces bottom to top.
func (p *Pane) Surfaces() []Surface {
	return append([]Surface(nil), p.surfaces...)
}
