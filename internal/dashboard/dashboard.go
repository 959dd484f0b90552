// Package dashboard binds a loaded dataset, a map widget and the overlay
// layers into one session.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"

	"github.com/Zachdehooge/fire-map/internal/config"
	"github.com/Zachdehooge/fire-map/internal/fetcher"
	"github.com/Zachdehooge/fire-map/internal/mapview"
	"github.com/Zachdehooge/fire-map/internal/overlay"
	"github.com/Zachdehooge/fire-map/internal/projection"
	"github.com/golang/geo/r2"
	"github.com/rs/zerolog"
)

// ErrNotReady is returned by Open when the container never got a size.
var ErrNotReady = errors.New("map container not ready")

// ErrNotOpen is returned by operations that need an open dashboard.
var ErrNotOpen = errors.New("dashboard not open")

// Dashboard is one map session over a read-only dataset. Its map and
// layers live on a private event loop; every exported method is safe to
// call from any goroutine.
type Dashboard struct {
	cfg     *config.Config
	variant config.Variant
	name    string
	dataset fetcher.Dataset
	logger  zerolog.Logger

	loop     *mapview.Loop
	stop     context.CancelFunc
	m        *mapview.Map
	ready    *mapview.Readiness
	boundary *overlay.BoundaryLayer
	modes    *overlay.ModeSwitch
	openErr  error

	mu        sync.Mutex
	opened    bool
	closeOnce sync.Once
}

// New creates a dashboard for the named variant. An empty name selects the
// configured default.
func New(cfg *config.Config, ds fetcher.Dataset, variant string, logger zerolog.Logger) (*Dashboard, error) {
	v, err := cfg.Variant(variant)
	if err != nil {
		return nil, err
	}
	if variant == "" {
		variant = cfg.DefaultVariant
	}
	return &Dashboard{
		cfg:     cfg,
		variant: v,
		name:    variant,
		dataset: ds,
		logger:  logger.With().Str("variant", variant).Logger(),
		loop:    mapview.NewLoop(logger),
	}, nil
}

// Variant returns the resolved variant.
func (d *Dashboard) Variant() config.Variant { return d.variant }

// Stats summarizes the dataset.
func (d *Dashboard) Stats() fetcher.Stats { return fetcher.Summarize(d.dataset.Locations) }

func (d *Dashboard) mapOptions() (mapview.Options, error) {
	proj, err := projection.ByName(d.cfg.Map.Projection)
	if err != nil {
		return mapview.Options{}, err
	}
	bg, err := overlay.ParseColor(d.cfg.Map.Background)
	if err != nil {
		d.logger.Warn().Err(err).Msg("bad map background, using default")
		bg = overlay.DefaultColor
	}
	return mapview.Options{
		Center:      d.cfg.Map.Center,
		Zoom:        d.cfg.Map.Zoom,
		MinZoom:     d.cfg.Map.MinZoom,
		MaxZoom:     d.cfg.Map.MaxZoom,
		Interactive: d.cfg.Interactive(d.variant),
		Projection:  proj,
		ResizeDelay: d.cfg.ResizeDebounce,
		Background:  bg,
	}, nil
}

// Open mounts the map in container and waits until the container has a
// size, then adds the boundary outline and the layer for mode. An empty
// mode uses the configured one. ctx bounds the wait only.
func (d *Dashboard) Open(ctx context.Context, container mapview.Container, mode overlay.Mode) error {
	if mode == "" {
		parsed, err := overlay.ParseMode(d.cfg.Map.Mode)
		if err != nil {
			return err
		}
		mode = parsed
	}
	opts, err := d.mapOptions()
	if err != nil {
		return err
	}

	d.mu.Lock()
	if d.opened {
		d.mu.Unlock()
		return errors.New("dashboard already open")
	}
	d.opened = true
	loopCtx, stop := context.WithCancel(context.Background())
	d.stop = stop
	d.mu.Unlock()

	go func() {
		if err := d.loop.Run(loopCtx); err != nil && !errors.Is(err, context.Canceled) {
			d.logger.Error().Err(err).Msg("event loop stopped")
		}
	}()

	err = d.loop.Do(ctx, func() {
		d.m = mapview.New(d.loop, container, opts, d.logger)
		d.boundary = overlay.NewBoundaryLayer(d.dataset.Boundaries, d.variant.Style, d.logger)
		d.modes = overlay.NewModeSwitch(d.m, func(mode overlay.Mode) (mapview.Layer, error) {
			return overlay.NewLayer(mode, d.dataset.Locations, d.variant.Style, d.logger)
		}, d.logger)
		d.ready = mapview.NewReadiness(d.m, d.cfg.Ready, d.logger)
		d.ready.Start(func() {
			if err := d.m.AddLayer(d.boundary); err != nil {
				d.openErr = fmt.Errorf("failed to add boundaries: %w", err)
				return
			}
			d.openErr = d.modes.Set(mode)
		})
	})
	if err != nil {
		return err
	}

	select {
	case <-d.ready.Done():
	case <-ctx.Done():
		if err := d.loop.Do(context.Background(), d.ready.Cancel); err != nil {
			d.logger.Debug().Err(err).Msg("readiness cancel not delivered")
		}
		return ctx.Err()
	}

	// onReady runs in the same task that closed Done; this waits for it
	var (
		state     mapview.ReadyState
		attachErr error
	)
	if err := d.loop.Do(ctx, func() {
		state = d.ready.State()
		attachErr = d.openErr
	}); err != nil {
		return err
	}
	if state != mapview.StateReady {
		return ErrNotReady
	}
	if attachErr != nil {
		return attachErr
	}
	d.logger.Info().
		Int("locations", len(d.dataset.Locations)).
		Str("mode", string(mode)).
		Msg("dashboard open")
	return nil
}

// do runs fn on the loop with the open map.
func (d *Dashboard) do(ctx context.Context, fn func(m *mapview.Map) error) error {
	if !d.isOpen() {
		return ErrNotOpen
	}
	var err error
	if derr := d.loop.Do(ctx, func() {
		if d.m == nil || d.m.Removed() {
			err = ErrNotOpen
			return
		}
		err = fn(d.m)
	}); derr != nil {
		return derr
	}
	return err
}

func (d *Dashboard) isOpen() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.opened
}

// SetMode switches the fire layer to mode.
func (d *Dashboard) SetMode(ctx context.Context, mode overlay.Mode) error {
	return d.do(ctx, func(*mapview.Map) error { return d.modes.Set(mode) })
}

// ToggleMode flips between points and heatmap and returns the new mode.
func (d *Dashboard) ToggleMode(ctx context.Context) (overlay.Mode, error) {
	var mode overlay.Mode
	err := d.do(ctx, func(*mapview.Map) error {
		if err := d.modes.Toggle(); err != nil {
			return err
		}
		mode = d.modes.Mode()
		return nil
	})
	return mode, err
}

// Mode returns the active display mode.
func (d *Dashboard) Mode(ctx context.Context) (overlay.Mode, error) {
	var mode overlay.Mode
	err := d.do(ctx, func(*mapview.Map) error {
		mode = d.modes.Mode()
		return nil
	})
	return mode, err
}

// SetView moves the map. It works on non-interactive variants too.
func (d *Dashboard) SetView(ctx context.Context, center projection.LngLat, zoom float64) error {
	if !center.Valid() {
		return fmt.Errorf("invalid center %s", center)
	}
	return d.do(ctx, func(m *mapview.Map) error {
		m.SetView(center, zoom)
		return nil
	})
}

// View returns the current viewport.
func (d *Dashboard) View(ctx context.Context) (projection.Viewport, error) {
	var v projection.Viewport
	err := d.do(ctx, func(m *mapview.Map) error {
		v = m.Viewport()
		return nil
	})
	return v, err
}

// PanBy drags the map by a pixel offset. It reports false when the variant
// is not interactive.
func (d *Dashboard) PanBy(ctx context.Context, dx, dy float64) (bool, error) {
	var ok bool
	err := d.do(ctx, func(m *mapview.Map) error {
		ok = m.PanBy(dx, dy)
		return nil
	})
	return ok, err
}

// ZoomBy zooms as a scroll would. It reports false when the variant is not
// interactive.
func (d *Dashboard) ZoomBy(ctx context.Context, delta float64) (bool, error) {
	var ok bool
	err := d.do(ctx, func(m *mapview.Map) error {
		ok = m.ZoomBy(delta)
		return nil
	})
	return ok, err
}

// Click delivers a click at pixel pt.
func (d *Dashboard) Click(ctx context.Context, pt r2.Point) error {
	return d.do(ctx, func(m *mapview.Map) error {
		m.Click(pt)
		return nil
	})
}

// Hover delivers a pointer move to pixel pt.
func (d *Dashboard) Hover(ctx context.Context, pt r2.Point) error {
	return d.do(ctx, func(m *mapview.Map) error {
		m.PointerMove(pt)
		return nil
	})
}

// Locate returns the pixel position of p in the current view. ok is false
// when p has no finite position in the projection.
func (d *Dashboard) Locate(ctx context.Context, p projection.LngLat) (r2.Point, bool, error) {
	var (
		pt r2.Point
		ok bool
	)
	err := d.do(ctx, func(m *mapview.Map) error {
		pt, ok = m.Transform().Project(p)
		return nil
	})
	return pt, ok, err
}

// Snapshot composites every pane into one image.
func (d *Dashboard) Snapshot(ctx context.Context) (*image.RGBA, error) {
	var img *image.RGBA
	err := d.do(ctx, func(m *mapview.Map) error {
		img = m.Composite()
		return nil
	})
	return img, err
}

// Close removes the map and stops the loop. It is safe to call more than
// once and on a dashboard that was never opened.
func (d *Dashboard) Close() {
	d.closeOnce.Do(func() {
		if d.isOpen() {
			_ = d.loop.Do(context.Background(), func() {
				if d.m == nil {
					return
				}
				d.ready.Cancel()
				d.modes.Close()
				d.m.Remove()
			})
		}
		d.loop.Close()
		d.mu.Lock()
		if d.stop != nil {
			d.stop()
		}
		d.mu.Unlock()
	})
}
