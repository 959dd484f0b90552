package dashboard

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"strings"

	"github.com/Zachdehooge/fire-map/internal/config"
	"github.com/Zachdehooge/fire-map/internal/fetcher"
	"github.com/Zachdehooge/fire-map/internal/mapview"
	"github.com/Zachdehooge/fire-map/internal/overlay"
	"github.com/Zachdehooge/fire-map/internal/projection"
	svg "github.com/ajstarks/svgo"
	"github.com/rs/zerolog"
)

// ErrUnknownFormat is returned for snapshot formats other than png and svg.
var ErrUnknownFormat = errors.New("unknown snapshot format")

// Format is a snapshot encoding.
type Format string

const (
	FormatPNG Format = "png"
	FormatSVG Format = "svg"
)

// ParseFormat parses a format name. Empty means png.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(s, ".")) {
	case "", "png":
		return FormatPNG, nil
	case "svg":
		return FormatSVG, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

// ContentType returns the MIME type of f.
func (f Format) ContentType() string {
	if f == FormatSVG {
		return "image/svg+xml"
	}
	return "image/png"
}

// WritePNG encodes the composited map as PNG.
func (d *Dashboard) WritePNG(ctx context.Context, w io.Writer) error {
	img, err := d.Snapshot(ctx)
	if err != nil {
		return err
	}
	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("failed to encode png: %w", err)
	}
	return nil
}

// WriteSVG writes the map as an SVG document. Vector surfaces are written
// as SVG elements; raster surfaces are embedded as PNG images.
func (d *Dashboard) WriteSVG(ctx context.Context, w io.Writer) error {
	var buf bytes.Buffer
	err := d.do(ctx, func(m *mapview.Map) error {
		size := m.Size()
		canvas := svg.New(&buf)
		canvas.Startview(size.X, size.Y, 0, 0, size.X, size.Y)
		canvas.Title(d.variant.Title)
		if bg, err := overlay.ParseColor(d.cfg.Map.Background); err == nil {
			canvas.Rect(0, 0, size.X, size.Y, fmt.Sprintf("fill:#%02x%02x%02x", bg.R, bg.G, bg.B))
		}
		for _, p := range m.Panes() {
			canvas.Gid(p.Name())
			for _, s := range p.Surfaces() {
				switch s := s.(type) {
				case *overlay.VectorSurface:
					s.WriteSVG(canvas)
				default:
					img := s.Image()
					if blank(img) {
						continue
					}
					uri, err := dataURI(img)
					if err != nil {
						return err
					}
					canvas.Image(0, 0, size.X, size.Y, uri)
				}
			}
			canvas.Gend()
		}
		canvas.End()
		return nil
	})
	if err != nil {
		return err
	}
	_, err = w.Write(buf.Bytes())
	return err
}

func dataURI(img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", fmt.Errorf("failed to encode layer: %w", err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// blank reports whether img is fully transparent.
func blank(img image.Image) bool {
	if rgba, ok := img.(*image.RGBA); ok {
		for i := 3; i < len(rgba.Pix); i += 4 {
			if rgba.Pix[i] != 0 {
				return false
			}
		}
		return true
	}
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if _, _, _, a := img.At(x, y).RGBA(); a != 0 {
				return false
			}
		}
	}
	return true
}

// Request describes one snapshot.
type Request struct {
	Mode    overlay.Mode
	Variant string
	Format  Format
	Center  *projection.LngLat // nil keeps the configured center
	Zoom    *float64           // nil keeps the configured zoom
	Width   int                // 0 uses the configured width
	Height  int                // 0 uses the configured height
}

// Render opens a throwaway dashboard sized for req, applies the view and
// writes the snapshot to w.
func Render(ctx context.Context, cfg *config.Config, ds fetcher.Dataset, req Request, w io.Writer, logger zerolog.Logger) error {
	width, height := req.Width, req.Height
	if width <= 0 {
		width = cfg.Map.Width
	}
	if height <= 0 {
		height = cfg.Map.Height
	}

	d, err := New(cfg, ds, req.Variant, logger)
	if err != nil {
		return err
	}
	defer d.Close()

	if err := d.Open(ctx, mapview.NewElement(width, height), req.Mode); err != nil {
		return err
	}
	if req.Center != nil || req.Zoom != nil {
		view, err := d.View(ctx)
		if err != nil {
			return err
		}
		center, zoom := view.Center, view.Zoom
		if req.Center != nil {
			center = *req.Center
		}
		if req.Zoom != nil {
			zoom = *req.Zoom
		}
		if err := d.SetView(ctx, center, zoom); err != nil {
			return err
		}
	}

	if req.Format == FormatSVG {
		return d.WriteSVG(ctx, w)
	}
	return d.WritePNG(ctx, w)
}
