package overlay

import (
	"bytes"
	"fmt"
	"image"
	"math"

	svg "github.com/ajstarks/svgo"
	"github.com/fogleman/gg"
	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
)

// RasterSurface is a pixel drawing surface.
type RasterSurface struct {
	dc *gg.Context
}

// NewRasterSurface allocates a transparent surface.
func NewRasterSurface(size image.Point) *RasterSurface {
	return &RasterSurface{dc: gg.NewContext(max(size.X, 1), max(size.Y, 1))}
}

// Resize reallocates the surface if size changed.
func (s *RasterSurface) Resize(size image.Point) {
	size = image.Pt(max(size.X, 1), max(size.Y, 1))
	if s.Size() != size {
		s.dc = gg.NewContext(size.X, size.Y)
	}
}

// Clear makes every pixel transparent.
func (s *RasterSurface) Clear() {
	s.dc.SetRGBA(0, 0, 0, 0)
	s.dc.Clear()
}

// Context exposes the gg drawing context.
func (s *RasterSurface) Context() *gg.Context { return s.dc }

// Replace swaps the surface content for img, e.g. after a post-process.
func (s *RasterSurface) Replace(img image.Image) {
	s.dc = gg.NewContextForImage(img)
}

func (s *RasterSurface) Size() image.Point {
	return image.Pt(s.dc.Width(), s.dc.Height())
}

func (s *RasterSurface) Image() image.Image { return s.dc.Image() }

// VectorSurface records SVG elements. It can be written into a larger SVG
// document or rasterized for compositing.
type VectorSurface struct {
	size   image.Point
	elems  []func(*svg.SVG)
	cached *image.RGBA
	err    error
}

// NewVectorSurface creates an empty surface.
func NewVectorSurface(size image.Point) *VectorSurface {
	return &VectorSurface{size: size}
}

func (s *VectorSurface) Resize(size image.Point) {
	if s.size != size {
		s.size = size
		s.cached = nil
	}
}

func (s *VectorSurface) Clear() {
	s.elems = s.elems[:0]
	s.cached = nil
}

func (s *VectorSurface) Size() image.Point { return s.size }

// Len returns the number of recorded elements.
func (s *VectorSurface) Len() int { return len(s.elems) }

// Circle records a circle.
func (s *VectorSurface) Circle(x, y, r float64, style string) {
	cx, cy, cr := int(math.Round(x)), int(math.Round(y)), int(math.Max(1, math.Round(r)))
	s.add(func(c *svg.SVG) { c.Circle(cx, cy, cr, style) })
}

// Path records a path with SVG path data d.
func (s *VectorSurface) Path(d, style string) {
	s.add(func(c *svg.SVG) { c.Path(d, style) })
}

func (s *VectorSurface) add(fn func(*svg.SVG)) {
	s.elems = append(s.elems, fn)
	s.cached = nil
}

// WriteSVG writes the surface content as a group into canvas.
func (s *VectorSurface) WriteSVG(canvas *svg.SVG) {
	canvas.Group()
	for _, fn := range s.elems {
		fn(canvas)
	}
	canvas.Gend()
}

// Bytes returns the surface as a standalone SVG document.
func (s *VectorSurface) Bytes() []byte {
	var buf bytes.Buffer
	canvas := svg.New(&buf)
	canvas.Startview(s.size.X, s.size.Y, 0, 0, s.size.X, s.size.Y)
	s.WriteSVG(canvas)
	canvas.End()
	return buf.Bytes()
}

// Image rasterizes the surface. The result is cached until the next change.
func (s *VectorSurface) Image() image.Image {
	if s.cached != nil {
		return s.cached
	}
	w, h := max(s.size.X, 1), max(s.size.Y, 1)
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	if len(s.elems) > 0 && s.size.X > 0 && s.size.Y > 0 {
		if err := rasterize(s.Bytes(), img); err != nil {
			s.err = err
		}
	}
	s.cached = img
	return img
}

// Err returns the last rasterization error.
func (s *VectorSurface) Err() error { return s.err }

func rasterize(doc []byte, dst *image.RGBA) error {
	icon, err := oksvg.ReadIconStream(bytes.NewReader(doc), oksvg.WarnErrorMode)
	if err != nil {
		return fmt.Errorf("failed to parse svg: %w", err)
	}
	w, h := dst.Bounds().Dx(), dst.Bounds().Dy()
	icon.SetTarget(0, 0, float64(w), float64(h))
	scanner := rasterx.NewScannerGV(w, h, dst, dst.Bounds())
	raster := rasterx.NewDasher(w, h, scanner)
	icon.Draw(raster, 1.0)
	return nil
}
