// Package projection maps geographic coordinates onto the pixel plane of a
// map viewport.
package projection

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/s2"
)

// TileSize is the width of the whole world plane at zoom 0, in pixels.
const TileSize = 256.0

// ErrUnknownProjection is returned by ByName for unsupported names.
var ErrUnknownProjection = errors.New("unknown projection")

// LngLat is a geographic position in degrees.
type LngLat struct {
	Lng float64 `json:"lng" yaml:"lng"`
	Lat float64 `json:"lat" yaml:"lat"`
}

// Valid reports whether the position is finite and inside ±90/±180.
func (p LngLat) Valid() bool {
	return s2.LatLngFromDegrees(p.Lat, p.Lng).IsValid()
}

func (p LngLat) String() string {
	return fmt.Sprintf("%.5f,%.5f", p.Lat, p.Lng)
}

// Projection is a raw cartographic projection working in radians. Forward
// returns plane coordinates with y pointing north.
type Projection interface {
	Name() string
	Forward(lambda, phi float64) (x, y float64)
	Inverse(x, y float64) (lambda, phi float64)
}

// Bounded is implemented by projections that cannot represent the whole
// latitude range.
type Bounded interface {
	MaxLatitude() float64
}

// ByName returns the projection registered under name.
func ByName(name string) (Projection, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "natural-earth", "naturalearth", "natural_earth":
		return NaturalEarth{}, nil
	case "mercator", "web-mercator":
		return Mercator{}, nil
	case "equirectangular", "plate-carree":
		return Equirectangular{}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownProjection, name)
}

// World projects p onto the zoom 0 world plane (origin top-left).
func World(proj Projection, p LngLat) r2.Point {
	x, y := proj.Forward(p.Lng*math.Pi/180, p.Lat*math.Pi/180)
	k := TileSize / (2 * math.Pi)
	return r2.Point{X: TileSize/2 + x*k, Y: TileSize/2 - y*k}
}

// Unworld is the inverse of World.
func Unworld(proj Projection, pt r2.Point) LngLat {
	k := TileSize / (2 * math.Pi)
	lambda, phi := proj.Inverse((pt.X-TileSize/2)/k, (TileSize/2-pt.Y)/k)
	return LngLat{Lng: lambda * 180 / math.Pi, Lat: phi * 180 / math.Pi}
}

// Finite reports whether both coordinates of pt are usable for drawing.
func Finite(pt r2.Point) bool {
	return !math.IsNaN(pt.X) && !math.IsNaN(pt.Y) && !math.IsInf(pt.X, 0) && !math.IsInf(pt.Y, 0)
}

// ClampLatitude limits lat to what proj can represent.
func ClampLatitude(proj Projection, lat float64) float64 {
	max := 90.0
	if b, ok := proj.(Bounded); ok {
		max = b.MaxLatitude()
	}
	return math.Max(-max, math.Min(max, lat))
}

// Mercator is the spherical Web Mercator projection. The poles map to
// infinity.
type Mercator struct{}

func (Mercator) Name() string { return "mercator" }

func (Mercator) Forward(lambda, phi float64) (float64, float64) {
	return lambda, math.Atanh(math.Sin(phi))
}

func (Mercator) Inverse(x, y float64) (float64, float64) {
	return x, math.Asin(math.Tanh(y))
}

// MaxLatitude is the latitude at which the Web Mercator world is square.
func (Mercator) MaxLatitude() float64 { return 85.0511287798 }

// Equirectangular maps longitude and latitude linearly.
type Equirectangular struct{}

func (Equirectangular) Name() string { return "equirectangular" }

func (Equirectangular) Forward(lambda, phi float64) (float64, float64) { return lambda, phi }

func (Equirectangular) Inverse(x, y float64) (float64, float64) { return x, y }

// NaturalEarth is the Natural Earth I pseudo-cylindrical projection
// (Šavrič et al. polynomial form).
type NaturalEarth struct{}

func (NaturalEarth) Name() string { return "natural-earth" }

func (NaturalEarth) Forward(lambda, phi float64) (float64, float64) {
	phi2 := phi * phi
	phi4 := phi2 * phi2
	x := lambda * (0.8707 - 0.131979*phi2 + phi4*(-0.013791+phi4*(0.003971*phi2-0.001529*phi4)))
	y := phi * (1.007226 + phi2*(0.015085+phi4*(-0.044475+0.028874*phi2-0.005916*phi4)))
	return x, y
}

func (NaturalEarth) Inverse(x, y float64) (float64, float64) {
	phi := y
	for i := 0; i < 25; i++ {
		phi2 := phi * phi
		phi4 := phi2 * phi2
		delta := (phi*(1.007226+phi2*(0.015085+phi4*(-0.044475+0.028874*phi2-0.005916*phi4))) - y) /
			(1.007226 + phi2*(0.015085*3+phi4*(-0.044475*7+0.028874*9*phi2-0.005916*11*phi4)))
		phi -= delta
		if math.Abs(delta) <= 1e-12 {
			break
		}
	}
	phi2 := phi * phi
	lambda := x / (0.8707 + phi2*(-0.131979+phi2*(-0.013791+phi2*phi2*phi2*(0.003971-0.001529*phi2))))
	return lambda, phi
}
