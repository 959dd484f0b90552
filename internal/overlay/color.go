package overlay

import (
	"fmt"
	"image/color"
	"math"
	"strings"

	"github.com/mazznoer/csscolorparser"
	"github.com/rs/zerolog"
)

// DefaultColor replaces colors that fail to parse.
var DefaultColor = color.NRGBA{R: 128, G: 128, B: 128, A: 255}

// ParseColor parses any CSS color: hex forms, rgb(), rgba(), hsl(), hwb()
// and the CSS named colors.
func ParseColor(s string) (color.NRGBA, error) {
	c, err := csscolorparser.Parse(strings.TrimSpace(s))
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("unsupported color %q: %w", s, err)
	}
	r, g, b, a := c.RGBA255()
	return color.NRGBA{R: r, G: g, B: b, A: a}, nil
}

// colorOr parses s, logging and returning DefaultColor on failure.
func colorOr(s string, logger zerolog.Logger) color.NRGBA {
	c, err := ParseColor(s)
	if err != nil {
		logger.Warn().Err(err).Str("color", s).Msg("falling back to default color")
		return DefaultColor
	}
	return c
}

// withAlpha scales the alpha of c by f in [0,1].
func withAlpha(c color.NRGBA, f float64) color.NRGBA {
	c.A = uint8(math.Round(float64(c.A) * clamp01(f)))
	return c
}

// hex formats c as #rrggbb for SVG attributes.
func hex(c color.NRGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// opacity returns the alpha of c as a CSS opacity.
func opacity(c color.NRGBA) float64 {
	return float64(c.A) / 255
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
