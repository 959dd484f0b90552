package overlay

import (
	"math"

	"github.com/Zachdehooge/fire-map/internal/fetcher"
	"github.com/golang/geo/r2"
	"github.com/rs/zerolog"
	"golang.org/x/image/font"
)

// popupLines returns the text shown for a location, title first.
func popupLines(loc fetcher.Location) []string {
	title := loc.Name
	if title == "" {
		title = "Unnamed location"
	}
	lines := []string{title}
	if loc.Address != "" {
		lines = append(lines, loc.Address)
	}
	if loc.CountryCode != "" {
		lines = append(lines, "Country: "+loc.CountryCode)
	}
	if loc.Date != "" {
		lines = append(lines, "Date: "+loc.Date)
	}
	if loc.GoogleMapsURL != "" {
		lines = append(lines, "View on Google Maps")
	}
	return lines
}

// renderPopup draws a popup box above anchor, kept inside the surface.
func renderPopup(s *RasterSurface, anchor r2.Point, offset float64, loc fetcher.Location, style PopupStyle, regular, bold font.Face, logger zerolog.Logger) {
	dc := s.Context()
	pad := style.Padding
	textWidth := style.MaxWidth - 2*pad

	type line struct {
		text  string
		face  font.Face
		title bool
	}
	var lines []line
	width := 0.0
	for i, raw := range popupLines(loc) {
		face := regular
		if i == 0 {
			face = bold
		}
		dc.SetFontFace(face)
		for _, wrapped := range dc.WordWrap(raw, textWidth) {
			lines = append(lines, line{text: wrapped, face: face, title: i == 0})
			w, _ := dc.MeasureString(wrapped)
			width = math.Max(width, w)
		}
	}

	lineHeight := style.FontSize * 1.4
	boxW := math.Min(width, textWidth) + 2*pad
	boxH := float64(len(lines))*lineHeight + 2*pad
	size := s.Size()

	x := anchor.X - boxW/2
	y := anchor.Y - offset - 8 - boxH
	if y < 0 {
		// no room above, open below the glyph
		y = anchor.Y + offset + 8
	}
	x = math.Max(0, math.Min(x, float64(size.X)-boxW))
	y = math.Max(0, math.Min(y, float64(size.Y)-boxH))

	bg := colorOr(style.Background, logger)
	border := colorOr(style.Border, logger)
	fg := colorOr(style.Foreground, logger)
	accent := colorOr(style.Accent, logger)

	dc.DrawRoundedRectangle(x, y, boxW, boxH, 4)
	dc.SetColor(bg)
	dc.FillPreserve()
	dc.SetColor(border)
	dc.SetLineWidth(1)
	dc.Stroke()

	baseline := y + pad + style.FontSize
	for _, ln := range lines {
		dc.SetFontFace(ln.face)
		if ln.title {
			dc.SetColor(accent)
		} else {
			dc.SetColor(fg)
		}
		dc.DrawString(ln.text, x+pad, baseline)
		baseline += lineHeight
	}
}
