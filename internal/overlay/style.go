package overlay

// GradientStop is one (threshold, color) pair of a heatmap gradient.
type GradientStop struct {
	Offset float64 `yaml:"offset" json:"offset"`
	Color  string  `yaml:"color" json:"color"`
}

// Interaction selects how point popups open.
type Interaction string

const (
	InteractionHover Interaction = "hover"
	InteractionClick Interaction = "click"
	InteractionNone  Interaction = "none"
)

// PointStyle configures point markers.
type PointStyle struct {
	Pane        string      `yaml:"pane"`
	Glyph       string      `yaml:"glyph"` // circle or pin
	Radius      float64     `yaml:"radius"`
	Fill        string      `yaml:"fill"`
	FillOpacity *float64    `yaml:"fill_opacity"`
	Stroke      string      `yaml:"stroke"`
	StrokeWidth *float64    `yaml:"stroke_width"`
	Interaction Interaction `yaml:"interaction"`
	HitSlop     *float64    `yaml:"hit_slop"`
}

// HeatStyle configures the density heatmap.
type HeatStyle struct {
	Pane       string         `yaml:"pane"`
	Radius     float64        `yaml:"radius"`
	Blur       *float64       `yaml:"blur"`
	Intensity  *float64       `yaml:"intensity"`
	MaxOpacity *float64       `yaml:"max_opacity"`
	Gradient   []GradientStop `yaml:"gradient"`
}

// BoundaryStyle configures the world outline.
type BoundaryStyle struct {
	Pane        string   `yaml:"pane"`
	Stroke      string   `yaml:"stroke"`
	StrokeWidth *float64 `yaml:"stroke_width"`
	Fill        string   `yaml:"fill"`
	FillOpacity *float64 `yaml:"fill_opacity"`
}

// PopupStyle configures the point popup box.
type PopupStyle struct {
	Pane       string  `yaml:"pane"`
	Background string  `yaml:"background"`
	Foreground string  `yaml:"foreground"`
	Accent     string  `yaml:"accent"`
	Border     string  `yaml:"border"`
	FontSize   float64 `yaml:"font_size"`
	MaxWidth   float64 `yaml:"max_width"`
	Padding    float64 `yaml:"padding"`
}

// Style is a complete cosmetic variant of the overlay.
type Style struct {
	Panes    map[string]int `yaml:"panes"`
	Points   PointStyle     `yaml:"points"`
	Heatmap  HeatStyle      `yaml:"heatmap"`
	Boundary BoundaryStyle  `yaml:"boundary"`
	Popup    PopupStyle     `yaml:"popup"`
}

// DefaultStyle is the classic look.
func DefaultStyle() Style {
	return Style{
		Panes: map[string]int{
			"boundaries": 250,
			"heatmap":    450,
			"markers":    600,
			"popups":     700,
		},
		Points: PointStyle{
			Pane:        "markers",
			Glyph:       "circle",
			Radius:      5,
			Fill:        "#ff5722",
			FillOpacity: Float(0.9),
			Stroke:      "#ffffff",
			StrokeWidth: Float(1),
			Interaction: InteractionHover,
			HitSlop:     Float(3),
		},
		Heatmap: HeatStyle{
			Pane:       "heatmap",
			Radius:     25,
			Blur:       Float(6),
			Intensity:  Float(0.6),
			MaxOpacity: Float(0.8),
			Gradient: []GradientStop{
				{Offset: 0.0, Color: "#0000ff"},
				{Offset: 0.4, Color: "#00ffff"},
				{Offset: 0.6, Color: "#00ff00"},
				{Offset: 0.8, Color: "#ffff00"},
				{Offset: 1.0, Color: "#ff0000"},
			},
		},
		Boundary: BoundaryStyle{
			Pane:        "boundaries",
			Stroke:      "#6b7280",
			StrokeWidth: Float(0.6),
			Fill:        "#1f2937",
			FillOpacity: Float(1),
		},
		Popup: PopupStyle{
			Pane:       "popups",
			Background: "#1e1e1e",
			Foreground: "#e0e0e0",
			Accent:     "#ff8a65",
			Border:     "#333333",
			FontSize:   12,
			MaxWidth:   240,
			Padding:    8,
		},
	}
}

// PaneZ returns the configured z-index of pane, 400 when unset.
func (s Style) PaneZ(pane string) int {
	if z, ok := s.Panes[pane]; ok {
		return z
	}
	return 400
}

// Fill completes zero fields of s from def. Neither style is modified.
func (s Style) Fill(def Style) Style {
	panes := make(map[string]int, len(def.Panes)+len(s.Panes))
	for k, v := range def.Panes {
		panes[k] = v
	}
	for k, v := range s.Panes {
		panes[k] = v
	}
	s.Panes = panes

	fillStr(&s.Points.Pane, def.Points.Pane)
	fillStr(&s.Points.Glyph, def.Points.Glyph)
	fillNum(&s.Points.Radius, def.Points.Radius)
	fillStr(&s.Points.Fill, def.Points.Fill)
	fillPtr(&s.Points.FillOpacity, def.Points.FillOpacity)
	fillStr(&s.Points.Stroke, def.Points.Stroke)
	fillPtr(&s.Points.StrokeWidth, def.Points.StrokeWidth)
	fillPtr(&s.Points.HitSlop, def.Points.HitSlop)
	if s.Points.Interaction == "" {
		s.Points.Interaction = def.Points.Interaction
	}

	fillStr(&s.Heatmap.Pane, def.Heatmap.Pane)
	fillNum(&s.Heatmap.Radius, def.Heatmap.Radius)
	fillPtr(&s.Heatmap.Blur, def.Heatmap.Blur)
	fillPtr(&s.Heatmap.Intensity, def.Heatmap.Intensity)
	fillPtr(&s.Heatmap.MaxOpacity, def.Heatmap.MaxOpacity)
	if len(s.Heatmap.Gradient) == 0 {
		s.Heatmap.Gradient = append([]GradientStop(nil), def.Heatmap.Gradient...)
	}

	fillStr(&s.Boundary.Pane, def.Boundary.Pane)
	fillStr(&s.Boundary.Stroke, def.Boundary.Stroke)
	fillPtr(&s.Boundary.StrokeWidth, def.Boundary.StrokeWidth)
	fillStr(&s.Boundary.Fill, def.Boundary.Fill)
	fillPtr(&s.Boundary.FillOpacity, def.Boundary.FillOpacity)

	fillStr(&s.Popup.Pane, def.Popup.Pane)
	fillStr(&s.Popup.Background, def.Popup.Background)
	fillStr(&s.Popup.Foreground, def.Popup.Foreground)
	fillStr(&s.Popup.Accent, def.Popup.Accent)
	fillStr(&s.Popup.Border, def.Popup.Border)
	fillNum(&s.Popup.FontSize, def.Popup.FontSize)
	fillNum(&s.Popup.MaxWidth, def.Popup.MaxWidth)
	fillNum(&s.Popup.Padding, def.Popup.Padding)
	return s
}

func fillStr(dst *string, def string) {
	if *dst == "" {
		*dst = def
	}
}

func fillNum(dst *float64, def float64) {
	if *dst == 0 {
		*dst = def
	}
}

// fillPtr fills optional numbers, where an explicit zero is kept.
func fillPtr(dst **float64, def *float64) {
	if *dst == nil && def != nil {
		v := *def
		*dst = &v
	}
}

// Float returns a pointer to v, for optional style numbers.
func Float(v float64) *float64 { return &v }

// num reads an optional style number; unset is 0.
func num(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}
