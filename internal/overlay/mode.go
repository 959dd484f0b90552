package overlay

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Zachdehooge/fire-map/internal/fetcher"
	"github.com/Zachdehooge/fire-map/internal/mapview"
	"github.com/rs/zerolog"
)

// ErrUnknownMode is returned for a mode name other than points or heatmap.
var ErrUnknownMode = errors.New("unknown display mode")

// Mode selects how fire locations are drawn.
type Mode string

const (
	ModePoints  Mode = "points"
	ModeHeatmap Mode = "heatmap"
)

// ParseMode parses a mode name, case-insensitively. Empty means points.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "points", "point", "markers":
		return ModePoints, nil
	case "heatmap", "heat":
		return ModeHeatmap, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownMode, s)
}

// Toggle returns the other mode.
func (m Mode) Toggle() Mode {
	if m == ModeHeatmap {
		return ModePoints
	}
	return ModeHeatmap
}

// NewLayer builds the layer for mode.
func NewLayer(mode Mode, locations []fetcher.Location, style Style, logger zerolog.Logger) (mapview.Layer, error) {
	switch mode {
	case ModePoints:
		return NewPointsLayer(locations, style, logger), nil
	case ModeHeatmap:
		return NewHeatmapLayer(locations, style, logger), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownMode, mode)
}

// Builder creates the layer for a mode.
type Builder func(Mode) (mapview.Layer, error)

// ModeSwitch keeps exactly one fire layer on the map and swaps it when the
// mode changes. It must be used on the map's loop.
type ModeSwitch struct {
	m      *mapview.Map
	build  Builder
	mode   Mode
	active mapview.Layer
	logger zerolog.Logger
}

// NewModeSwitch creates a switch with no active layer.
func NewModeSwitch(m *mapview.Map, build Builder, logger zerolog.Logger) *ModeSwitch {
	return &ModeSwitch{m: m, build: build, logger: logger}
}

// Set makes mode the active one. Setting the current mode again is a no-op.
// The previous layer is detached before the new one attaches and is put back
// if the new one fails.
func (s *ModeSwitch) Set(mode Mode) error {
	if s.active != nil && mode == s.mode {
		return nil
	}
	next, err := s.build(mode)
	if err != nil {
		return err
	}
	prev := s.active
	if prev != nil {
		s.m.RemoveLayer(prev)
	}
	if err := s.m.AddLayer(next); err != nil {
		if prev != nil {
			if rerr := s.m.AddLayer(prev); rerr == nil {
				return fmt.Errorf("failed to switch to %s: %w", mode, err)
			}
		}
		s.active = nil
		return fmt.Errorf("failed to switch to %s: %w", mode, err)
	}
	s.active, s.mode = next, mode
	s.logger.Info().Str("mode", string(mode)).Msg("display mode set")
	return nil
}

// Toggle switches between points and heatmap.
func (s *ModeSwitch) Toggle() error {
	return s.Set(s.mode.Toggle())
}

// Mode returns the active mode.
func (s *ModeSwitch) Mode() Mode { return s.mode }

// Active returns the active layer, or nil.
func (s *ModeSwitch) Active() mapview.Layer { return s.active }

// Close removes the active layer.
func (s *ModeSwitch) Close() {
	if s.active != nil {
		s.m.RemoveLayer(s.active)
		s.active = nil
	}
}
