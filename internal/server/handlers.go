package server

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"path"
	"strconv"
	"time"

	"github.com/Zachdehooge/fire-map/internal/config"
	"github.com/Zachdehooge/fire-map/internal/dashboard"
	"github.com/Zachdehooge/fire-map/internal/fetcher"
	"github.com/Zachdehooge/fire-map/internal/generator"
	"github.com/Zachdehooge/fire-map/internal/overlay"
	"github.com/Zachdehooge/fire-map/internal/projection"
	"github.com/gin-gonic/gin"
)

// maxRenderSize bounds each snapshot dimension.
const maxRenderSize = 4096

func (s *Server) health(c *gin.Context) {
	status := "ok"
	msg := s.store.Err()
	if msg != "" {
		status = "degraded"
	}
	c.JSON(http.StatusOK, gin.H{
		"status":    status,
		"loading":   s.store.Loading(),
		"locations": len(s.store.Dataset().Locations),
		"error":     msg,
		"time":      time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) page(c *gin.Context) {
	mode, err := s.mode(c.Query("mode"))
	if err != nil {
		badRequest(c, err)
		return
	}

	var buf bytes.Buffer
	err = generator.GenerateHTML(&buf, generator.Page{
		Config:      s.cfg,
		VariantName: c.Query("variant"),
		Mode:        mode,
		Dataset:     s.store.Dataset(),
		LoadError:   s.store.Err(),
		PayloadURL:  PayloadPath,
		Refresh:     s.cfg.Server.Refresh,
	})
	if err != nil {
		fail(c, statusFor(err), err)
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}

func (s *Server) payload(c *gin.Context) {
	c.JSON(http.StatusOK, generator.BuildPayload(s.store.Dataset(), s.store.Err(), time.Now()))
}

func (s *Server) stats(c *gin.Context) {
	c.JSON(http.StatusOK, fetcher.Summarize(s.store.Dataset().Locations))
}

func (s *Server) render(c *gin.Context) {
	req, err := s.renderRequest(c)
	if err != nil {
		badRequest(c, err)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), s.cfg.Server.RenderWait)
	defer cancel()

	var buf bytes.Buffer
	if err := dashboard.Render(ctx, s.cfg, s.store.Dataset(), req, &buf, s.logger); err != nil {
		fail(c, statusFor(err), err)
		return
	}
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, req.Format.ContentType(), buf.Bytes())
}

// renderRequest parses the snapshot query. The format comes from the path
// extension.
func (s *Server) renderRequest(c *gin.Context) (dashboard.Request, error) {
	var req dashboard.Request

	format, err := dashboard.ParseFormat(path.Ext(c.Request.URL.Path))
	if err != nil {
		return req, err
	}
	req.Format = format

	if req.Mode, err = s.mode(c.Query("mode")); err != nil {
		return req, err
	}
	req.Variant = c.Query("variant")
	if _, err := s.cfg.Variant(req.Variant); err != nil {
		return req, err
	}

	if v := c.Query("zoom"); v != "" {
		zoom, err := parseFloat("zoom", v)
		if err != nil {
			return req, err
		}
		if zoom < s.cfg.Map.MinZoom || zoom > s.cfg.Map.MaxZoom {
			return req, fmt.Errorf("zoom %g outside [%g, %g]", zoom, s.cfg.Map.MinZoom, s.cfg.Map.MaxZoom)
		}
		req.Zoom = &zoom
	}

	lat, lon := c.Query("lat"), c.Query("lon")
	switch {
	case lat == "" && lon == "":
	case lat == "" || lon == "":
		return req, errors.New("lat and lon must be given together")
	default:
		var center projection.LngLat
		if center.Lat, err = parseFloat("lat", lat); err != nil {
			return req, err
		}
		if center.Lng, err = parseFloat("lon", lon); err != nil {
			return req, err
		}
		if !center.Valid() {
			return req, fmt.Errorf("invalid center %s", center)
		}
		req.Center = &center
	}

	if req.Width, err = parseSize("width", c.Query("width")); err != nil {
		return req, err
	}
	if req.Height, err = parseSize("height", c.Query("height")); err != nil {
		return req, err
	}
	return req, nil
}

// mode parses a mode query value; empty selects the configured mode.
func (s *Server) mode(v string) (overlay.Mode, error) {
	if v == "" {
		v = s.cfg.Map.Mode
	}
	return overlay.ParseMode(v)
}

func parseFloat(name, v string) (float64, error) {
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%s: not a number: %q", name, v)
	}
	return f, nil
}

// parseSize returns 0 for an empty value, meaning the configured size.
func parseSize(name, v string) (int, error) {
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: not an integer: %q", name, v)
	}
	if n <= 0 || n > maxRenderSize {
		return 0, fmt.Errorf("%s %d outside [1, %d]", name, n, maxRenderSize)
	}
	return n, nil
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, config.ErrUnknownVariant), errors.Is(err, overlay.ErrUnknownMode):
		return http.StatusBadRequest
	case errors.Is(err, dashboard.ErrNotReady):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}
