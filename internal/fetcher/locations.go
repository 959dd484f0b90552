package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Zachdehooge/fire-map/internal/projection"
	geojson "github.com/paulmach/go.geojson"
	"github.com/rs/zerolog"
)

// ErrNotFound is returned when a source file or URL does not exist.
var ErrNotFound = errors.New("source not found")

// ErrTooLarge is returned when a URL source exceeds maxBodySize.
var ErrTooLarge = errors.New("response body too large")

// maxBodySize bounds one URL response.
var maxBodySize int64 = 64 << 20

// Location represents a single fire location
type Location struct {
	Longitude     float64 `json:"longitude"`
	Latitude      float64 `json:"latitude"`
	Name          string  `json:"name"`
	Address       string  `json:"address"`
	CountryCode   string  `json:"country_code"`
	Date          string  `json:"date"`
	GoogleMapsURL string  `json:"google_maps_url,omitempty"`
}

// LngLat returns the position of the location.
func (l Location) LngLat() projection.LngLat {
	return projection.LngLat{Lng: l.Longitude, Lat: l.Latitude}
}

// Dataset is everything the map draws. It is read-only once loaded.
type Dataset struct {
	Locations  []Location
	Boundaries *geojson.FeatureCollection
}

// NewClient returns the HTTP client used for URL sources.
func NewClient(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: timeout}
}

// Fetch reads src, which is either an http(s) URL or a file path relative
// to basePath.
func Fetch(ctx context.Context, client *http.Client, basePath, src string) ([]byte, error) {
	path, ok := LocalPath(basePath, src)
	if !ok {
		return fetchURL(ctx, client, src)
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return data, nil
}

func fetchURL(ctx context.Context, client *http.Client, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "fire-map/1.0 (github.com/Zachdehooge/fire-map)")
	req.Header.Set("Accept", "application/geo+json, application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP GET failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize+1))
	if err != nil {
		return nil, fmt.Errorf("read body failed: %w", err)
	}
	if int64(len(body)) > maxBodySize {
		return nil, fmt.Errorf("%s: %w", url, ErrTooLarge)
	}
	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, url)
	}
	if resp.StatusCode != http.StatusOK {
		snip := body
		if len(snip) > 200 {
			snip = snip[:200]
		}
		return nil, fmt.Errorf("%s returned HTTP %d: %s", url, resp.StatusCode, string(snip))
	}
	return body, nil
}

// LocalPath resolves src against basePath. It reports false for URL
// sources.
func LocalPath(basePath, src string) (string, bool) {
	if strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://") {
		return "", false
	}
	if !filepath.IsAbs(src) && basePath != "" {
		return filepath.Join(basePath, src), true
	}
	return src, true
}

// ParseLocations decodes a fire location FeatureCollection. Features without
// a usable point geometry are skipped.
func ParseLocations(data []byte, logger zerolog.Logger) ([]Location, error) {
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse GeoJSON: %w", err)
	}

	locations := make([]Location, 0, len(fc.Features))
	for i, f := range fc.Features {
		if f == nil || f.Geometry == nil || !f.Geometry.IsPoint() || len(f.Geometry.Point) < 2 {
			logger.Warn().Int("feature", i).Msg("skipping feature without point geometry")
			continue
		}
		pos := projection.LngLat{Lng: f.Geometry.Point[0], Lat: f.Geometry.Point[1]}
		if !pos.Valid() {
			logger.Warn().Int("feature", i).Str("position", pos.String()).Msg("skipping feature with invalid coordinates")
			continue
		}

		place, _ := f.Properties["location"].(map[string]interface{})
		locations = append(locations, Location{
			Longitude:     pos.Lng,
			Latitude:      pos.Lat,
			Name:          stringProp(place, "name"),
			Address:       stringProp(place, "address"),
			CountryCode:   stringProp(place, "country_code"),
			Date:          stringProp(f.Properties, "date"),
			GoogleMapsURL: stringProp(f.Properties, "google_maps_url"),
		})
	}
	return locations, nil
}

func stringProp(props map[string]interface{}, key string) string {
	if props == nil {
		return ""
	}
	switch v := props[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		return fmt.Sprintf("%g", v)
	default:
		return ""
	}
}

// FetchLocations fetches and parses the locations file.
func FetchLocations(ctx context.Context, client *http.Client, basePath, src string, logger zerolog.Logger) ([]Location, error) {
	data, err := Fetch(ctx, client, basePath, src)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch locations: %w", err)
	}
	return ParseLocations(data, logger)
}

// FetchBoundaries fetches the optional world boundaries file. A missing
// file is logged and yields nil without error.
func FetchBoundaries(ctx context.Context, client *http.Client, basePath, src string, logger zerolog.Logger) (*geojson.FeatureCollection, error) {
	if src == "" {
		return nil, nil
	}
	data, err := Fetch(ctx, client, basePath, src)
	if errors.Is(err, ErrNotFound) {
		logger.Warn().Str("source", src).Msg("boundary file not found, skipping outline")
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch boundaries: %w", err)
	}
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse boundaries: %w", err)
	}
	return fc, nil
}

// ToFeatureCollection encodes locations back into the input file shape.
func ToFeatureCollection(locations []Location) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, l := range locations {
		f := geojson.NewPointFeature([]float64{l.Longitude, l.Latitude})
		f.SetProperty("location", map[string]interface{}{
			"name":         l.Name,
			"address":      l.Address,
			"country_code": l.CountryCode,
		})
		f.SetProperty("date", l.Date)
		if l.GoogleMapsURL != "" {
			f.SetProperty("google_maps_url", l.GoogleMapsURL)
		}
		fc.AddFeature(f)
	}
	return fc
}
