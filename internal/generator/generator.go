package generator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"sort"
	"time"

	"github.com/Zachdehooge/fire-map/internal/config"
	"github.com/Zachdehooge/fire-map/internal/fetcher"
	"github.com/Zachdehooge/fire-map/internal/overlay"
	"github.com/natefinch/atomic"
	geojson "github.com/paulmach/go.geojson"
	"github.com/rs/zerolog"
)

const lastUpdatedLayout = "Jan 2, 2006 at 15:04:05 UTC"

// Payload is the shape written to the payload file and consumed by the
// page's refresh loop.
type Payload struct {
	Locations    *geojson.FeatureCollection `json:"locations"`
	Stats        fetcher.Stats              `json:"stats"`
	LastUpdated  string                     `json:"lastUpdated"`
	Counter      int                        `json:"counter"`
	UpdatedAtUTC int64                      `json:"updatedAtUTC"`
	Error        string                     `json:"error,omitempty"`
}

// BuildPayload snapshots ds. loadErr is the store's last error message.
func BuildPayload(ds fetcher.Dataset, loadErr string, now time.Time) Payload {
	return Payload{
		Locations:    fetcher.ToFeatureCollection(ds.Locations),
		Stats:        fetcher.Summarize(ds.Locations),
		LastUpdated:  now.UTC().Format(lastUpdatedLayout),
		Counter:      len(ds.Locations),
		UpdatedAtUTC: now.UTC().Unix(),
		Error:        loadErr,
	}
}

// WritePayload atomically writes p as JSON to path, so a reader never sees
// a partial file.
func WritePayload(p Payload, path string) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal failed: %w", err)
	}
	if err := atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("write %s failed: %w", path, err)
	}
	return nil
}

// CountryCount is one row of the per-country summary.
type CountryCount struct {
	Code  string
	Count int
}

func sortedCountryCounts(stats fetcher.Stats) []CountryCount {
	result := make([]CountryCount, 0, len(stats.ByCountry))
	for code, count := range stats.ByCountry {
		result = append(result, CountryCount{Code: code, Count: count})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Count != result[j].Count {
			return result[i].Count > result[j].Count
		}
		return result[i].Code < result[j].Code
	})
	return result
}

// Page describes one generated HTML page.
type Page struct {
	Config      *config.Config
	VariantName string
	Mode        overlay.Mode
	Dataset     fetcher.Dataset
	LoadError   string
	PayloadURL  string        // refreshed from when Refresh > 0
	Refresh     time.Duration // 0 disables refreshing
	Now         time.Time
}

type pageData struct {
	Title          string
	VariantName    string
	Mode           overlay.Mode
	Interactive    bool
	Style          overlay.Style
	Center         [2]float64
	Zoom           float64
	MinZoom        float64
	MaxZoom        float64
	Payload        Payload
	Countries      []CountryCount
	Boundaries     *geojson.FeatureCollection
	PayloadURL     string
	RefreshSeconds int
	Variants       []string
}

// GenerateHTML renders the Leaflet page for p into w.
func GenerateHTML(w io.Writer, p Page) error {
	v, err := p.Config.Variant(p.VariantName)
	if err != nil {
		return err
	}
	if p.Now.IsZero() {
		p.Now = time.Now()
	}
	payload := BuildPayload(p.Dataset, p.LoadError, p.Now)

	data := pageData{
		Title:          v.Title,
		VariantName:    p.VariantName,
		Mode:           p.Mode,
		Interactive:    p.Config.Interactive(v),
		Style:          v.Style,
		Center:         [2]float64{p.Config.Map.Center.Lat, p.Config.Map.Center.Lng},
		Zoom:           p.Config.Map.Zoom,
		MinZoom:        p.Config.Map.MinZoom,
		MaxZoom:        p.Config.Map.MaxZoom,
		Payload:        payload,
		Countries:      sortedCountryCounts(payload.Stats),
		Boundaries:     p.Dataset.Boundaries,
		PayloadURL:     p.PayloadURL,
		RefreshSeconds: int(p.Refresh / time.Second),
		Variants:       p.Config.VariantNames(),
	}
	if data.VariantName == "" {
		data.VariantName = p.Config.DefaultVariant
	}
	if data.Mode == "" {
		data.Mode = overlay.ModePoints
	}

	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, data); err != nil {
		return fmt.Errorf("failed to render page: %w", err)
	}
	_, err = w.Write(buf.Bytes())
	return err
}

// WriteHTML renders p and atomically replaces the file at path.
func WriteHTML(p Page, path string) error {
	var buf bytes.Buffer
	if err := GenerateHTML(&buf, p); err != nil {
		return err
	}
	if err := atomic.WriteFile(path, &buf); err != nil {
		return fmt.Errorf("write %s failed: %w", path, err)
	}
	return nil
}

func toJSON(v interface{}) (template.JS, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return template.JS(b), nil
}

// Outputs are the files one generation pass writes.
type Outputs struct {
	HTML    string
	Payload string
}

// Generator reloads the store and rewrites the outputs.
type Generator struct {
	store   *fetcher.Store
	cfg     *config.Config
	page    Page
	out     Outputs
	logger  zerolog.Logger
	counter int
}

// New creates a generator. page.Dataset and page.LoadError are filled from
// the store on every run.
func New(store *fetcher.Store, cfg *config.Config, page Page, out Outputs, logger zerolog.Logger) *Generator {
	page.Config = cfg
	return &Generator{
		store:  store,
		cfg:    cfg,
		page:   page,
		out:    out,
		logger: logger.With().Str("component", "generator").Logger(),
	}
}

// Run loads the data once and writes both outputs. A load failure still
// writes the page, showing the error, and is returned.
func (g *Generator) Run(ctx context.Context) error {
	loadErr := g.store.Load(ctx, g.cfg.Data.Locations, g.cfg.Data.Boundaries)

	page := g.page
	page.Dataset = g.store.Dataset()
	page.LoadError = g.store.Err()
	page.Now = time.Now()

	if g.out.Payload != "" {
		if err := WritePayload(BuildPayload(page.Dataset, page.LoadError, page.Now), g.out.Payload); err != nil {
			return err
		}
	}
	if g.out.HTML != "" {
		if err := WriteHTML(page, g.out.HTML); err != nil {
			return err
		}
	}

	g.counter++
	g.logger.Info().
		Int("run", g.counter).
		Int("locations", len(page.Dataset.Locations)).
		Str("html", g.out.HTML).
		Str("payload", g.out.Payload).
		Msg("outputs written")
	return loadErr
}

// Runs returns how many passes completed.
func (g *Generator) Runs() int { return g.counter }

// Poll runs the generator every interval until ctx is done. Failures are
// logged and the next tick retries.
func (g *Generator) Poll(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	g.logger.Info().Dur("interval", interval).Msg("poller started")
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := g.Run(ctx); err != nil {
				g.logger.Error().Err(err).Msg("poll failed")
			}
		}
	}
}
