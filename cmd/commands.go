package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/Zachdehooge/fire-map/internal/config"
	"github.com/Zachdehooge/fire-map/internal/dashboard"
	"github.com/Zachdehooge/fire-map/internal/fetcher"
	"github.com/Zachdehooge/fire-map/internal/projection"
	"github.com/Zachdehooge/fire-map/internal/server"
	"github.com/fatih/color"
	"github.com/natefinch/atomic"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// loadDataset loads the configured sources once.
func loadDataset(ctx context.Context, cmd *cobra.Command) (*config.Config, fetcher.Dataset, zerolog.Logger, error) {
	cfg, logger, err := setup(cmd)
	if err != nil {
		return nil, fetcher.Dataset{}, logger, err
	}
	store := newStore(cfg, logger)
	if err := store.Load(ctx, cfg.Data.Locations, cfg.Data.Boundaries); err != nil {
		return nil, fetcher.Dataset{}, logger, err
	}
	return cfg, store.Dataset(), logger, nil
}

// addListCmd adds a 'list' subcommand to show fire locations without generating HTML
func addListCmd(rootCmd *cobra.Command) {
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List fire locations",
		Run: func(cmd *cobra.Command, args []string) {
			_, ds, _, err := loadDataset(cmd.Context(), cmd)
			if err != nil {
				exit(cmd, "failed to fetch fire locations", err)
			}

			if len(ds.Locations) == 0 {
				cmd.Println("No fire locations.")
				return
			}

			out := cmd.OutOrStdout()
			heading := color.New(color.FgHiRed, color.Bold)
			label := color.New(color.FgYellow)
			muted := color.New(color.FgHiBlack)

			heading.Fprintf(out, "Fire Locations (%d):\n", len(ds.Locations))
			for _, loc := range ds.Locations {
				cmd.Println("---")
				field := func(name, value string) {
					if value == "" {
						return
					}
					label.Fprintf(out, "%s: ", name)
					fmt.Fprintln(out, value)
				}
				name := loc.Name
				if name == "" {
					name = "Unnamed location"
				}
				field("Name", name)
				field("Address", loc.Address)
				field("Country", loc.CountryCode)
				field("Date", loc.Date)
				muted.Fprintf(out, "%.4f, %.4f\n", loc.Latitude, loc.Longitude)
			}
		},
	}

	rootCmd.AddCommand(listCmd)
}

// addStatsCmd adds a 'stats' subcommand printing the summary as JSON
func addStatsCmd(rootCmd *cobra.Command) {
	statsCmd := &cobra.Command{
		Use:   "stats",
		Short: "Print fire location statistics as JSON",
		Run: func(cmd *cobra.Command, args []string) {
			_, ds, _, err := loadDataset(cmd.Context(), cmd)
			if err != nil {
				exit(cmd, "failed to fetch fire locations", err)
			}
			data, err := json.MarshalIndent(fetcher.Summarize(ds.Locations), "", "  ")
			if err != nil {
				exit(cmd, "failed to encode stats", err)
			}
			cmd.Println(string(data))
		},
	}

	rootCmd.AddCommand(statsCmd)
}

// addRenderCmd adds a 'render' subcommand writing a PNG or SVG snapshot
func addRenderCmd(rootCmd *cobra.Command) {
	var (
		format string
		center string
		zoom   float64
		width  int
		height int
		output string
	)

	renderCmd := &cobra.Command{
		Use:   "render",
		Short: "Render a PNG or SVG snapshot of the map",
		Run: func(cmd *cobra.Command, args []string) {
			if format == "" {
				format = filepath.Ext(output)
			}
			f, err := dashboard.ParseFormat(format)
			if err != nil {
				exit(cmd, "invalid --format", err)
			}
			req := dashboard.Request{Variant: variantName, Format: f, Width: width, Height: height}
			if center != "" {
				c, err := parseCenter(center)
				if err != nil {
					exit(cmd, "invalid --center", err)
				}
				req.Center = &c
			}
			if cmd.Flags().Changed("zoom") {
				req.Zoom = &zoom
			}

			cfg, ds, logger, err := loadDataset(cmd.Context(), cmd)
			if err != nil {
				exit(cmd, "failed to fetch fire locations", err)
			}
			if req.Mode, err = displayMode(cfg); err != nil {
				exit(cmd, "invalid --mode", err)
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Server.RenderWait)
			defer cancel()
			var buf bytes.Buffer
			if err := dashboard.Render(ctx, cfg, ds, req, &buf, logger); err != nil {
				exit(cmd, "failed to render", err)
			}

			if output == "-" {
				_, err = cmd.OutOrStdout().Write(buf.Bytes())
			} else {
				err = atomic.WriteFile(output, &buf)
			}
			if err != nil {
				exit(cmd, "failed to write snapshot", err)
			}
			if output != "-" {
				cmd.Println(fmt.Sprintf("Snapshot saved to %s", output))
			}
		},
	}

	renderCmd.Flags().StringVar(&format, "format", "", "png or svg (default from --output extension)")
	renderCmd.Flags().StringVar(&center, "center", "", "View center as lat,lon (default from config)")
	renderCmd.Flags().Float64Var(&zoom, "zoom", 0, "Zoom level (default from config)")
	renderCmd.Flags().IntVar(&width, "width", 0, "Width in pixels (default from config)")
	renderCmd.Flags().IntVar(&height, "height", 0, "Height in pixels (default from config)")
	renderCmd.Flags().StringVarP(&output, "output", "o", "fires.png", "Output file, - for stdout")

	rootCmd.AddCommand(renderCmd)
}

// parseCenter parses "lat,lon".
func parseCenter(s string) (projection.LngLat, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return projection.LngLat{}, fmt.Errorf("want lat,lon, got %q", s)
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return projection.LngLat{}, fmt.Errorf("bad latitude: %w", err)
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return projection.LngLat{}, fmt.Errorf("bad longitude: %w", err)
	}
	c := projection.LngLat{Lng: lon, Lat: lat}
	if !c.Valid() {
		return projection.LngLat{}, fmt.Errorf("%s is not a valid position", c)
	}
	return c, nil
}

// addServeCmd adds a 'serve' subcommand running the HTTP server
func addServeCmd(rootCmd *cobra.Command) {
	var addr string

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the map, its payload and snapshots over HTTP",
		Run: func(cmd *cobra.Command, args []string) {
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			cfg, logger, err := setup(cmd)
			if err != nil {
				exit(cmd, "failed to set up", err)
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}

			store := newStore(cfg, logger)
			if err := store.Load(ctx, cfg.Data.Locations, cfg.Data.Boundaries); err != nil {
				// served as an error state; the reload loop retries
				logger.Error().Err(err).Msg("initial load failed")
			}
			if cfg.Server.Refresh > 0 {
				go reload(ctx, store, cfg, logger)
			}

			if err := server.New(cfg, store, logger).ListenAndServe(ctx); err != nil {
				exit(cmd, "server failed", err)
			}
		},
	}

	serveCmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from config)")

	rootCmd.AddCommand(serveCmd)
}

// reload refreshes the store every server.refresh until ctx is done.
func reload(ctx context.Context, store *fetcher.Store, cfg *config.Config, logger zerolog.Logger) {
	every := cfg.Server.Refresh
	if every < 30*time.Second {
		every = 30 * time.Second
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := store.Load(ctx, cfg.Data.Locations, cfg.Data.Boundaries); err != nil {
				logger.Warn().Err(err).Msg("reload failed")
			}
		}
	}
}
