package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/Zachdehooge/fire-map/internal/config"
	"github.com/Zachdehooge/fire-map/internal/fetcher"
	"github.com/Zachdehooge/fire-map/internal/generator"
	"github.com/Zachdehooge/fire-map/internal/overlay"
	"github.com/cli/browser"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// watchDebounce coalesces editor save bursts into one regeneration.
const watchDebounce = 500 * time.Millisecond

var (
	configPath  string
	verbose     bool
	variantName string
	modeName    string

	outputFile  string
	payloadFile string
	interval    int
	watchMode   bool
	openBrowser bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "fire-map",
		Short: "Generate an interactive map of fire locations",
		Long: `Fire Map reads fire locations from a GeoJSON file or URL and
generates a static HTML map with a points or heatmap display, plus a
JSON payload the page refreshes from.`,
		Run: func(cmd *cobra.Command, args []string) {
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			g, cfg, logger, err := newGenerator(cmd)
			if err != nil {
				exit(cmd, "failed to set up", err)
			}
			if err := g.Run(ctx); err != nil {
				exit(cmd, "failed to generate fire map", err)
			}
			cmd.Println(fmt.Sprintf("Fire map saved to %s", outputPath(cfg)))

			if openBrowser {
				if path, err := filepath.Abs(outputPath(cfg)); err == nil {
					if err := browser.OpenFile(path); err != nil {
						logger.Warn().Err(err).Msg("failed to open browser")
					}
				}
			}

			// Watch mode
			if watchMode {
				if err := runWatchMode(ctx, cmd, g, cfg); err != nil {
					exit(cmd, "watch failed", err)
				}
			}
		},
	}

	// Flags
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default $"+config.EnvConfig+" or "+config.DefaultPath+")")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVar(&variantName, "variant", "", "Map variant (default from config)")
	rootCmd.PersistentFlags().StringVar(&modeName, "mode", "", "Display mode: points or heatmap (default from config)")

	rootCmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output HTML file path (default from config)")
	rootCmd.Flags().StringVar(&payloadFile, "payload", "", "Output JSON payload path (default from config)")
	rootCmd.Flags().IntVarP(&interval, "interval", "i", 300, "Update interval in seconds for URL sources (minimum 30)")
	rootCmd.Flags().BoolVar(&watchMode, "watch", false, "Continuously update the fire map")
	rootCmd.Flags().BoolVar(&openBrowser, "open", false, "Open the generated page in a browser")

	// Additional commands
	addListCmd(rootCmd)
	addStatsCmd(rootCmd)
	addRenderCmd(rootCmd)
	addServeCmd(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func exit(cmd *cobra.Command, msg string, err error) {
	cmd.PrintErrln(fmt.Errorf("%s: %w", msg, err))
	os.Exit(1)
}

// setup loads the configuration and builds the console logger.
func setup(cmd *cobra.Command) (*config.Config, zerolog.Logger, error) {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: cmd.ErrOrStderr(), TimeFormat: time.Kitchen}).
		Level(level).
		With().Timestamp().Logger()

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, logger, err
	}
	if _, err := cfg.Variant(variantName); err != nil {
		return nil, logger, err
	}
	logger.Debug().Str("base_path", cfg.BasePath).Str("locations", cfg.Data.Locations).Msg("config loaded")
	return cfg, logger, nil
}

func displayMode(cfg *config.Config) (overlay.Mode, error) {
	if modeName != "" {
		return overlay.ParseMode(modeName)
	}
	return overlay.ParseMode(cfg.Map.Mode)
}

func newStore(cfg *config.Config, logger zerolog.Logger) *fetcher.Store {
	return fetcher.NewStore(fetcher.NewClient(cfg.Data.Timeout), cfg.BasePath, logger)
}

func outputPath(cfg *config.Config) string {
	if outputFile != "" {
		return outputFile
	}
	return cfg.Output.HTML
}

func newGenerator(cmd *cobra.Command) (*generator.Generator, *config.Config, zerolog.Logger, error) {
	cfg, logger, err := setup(cmd)
	if err != nil {
		return nil, nil, logger, err
	}
	mode, err := displayMode(cfg)
	if err != nil {
		return nil, nil, logger, err
	}

	out := generator.Outputs{HTML: outputPath(cfg), Payload: payloadFile}
	if out.Payload == "" {
		out.Payload = cfg.Output.Payload
	}

	page := generator.Page{VariantName: variantName, Mode: mode}
	if out.Payload != "" {
		page.PayloadURL = relativeURL(out.HTML, out.Payload)
		if watchMode {
			page.Refresh = watchInterval()
		}
	}
	return generator.New(newStore(cfg, logger), cfg, page, out, logger), cfg, logger, nil
}

// relativeURL returns target as a URL relative to the page at html.
func relativeURL(html, target string) string {
	rel, err := filepath.Rel(filepath.Dir(html), target)
	if err != nil {
		return filepath.Base(target)
	}
	return filepath.ToSlash(rel)
}

func watchInterval() time.Duration {
	// Enforce minimum interval
	if interval < 30 {
		interval = 30
	}
	return time.Duration(interval) * time.Second
}

// runWatchMode regenerates until interrupted. Local sources are watched
// for changes; any URL source switches to polling every interval.
func runWatchMode(ctx context.Context, cmd *cobra.Command, g *generator.Generator, cfg *config.Config) error {
	every := watchInterval()

	var local []string
	remote := false
	for _, src := range []string{cfg.Data.Locations, cfg.Data.Boundaries} {
		if src == "" {
			continue
		}
		if path, ok := fetcher.LocalPath(cfg.BasePath, src); ok {
			local = append(local, path)
		} else {
			remote = true
		}
	}

	if remote {
		cmd.Println(fmt.Sprintf("Watch mode activated. Updating every %d seconds. Press Ctrl+C to stop.", int(every/time.Second)))
		g.Poll(ctx, every)
		return nil
	}

	w, err := g.Watch(local, watchDebounce)
	if err != nil {
		return err
	}
	cmd.Println("Watch mode activated. Regenerating when the data files change. Press Ctrl+C to stop.")
	return w.Run(ctx)
}
