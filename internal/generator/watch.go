package generator

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/Zachdehooge/fire-map/internal/mapview"
	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// Watcher reruns a generator when one of its local source files changes.
// Bursts of file events within the debounce delay cause one run.
type Watcher struct {
	g        *Generator
	fs       *fsnotify.Watcher
	files    map[string]bool
	loop     *mapview.Loop
	debounce *mapview.Debouncer
	logger   zerolog.Logger
	ctx      context.Context
}

// Watch prepares a watcher over paths. Parent directories are watched so
// files replaced by rename are still seen. Call Run to start.
func (g *Generator) Watch(paths []string, delay time.Duration) (*Watcher, error) {
	if len(paths) == 0 {
		return nil, errors.New("no local sources to watch")
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	w := &Watcher{
		g:      g,
		fs:     fw,
		files:  make(map[string]bool),
		loop:   mapview.NewLoop(g.logger),
		logger: g.logger.With().Str("component", "watcher").Logger(),
	}
	w.debounce = mapview.NewDebouncer(w.loop, delay, w.regenerate)

	dirs := make(map[string]bool)
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			fw.Close()
			return nil, err
		}
		w.files[abs] = true
		dir := filepath.Dir(abs)
		if dirs[dir] {
			continue
		}
		if err := fw.Add(dir); err != nil {
			fw.Close()
			return nil, fmt.Errorf("failed to watch %s: %w", dir, err)
		}
		dirs[dir] = true
	}
	return w, nil
}

// Run handles file events until ctx is done.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.fs.Close()

	w.ctx = ctx
	loopCtx, stop := context.WithCancel(ctx)
	loopDone := make(chan struct{})
	go func() {
		defer close(loopDone)
		_ = w.loop.Run(loopCtx)
	}()
	// a regeneration in progress finishes before Run returns
	defer func() {
		stop()
		w.loop.Close()
		<-loopDone
	}()

	w.logger.Info().Int("files", len(w.files)).Msg("watching sources")
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			if !w.files[filepath.Clean(ev.Name)] || !ev.Has(fsnotify.Write|fsnotify.Create|fsnotify.Rename) {
				continue
			}
			w.logger.Debug().Str("file", ev.Name).Str("op", ev.Op.String()).Msg("source changed")
			w.loop.Post(w.debounce.Trigger)
		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn().Err(err).Msg("watch error")
		}
	}
}

func (w *Watcher) regenerate() {
	if err := w.g.Run(w.ctx); err != nil {
		w.logger.Error().Err(err).Msg("regeneration failed")
	}
}
