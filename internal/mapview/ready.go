package mapview

import (
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
)

// ReadyState is the state of a Readiness tracker.
type ReadyState int

const (
	StateUninitialized ReadyState = iota
	StateReady
	StateFailed
)

func (s ReadyState) String() string {
	switch s {
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	default:
		return "uninitialized"
	}
}

// ReadyConfig bounds the wait for a laid-out container.
type ReadyConfig struct {
	Delay       time.Duration `yaml:"delay"`
	MaxAttempts int           `yaml:"max_attempts"`
}

// Readiness waits for the map container to have a non-zero size. A zero
// size is re-checked every Delay, at most MaxAttempts more times, after
// which the tracker gives up for good.
type Readiness struct {
	m        *Map
	cfg      ReadyConfig
	b        backoff.BackOff
	state    ReadyState
	started  bool
	attempts int
	timer    *Timer
	onReady  func()
	done     chan struct{}
	logger   zerolog.Logger
}

// NewReadiness creates a tracker for m.
func NewReadiness(m *Map, cfg ReadyConfig, logger zerolog.Logger) *Readiness {
	return &Readiness{
		m:      m,
		cfg:    cfg,
		b:      backoff.WithMaxRetries(backoff.NewConstantBackOff(cfg.Delay), uint64(max(cfg.MaxAttempts, 0))),
		done:   make(chan struct{}),
		logger: logger.With().Str("component", "readiness").Logger(),
	}
}

// Start runs the first check; onReady runs once, on the loop, when the
// container has a size. Later calls are ignored.
func (r *Readiness) Start(onReady func()) {
	if r.started {
		return
	}
	r.started = true
	r.onReady = onReady
	r.check()
}

func (r *Readiness) check() {
	if r.state != StateUninitialized || r.m.Removed() {
		return
	}
	r.attempts++
	if size := r.m.container.Size(); size.X > 0 && size.Y > 0 {
		r.m.InvalidateSize()
		r.finish(StateReady)
		r.logger.Debug().Int("attempts", r.attempts).Int("width", size.X).Int("height", size.Y).Msg("map container ready")
		if r.onReady != nil {
			r.onReady()
		}
		return
	}

	next := r.b.NextBackOff()
	if next == backoff.Stop {
		r.finish(StateFailed)
		r.logger.Warn().Int("attempts", r.attempts).Msg("map container never got a size, giving up")
		return
	}
	r.timer = r.m.loop.After(next, r.check)
}

func (r *Readiness) finish(s ReadyState) {
	r.state = s
	r.timer = nil
	close(r.done)
}

// Cancel stops waiting. A tracker that was still waiting ends up failed.
func (r *Readiness) Cancel() {
	r.timer.Stop()
	if r.state == StateUninitialized {
		r.finish(StateFailed)
	}
}

// State returns the current state. Call on the loop, or after Done.
func (r *Readiness) State() ReadyState { return r.state }

// Attempts returns how many size checks ran.
func (r *Readiness) Attempts() int { return r.attempts }

// Done is closed when the tracker becomes ready or fails.
func (r *Readiness) Done() <-chan struct{} { return r.done }
