package fetcher

import (
	"context"
	"net/http"
	"sync"

	"github.com/rs/zerolog"
)

// Store holds the loaded dataset together with its load state. A failed
// load leaves a readable error message and is not retried.
type Store struct {
	client   *http.Client
	basePath string
	logger   zerolog.Logger

	mu      sync.RWMutex
	dataset Dataset
	loading bool
	err     string
}

// NewStore creates an empty store.
func NewStore(client *http.Client, basePath string, logger zerolog.Logger) *Store {
	return &Store{
		client:   client,
		basePath: basePath,
		logger:   logger.With().Str("component", "store").Logger(),
	}
}

// Load fetches the locations and the optional boundaries once. On failure
// the previous dataset is kept and the error is recorded.
func (s *Store) Load(ctx context.Context, locationsSrc, boundariesSrc string) error {
	s.mu.Lock()
	s.loading = true
	s.err = ""
	s.mu.Unlock()

	ds, err := s.fetch(ctx, locationsSrc, boundariesSrc)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false
	if err != nil {
		s.err = err.Error()
		s.logger.Error().Err(err).Str("source", locationsSrc).Msg("failed to load fire locations")
		return err
	}
	s.dataset = ds
	s.logger.Info().
		Int("locations", len(ds.Locations)).
		Bool("boundaries", ds.Boundaries != nil).
		Msg("dataset loaded")
	return nil
}

func (s *Store) fetch(ctx context.Context, locationsSrc, boundariesSrc string) (Dataset, error) {
	locations, err := FetchLocations(ctx, s.client, s.basePath, locationsSrc, s.logger)
	if err != nil {
		return Dataset{}, err
	}
	boundaries, err := FetchBoundaries(ctx, s.client, s.basePath, boundariesSrc, s.logger)
	if err != nil {
		// boundaries are optional
		s.logger.Warn().Err(err).Str("source", boundariesSrc).Msg("skipping boundary outline")
		boundaries = nil
	}
	return Dataset{Locations: locations, Boundaries: boundaries}, nil
}

// Dataset returns the last successfully loaded dataset.
func (s *Store) Dataset() Dataset {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dataset
}

// Loading reports whether a load is in progress.
func (s *Store) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// Err returns the message of the last failed load, or "".
func (s *Store) Err() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.err
}
