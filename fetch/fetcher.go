// Package fetch runs the single catalog request behind the discovery page and
// exposes its loading, error and data lifecycle.
package fetch

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/s0up4200/uptick/cache"
	"github.com/s0up4200/uptick/metrics"
	"github.com/s0up4200/uptick/tmdb"
)

// ErrNotMounted is returned by Wait before the first Load
var ErrNotMounted = errors.New("fetcher has not been loaded")

// Source performs the actual request
type Source interface {
	Discover(ctx context.Context, url string) (*tmdb.DiscoverResponse, error)
}

// State is a snapshot of the fetch lifecycle. Data is nil unless the request
// succeeded; Err is nil unless it failed.
type State struct {
	Loading bool
	Err     error
	Data    *tmdb.DiscoverResponse
}

// Movies returns the fetched results, or nil while loading or after a failure
func (s State) Movies() []tmdb.Movie {
	if s.Data == nil {
		return nil
	}
	return s.Data.Results
}

// Option configures a Fetcher
type Option func(*Fetcher)

// WithCache keeps up to size successful responses keyed by URL. Entries older
// than ttl are fetched again; a zero ttl keeps them until evicted.
func WithCache(size int, ttl time.Duration) Option {
	return func(f *Fetcher) {
		if size > 0 {
			f.cache = cache.New[*tmdb.DiscoverResponse](size, ttl)
		}
	}
}

// Fetcher issues one request per mount or URL change
type Fetcher struct {
	src    Source
	logger zerolog.Logger
	cache  *cache.LRU[*tmdb.DiscoverResponse]

	mu      sync.Mutex
	mounted bool
	url     string
	gen     uint64
	state   State
	done    chan struct{}
}

// New creates a fetcher. It reports Loading until the first Load settles.
func New(src Source, logger zerolog.Logger, opts ...Option) *Fetcher {
	f := &Fetcher{
		src:    src,
		logger: logger,
		state:  State{Loading: true},
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// Load mounts url. The first call, and any call with a different url, starts
// one request in the background; repeated calls with the mounted url do
// nothing. ctx bounds the request.
func (f *Fetcher) Load(ctx context.Context, url string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.mounted && f.url == url {
		return
	}
	f.start(ctx, url)
}

// Reload remounts url even if it is already mounted. A cached response for
// url is dropped first so the source is always asked again.
func (f *Fetcher) Reload(ctx context.Context, url string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.cache != nil {
		f.cache.Remove(url)
	}
	f.start(ctx, url)
}

// start must be called with f.mu held
func (f *Fetcher) start(ctx context.Context, url string) {
	f.mounted = true
	f.url = url
	f.gen++
	gen := f.gen
	done := make(chan struct{})
	f.done = done

	if f.cache != nil {
		if resp, ok := f.cache.Get(url); ok {
			f.state = State{Data: resp}
			close(done)
			metrics.FetchTotal.WithLabelValues(metrics.FetchCache).Inc()
			f.logger.Debug().Int("count", len(resp.Results)).Msg("Serving catalog from cache")
			return
		}
	}

	f.state = State{Loading: true}
	go f.run(ctx, url, gen, done)
}

func (f *Fetcher) run(ctx context.Context, url string, gen uint64, done chan struct{}) {
	start := time.Now()
	resp, err := f.src.Discover(ctx, url)

	f.mu.Lock()
	defer f.mu.Unlock()
	defer close(done)

	if gen != f.gen {
		f.logger.Debug().Uint64("generation", gen).Msg("Discarding stale catalog response")
		return
	}

	if err != nil {
		f.state = State{Err: err}
		metrics.FetchTotal.WithLabelValues(metrics.FetchError).Inc()
		f.logger.Warn().Err(err).Dur("took", time.Since(start)).Msg("Catalog fetch failed")
		return
	}

	f.state = State{Data: resp}
	metrics.FetchTotal.WithLabelValues(metrics.FetchOK).Inc()
	if f.cache != nil {
		f.cache.Put(url, resp)
	}
	f.logger.Info().
		Int("count", len(resp.Results)).
		Dur("took", time.Since(start)).
		Msg("Catalog fetched")
}

// State returns the current snapshot
func (f *Fetcher) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.state
}

// URL returns the mounted url, empty before the first Load
func (f *Fetcher) URL() string {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.url
}

// Wait blocks until the current request settles or ctx ends. A request
// superseded by a newer Load keeps Wait blocked on the newer one.
func (f *Fetcher) Wait(ctx context.Context) (State, error) {
	for {
		f.mu.Lock()
		if !f.mounted {
			f.mu.Unlock()
			return State{}, ErrNotMounted
		}
		done := f.done
		f.mu.Unlock()

		select {
		case <-done:
		case <-ctx.Done():
			return f.State(), ctx.Err()
		}

		f.mu.Lock()
		current := f.done == done
		state := f.state
		f.mu.Unlock()
		if current {
			return state, nil
		}
	}
}
