// Package web serves the discovery page over HTTP.
package web

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/microcosm-cc/bluemonday"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/s0up4200/uptick/filter"
	"github.com/s0up4200/uptick/page"
	"github.com/s0up4200/uptick/render"
	"github.com/s0up4200/uptick/tmdb"
)

const shutdownTimeout = 10 * time.Second

// genreRetryAfter is how long a failed genre load is remembered before the
// next request tries again
const genreRetryAfter = time.Minute

// GenreSource provides the genre list for the selector
type GenreSource interface {
	Genres(ctx context.Context) ([]tmdb.Genre, error)
}

// Config holds the HTTP listener settings
type Config struct {
	Listen       string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Server is the web surface of the discovery page. All requests share one
// mounted fetcher; each request gets its own page state.
type Server struct {
	cfg         Config
	fetcher     page.Fetcher
	discoverURL string
	genreSrc    GenreSource
	compiler    *filter.Compiler
	renderer    *render.HTMLRenderer
	policy      *bluemonday.Policy
	logger      zerolog.Logger
	router      *mux.Router
	now         func() time.Time

	genreFlight   singleflight.Group
	genreMu       sync.Mutex
	genreIdx      *tmdb.GenreIndex
	genreFailedAt time.Time
}

// NewServer creates a server reading the catalog at discoverURL through
// fetcher. genres may be nil.
func NewServer(cfg Config, fetcher page.Fetcher, discoverURL string, genres GenreSource, logger zerolog.Logger) (*Server, error) {
	renderer, err := render.NewHTMLRenderer()
	if err != nil {
		return nil, err
	}

	s := &Server{
		cfg:         cfg,
		fetcher:     fetcher,
		discoverURL: discoverURL,
		genreSrc:    genres,
		compiler:    filter.NewCompiler(filter.WithCache(64)),
		renderer:    renderer,
		policy:      bluemonday.StrictPolicy(),
		logger:      logger.With().Str("module", "web").Logger(),
		now:         time.Now,
	}
	s.router = s.routes()
	return s, nil
}

func (s *Server) routes() *mux.Router {
	router := mux.NewRouter()
	router.Use(s.requestID, s.instrument)

	router.HandleFunc("/", s.handleIndex).Methods(http.MethodGet)
	router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	apiRouter := router.PathPrefix("/api").Subrouter()
	apiRouter.HandleFunc("/movies", s.handleMovies).Methods(http.MethodGet)
	apiRouter.HandleFunc("/genres", s.handleGenres).Methods(http.MethodGet)

	return router
}

// Handler returns the root handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run mounts the catalog and serves until ctx is canceled
func (s *Server) Run(ctx context.Context) error {
	s.fetcher.Load(context.WithoutCancel(ctx), s.discoverURL)
	go s.genreIndex(ctx)

	srv := &http.Server{
		Addr:         s.cfg.Listen,
		Handler:      s.router,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("listen", s.cfg.Listen).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server failed: %w", err)
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	s.logger.Info().Msg("Shutting down HTTP server")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown failed: %w", err)
	}
	return nil
}

// genreIndex loads the genre list once. Concurrent callers share one
// request. A failure is logged and remembered for genreRetryAfter, during
// which callers get nil and fall back to raw ids.
func (s *Server) genreIndex(ctx context.Context) *tmdb.GenreIndex {
	if s.genreSrc == nil {
		return nil
	}

	s.genreMu.Lock()
	idx, failedAt := s.genreIdx, s.genreFailedAt
	s.genreMu.Unlock()

	if idx != nil {
		return idx
	}
	if !failedAt.IsZero() && s.now().Sub(failedAt) < genreRetryAfter {
		return nil
	}

	v, _, _ := s.genreFlight.Do("genres", func() (any, error) {
		genres, err := s.genreSrc.Genres(context.WithoutCancel(ctx))

		s.genreMu.Lock()
		defer s.genreMu.Unlock()

		if err != nil {
			s.genreFailedAt = s.now()
			s.logger.Warn().Err(err).Dur("retry_after", genreRetryAfter).Msg("Failed to load genres")
			return (*tmdb.GenreIndex)(nil), nil
		}
		s.genreIdx = tmdb.NewGenreIndex(genres)
		s.genreFailedAt = time.Time{}
		return s.genreIdx, nil
	})

	idx, _ = v.(*tmdb.GenreIndex)
	return idx
}
