package cmd

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/s0up4200/uptick/filter"
	"github.com/s0up4200/uptick/page"
	"github.com/s0up4200/uptick/tmdb"
)

// catalog is a mounted page together with the genre index
type catalog struct {
	page   *page.Page
	genres *tmdb.GenreIndex
}

// loadCatalog fetches the discover catalog and the genre list concurrently.
// A genre failure is logged and leaves genres nil; a catalog failure is
// returned after the page has settled into its failed state.
func loadCatalog(ctx context.Context, opts ...page.Option) (*catalog, error) {
	opts = append([]page.Option{page.WithLogger(logger)}, opts...)
	c := &catalog{page: page.New(fetcher, tmdbClient.DiscoverURL(), opts...)}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		genres, err := tmdbClient.Genres(gctx)
		if err != nil {
			logger.Warn().Err(err).Msg("Failed to load genres, showing genre ids")
			return nil
		}
		c.genres = tmdb.NewGenreIndex(genres)
		return nil
	})

	g.Go(func() error {
		c.page.Mount(ctx)
		state, err := fetcher.Wait(gctx)
		if err != nil {
			return err
		}
		if state.Err != nil {
			return fmt.Errorf("failed to load movies: %w", state.Err)
		}
		logger.Debug().Int("movies", len(state.Movies())).Msg("Catalog loaded")
		return nil
	})

	if err := g.Wait(); err != nil {
		return c, err
	}
	return c, nil
}

// criteria builds filter criteria from user input, resolving genre names and
// named filters from the config
func (c *catalog) criteria(search, genre, date, where, named string) (filter.Criteria, error) {
	if named != "" {
		expression, ok := cfg.Filter(named)
		if !ok {
			return filter.Criteria{}, fmt.Errorf("filter '%s' not found in config", named)
		}
		if where != "" {
			where = fmt.Sprintf("(%s) && (%s)", expression, where)
		} else {
			where = expression
		}
	}

	return filter.Criteria{
		SearchKey:      search,
		GenreFilterKey: c.genres.Resolve(genre),
		ReleaseDate:    date,
		Expression:     where,
	}.Normalize(), nil
}
