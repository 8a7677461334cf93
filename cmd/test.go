package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/s0up4200/uptick/tmdb"
)

// testCmd represents the test command
var testCmd = &cobra.Command{
	Use:   "test",
	Short: "Test connection to TMDB",
	Long:  `Test the connection to the TMDB API and display basic information.`,
	RunE:  runTest,
}

func runTest(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Testing connection to TMDB at %s...\n", cfg.TMDB.URL)

	var (
		discover *tmdb.DiscoverResponse
		genres   []tmdb.Genre
	)

	g, ctx := errgroup.WithContext(context.Background())
	g.Go(func() error {
		var err error
		discover, err = tmdbClient.Discover(ctx, tmdbClient.DiscoverURL())
		if err != nil {
			return fmt.Errorf("failed to get movies: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		genres, err = tmdbClient.Genres(ctx)
		if err != nil {
			return fmt.Errorf("failed to get genres: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}

	fmt.Fprintln(out, "✓ Connection successful!")

	fmt.Fprintf(out, "\nTMDB Statistics:\n")
	fmt.Fprintf(out, "- Movies on discover page: %d\n", len(discover.Results))
	fmt.Fprintf(out, "- Total results: %d\n", discover.TotalResults)
	fmt.Fprintf(out, "- Total genres: %d\n", len(genres))

	fmt.Fprintf(out, "\nResponse cache: %s\n", boolToStatus(cfg.Cache.Enabled))
	if cfg.TMDB.RateLimit > 0 {
		fmt.Fprintf(out, "Rate limit: %.1f req/s (burst %d)\n", cfg.TMDB.RateLimit, cfg.TMDB.RateBurst)
	} else {
		fmt.Fprintln(out, "Rate limit: Disabled")
	}

	return nil
}

func boolToStatus(b bool) string {
	if b {
		return "Enabled"
	}
	return "Disabled"
}
