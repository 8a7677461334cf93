package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/s0up4200/uptick/render"
)

// genresCmd represents the genres command
var genresCmd = &cobra.Command{
	Use:   "genres",
	Short: "List TMDB movie genres",
	Long:  `List the TMDB movie genres with the ids accepted by --genre.`,
	RunE:  runGenres,
}

func runGenres(cmd *cobra.Command, args []string) error {
	genres, err := tmdbClient.Genres(context.Background())
	if err != nil {
		return fmt.Errorf("failed to get genres: %w", err)
	}

	fmt.Fprint(cmd.OutOrStdout(), render.NewConsoleFormatter(nil, false).FormatGenres(genres))
	return nil
}
