package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/s0up4200/uptick/metrics"
	"github.com/s0up4200/uptick/page"
	"github.com/s0up4200/uptick/render"
)

var (
	searchKey    string
	genreKey     string
	releaseDate  string
	whereExpr    string
	namedFilter  string
	pageNumber   int
	showOverview bool
)

// listCmd represents the list command
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List one page of movies matching the criteria",
	Long: `List one page of the discover catalog after applying the search, genre and
release date criteria. Genres may be given by id or by name. Dates accept
YYYY, YYYY-MM, YYYY-MM-DD or an inclusive FROM..TO range.`,
	Example: `  uptick list --search matrix
  uptick list --genre action --date 1999
  uptick list --date 2000..2009 --where 'VoteAverage >= 7' --page 2`,
	RunE: runList,
}

func init() {
	listCmd.Flags().StringVarP(&searchKey, "search", "s", "", "case-insensitive title search")
	listCmd.Flags().StringVarP(&genreKey, "genre", "g", "", "genre id or name")
	listCmd.Flags().StringVarP(&releaseDate, "date", "d", "", "release date or FROM..TO range")
	listCmd.Flags().StringVarP(&whereExpr, "where", "w", "", "filter expression")
	listCmd.Flags().StringVarP(&namedFilter, "filter", "f", "", "use a named filter from config")
	listCmd.Flags().IntVarP(&pageNumber, "page", "p", 1, "page to show")
	listCmd.Flags().BoolVar(&showOverview, "overview", false, "show movie overviews")
}

func runList(cmd *cobra.Command, args []string) error {
	if pageNumber < 1 {
		return fmt.Errorf("invalid page: %d (must be 1 or greater)", pageNumber)
	}

	ctx := context.Background()
	out := cmd.OutOrStdout()

	c, err := loadCatalog(ctx)
	formatter := render.NewConsoleFormatter(c.genres, showOverview)
	if err != nil {
		fmt.Fprint(out, formatter.FormatView(c.page.View()))
		return err
	}

	criteria, err := c.criteria(searchKey, genreKey, releaseDate, whereExpr, namedFilter)
	if err != nil {
		return err
	}
	if err := c.page.SetCriteria(criteria); err != nil {
		return err
	}
	c.page.SetPage(pageNumber)

	logger.Info().
		Str("search", criteria.SearchKey).
		Str("genre", criteria.GenreFilterKey).
		Str("date", criteria.ReleaseDate).
		Str("where", criteria.Expression).
		Int("page", pageNumber).
		Msg("Listing movies")

	view := c.page.View()
	metrics.ObserveFiltered(view.Status == page.StatusReady, view.Matched())
	fmt.Fprint(out, formatter.FormatView(view))
	if view.OutOfRange() {
		logger.Warn().
			Int("page", view.Pagination.Number).
			Int("pages", view.Pagination.TotalPages).
			Msg("Page is past the last page of the filtered results")
	}
	return nil
}
