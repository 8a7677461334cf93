package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/peterh/liner"
	"github.com/spf13/cobra"

	"github.com/s0up4200/uptick/metrics"
	"github.com/s0up4200/uptick/page"
	"github.com/s0up4200/uptick/render"
)

const clearScreen = "\033[H\033[2J"

var errQuit = errors.New("quit")

var browseCommands = []string{
	"next", "prev", "page", "search", "genre", "date", "where", "filter",
	"clear", "genres", "reload", "show", "help", "quit",
}

const browseHelp = `Commands:
  next, n            next page
  prev, p            previous page
  page N             jump to page N
  search [TEXT]      filter by title, no text clears
  genre [ID|NAME]    filter by genre
  date [DATE]        YYYY, YYYY-MM, YYYY-MM-DD or FROM..TO
  where [EXPR]       filter expression
  filter [NAME]      named filter from config
  clear              drop all criteria
  genres             list genres
  reload             fetch the catalog again
  show               print the current page
  quit, q            leave
`

// browseCmd represents the browse command
var browseCmd = &cobra.Command{
	Use:   "browse",
	Short: "Browse the catalog interactively",
	Long: `Browse the discover catalog page by page. Criteria can be changed at any
time; like the web page, changing them keeps the current page.`,
	RunE: runBrowse,
}

func runBrowse(cmd *cobra.Command, args []string) error {
	if !isTerminal(os.Stdin) {
		return fmt.Errorf("browse requires an interactive terminal")
	}

	ctx := context.Background()
	out := cmd.OutOrStdout()

	c, err := loadCatalog(ctx, page.OnNavigate(func(int) {
		fmt.Fprint(out, clearScreen)
	}))
	b := newBrowser(c, out, func(ctx context.Context) error {
		fetcher.Reload(ctx, fetcher.URL())
		state, err := fetcher.Wait(ctx)
		if err != nil {
			return err
		}
		return state.Err
	})
	b.show()
	if err != nil {
		logger.Warn().Err(err).Msg("Catalog unavailable, use reload to try again")
	}

	line := liner.NewLiner()
	defer line.Close()

	line.SetCtrlCAborts(true)
	line.SetCompleter(func(input string) []string {
		var matches []string
		for _, command := range browseCommands {
			if strings.HasPrefix(command, strings.ToLower(input)) {
				matches = append(matches, command)
			}
		}
		return matches
	})

	for {
		input, err := line.Prompt("uptick> ")
		if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read input: %w", err)
		}
		if strings.TrimSpace(input) != "" {
			line.AppendHistory(input)
		}

		if err := b.exec(ctx, input); err != nil {
			if errors.Is(err, errQuit) {
				return nil
			}
			fmt.Fprintf(out, "error: %v\n", err)
		}
	}
}

// browser holds the interactive session state on top of a catalog
type browser struct {
	catalog   *catalog
	formatter *render.ConsoleFormatter
	out       io.Writer
	reload    func(ctx context.Context) error

	search string
	genre  string
	date   string
	where  string
	named  string
}

func newBrowser(c *catalog, out io.Writer, reload func(ctx context.Context) error) *browser {
	return &browser{
		catalog:   c,
		formatter: render.NewConsoleFormatter(c.genres, false),
		out:       out,
		reload:    reload,
	}
}

func (b *browser) show() {
	view := b.catalog.page.View()
	metrics.ObserveFiltered(view.Status == page.StatusReady, view.Matched())
	fmt.Fprint(b.out, b.formatter.FormatView(view))
}

// exec runs one command line. errQuit ends the session.
func (b *browser) exec(ctx context.Context, input string) error {
	command, arg, _ := strings.Cut(strings.TrimSpace(input), " ")
	arg = strings.TrimSpace(arg)
	p := b.catalog.page

	switch strings.ToLower(command) {
	case "", "show":
	case "n", "next":
		if !p.Next() {
			return fmt.Errorf("already on the last page")
		}
	case "p", "prev":
		if !p.Prev() {
			return fmt.Errorf("already on the first page")
		}
	case "page":
		n, err := strconv.Atoi(arg)
		if err != nil || n < 1 {
			return fmt.Errorf("invalid page: %q (must be 1 or greater)", arg)
		}
		p.SetPage(n)
	case "search":
		return b.apply(func() { b.search = arg })
	case "genre":
		return b.apply(func() { b.genre = arg })
	case "date":
		return b.apply(func() { b.date = arg })
	case "where":
		return b.apply(func() { b.where = arg })
	case "filter":
		return b.apply(func() { b.named = arg })
	case "clear":
		return b.apply(func() { b.search, b.genre, b.date, b.where, b.named = "", "", "", "", "" })
	case "genres":
		fmt.Fprint(b.out, b.formatter.FormatGenres(b.catalog.genres.Genres()))
		return nil
	case "reload":
		if err := b.reload(ctx); err != nil {
			b.show()
			return fmt.Errorf("reload failed: %w", err)
		}
	case "help", "?":
		fmt.Fprint(b.out, browseHelp)
		return nil
	case "q", "quit", "exit":
		return errQuit
	default:
		return fmt.Errorf("unknown command: %s (try help)", command)
	}

	b.show()
	return nil
}

// apply updates one criterion and re-renders. A rejected change is rolled
// back so the session keeps its previous criteria.
func (b *browser) apply(change func()) error {
	previous := *b
	change()

	criteria, err := b.catalog.criteria(b.search, b.genre, b.date, b.where, b.named)
	if err == nil {
		err = b.catalog.page.SetCriteria(criteria)
	}
	if err != nil {
		b.search, b.genre, b.date, b.where, b.named = previous.search, previous.genre, previous.date, previous.where, previous.named
		return err
	}

	b.show()
	return nil
}
