package render

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/s0up4200/uptick/page"
	"github.com/s0up4200/uptick/tmdb"
)

const overviewWidth = 72

// ConsoleFormatter provides console output formatting for the discovery page
type ConsoleFormatter struct {
	genres       *tmdb.GenreIndex
	showOverview bool
}

// NewConsoleFormatter creates a new console formatter. genres may be nil, in
// which case genre ids are printed as-is.
func NewConsoleFormatter(genres *tmdb.GenreIndex, showOverview bool) *ConsoleFormatter {
	return &ConsoleFormatter{genres: genres, showOverview: showOverview}
}

// FormatView formats one frame of the page for console display
func (f *ConsoleFormatter) FormatView(v page.View) string {
	switch v.Status {
	case page.StatusLoading:
		return "Loading movies...\n"
	case page.StatusFailed:
		return fmt.Sprintf("%s\n%s\n", page.ErrorTitle, page.ErrorHint)
	}

	var sb strings.Builder
	movies := v.Movies()

	switch {
	case v.Matched() == 0:
		sb.WriteString("\nNo movies found\n")
	case len(movies) == 0:
		fmt.Fprintf(&sb, "\nNo movies on page %d\n", v.Pagination.Number)
	default:
		sb.WriteString("\nMovie")
		if v.Matched() != 1 {
			sb.WriteString("s")
		}
		fmt.Fprintf(&sb, " (%d of %d):\n\n", v.Matched(), v.Fetched)

		for i, movie := range movies {
			isLast := i == len(movies)-1
			f.formatMovie(&sb, movie, isLast)

			if !isLast {
				sb.WriteString("│\n")
			}
		}
	}

	sb.WriteString("\n")
	sb.WriteString(f.FormatPagination(v))
	return sb.String()
}

// FormatPagination formats the page label and the navigation controls.
// Disabled controls are shown in parentheses, the current indicator in
// brackets.
func (f *ConsoleFormatter) FormatPagination(v page.View) string {
	p := v.Pagination

	var sb strings.Builder
	fmt.Fprintf(&sb, "Pages: %s\n", p.Label())

	controls := []string{control("Prev", p.PrevDisabled())}
	for _, n := range p.Indicators() {
		if p.Current(n) {
			controls = append(controls, "["+strconv.Itoa(n)+"]")
		} else {
			controls = append(controls, strconv.Itoa(n))
		}
	}
	controls = append(controls, control("Next", p.NextDisabled()))

	sb.WriteString(strings.Join(controls, " "))
	sb.WriteString("\n")
	return sb.String()
}

func control(label string, disabled bool) string {
	if disabled {
		return "(" + label + ")"
	}
	return "<" + label + ">"
}

// FormatGenres formats the genre list as a tree
func (f *ConsoleFormatter) FormatGenres(genres []tmdb.Genre) string {
	if len(genres) == 0 {
		return "No genres found\n"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "\nGenres (%d):\n\n", len(genres))
	for i, genre := range genres {
		prefix := "├"
		if i == len(genres)-1 {
			prefix = "╰"
		}
		fmt.Fprintf(&sb, "%s── %d %s\n", prefix, genre.ID, genre.Name)
	}
	sb.WriteString("\n")
	return sb.String()
}

// formatMovie formats a single movie entry
func (f *ConsoleFormatter) formatMovie(sb *strings.Builder, movie tmdb.Movie, isLast bool) {
	prefix := "├"
	if isLast {
		prefix = "╰"
	}

	if year := movie.Year(); year > 0 {
		fmt.Fprintf(sb, "%s── %s (%d)\n", prefix, movie.Title, year)
	} else {
		fmt.Fprintf(sb, "%s── %s\n", prefix, movie.Title)
	}

	indent := "│   "
	if isLast {
		indent = "    "
	}

	if movie.ReleaseDate != "" {
		fmt.Fprintf(sb, "%sReleased: %s\n", indent, movie.ReleaseDate)
	}

	if genres := f.genres.Names(movie.GenreIDs); len(genres) > 0 {
		fmt.Fprintf(sb, "%sGenres: %s\n", indent, strings.Join(genres, ", "))
	}

	if movie.VoteCount > 0 {
		fmt.Fprintf(sb, "%sRating: %.1f (%d votes)\n", indent, movie.VoteAverage, movie.VoteCount)
	}

	if f.showOverview && movie.Overview != "" {
		fmt.Fprintf(sb, "%s%s\n", indent, truncate(movie.Overview, overviewWidth))
	}
}

func truncate(s string, width int) string {
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	return strings.TrimSpace(string(runes[:width-3])) + "..."
}
