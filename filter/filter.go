// Package filter narrows a movie list by search text, genre, release date and
// an optional expression. The stage functions are total: they never fail,
// never grow their input and return nil for a nil list.
package filter

import (
	"strconv"
	"strings"

	"golang.org/x/text/cases"

	"github.com/s0up4200/uptick/tmdb"
)

// SearchFilter keeps movies whose title contains key, ignoring case. An empty
// key returns list unchanged.
func SearchFilter(key string, list []tmdb.Movie) []tmdb.Movie {
	if list == nil || key == "" {
		return list
	}

	fold := cases.Fold()
	needle := fold.String(key)
	return keep(list, func(m tmdb.Movie) bool {
		return strings.Contains(fold.String(m.Title), needle)
	})
}

// GenreFilter keeps movies tagged with the numeric genre id key. A key that is
// not a number matches nothing.
func GenreFilter(key string, list []tmdb.Movie) []tmdb.Movie {
	if list == nil {
		return nil
	}

	id, err := strconv.Atoi(strings.TrimSpace(key))
	if err != nil {
		return []tmdb.Movie{}
	}
	return keep(list, func(m tmdb.Movie) bool {
		return m.HasGenre(id)
	})
}

// DateFilter keeps movies whose release date matches key. key is a year
// (1999), a month (1999-03), a day (1999-03-30) or an inclusive range of
// those joined by "..", with either side optional (2000.., ..1999,
// 1999-01..2003-06-30). Movies without a valid release date never match and
// a malformed key matches nothing.
func DateFilter(key string, list []tmdb.Movie) []tmdb.Movie {
	if list == nil {
		return nil
	}

	r, ok := parseDateRange(key)
	if !ok {
		return []tmdb.Movie{}
	}
	return keep(list, func(m tmdb.Movie) bool {
		return r.contains(m.ReleaseDate)
	})
}

// Apply runs the search, genre and date stages in that order, skipping each
// stage whose criterion is empty or blank. The expression criterion is
// ignored; use a Pipeline to include it.
func Apply(c Criteria, list []tmdb.Movie) []tmdb.Movie {
	c = c.Normalize()
	if c.SearchKey != "" {
		list = SearchFilter(c.SearchKey, list)
	}
	if c.GenreFilterKey != "" {
		list = GenreFilter(c.GenreFilterKey, list)
	}
	if c.ReleaseDate != "" {
		list = DateFilter(c.ReleaseDate, list)
	}
	return list
}

func keep(list []tmdb.Movie, pred func(tmdb.Movie) bool) []tmdb.Movie {
	out := make([]tmdb.Movie, 0, len(list))
	for _, m := range list {
		if pred(m) {
			out = append(out, m)
		}
	}
	return out
}
