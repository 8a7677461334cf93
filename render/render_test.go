package render

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/s0up4200/uptick/filter"
	"github.com/s0up4200/uptick/page"
	"github.com/s0up4200/uptick/paginate"
	"github.com/s0up4200/uptick/tmdb"
)

var testGenres = tmdb.NewGenreIndex([]tmdb.Genre{
	{ID: 28, Name: "Action"},
	{ID: 878, Name: "Science Fiction"},
})

func movies(n int) []tmdb.Movie {
	out := make([]tmdb.Movie, n)
	for i := range out {
		out[i] = tmdb.Movie{
			ID:          int64(i + 1),
			Title:       fmt.Sprintf("Movie %d", i+1),
			GenreIDs:    []int{28, 878},
			ReleaseDate: "1999-03-31",
			Overview:    "A <b>bold</b> plot",
		}
	}
	return out
}

func readyView(list []tmdb.Movie, n int, c filter.Criteria) page.View {
	return page.View{
		Status:     page.StatusReady,
		Criteria:   c,
		Fetched:    len(list),
		Pagination: paginate.Paginate(list, n),
	}
}

func renderDoc(t *testing.T, data PageData) *goquery.Document {
	t.Helper()

	r, err := NewHTMLRenderer()
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, r.Render(&buf, data))

	doc, err := goquery.NewDocumentFromReader(&buf)
	require.NoError(t, err)
	return doc
}

func TestHTMLReadyPage(t *testing.T) {
	c := filter.Criteria{SearchKey: "movie", GenreFilterKey: "28"}
	doc := renderDoc(t, PageData{View: readyView(movies(5), 1, c), Genres: testGenres})

	assert.Equal(t, 4, doc.Find(".movie-card").Length())
	assert.Equal(t, "Pages: 1 of 2", strings.TrimSpace(doc.Find(".pagination").Text()))
	assert.Equal(t, 2, doc.Find(".indicator").Length())
	assert.Equal(t, "1", strings.TrimSpace(doc.Find(".indicator.active").Text()))

	_, disabled := doc.Find("button.prev").Attr("disabled")
	assert.True(t, disabled)

	next, ok := doc.Find("a.next").Attr("href")
	require.True(t, ok)
	assert.Contains(t, next, "page=2")
	assert.Contains(t, next, "search=movie")
	assert.Contains(t, next, "genre=28")

	first := doc.Find(".movie-card").First()
	assert.Equal(t, "Movie 1", first.Find(".title").Text())
	assert.Equal(t, "Action, Science Fiction", first.Find(".genres").Text())
	assert.Equal(t, "A bold plot", first.Find(".overview").Text())
	assert.Equal(t, 0, first.Find(".overview b").Length())

	selected, _ := doc.Find("select[name=genre] option[selected]").Attr("value")
	assert.Equal(t, "28", selected)
	hidden, _ := doc.Find("input[name=page]").Attr("value")
	assert.Equal(t, "1", hidden)
}

func TestHTMLLastPage(t *testing.T) {
	doc := renderDoc(t, PageData{View: readyView(movies(5), 2, filter.Criteria{})})

	assert.Equal(t, 1, doc.Find(".movie-card").Length())
	_, disabled := doc.Find("button.next").Attr("disabled")
	assert.True(t, disabled)
	assert.Equal(t, 1, doc.Find("a.prev").Length())
}

func TestHTMLEmptyResults(t *testing.T) {
	doc := renderDoc(t, PageData{View: readyView(nil, 1, filter.Criteria{SearchKey: "zzz"})})

	assert.Zero(t, doc.Find(".movie-card").Length())
	assert.Equal(t, "Pages: 0 of 0", strings.TrimSpace(doc.Find(".pagination").Text()))
	assert.Equal(t, 1, doc.Find("button.prev[disabled]").Length())
	assert.Equal(t, 1, doc.Find("button.next[disabled]").Length())
}

func TestHTMLLoading(t *testing.T) {
	doc := renderDoc(t, PageData{View: page.View{Status: page.StatusLoading}})

	assert.Equal(t, 1, doc.Find(".spinner").Length())
	assert.Zero(t, doc.Find(".movie-card").Length())
	assert.Zero(t, doc.Find(".pagination").Length())
}

func TestHTMLFailed(t *testing.T) {
	doc := renderDoc(t, PageData{View: page.View{Status: page.StatusFailed, Err: tmdb.ErrFetchFailure}})

	assert.Equal(t, page.ErrorTitle, doc.Find(".error h2").Text())
	assert.Equal(t, page.ErrorHint, doc.Find(".error p").Text())
	assert.Zero(t, doc.Find(".movie-card").Length())
	assert.Zero(t, doc.Find(".pagination").Length())
	assert.Zero(t, doc.Find("form").Length())
}

func TestHTMLEscapesCriteria(t *testing.T) {
	c := filter.Criteria{SearchKey: `"><script>alert(1)</script>`}
	doc := renderDoc(t, PageData{View: readyView(nil, 1, c), Notice: "<i>bad</i>"})

	assert.Zero(t, doc.Find("script").Length())
	value, _ := doc.Find("input[name=search]").Attr("value")
	assert.Equal(t, c.SearchKey, value)
	assert.Equal(t, "<i>bad</i>", doc.Find(".notice").Text())
}

func TestQuery(t *testing.T) {
	q := Query(filter.Criteria{SearchKey: "a b", ReleaseDate: "1999..2000", Expression: "Year > 1990"})
	assert.Equal(t, "a b", q.Get("search"))
	assert.Empty(t, q.Get("genre"))
	assert.Equal(t, "1999..2000", q.Get("date"))
	assert.Equal(t, "Year > 1990", q.Get("where"))
}

func TestConsoleFormatView(t *testing.T) {
	f := NewConsoleFormatter(testGenres, true)
	out := f.FormatView(readyView(movies(5), 1, filter.Criteria{}))

	assert.Contains(t, out, "Movies (5 of 5):")
	assert.Contains(t, out, "├── Movie 1 (1999)")
	assert.Contains(t, out, "╰── Movie 4 (1999)")
	assert.NotContains(t, out, "Movie 5")
	assert.Contains(t, out, "Genres: Action, Science Fiction")
	assert.Contains(t, out, "Pages: 1 of 2")
	assert.Contains(t, out, "(Prev) [1] 2 <Next>")
}

func TestConsoleFormatViewStates(t *testing.T) {
	f := NewConsoleFormatter(nil, false)

	tests := []struct {
		name string
		view page.View
		want []string
	}{
		{
			name: "loading",
			view: page.View{Status: page.StatusLoading},
			want: []string{"Loading movies..."},
		},
		{
			name: "failed",
			view: page.View{Status: page.StatusFailed},
			want: []string{page.ErrorTitle, page.ErrorHint},
		},
		{
			name: "empty",
			view: readyView(nil, 1, filter.Criteria{}),
			want: []string{"No movies found", "Pages: 0 of 0", "(Prev) (Next)"},
		},
		{
			name: "page past the end",
			view: readyView(movies(2), 3, filter.Criteria{}),
			want: []string{"No movies on page 3", "Pages: 3 of 1", "<Prev> 1 (Next)"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := f.FormatView(tt.view)
			for _, want := range tt.want {
				assert.Contains(t, out, want)
			}
		})
	}
}

func TestConsoleRawGenreIDs(t *testing.T) {
	out := NewConsoleFormatter(nil, false).FormatView(readyView(movies(1), 1, filter.Criteria{}))
	assert.Contains(t, out, "Genres: 28, 878")
	assert.NotContains(t, out, "bold")
	assert.Contains(t, out, "Movie (1 of 1):")
}

func TestFormatGenres(t *testing.T) {
	f := NewConsoleFormatter(nil, false)
	assert.Equal(t, "No genres found\n", f.FormatGenres(nil))

	out := f.FormatGenres(testGenres.Genres())
	assert.Contains(t, out, "Genres (2):")
	assert.Contains(t, out, "├── 28 Action")
	assert.Contains(t, out, "╰── 878 Science Fiction")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcd...", truncate("abcdefghijk", 7))
}

func TestHTMLOverviewNotDoubleEscaped(t *testing.T) {
	list := movies(1)
	list[0].Overview = "Tom & Jerry <script>x()</script>"
	doc := renderDoc(t, PageData{View: readyView(list, 1, filter.Criteria{})})

	assert.Equal(t, "Tom & Jerry ", doc.Find(".overview").Text())
	assert.Zero(t, doc.Find("script").Length())
}
