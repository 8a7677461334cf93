package render

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"net/url"
	"strconv"

	"github.com/microcosm-cc/bluemonday"

	"github.com/s0up4200/uptick/filter"
	"github.com/s0up4200/uptick/page"
	"github.com/s0up4200/uptick/tmdb"
)

// PosterBaseURL prefixes tmdb poster paths
const PosterBaseURL = "https://image.tmdb.org/t/p/w500"

//go:embed templates/*.html
var templateFS embed.FS

// HTMLRenderer renders the discovery page as HTML
type HTMLRenderer struct {
	tmpl   *template.Template
	policy *bluemonday.Policy
}

// PageData is the input of one HTML render
type PageData struct {
	View   page.View
	Genres *tmdb.GenreIndex
	// Notice is shown above the cards, e.g. for a rejected expression
	Notice string
}

// NewHTMLRenderer parses the embedded templates
func NewHTMLRenderer() (*HTMLRenderer, error) {
	r := &HTMLRenderer{policy: bluemonday.StrictPolicy()}

	tmpl, err := template.New("page.html").Funcs(template.FuncMap{
		"poster":   posterURL,
		"plain":    r.plain,
		"genres":   func(idx *tmdb.GenreIndex, ids []int) []string { return idx.Names(ids) },
		"pageLink": pageLink,
		"selected": func(key string, id int) bool { return key == strconv.Itoa(id) },
		"add1":     func(n int) int { return n + 1 },
		"sub1":     func(n int) int { return n - 1 },
	}).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	r.tmpl = tmpl
	return r, nil
}

// Render writes the page for data to w
func (r *HTMLRenderer) Render(w io.Writer, data PageData) error {
	if err := r.tmpl.ExecuteTemplate(w, "page.html", data); err != nil {
		return fmt.Errorf("failed to render page: %w", err)
	}
	return nil
}

// plain strips all markup; the result is already escaped
func (r *HTMLRenderer) plain(s string) template.HTML {
	return template.HTML(r.policy.Sanitize(s))
}

func posterURL(path string) string {
	if path == "" {
		return ""
	}
	return PosterBaseURL + path
}

// pageLink builds the query string selecting page n under criteria c
func pageLink(c filter.Criteria, n int) string {
	q := Query(c)
	q.Set("page", strconv.Itoa(n))
	return "?" + q.Encode()
}

// Query encodes criteria as the query parameters the web surface reads
func Query(c filter.Criteria) url.Values {
	q := url.Values{}
	if c.SearchKey != "" {
		q.Set("search", c.SearchKey)
	}
	if c.GenreFilterKey != "" {
		q.Set("genre", c.GenreFilterKey)
	}
	if c.ReleaseDate != "" {
		q.Set("date", c.ReleaseDate)
	}
	if c.Expression != "" {
		q.Set("where", c.Expression)
	}
	return q
}
