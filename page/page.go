// Package page orchestrates the discovery page: fetch, filter, paginate.
//
// A Page moves from Loading to Ready or Failed when its fetch settles and
// owns the current page number. Changing criteria recomputes the view but
// never resets the page, so a narrowed list can leave the page out of range;
// View.OutOfRange reports that case.
package page

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/s0up4200/uptick/fetch"
	"github.com/s0up4200/uptick/filter"
	"github.com/s0up4200/uptick/paginate"
	"github.com/s0up4200/uptick/tmdb"
)

// Messages shown by the error view
const (
	ErrorTitle = "Failed to fetch"
	ErrorHint  = "Kindly reload the page or check your internet connection"
)

// Status is the orchestration state
type Status int

const (
	// StatusLoading means the fetch is outstanding
	StatusLoading Status = iota
	// StatusReady means the catalog is available
	StatusReady
	// StatusFailed means the fetch failed
	StatusFailed
)

// String returns the string representation of a Status
func (s Status) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusReady:
		return "ready"
	case StatusFailed:
		return "failed"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Fetcher is the part of fetch.Fetcher the page depends on
type Fetcher interface {
	Load(ctx context.Context, url string)
	State() fetch.State
}

// Option configures a Page
type Option func(*Page)

// WithCompiler sets the compiler used for expression criteria
func WithCompiler(compiler *filter.Compiler) Option {
	return func(p *Page) {
		if compiler != nil {
			p.compiler = compiler
		}
	}
}

// WithLogger sets the page logger
func WithLogger(logger zerolog.Logger) Option {
	return func(p *Page) {
		p.logger = logger
	}
}

// OnNavigate registers fn to run after every page change
func OnNavigate(fn func(page int)) Option {
	return func(p *Page) {
		p.onNavigate = fn
	}
}

// Page is the discovery page component
type Page struct {
	fetcher    Fetcher
	url        string
	compiler   *filter.Compiler
	logger     zerolog.Logger
	onNavigate func(int)

	mu       sync.Mutex
	current  int
	pipeline *filter.Pipeline
}

// New creates a page reading the catalog at url through f. The page starts
// at 1 with no criteria.
func New(f Fetcher, url string, opts ...Option) *Page {
	p := &Page{
		fetcher: f,
		url:     url,
		logger:  zerolog.Nop(),
		current: 1,
	}

	for _, opt := range opts {
		opt(p)
	}
	if p.compiler == nil {
		p.compiler = filter.NewCompiler()
	}

	p.pipeline, _ = filter.NewPipeline(filter.Criteria{}, p.compiler)
	return p
}

// Mount loads the catalog. Mounting again with the same URL does not issue a
// second request.
func (p *Page) Mount(ctx context.Context) {
	p.fetcher.Load(ctx, p.url)
}

// Status derives the orchestration state from the fetch state
func (p *Page) Status() Status {
	return statusOf(p.fetcher.State())
}

func statusOf(state fetch.State) Status {
	switch {
	case state.Loading:
		return StatusLoading
	case state.Err != nil:
		return StatusFailed
	case state.Data == nil:
		// settled without data only before the first mount
		return StatusLoading
	default:
		return StatusReady
	}
}

// Current returns the current page number
func (p *Page) Current() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.current
}

// Criteria returns the active criteria
func (p *Page) Criteria() filter.Criteria {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.pipeline.Criteria()
}

// SetCriteria replaces the active criteria. An invalid expression is
// reported and leaves the previous criteria in place. The page number is kept.
func (p *Page) SetCriteria(c filter.Criteria) error {
	c = c.Normalize()
	pipeline, err := filter.NewPipeline(c, p.compiler)
	if err != nil {
		return fmt.Errorf("invalid criteria: %w", err)
	}

	p.mu.Lock()
	p.pipeline = pipeline
	current := p.current
	p.mu.Unlock()

	p.logger.Debug().
		Str("search", c.SearchKey).
		Str("genre", c.GenreFilterKey).
		Str("date", c.ReleaseDate).
		Str("expression", c.Expression).
		Int("page", current).
		Msg("Criteria changed")
	return nil
}

// SetPage selects page n directly, as a page indicator does. n is not
// checked against the page count.
func (p *Page) SetPage(n int) {
	p.mu.Lock()
	changed := p.current != n
	p.current = n
	p.mu.Unlock()

	if changed {
		p.navigated(n)
	}
}

// Next moves one page forward unless the Next control is disabled. It reports
// whether the page changed.
func (p *Page) Next() bool {
	view := p.View()
	if view.Status != StatusReady || view.Pagination.NextDisabled() {
		return false
	}
	p.SetPage(view.Pagination.Number + 1)
	return true
}

// Prev moves one page back unless the Prev control is disabled. It reports
// whether the page changed.
func (p *Page) Prev() bool {
	view := p.View()
	if view.Status != StatusReady || view.Pagination.PrevDisabled() {
		return false
	}
	p.SetPage(view.Pagination.Number - 1)
	return true
}

func (p *Page) navigated(n int) {
	p.logger.Debug().Int("page", n).Msg("Page changed")
	if p.onNavigate != nil {
		p.onNavigate(n)
	}
}

// View is everything a renderer needs for one frame
type View struct {
	Status     Status
	Err        error
	Criteria   filter.Criteria
	Fetched    int
	Pagination paginate.Page
}

// Movies returns the movies on the current page
func (v View) Movies() []tmdb.Movie {
	return v.Pagination.Items
}

// Matched is the number of movies left after filtering
func (v View) Matched() int {
	return v.Pagination.Total
}

// OutOfRange reports whether the current page lies past the filtered pages
func (v View) OutOfRange() bool {
	return v.Status == StatusReady && v.Pagination.OutOfRange()
}

// View computes the current frame. Filtering runs only once the catalog is
// ready; a failed fetch yields no movies and no pagination.
func (p *Page) View() View {
	state := p.fetcher.State()

	p.mu.Lock()
	pipeline := p.pipeline
	current := p.current
	p.mu.Unlock()

	view := View{
		Status:   statusOf(state),
		Err:      state.Err,
		Criteria: pipeline.Criteria(),
	}
	if view.Status != StatusReady {
		return view
	}

	movies := state.Movies()
	filtered := pipeline.Apply(movies)

	view.Fetched = len(movies)
	view.Pagination = paginate.Paginate(filtered, current)
	return view
}
