package web

import (
	"context"
	"encoding/json"
	"html"
	"net/http"
	"strconv"
	"strings"

	"github.com/s0up4200/uptick/filter"
	"github.com/s0up4200/uptick/metrics"
	"github.com/s0up4200/uptick/page"
	"github.com/s0up4200/uptick/render"
	"github.com/s0up4200/uptick/tmdb"
)

// MoviesResponse is the JSON form of one page view
type MoviesResponse struct {
	Status     string          `json:"status"`
	Criteria   filter.Criteria `json:"criteria"`
	Page       int             `json:"page"`
	TotalPages int             `json:"totalPages"`
	Total      int             `json:"total"`
	Fetched    int             `json:"fetched"`
	Label      string          `json:"label"`
	OutOfRange bool            `json:"outOfRange"`
	Movies     []tmdb.Movie    `json:"movies"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// request is the outcome of reading one page request
type request struct {
	view   page.View
	genres *tmdb.GenreIndex
	// criteriaErr is set when the expression did not compile
	criteriaErr error
}

// serve builds a page for r on top of the shared fetcher
func (s *Server) serve(r *http.Request) request {
	ctx := r.Context()
	q := r.URL.Query()
	genres := s.genreIndex(ctx)

	c := filter.Criteria{
		SearchKey:      s.clean(q.Get("search")),
		GenreFilterKey: genres.Resolve(s.clean(q.Get("genre"))),
		ReleaseDate:    s.clean(q.Get("date")),
		Expression:     s.clean(q.Get("where")),
	}

	p := page.New(s.fetcher, s.discoverURL,
		page.WithCompiler(s.compiler),
		page.WithLogger(s.logger),
	)
	// the fetcher is shared, so its request must outlive this one
	p.Mount(context.WithoutCancel(ctx))

	var criteriaErr error
	if err := p.SetCriteria(c); err != nil {
		criteriaErr = err
		c.Expression = ""
		_ = p.SetCriteria(c)
	}
	p.SetPage(pageNumber(q.Get("page")))

	view := p.View()
	metrics.ObserveFiltered(view.Status == page.StatusReady, view.Matched())
	return request{view: view, genres: genres, criteriaErr: criteriaErr}
}

// clean strips markup from user input and keeps literal characters
func (s *Server) clean(v string) string {
	return strings.TrimSpace(html.UnescapeString(s.policy.Sanitize(v)))
}

// pageNumber reads the page parameter. Anything below 1 selects page 1.
func pageNumber(v string) int {
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return 1
	}
	return n
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	req := s.serve(r)

	data := render.PageData{View: req.view, Genres: req.genres}
	status := http.StatusOK
	switch {
	case req.view.Status == page.StatusFailed:
		status = http.StatusBadGateway
	case req.criteriaErr != nil:
		status = http.StatusBadRequest
		data.Notice = req.criteriaErr.Error()
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := s.renderer.Render(w, data); err != nil {
		s.logger.Error().Err(err).Str("request_id", RequestID(r.Context())).Msg("Failed to render page")
	}
}

func (s *Server) handleMovies(w http.ResponseWriter, r *http.Request) {
	req := s.serve(r)
	view := req.view

	switch {
	case req.criteriaErr != nil:
		s.respondJSON(w, r, http.StatusBadRequest, errorResponse{Error: req.criteriaErr.Error()})
		return
	case view.Status == page.StatusFailed:
		s.respondJSON(w, r, http.StatusBadGateway, errorResponse{Error: page.ErrorTitle, Message: page.ErrorHint})
		return
	case view.Status == page.StatusLoading:
		s.respondJSON(w, r, http.StatusAccepted, MoviesResponse{Status: view.Status.String(), Criteria: view.Criteria})
		return
	}

	movies := view.Movies()
	if movies == nil {
		movies = []tmdb.Movie{}
	}
	s.respondJSON(w, r, http.StatusOK, MoviesResponse{
		Status:     view.Status.String(),
		Criteria:   view.Criteria,
		Page:       view.Pagination.Number,
		TotalPages: view.Pagination.TotalPages,
		Total:      view.Matched(),
		Fetched:    view.Fetched,
		Label:      view.Pagination.Label(),
		OutOfRange: view.OutOfRange(),
		Movies:     movies,
	})
}

func (s *Server) handleGenres(w http.ResponseWriter, r *http.Request) {
	genres := s.genreIndex(r.Context())
	if genres == nil {
		s.respondJSON(w, r, http.StatusBadGateway, errorResponse{Error: "failed to load genres"})
		return
	}
	s.respondJSON(w, r, http.StatusOK, genres.Genres())
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := page.New(s.fetcher, s.discoverURL).Status()
	s.respondJSON(w, r, http.StatusOK, map[string]string{
		"status":  "ok",
		"catalog": status.String(),
	})
}

func (s *Server) respondJSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error().Err(err).
			Str("request_id", RequestID(r.Context())).
			Str("path", r.URL.Path).
			Msg("Failed to encode JSON response")
	}
}
