package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/s0up4200/uptick/fetch"
	"github.com/s0up4200/uptick/tmdb"
)

const genreBody = `{"genres":[{"id":28,"name":"Action"},{"id":18,"name":"Drama"}]}`

func discoverBody(titles ...string) string {
	results := make([]string, len(titles))
	for i, title := range titles {
		genre := 18
		if i%2 == 0 {
			genre = 28
		}
		results[i] = fmt.Sprintf(`{"id":%d,"title":%q,"genre_ids":[%d],"release_date":"200%d-01-01"}`, i+1, title, genre, i)
	}
	return fmt.Sprintf(`{"page":1,"results":[%s],"total_pages":1,"total_results":%d}`, strings.Join(results, ","), len(titles))
}

type fixture struct {
	api        *httptest.Server
	server     *httptest.Server
	discovered atomic.Int32
}

// newFixture wires a fake TMDB API, the tmdb client, a mounted fetcher and
// the web server together
func newFixture(t *testing.T, status int, body string) *fixture {
	t.Helper()

	f := &fixture{}
	f.api = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/3/discover/movie":
			f.discovered.Add(1)
			w.WriteHeader(status)
			io.WriteString(w, body)
		case "/3/genre/movie/list":
			io.WriteString(w, genreBody)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(f.api.Close)

	client := tmdb.NewClient(f.api.URL, "key", zerolog.Nop())
	fetcher := fetch.New(client, zerolog.Nop())
	fetcher.Load(context.Background(), client.DiscoverURL())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, err := fetcher.Wait(ctx)
	require.NoError(t, err)

	srv, err := NewServer(Config{}, fetcher, client.DiscoverURL(), client, zerolog.Nop())
	require.NoError(t, err)

	f.server = httptest.NewServer(srv.Handler())
	t.Cleanup(f.server.Close)
	return f
}

func (f *fixture) get(t *testing.T, path string) *http.Response {
	t.Helper()
	resp, err := http.Get(f.server.URL + path)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func (f *fixture) document(t *testing.T, path string) (*http.Response, *goquery.Document) {
	t.Helper()
	resp := f.get(t, path)
	doc, err := goquery.NewDocumentFromReader(resp.Body)
	require.NoError(t, err)
	return resp, doc
}

func titles(doc *goquery.Document) []string {
	var out []string
	doc.Find(".movie-card .title").Each(func(_ int, s *goquery.Selection) {
		out = append(out, s.Text())
	})
	return out
}

func TestIndexPaginates(t *testing.T) {
	f := newFixture(t, http.StatusOK, discoverBody("A", "B", "C", "D", "E"))

	resp, doc := f.document(t, "/")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []string{"A", "B", "C", "D"}, titles(doc))
	assert.Equal(t, "Pages: 1 of 2", strings.TrimSpace(doc.Find(".pagination").Text()))
	assert.Equal(t, 2, doc.Find("select[name=genre] option").Length()-1)

	next, ok := doc.Find("a.next").Attr("href")
	require.True(t, ok)

	_, doc = f.document(t, "/"+next)
	assert.Equal(t, []string{"E"}, titles(doc))
	assert.Equal(t, 1, doc.Find("button.next[disabled]").Length())

	// further requests reuse the mounted catalog
	assert.Equal(t, int32(1), f.discovered.Load())
}

func TestIndexFilters(t *testing.T) {
	f := newFixture(t, http.StatusOK, discoverBody("The Matrix", "Heat", "Matrix Reloaded", "Drive"))

	tests := []struct {
		name  string
		query url.Values
		want  []string
	}{
		{name: "search", query: url.Values{"search": {"MATRIX"}}, want: []string{"The Matrix", "Matrix Reloaded"}},
		{name: "genre id", query: url.Values{"genre": {"18"}}, want: []string{"Heat", "Drive"}},
		{name: "genre name", query: url.Values{"genre": {"action"}}, want: []string{"The Matrix", "Matrix Reloaded"}},
		{name: "date", query: url.Values{"date": {"2001..2002"}}, want: []string{"Heat", "Matrix Reloaded"}},
		{name: "expression", query: url.Values{"where": {`Year >= 2002`}}, want: []string{"Matrix Reloaded", "Drive"}},
		{name: "markup stripped", query: url.Values{"search": {"<b>Heat</b>"}}, want: []string{"Heat"}},
		{name: "no match", query: url.Values{"search": {"zzz"}}, want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, doc := f.document(t, "/?"+tt.query.Encode())
			assert.Equal(t, http.StatusOK, resp.StatusCode)
			assert.Equal(t, tt.want, titles(doc))
		})
	}
}

func TestIndexKeepsPageWhenCriteriaNarrow(t *testing.T) {
	f := newFixture(t, http.StatusOK, discoverBody("A", "B", "C", "D", "E", "F", "G", "H", "I"))

	_, doc := f.document(t, "/?page=3&search=a")
	assert.Empty(t, titles(doc))
	assert.Equal(t, "Pages: 3 of 1", strings.TrimSpace(doc.Find(".pagination").Text()))
	assert.Equal(t, 1, doc.Find("a.prev").Length())
}

func TestIndexInvalidPage(t *testing.T) {
	f := newFixture(t, http.StatusOK, discoverBody("A", "B"))

	for _, p := range []string{"0", "-2", "abc"} {
		_, doc := f.document(t, "/?page="+p)
		assert.Equal(t, []string{"A", "B"}, titles(doc), "page=%s", p)
	}
}

func TestIndexHugePage(t *testing.T) {
	f := newFixture(t, http.StatusOK, discoverBody("A", "B", "C", "D", "E"))
	huge := strconv.Itoa(math.MaxInt)

	resp, doc := f.document(t, "/?page="+huge)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, titles(doc))
	assert.Equal(t, "Pages: "+huge+" of 2", strings.TrimSpace(doc.Find(".pagination").Text()))
	assert.Equal(t, 1, doc.Find("button.next[disabled]").Length())
	prev, ok := doc.Find("a.prev").Attr("href")
	require.True(t, ok)
	assert.Contains(t, prev, "page="+strconv.Itoa(math.MaxInt-1))

	api := f.get(t, "/api/movies?page="+huge)
	require.Equal(t, http.StatusOK, api.StatusCode)
	var body MoviesResponse
	require.NoError(t, json.NewDecoder(api.Body).Decode(&body))
	assert.Equal(t, math.MaxInt, body.Page)
	assert.True(t, body.OutOfRange)
	assert.Empty(t, body.Movies)
}

func TestIndexBadExpression(t *testing.T) {
	f := newFixture(t, http.StatusOK, discoverBody("A", "B"))

	resp, doc := f.document(t, "/?where="+url.QueryEscape("Year >"))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.NotEmpty(t, doc.Find(".notice").Text())
	assert.Equal(t, []string{"A", "B"}, titles(doc))
}

func TestIndexFetchFailure(t *testing.T) {
	f := newFixture(t, http.StatusInternalServerError, `{"status_message":"boom"}`)

	resp, doc := f.document(t, "/")
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	assert.Equal(t, "Failed to fetch", doc.Find(".error h2").Text())
	assert.Equal(t, "Kindly reload the page or check your internet connection", doc.Find(".error p").Text())
	assert.Zero(t, doc.Find(".movie-card").Length())
	assert.Zero(t, doc.Find(".pagination").Length())
}

func TestAPIMovies(t *testing.T) {
	f := newFixture(t, http.StatusOK, discoverBody("A", "B", "C", "D", "E"))

	resp := f.get(t, "/api/movies?page=2")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json; charset=utf-8", resp.Header.Get("Content-Type"))

	var body MoviesResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ready", body.Status)
	assert.Equal(t, 2, body.Page)
	assert.Equal(t, 2, body.TotalPages)
	assert.Equal(t, 5, body.Total)
	assert.Equal(t, 5, body.Fetched)
	assert.Equal(t, "2 of 2", body.Label)
	assert.False(t, body.OutOfRange)
	require.Len(t, body.Movies, 1)
	assert.Equal(t, "E", body.Movies[0].Title)
}

func TestAPIMoviesEmptyList(t *testing.T) {
	f := newFixture(t, http.StatusOK, discoverBody("A"))

	resp := f.get(t, "/api/movies?search=zzz")
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"movies":[]`)
	assert.Contains(t, string(raw), `"label":"0 of 0"`)
}

func TestAPIMoviesErrors(t *testing.T) {
	t.Run("fetch failure", func(t *testing.T) {
		f := newFixture(t, http.StatusUnauthorized, `{"status_message":"Invalid API key"}`)

		resp := f.get(t, "/api/movies")
		assert.Equal(t, http.StatusBadGateway, resp.StatusCode)

		var body errorResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, "Failed to fetch", body.Error)
	})

	t.Run("bad expression", func(t *testing.T) {
		f := newFixture(t, http.StatusOK, discoverBody("A"))

		resp := f.get(t, "/api/movies?where="+url.QueryEscape("Title +"))
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

type stubFetcher struct{ state fetch.State }

func (s *stubFetcher) Load(context.Context, string) {}
func (s *stubFetcher) State() fetch.State          { return s.state }

func TestLoadingState(t *testing.T) {
	srv, err := NewServer(Config{}, &stubFetcher{state: fetch.State{Loading: true}}, "u", nil, zerolog.Nop())
	require.NoError(t, err)
	server := httptest.NewServer(srv.Handler())
	defer server.Close()

	resp, err := http.Get(server.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()
	doc, err := goquery.NewDocumentFromReader(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, 1, doc.Find(".spinner").Length())
	assert.Equal(t, 1, doc.Find(`meta[http-equiv=refresh]`).Length())

	api, err := http.Get(server.URL + "/api/movies")
	require.NoError(t, err)
	defer api.Body.Close()
	assert.Equal(t, http.StatusAccepted, api.StatusCode)

	genres, err := http.Get(server.URL + "/api/genres")
	require.NoError(t, err)
	defer genres.Body.Close()
	assert.Equal(t, http.StatusBadGateway, genres.StatusCode)
}

func TestAPIGenres(t *testing.T) {
	f := newFixture(t, http.StatusOK, discoverBody("A"))

	resp := f.get(t, "/api/genres")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var genres []tmdb.Genre
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&genres))
	assert.Equal(t, []tmdb.Genre{{ID: 28, Name: "Action"}, {ID: 18, Name: "Drama"}}, genres)
}

func TestHealthAndMetrics(t *testing.T) {
	f := newFixture(t, http.StatusOK, discoverBody("A"))

	resp := f.get(t, "/healthz")
	var health map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&health))
	assert.Equal(t, map[string]string{"status": "ok", "catalog": "ready"}, health)

	resp = f.get(t, "/metrics")
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "uptick_http_requests_total")
	assert.Contains(t, string(raw), "uptick_fetch_total")
}

func filteredCount(t *testing.T, f *fixture) int {
	t.Helper()
	raw, err := io.ReadAll(f.get(t, "/metrics").Body)
	require.NoError(t, err)
	for _, line := range strings.Split(string(raw), "\n") {
		if value, ok := strings.CutPrefix(line, "uptick_filtered_movies_count "); ok {
			n, err := strconv.Atoi(strings.TrimSpace(value))
			require.NoError(t, err)
			return n
		}
	}
	return 0
}

func TestFilteredMetricCountsRenders(t *testing.T) {
	f := newFixture(t, http.StatusOK, discoverBody("A", "B"))
	before := filteredCount(t, f)

	f.get(t, "/healthz")
	f.get(t, "/healthz")
	assert.Equal(t, before, filteredCount(t, f), "status checks are not renders")

	f.get(t, "/")
	f.get(t, "/api/movies?search=a")
	assert.Equal(t, before+2, filteredCount(t, f))
}

func TestRequestID(t *testing.T) {
	f := newFixture(t, http.StatusOK, discoverBody("A"))

	resp := f.get(t, "/healthz")
	assert.NotEmpty(t, resp.Header.Get(RequestIDHeader))

	req, err := http.NewRequest(http.MethodGet, f.server.URL+"/healthz", nil)
	require.NoError(t, err)
	req.Header.Set(RequestIDHeader, "0b6f6c2e-5f4e-4c55-9a1d-2b8f3d7e9c10")
	resp2, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp2.Body.Close()
	assert.Equal(t, "0b6f6c2e-5f4e-4c55-9a1d-2b8f3d7e9c10", resp2.Header.Get(RequestIDHeader))

	req.Header.Set(RequestIDHeader, "not-a-uuid")
	resp3, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp3.Body.Close()
	assert.NotEqual(t, "not-a-uuid", resp3.Header.Get(RequestIDHeader))
}

func TestHandlerMountsWithoutRun(t *testing.T) {
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// answer after the triggering request has returned
		time.Sleep(100 * time.Millisecond)
		io.WriteString(w, discoverBody("A", "B"))
	}))
	defer api.Close()

	client := tmdb.NewClient(api.URL, "key", zerolog.Nop())
	fetcher := fetch.New(client, zerolog.Nop())
	srv, err := NewServer(Config{}, fetcher, client.DiscoverURL(), nil, zerolog.Nop())
	require.NoError(t, err)
	server := httptest.NewServer(srv.Handler())
	defer server.Close()

	resp, err := http.Get(server.URL + "/api/movies")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	state, err := fetcher.Wait(ctx)
	require.NoError(t, err)
	require.NoError(t, state.Err, "the fetch outlives the request that mounted it")
	require.NotNil(t, state.Data)
	assert.Len(t, state.Data.Results, 2)
}

type failingGenres struct {
	calls atomic.Int32
	delay time.Duration
}

func (g *failingGenres) Genres(context.Context) ([]tmdb.Genre, error) {
	g.calls.Add(1)
	time.Sleep(g.delay)
	return nil, errors.New("genres unavailable")
}

func TestGenreFailureIsSharedAndRetriedLater(t *testing.T) {
	src := &failingGenres{delay: 100 * time.Millisecond}
	srv, err := NewServer(Config{}, &stubFetcher{state: fetch.State{Loading: true}}, "u", src, zerolog.Nop())
	require.NoError(t, err)
	handler := srv.Handler()

	get := func() int {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/genres", nil))
		return rec.Code
	}

	var wg sync.WaitGroup
	codes := make([]int, 6)
	for i := range codes {
		wg.Add(1)
		go func() {
			defer wg.Done()
			codes[i] = get()
		}()
	}
	wg.Wait()

	for _, code := range codes {
		assert.Equal(t, http.StatusBadGateway, code)
	}
	assert.Equal(t, int32(1), src.calls.Load(), "concurrent callers share one request")

	assert.Equal(t, http.StatusBadGateway, get())
	assert.Equal(t, int32(1), src.calls.Load(), "failure is remembered")

	later := time.Now().Add(genreRetryAfter + time.Second)
	srv.now = func() time.Time { return later }
	src.delay = 0
	assert.Equal(t, http.StatusBadGateway, get())
	assert.Equal(t, int32(2), src.calls.Load(), "retried once the window passes")
}

func TestRunShutsDown(t *testing.T) {
	srv, err := NewServer(Config{Listen: "127.0.0.1:0"}, &stubFetcher{state: fetch.State{Loading: true}}, "u", nil, zerolog.Nop())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
