package tmdb

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// DefaultBaseURL is the public TMDB API host
const DefaultBaseURL = "https://api.themoviedb.org"

// maxBodySize bounds how much of a response body is read
const maxBodySize = 8 << 20

// Client represents a TMDB API client
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
	userAgent  string
	logger     zerolog.Logger
}

// NewClient creates a new TMDB client. An empty baseURL selects
// DefaultBaseURL. The API key is not checked here.
func NewClient(baseURL, apiKey string, logger zerolog.Logger, opts ...Option) *Client {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	client := &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		userAgent: "uptick",
		logger:    logger,
	}

	for _, opt := range opts {
		opt(client)
	}

	if apiKey == "" {
		logger.Warn().Msg("TMDB API key is empty, requests will likely fail")
	}

	return client
}

// DiscoverURL returns the discover endpoint with the API key as its only
// query parameter
func (c *Client) DiscoverURL() string {
	return c.endpoint("/3/discover/movie")
}

func (c *Client) genresURL() string {
	return c.endpoint("/3/genre/movie/list")
}

func (c *Client) endpoint(path string) string {
	params := url.Values{}
	params.Set("api_key", c.apiKey)
	return fmt.Sprintf("%s%s?%s", c.baseURL, path, params.Encode())
}

// doRequest performs a GET and returns the body of a 2xx response
func (c *Client) doRequest(ctx context.Context, rawURL string) ([]byte, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fetchFailure(fmt.Errorf("rate limiter: %w", err))
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fetchFailure(fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fetchFailure(fmt.Errorf("request failed: %w", redactError(err, c.apiKey)))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fetchFailure(fmt.Errorf("failed to read response body: %w", err))
	}

	c.logger.Debug().
		Str("path", req.URL.Path).
		Int("status", resp.StatusCode).
		Dur("took", time.Since(start)).
		Msg("TMDB request completed")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Message:    statusMessage(body),
		}
	}

	return body, nil
}

// Discover fetches the discover endpoint at rawURL
func (c *Client) Discover(ctx context.Context, rawURL string) (*DiscoverResponse, error) {
	body, err := c.doRequest(ctx, rawURL)
	if err != nil {
		return nil, err
	}

	if err := validateBody(discoverValidator, body); err != nil {
		return nil, fetchFailure(err)
	}

	var response DiscoverResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fetchFailure(fmt.Errorf("failed to parse response: %w", err))
	}

	c.logger.Debug().
		Int("count", len(response.Results)).
		Int("total_results", response.TotalResults).
		Msg("Retrieved movies from TMDB")

	return &response, nil
}

// Genres fetches the movie genre list
func (c *Client) Genres(ctx context.Context) ([]Genre, error) {
	body, err := c.doRequest(ctx, c.genresURL())
	if err != nil {
		return nil, err
	}

	if err := validateBody(genreListValidator, body); err != nil {
		return nil, fetchFailure(err)
	}

	var list GenreList
	if err := json.Unmarshal(body, &list); err != nil {
		return nil, fetchFailure(fmt.Errorf("failed to parse genres: %w", err))
	}

	return list.Genres, nil
}

// statusMessage extracts TMDB's status_message from an error body
func statusMessage(body []byte) string {
	var payload struct {
		StatusMessage string `json:"status_message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.StatusMessage != "" {
		return payload.StatusMessage
	}
	msg := strings.TrimSpace(string(body))
	if len(msg) > 200 {
		msg = msg[:200]
	}
	return msg
}

// redactError keeps the API key out of transport errors, which embed the URL
func redactError(err error, apiKey string) error {
	if apiKey == "" || !strings.Contains(err.Error(), apiKey) {
		return err
	}
	return redactedError{msg: strings.ReplaceAll(err.Error(), apiKey, "REDACTED"), err: err}
}

type redactedError struct {
	msg string
	err error
}

func (e redactedError) Error() string { return e.msg }

func (e redactedError) Unwrap() error { return e.err }
