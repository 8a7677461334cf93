package tmdb

import (
	"context"
)

// API defines the TMDB operations the discovery page needs
type API interface {
	// DiscoverURL returns the discover endpoint URL for the configured key
	DiscoverURL() string

	// Discover fetches and decodes a discover response from url
	Discover(ctx context.Context, url string) (*DiscoverResponse, error)

	// Genres fetches the movie genre list
	Genres(ctx context.Context) ([]Genre, error)
}

var _ API = (*Client)(nil)
