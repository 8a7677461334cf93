// Package tmdb provides a small client for The Movie Database discover API.
//
// Only the fields the discovery page consumes are decoded. Every failure the
// client reports, whether the transport broke, the server answered with a
// non-2xx status or the body did not look like a discover response, wraps
// ErrFetchFailure:
//
//	client := tmdb.NewClient(
//		"https://api.themoviedb.org",
//		os.Getenv("UPTICK_TMDB_API_KEY"),
//		logger,
//		tmdb.WithTimeout(30*time.Second),
//		tmdb.WithRateLimit(20, 5),
//	)
//
//	resp, err := client.Discover(ctx, client.DiscoverURL())
//	if errors.Is(err, tmdb.ErrFetchFailure) {
//		// render the error view
//	}
//
// The API key is not validated up front; a missing key simply makes the
// request fail.
package tmdb
