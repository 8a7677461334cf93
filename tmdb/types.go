package tmdb

import (
	"strconv"
	"strings"
)

// Movie is one catalog entry returned by the discover endpoint
type Movie struct {
	ID               int64   `json:"id"`
	Title            string  `json:"title"`
	GenreIDs         []int   `json:"genre_ids"`
	ReleaseDate      string  `json:"release_date"`
	Overview         string  `json:"overview"`
	PosterPath       string  `json:"poster_path"`
	VoteAverage      float64 `json:"vote_average"`
	VoteCount        int     `json:"vote_count"`
	Popularity       float64 `json:"popularity"`
	OriginalLanguage string  `json:"original_language"`
	Adult            bool    `json:"adult"`
}

// Year returns the release year, or 0 when the release date is missing
func (m Movie) Year() int {
	if len(m.ReleaseDate) < 4 {
		return 0
	}
	year, err := strconv.Atoi(m.ReleaseDate[:4])
	if err != nil {
		return 0
	}
	return year
}

// HasGenre reports whether the movie is tagged with the given genre id
func (m Movie) HasGenre(id int) bool {
	for _, g := range m.GenreIDs {
		if g == id {
			return true
		}
	}
	return false
}

// DiscoverResponse is the body of /3/discover/movie
type DiscoverResponse struct {
	Page         int     `json:"page"`
	Results      []Movie `json:"results"`
	TotalPages   int     `json:"total_pages"`
	TotalResults int     `json:"total_results"`
}

// Genre is one entry of /3/genre/movie/list
type Genre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// GenreList is the body of /3/genre/movie/list
type GenreList struct {
	Genres []Genre `json:"genres"`
}

// GenreIndex resolves genre selector keys and ids
type GenreIndex struct {
	genres []Genre
	byID   map[int]string
}

// NewGenreIndex builds an index over the given genres
func NewGenreIndex(genres []Genre) *GenreIndex {
	idx := &GenreIndex{
		genres: genres,
		byID:   make(map[int]string, len(genres)),
	}
	for _, g := range genres {
		idx.byID[g.ID] = g.Name
	}
	return idx
}

// Genres returns the indexed genres in their original order
func (idx *GenreIndex) Genres() []Genre {
	if idx == nil {
		return nil
	}
	return idx.genres
}

// Name returns the genre name for id, falling back to the id itself
func (idx *GenreIndex) Name(id int) string {
	if idx != nil {
		if name, ok := idx.byID[id]; ok {
			return name
		}
	}
	return strconv.Itoa(id)
}

// Names maps a list of genre ids to display names
func (idx *GenreIndex) Names(ids []int) []string {
	names := make([]string, 0, len(ids))
	for _, id := range ids {
		names = append(names, idx.Name(id))
	}
	return names
}

// Resolve turns a selector key into a numeric genre key. Numeric keys pass
// through untouched; names are matched case-insensitively. Unknown names are
// returned as-is, which the genre filter treats as matching nothing.
func (idx *GenreIndex) Resolve(key string) string {
	key = strings.TrimSpace(key)
	if key == "" {
		return ""
	}
	if _, err := strconv.Atoi(key); err == nil {
		return key
	}
	if idx != nil {
		for _, g := range idx.genres {
			if strings.EqualFold(g.Name, key) {
				return strconv.Itoa(g.ID)
			}
		}
	}
	return key
}
