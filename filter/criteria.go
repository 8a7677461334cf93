package filter

import "strings"

// Criteria holds the user-chosen narrowing parameters. An empty field means
// the criterion is absent and its stage is skipped.
type Criteria struct {
	SearchKey      string `json:"searchKey,omitempty"`
	GenreFilterKey string `json:"genreFilterKey,omitempty"`
	ReleaseDate    string `json:"releaseDate,omitempty"`
	// Expression is an optional expr-lang predicate applied after the
	// release date stage.
	Expression string `json:"expression,omitempty"`
}

// Normalize trims surrounding whitespace from every field
func (c Criteria) Normalize() Criteria {
	return Criteria{
		SearchKey:      strings.TrimSpace(c.SearchKey),
		GenreFilterKey: strings.TrimSpace(c.GenreFilterKey),
		ReleaseDate:    strings.TrimSpace(c.ReleaseDate),
		Expression:     strings.TrimSpace(c.Expression),
	}
}

// IsZero reports whether no criterion is set
func (c Criteria) IsZero() bool {
	return c == Criteria{}
}
