// Package paginate slices a filtered movie list into fixed-size pages.
package paginate

import (
	"fmt"

	"github.com/s0up4200/uptick/tmdb"
)

// PageSize is the number of movies shown per page
const PageSize = 4

// TotalPages returns ceil(count/size), or 0 when there is nothing to show
func TotalPages(count, size int) int {
	if count <= 0 || size <= 0 {
		return 0
	}
	return (count + size - 1) / size
}

// Skip returns the index of the first item on page
func Skip(page, size int) int {
	return (page - 1) * size
}

// Slice returns the items on page. Pages outside the list, including pages
// below 1, yield an empty slice rather than an error.
func Slice(items []tmdb.Movie, page, size int) []tmdb.Movie {
	// compare page numbers before multiplying so huge pages cannot overflow
	if page < 1 || size <= 0 || page-1 >= TotalPages(len(items), size) {
		return []tmdb.Movie{}
	}
	skip := Skip(page, size)
	end := min(skip+size, len(items))
	return items[skip:end]
}

// Page is one page of a filtered list together with its navigation state
type Page struct {
	Number     int          `json:"page"`
	Size       int          `json:"pageSize"`
	Total      int          `json:"total"`
	TotalPages int          `json:"totalPages"`
	Items      []tmdb.Movie `json:"items"`
}

// Paginate slices items for page using PageSize. page is not corrected when
// it lies outside the list.
func Paginate(items []tmdb.Movie, page int) Page {
	return New(items, page, PageSize)
}

// New slices items for page using size
func New(items []tmdb.Movie, page, size int) Page {
	return Page{
		Number:     page,
		Size:       size,
		Total:      len(items),
		TotalPages: TotalPages(len(items), size),
		Items:      Slice(items, page, size),
	}
}

// PrevDisabled reports whether the Prev control is disabled
func (p Page) PrevDisabled() bool {
	return p.Number <= 1
}

// NextDisabled reports whether the Next control is disabled
func (p Page) NextDisabled() bool {
	return p.Number >= p.TotalPages
}

// Indicators returns the page numbers 1..TotalPages
func (p Page) Indicators() []int {
	indicators := make([]int, p.TotalPages)
	for i := range indicators {
		indicators[i] = i + 1
	}
	return indicators
}

// Current reports whether n is the selected page
func (p Page) Current(n int) bool {
	return p.Number == n
}

// OutOfRange reports whether the page points past the last page of a
// non-empty list
func (p Page) OutOfRange() bool {
	return p.TotalPages > 0 && (p.Number < 1 || p.Number > p.TotalPages)
}

// Shown is the page number displayed to the user: 0 when the list is empty
func (p Page) Shown() int {
	if p.Total == 0 {
		return 0
	}
	return p.Number
}

// Label renders the indicator text, e.g. "1 of 2"
func (p Page) Label() string {
	return fmt.Sprintf("%d of %d", p.Shown(), p.TotalPages)
}
