package filter

import (
	"strings"
	"time"
)

// dateRange bounds are ISO date prefixes; ISO dates order lexically, so a
// release date is compared against each bound truncated to its precision.
type dateRange struct {
	from string
	to   string
}

var dateLayouts = map[int]string{
	4:  "2006",
	7:  "2006-01",
	10: "2006-01-02",
}

func parseDateRange(key string) (dateRange, bool) {
	key = strings.TrimSpace(key)
	if key == "" {
		return dateRange{}, false
	}

	from, to, isRange := strings.Cut(key, "..")
	if !isRange {
		if !validDatePrefix(key) {
			return dateRange{}, false
		}
		return dateRange{from: key, to: key}, true
	}

	from = strings.TrimSpace(from)
	to = strings.TrimSpace(to)
	if from == "" && to == "" {
		return dateRange{}, false
	}
	if from != "" && !validDatePrefix(from) {
		return dateRange{}, false
	}
	if to != "" && !validDatePrefix(to) {
		return dateRange{}, false
	}
	return dateRange{from: from, to: to}, true
}

func validDatePrefix(s string) bool {
	layout, ok := dateLayouts[len(s)]
	if !ok {
		return false
	}
	_, err := time.Parse(layout, s)
	return err == nil
}

func (r dateRange) contains(releaseDate string) bool {
	if len(releaseDate) != 10 || !validDatePrefix(releaseDate) {
		return false
	}
	if r.from != "" && releaseDate[:len(r.from)] < r.from {
		return false
	}
	if r.to != "" && releaseDate[:len(r.to)] > r.to {
		return false
	}
	return true
}
