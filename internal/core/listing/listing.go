// Package listing holds the pagination, sorting and search options shared by the
// paginated find operations.
package listing

import (
	"math"
	"strings"
	"unicode"
)

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100

	// MaxPage keeps (page-1)*limit far from integer overflow
	MaxPage = 1_000_000
)

// SortOrder is ASC or DESC
type SortOrder string

const (
	Asc  SortOrder = "ASC"
	Desc SortOrder = "DESC"
)

// Query carries the options common to every list endpoint
type Query struct {
	Search    string
	SortBy    string
	SortOrder SortOrder
	Page      int
	Limit     int
}

// Normalize clamps page and limit, upper-cases the order and falls back to
// defaultSort when SortBy is not in allowed.
func (q Query) Normalize(allowed map[string]string, defaultSort string) Query {
	if q.Page < 1 {
		q.Page = DefaultPage
	}
	if q.Page > MaxPage {
		q.Page = MaxPage
	}
	if q.Limit < 1 {
		q.Limit = DefaultLimit
	}
	if q.Limit > MaxLimit {
		q.Limit = MaxLimit
	}

	switch SortOrder(strings.ToUpper(string(q.SortOrder))) {
	case Asc:
		q.SortOrder = Asc
	default:
		q.SortOrder = Desc
	}

	if _, ok := allowed[q.SortBy]; !ok {
		q.SortBy = defaultSort
	}
	q.Search = strings.TrimSpace(q.Search)
	return q
}

// Offset returns the number of rows to skip for the current page
func (q Query) Offset() int {
	if q.Page < 1 || q.Limit < 1 {
		return 0
	}
	return (min(q.Page, MaxPage) - 1) * min(q.Limit, MaxLimit)
}

// Page is one page of results
type Page[T any] struct {
	Data       []T `json:"data"`
	Total      int `json:"total"`
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalPages int `json:"totalPages"`
}

// NewPage builds a page for a normalized query
func NewPage[T any](data []T, total int, q Query) Page[T] {
	if data == nil {
		data = []T{}
	}
	totalPages := 0
	if q.Limit > 0 {
		totalPages = int(math.Ceil(float64(total) / float64(q.Limit)))
	}
	return Page[T]{
		Data:       data,
		Total:      total,
		Page:       q.Page,
		Limit:      q.Limit,
		TotalPages: totalPages,
	}
}

// PrefixTSQuery turns free text into a to_tsquery expression matching every
// word as a prefix, e.g. "go conc" -> "go:* & conc:*".
// Characters that carry meaning in tsquery syntax are dropped.
func PrefixTSQuery(search string) string {
	var terms []string
	for _, word := range strings.Fields(search) {
		cleaned := strings.Map(func(r rune) rune {
			if unicode.IsLetter(r) || unicode.IsDigit(r) {
				return r
			}
			return -1
		}, word)
		if cleaned != "" {
			terms = append(terms, cleaned+":*")
		}
	}
	return strings.Join(terms, " & ")
}
