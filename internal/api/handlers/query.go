package handlers

import (
	"net/http"
	"strconv"

	"Inkwell/internal/core/listing"
)

// ListQuery reads page, limit, search, sortBy and sortOrder from the URL.
// Unparseable numbers fall back to the defaults applied by Normalize.
func ListQuery(r *http.Request) listing.Query {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	limit, _ := strconv.Atoi(q.Get("limit"))
	return listing.Query{
		Search:    q.Get("search"),
		SortBy:    q.Get("sortBy"),
		SortOrder: listing.SortOrder(q.Get("sortOrder")),
		Page:      page,
		Limit:     limit,
	}
}

// OptionalParam returns a pointer to the query parameter, or nil when absent
func OptionalParam(r *http.Request, key string) *string {
	values, ok := r.URL.Query()[key]
	if !ok || len(values) == 0 {
		return nil
	}
	v := values[0]
	return &v
}
