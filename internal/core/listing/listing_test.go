package listing

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

var sortable = map[string]string{"createdAt": "created_at", "likesCount": "likes_count"}

func TestQuery_Normalize(t *testing.T) {
	tests := []struct {
		name string
		in   Query
		want Query
	}{
		{
			name: "defaults",
			in:   Query{},
			want: Query{Page: 1, Limit: 10, SortBy: "createdAt", SortOrder: Desc},
		},
		{
			name: "limit capped",
			in:   Query{Page: 3, Limit: 500, SortBy: "likesCount", SortOrder: "asc"},
			want: Query{Page: 3, Limit: 100, SortBy: "likesCount", SortOrder: Asc},
		},
		{
			name: "unknown sort column falls back",
			in:   Query{Page: 1, Limit: 5, SortBy: "password", SortOrder: "sideways", Search: "  go  "},
			want: Query{Page: 1, Limit: 5, SortBy: "createdAt", SortOrder: Desc, Search: "go"},
		},
		{
			name: "page capped",
			in:   Query{Page: math.MaxInt, Limit: 100},
			want: Query{Page: MaxPage, Limit: 100, SortBy: "createdAt", SortOrder: Desc},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.in.Normalize(sortable, "createdAt"))
		})
	}
}

func TestQuery_Offset(t *testing.T) {
	assert.Equal(t, 0, Query{Page: 1, Limit: 10}.Offset())
	assert.Equal(t, 20, Query{Page: 3, Limit: 10}.Offset())
	assert.Equal(t, 0, Query{Page: 0, Limit: 10}.Offset())
}

func TestQuery_OffsetNeverNegative(t *testing.T) {
	for _, page := range []int{math.MaxInt, math.MaxInt / 2, math.MaxInt/MaxLimit + 2} {
		q := Query{Page: page, Limit: MaxLimit}
		assert.Equal(t, (MaxPage-1)*MaxLimit, q.Offset(), "raw page %d", page)
		assert.Equal(t, (MaxPage-1)*MaxLimit, q.Normalize(sortable, "createdAt").Offset(), "normalized page %d", page)
	}
}

func TestNewPage(t *testing.T) {
	q := Query{Page: 2, Limit: 10}

	page := NewPage([]string{"a"}, 21, q)
	assert.Equal(t, 3, page.TotalPages)
	assert.Equal(t, 21, page.Total)
	assert.Equal(t, 2, page.Page)

	empty := NewPage[string](nil, 0, q)
	assert.NotNil(t, empty.Data)
	assert.Equal(t, 0, empty.TotalPages)
}

func TestPrefixTSQuery(t *testing.T) {
	assert.Equal(t, "go:* & conc:*", PrefixTSQuery("go conc"))
	assert.Equal(t, "hello:* & world:*", PrefixTSQuery("  hello!  (world) "))
	assert.Equal(t, "", PrefixTSQuery(" & | ! "))
}
