package pagination

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromRequest(t *testing.T) {
	tests := []struct {
		query      string
		wantPage   int
		wantPer    int
		wantOffset int
	}{
		{"", 1, 20, 0},
		{"page=3&per_page=10", 3, 10, 20},
		{"page=-1", 1, 20, 0},
		{"page=0", 1, 20, 0},
		{"page=abc&per_page=xyz", 1, 20, 0},
		{"per_page=500", 1, 100, 0},
		{"per_page=100&page=2", 2, 100, 100},
		{"per_page=0", 1, 20, 0},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			p := FromRequest(httptest.NewRequest(http.MethodGet, "/api/companies?"+tt.query, nil))
			assert.Equal(t, tt.wantPage, p.Page)
			assert.Equal(t, tt.wantPer, p.PerPage)
			assert.Equal(t, tt.wantOffset, p.Offset())
			assert.Equal(t, tt.wantPer, p.Limit())
		})
	}
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, DefaultParams(), Params{}.Normalize())
	assert.Equal(t, Params{Page: 2, PerPage: MaxPerPage}, Params{Page: 2, PerPage: 1000}.Normalize())
	assert.Equal(t, Params{Page: 4, PerPage: 5}, Params{Page: 4, PerPage: 5}.Normalize())
}
