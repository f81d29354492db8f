package shared

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilter_Window(t *testing.T) {
	tests := []struct {
		name          string
		filter        Filter
		limit, offset int
	}{
		{"default", DefaultFilter(), 20, 0},
		{"third page", Filter{Page: 3, PageSize: 10}, 10, 20},
		{"oversized page is capped", Filter{Page: 2, PageSize: 500}, MaxPageSize, MaxPageSize},
		{"paging off", Filter{Page: 4}, 0, 0},
		{"page zero", Filter{Page: 0, PageSize: 5}, 5, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.limit, tt.filter.Limit())
			assert.Equal(t, tt.offset, tt.filter.Offset())
		})
	}
}
