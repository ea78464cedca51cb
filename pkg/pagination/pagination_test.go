package pagination

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name                string
		page, limit, def    int
		wantPage, wantLimit int
		wantOffset          int
	}{
		{"defaults", 0, 0, 10, 1, 10, 0},
		{"second page", 2, 10, 10, 2, 10, 10},
		{"capped", 3, 500, 10, 3, 100, 200},
		{"custom default", 1, 0, 50, 1, 50, 0},
		{"negative page", -4, 5, 10, 1, 5, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := New(tt.page, tt.limit, tt.def)
			assert.Equal(t, tt.wantPage, p.Page)
			assert.Equal(t, tt.wantLimit, p.Limit)
			assert.Equal(t, tt.wantOffset, p.Offset)
		})
	}
}

func TestMeta(t *testing.T) {
	assert.Equal(t, Meta{Page: 2, Limit: 10, Total: 25, TotalPages: 3}, New(2, 10, 10).Meta(25))
	assert.Equal(t, 0, New(1, 10, 10).Meta(0).TotalPages)
	assert.Equal(t, 1, New(1, 10, 10).Meta(10).TotalPages)
}
