package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewPaginationDerivesPageCount(t *testing.T) {
	cases := []struct {
		name      string
		page      int
		size      int
		total     int
		wantPage  int
		wantSize  int
		wantPages int
	}{
		{name: "exact multiple", page: 1, size: 10, total: 30, wantPage: 1, wantSize: 10, wantPages: 3},
		{name: "partial last page", page: 2, size: 10, total: 31, wantPage: 2, wantSize: 10, wantPages: 4},
		{name: "empty result", page: 1, size: 10, total: 0, wantPage: 1, wantSize: 10, wantPages: 0},
		{name: "normalises page and size", page: 0, size: 0, total: 5, wantPage: 1, wantSize: 20, wantPages: 1},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := NewPagination(tc.page, tc.size, tc.total)
			assert.Equal(t, tc.wantPage, p.Page)
			assert.Equal(t, tc.wantSize, p.PageSize)
			assert.Equal(t, tc.total, p.TotalCount)
			assert.Equal(t, tc.wantPages, p.TotalPages)
		})
	}
}
