package pagination_test

import (
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"price-tracker-web/internal/models"
	"price-tracker-web/internal/pagination"
)

// compact renders links as "1 2 [3] … 9 10" for readable expectations.
func compact(links []models.PageLink) string {
	parts := make([]string, 0, len(links))
	for _, l := range links {
		switch {
		case l.Kind == models.PageLinkEllipsis:
			parts = append(parts, "…")
		case l.IsCurrent:
			parts = append(parts, "["+strconv.Itoa(l.Number)+"]")
		default:
			parts = append(parts, strconv.Itoa(l.Number))
		}
	}
	return strings.Join(parts, " ")
}

func TestComputeWindow(t *testing.T) {
	tests := []struct {
		current, total int
		want           string
	}{
		{1, 0, ""},
		{1, 1, "[1]"},
		{2, 3, "1 [2] 3"},
		{8, 8, "1 2 3 4 5 6 7 [8]"},
		{1, 9, "[1] 2 3 4 5 … 8 9"},
		{3, 20, "1 2 [3] 4 5 … 19 20"},
		{4, 20, "1 2 … 3 [4] 5 … 19 20"},
		{5, 20, "1 2 … 4 [5] 6 … 19 20"},
		{10, 20, "1 2 … 9 [10] 11 … 19 20"},
		{17, 20, "1 2 … 16 [17] 18 … 19 20"},
		{18, 20, "1 2 … 16 17 [18] 19 20"},
		{20, 20, "1 2 … 16 17 18 19 [20]"},
		// the middle branch keeps both ellipses even when they hide nothing
		{6, 9, "1 2 … 5 [6] 7 … 8 9"},
	}

	for _, tt := range tests {
		t.Run(strconv.Itoa(tt.current)+"_of_"+strconv.Itoa(tt.total), func(t *testing.T) {
			assert.Equal(t, tt.want, compact(pagination.ComputeWindow(tt.current, tt.total)))
		})
	}
}

func TestComputeWindowSmallTotalsHaveNoEllipsis(t *testing.T) {
	for total := 1; total <= pagination.MaxUnwindowed; total++ {
		for current := 1; current <= total; current++ {
			links := pagination.ComputeWindow(current, total)
			assert.Len(t, links, total)
			for i, l := range links {
				assert.Equal(t, models.PageLinkPage, l.Kind)
				assert.Equal(t, i+1, l.Number)
				assert.Equal(t, current == l.Number, l.IsCurrent)
			}
		}
	}
}

func TestComputeWindowLargeTotals(t *testing.T) {
	for total := pagination.MaxUnwindowed + 1; total <= 40; total++ {
		for current := 1; current <= total; current++ {
			links := pagination.ComputeWindow(current, total)

			var marked, ellipses, prev int
			for _, l := range links {
				if l.Kind == models.PageLinkEllipsis {
					ellipses++
					continue
				}
				assert.Greater(t, l.Number, prev, "pages must ascend (%d of %d)", current, total)
				prev = l.Number
				if l.IsCurrent {
					marked++
					assert.Equal(t, current, l.Number)
				}
			}
			assert.Equal(t, 1, marked, "%d of %d", current, total)
			assert.LessOrEqual(t, ellipses, 2, "%d of %d", current, total)
			assert.Equal(t, 1, links[0].Number)
			assert.Equal(t, total, links[len(links)-1].Number)
		}
	}
}

func TestComputeWindowClampsCurrent(t *testing.T) {
	assert.Equal(t, "[1] 2 3", compact(pagination.ComputeWindow(0, 3)))
	assert.Equal(t, "1 2 [3]", compact(pagination.ComputeWindow(99, 3)))
	assert.Empty(t, pagination.ComputeWindow(1, -2))
}
