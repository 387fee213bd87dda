// Package pagination computes which page links a search result page shows.
package pagination

import "price-tracker-web/internal/models"

const (
	// MaxUnwindowed is the largest page count shown without ellipses.
	MaxUnwindowed = 8

	headPages = 5
	edgePages = 2
	tailPages = 5
)

// ComputeWindow returns the ordered page links for currentPage out of
// totalPages. A currentPage outside [1, totalPages] is clamped, so exactly one
// link is marked current whenever totalPages > 0.
func ComputeWindow(currentPage, totalPages int) []models.PageLink {
	if totalPages <= 0 {
		return []models.PageLink{}
	}
	current := clamp(currentPage, 1, totalPages)

	w := window{current: current}
	switch {
	case totalPages <= MaxUnwindowed:
		w.pages(1, totalPages)
	case current < 4:
		w.pages(1, headPages)
		w.ellipsis()
		w.pages(totalPages-edgePages+1, totalPages)
	case current > totalPages-3:
		w.pages(1, edgePages)
		w.ellipsis()
		w.pages(totalPages-tailPages+1, totalPages)
	default:
		w.pages(1, edgePages)
		w.ellipsis()
		w.pages(current-1, current+1)
		w.ellipsis()
		w.pages(totalPages-edgePages+1, totalPages)
	}
	return w.links
}

type window struct {
	current int
	links   []models.PageLink
}

func (w *window) pages(from, to int) {
	for n := from; n <= to; n++ {
		w.links = append(w.links, models.PageLink{
			Kind:      models.PageLinkPage,
			Number:    n,
			IsCurrent: n == w.current,
		})
	}
}

func (w *window) ellipsis() {
	w.links = append(w.links, models.PageLink{Kind: models.PageLinkEllipsis})
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
