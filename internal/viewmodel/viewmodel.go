// Package viewmodel shapes a fetched result page into what the search page
// renders: product cards and the pagination control.
package viewmodel

import (
	"price-tracker-web/internal/models"
	"price-tracker-web/internal/pagination"
	"price-tracker-web/internal/query"
	"price-tracker-web/pkg/utils"
)

const RowSize = 3

type State string

const (
	StateResults      State = "results"
	StateNoResults    State = "no_results"
	StateEmptyInitial State = "empty_initial"
)

type ItemView struct {
	Product      models.Product    `json:"product"`
	DisplayTitle string            `json:"display_title"`
	PriceLabel   string            `json:"price_label"`
	RatingLabel  string            `json:"rating_label"`
	TrackState   models.TrackState `json:"track_state"`
}

// CanTrack is false for visitors who are not logged in.
func (i ItemView) CanTrack() bool {
	return i.TrackState != models.TrackAnonymous
}

func (i ItemView) Tracked() bool {
	return i.TrackState == models.TrackTracked
}

type ViewModel struct {
	State       State                `json:"state"`
	Filters     models.SearchFilters `json:"filters"`
	Items       []ItemView           `json:"items"`
	Pagination  []models.PageLink    `json:"pagination"`
	CurrentPage int                  `json:"current_page"`
	TotalPages  int                  `json:"total_pages"`
}

// Rows groups the items for a grid of RowSize columns.
func (vm ViewModel) Rows() [][]ItemView {
	var rows [][]ItemView
	for start := 0; start < len(vm.Items); start += RowSize {
		end := min(start+RowSize, len(vm.Items))
		rows = append(rows, vm.Items[start:end])
	}
	return rows
}

type Options struct {
	// SearchPath prefixes every pagination href, e.g. "/search".
	SearchPath string
}

// Build combines the filters the page was loaded with and the result page the
// backend returned.
func Build(filters models.SearchFilters, page models.ResultPage, opts Options) ViewModel {
	vm := ViewModel{
		Filters:     filters,
		Items:       []ItemView{},
		Pagination:  []models.PageLink{},
		CurrentPage: page.CurrentPage,
		TotalPages:  page.TotalPages,
	}

	if page.TotalPages > 0 {
		for _, p := range page.Products {
			vm.Items = append(vm.Items, itemView(p))
		}
		vm.Pagination = pagination.ComputeWindow(page.CurrentPage, page.TotalPages)
		for i := range vm.Pagination {
			if vm.Pagination[i].Kind == models.PageLinkPage {
				vm.Pagination[i].Href = opts.SearchPath + "?" + query.PageQuery(filters, vm.Pagination[i].Number)
			}
		}
	}

	switch {
	case len(vm.Items) > 0:
		vm.State = StateResults
	case !filters.HasActive():
		vm.State = StateEmptyInitial
	default:
		vm.State = StateNoResults
	}
	return vm
}

func itemView(p models.Product) ItemView {
	return ItemView{
		Product:      p,
		DisplayTitle: utils.TruncateTitle(p.Title),
		PriceLabel:   utils.FormatPrice(p.Price, p.Currency),
		RatingLabel:  utils.FormatRating(p.Rating, p.RatingCount),
		TrackState:   p.Tracked,
	}
}

// WithTrackStates returns a copy of vm whose items carry the given tracked
// states, keyed by product ID. Unknown IDs keep their state.
func (vm ViewModel) WithTrackStates(states map[string]models.TrackState) ViewModel {
	items := make([]ItemView, len(vm.Items))
	for i, item := range vm.Items {
		if s, ok := states[item.Product.ID]; ok {
			item.TrackState = s
			item.Product.Tracked = s
		}
		items[i] = item
	}
	vm.Items = items
	return vm
}
