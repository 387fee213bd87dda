package services

import (
	"context"
	"errors"
	"log"
	"time"

	"price-tracker-web/internal/models"
	"price-tracker-web/internal/navigation"
	"price-tracker-web/internal/query"
	"price-tracker-web/internal/session"
	"price-tracker-web/internal/tracking"
	"price-tracker-web/internal/viewmodel"
)

var ErrUnknownView = errors.New("unknown page view")

// ProductSearcher fetches one page of search results.
type ProductSearcher interface {
	SearchProducts(ctx context.Context, filters models.SearchFilters) (models.ResultPage, error)
}

type SearchService struct {
	searcher ProductSearcher
	sessions *session.Registry
	opts     viewmodel.Options
}

func NewSearchService(searcher ProductSearcher, sessions *session.Registry, searchPath string) *SearchService {
	return &SearchService{
		searcher: searcher,
		sessions: sessions,
		opts:     viewmodel.Options{SearchPath: searchPath},
	}
}

// Result is the state of a page view after a search navigation.
type Result struct {
	ViewID  string
	Filters models.SearchFilters
	State   navigation.State
}

// Search runs one navigation of the page view viewID for the given raw query
// string. A superseded navigation returns navigation.ErrStale.
func (s *SearchService) Search(ctx context.Context, viewID, rawQuery string) (Result, error) {
	startTime := time.Now()

	view, err := s.sessions.Get(viewID)
	if err != nil {
		return Result{}, err
	}

	filters := query.Parse(rawQuery)
	res := Result{ViewID: view.ID, Filters: filters}

	st, err := view.Navigator.Navigate(ctx, func(ctx context.Context) (viewmodel.ViewModel, error) {
		if err := query.Validate(filters); err != nil {
			return viewmodel.ViewModel{}, err
		}
		page, err := s.searcher.SearchProducts(ctx, filters)
		if err != nil {
			return viewmodel.ViewModel{}, err
		}
		return viewmodel.Build(filters, page, s.opts), nil
	})
	if err != nil {
		res.State = view.Navigator.State()
		if errors.Is(err, navigation.ErrStale) {
			log.Printf("[search] view %s: %q superseded after %v", view.ID, rawQuery, time.Since(startTime))
		}
		return res, err
	}

	if st.ViewModel != nil {
		products := make([]models.Product, 0, len(st.ViewModel.Items))
		for _, item := range st.ViewModel.Items {
			products = append(products, item.Product)
		}
		view.Tracker.Seed(products)

		vm := st.ViewModel.WithTrackStates(view.Tracker.States())
		st.ViewModel = &vm
	}
	res.State = st

	log.Printf("[search] view %s: %q -> %s in %v", view.ID, rawQuery, st.Status, time.Since(startTime))
	return res, nil
}

// Toggle flips the tracked flag of a product shown in page view viewID.
func (s *SearchService) Toggle(ctx context.Context, viewID, productID string) (tracking.Outcome, error) {
	view, ok := s.sessions.Lookup(viewID)
	if !ok {
		return tracking.Outcome{ProductID: productID}, ErrUnknownView
	}
	return view.Tracker.Toggle(ctx, productID)
}
