package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"price-tracker-web/internal/models"
	"price-tracker-web/internal/query"
)

const backendURL = "http://backend.test"

func newTestClient(t *testing.T, timeout time.Duration) (*Client, *httpmock.MockTransport) {
	t.Helper()
	transport := httpmock.NewMockTransport()
	c := New(backendURL+"/", timeout, NewMetrics())
	c.HTTPClient().Transport = transport
	return c, transport
}

const searchBody = `{
	"products": [
		{"id": "42", "title": "Phone", "price": 199.5, "currency": "$", "domain": "shop.example",
		 "rating": 4.2, "amount_of_ratings": 31, "item_class": "phones", "image": "/i.png",
		 "url": "https://shop.example/42", "tracked": true},
		{"id": "43", "title": "Case", "price": 9, "currency": "$", "tracked": "Logged out"},
		{"id": "44", "title": "Cable", "price": 3, "currency": "$", "tracked": "False"}
	],
	"total_pages": 12,
	"current_page": 3
}`

func TestSearchProducts(t *testing.T) {
	c, transport := newTestClient(t, 0)

	var gotQuery map[string][]string
	transport.RegisterResponder(http.MethodGet, backendURL+SearchPath,
		func(req *http.Request) (*http.Response, error) {
			gotQuery = req.URL.Query()
			return httpmock.NewStringResponse(http.StatusOK, searchBody), nil
		})

	page, err := c.SearchProducts(context.Background(), query.Parse("search=phone&min_price=100&max_price=300&page=3"))
	require.NoError(t, err)

	assert.Equal(t, []string{"phone"}, gotQuery["search"])
	assert.Equal(t, []string{"100"}, gotQuery["min_price"])
	assert.Equal(t, []string{"300"}, gotQuery["max_price"])
	assert.Equal(t, []string{"3"}, gotQuery["page"])

	assert.Equal(t, 12, page.TotalPages)
	assert.Equal(t, 3, page.CurrentPage)
	require.Len(t, page.Products, 3)
	assert.Equal(t, models.TrackTracked, page.Products[0].Tracked)
	assert.Equal(t, 31, page.Products[0].RatingCount)
	assert.Equal(t, "phones", page.Products[0].Category)
	assert.Equal(t, models.TrackAnonymous, page.Products[1].Tracked)
	assert.Equal(t, models.TrackUntracked, page.Products[2].Tracked)

	assert.Equal(t, 1.0, testutil.ToFloat64(c.metrics.RequestsTotal.WithLabelValues(endpointSearch, "ok")))
}

func TestSearchProductsSendsFirstPage(t *testing.T) {
	c, transport := newTestClient(t, 0)
	transport.RegisterResponder(http.MethodGet, backendURL+SearchPath,
		func(req *http.Request) (*http.Response, error) {
			assert.Equal(t, "1", req.URL.Query().Get("page"))
			return httpmock.NewStringResponse(http.StatusOK, `{"products": null, "total_pages": 0, "current_page": 1}`), nil
		})

	page, err := c.SearchProducts(context.Background(), query.Parse(""))
	require.NoError(t, err)
	assert.NotNil(t, page.Products)
	assert.Empty(t, page.Products)
}

func TestSearchProductsErrors(t *testing.T) {
	tests := []struct {
		name      string
		responder httpmock.Responder
		wantKind  string
	}{
		{
			name:      "network",
			responder: httpmock.NewErrorResponder(errors.New("connection refused")),
			wantKind:  "network",
		},
		{
			name:      "server 500",
			responder: httpmock.NewStringResponder(http.StatusInternalServerError, "boom"),
			wantKind:  "server",
		},
		{
			name:      "server 404",
			responder: httpmock.NewStringResponder(http.StatusNotFound, ""),
			wantKind:  "server",
		},
		{
			name:      "malformed json",
			responder: httpmock.NewStringResponder(http.StatusOK, `{"products": [`),
			wantKind:  "parse",
		},
		{
			name:      "current page out of range",
			responder: httpmock.NewStringResponder(http.StatusOK, `{"products": [], "total_pages": 2, "current_page": 5}`),
			wantKind:  "parse",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, transport := newTestClient(t, 0)
			transport.RegisterResponder(http.MethodGet, backendURL+SearchPath, tt.responder)

			_, err := c.SearchProducts(context.Background(), query.Parse("search=x"))
			require.Error(t, err)
			assert.Equal(t, tt.wantKind, Kind(err))
			assert.NotEmpty(t, Reason(err))
			assert.Equal(t, 1.0, testutil.ToFloat64(c.metrics.RequestsTotal.WithLabelValues(endpointSearch, tt.wantKind)))
		})
	}
}

func TestSearchProductsTimeout(t *testing.T) {
	c, transport := newTestClient(t, 20*time.Millisecond)
	transport.RegisterResponder(http.MethodGet, backendURL+SearchPath,
		func(req *http.Request) (*http.Response, error) {
			<-req.Context().Done()
			return nil, req.Context().Err()
		})

	_, err := c.SearchProducts(context.Background(), query.Parse(""))
	require.Error(t, err)
	assert.Equal(t, "network", Kind(err))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Contains(t, Reason(err), "too long")
}

func TestSearchProductsCanceled(t *testing.T) {
	c, transport := newTestClient(t, time.Minute)
	transport.RegisterResponder(http.MethodGet, backendURL+SearchPath,
		func(req *http.Request) (*http.Response, error) {
			<-req.Context().Done()
			return nil, req.Context().Err()
		})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.SearchProducts(ctx, query.Parse(""))
	require.Error(t, err)
	assert.Equal(t, "canceled", Kind(err))
}

func TestTrack(t *testing.T) {
	c, transport := newTestClient(t, 0)

	var got models.TrackRequest
	transport.RegisterResponder(http.MethodPost, backendURL+TrackPath,
		func(req *http.Request) (*http.Response, error) {
			assert.Equal(t, "application/json", req.Header.Get("Content-Type"))
			if err := json.NewDecoder(req.Body).Decode(&got); err != nil {
				return nil, err
			}
			return httpmock.NewJsonResponse(http.StatusOK, map[string]string{"status": "success", "action": "remove"})
		})

	ack, err := c.Track(context.Background(), "42", models.ActionUntrack)
	require.NoError(t, err)
	assert.Equal(t, models.TrackRequest{ProductID: "42", Action: models.ActionUntrack}, got)
	assert.False(t, ack.Tracked())
}

func TestTrackErrorStatus(t *testing.T) {
	c, transport := newTestClient(t, 0)
	transport.RegisterResponder(http.MethodPost, backendURL+TrackPath,
		httpmock.NewStringResponder(http.StatusOK, `{"status": "error"}`))

	_, err := c.Track(context.Background(), "42", models.ActionTrack)
	require.Error(t, err)
	assert.Equal(t, "server", Kind(err))
}

func TestReasonValidation(t *testing.T) {
	err := query.Validate(query.Parse("min_price=5&max_price=1"))
	assert.Equal(t, "validation", Kind(err))
	assert.Contains(t, Reason(err), "min_price")
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveRequest(endpointSearch, time.Second, nil)
		m.IncStale()
		m.IncRevert()
		m.IncFailed(errors.New("x"))
	})
}
