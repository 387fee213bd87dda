// Package client talks to the price tracker's backend API: product search and
// the tracking cart.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"price-tracker-web/internal/models"
	"price-tracker-web/internal/query"
)

const (
	SearchPath = "/api/products"
	TrackPath  = "/cart/add"

	DefaultTimeout = 10 * time.Second
	maxBodyBytes   = 4 << 20

	endpointSearch = "search"
	endpointTrack  = "track"
)

type Client struct {
	baseURL    string
	timeout    time.Duration
	httpClient *http.Client
	metrics    *Metrics
}

// New returns a client for the backend at baseURL. A zero timeout selects
// DefaultTimeout; metrics may be nil.
func New(baseURL string, timeout time.Duration, metrics *Metrics) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		timeout:    timeout,
		httpClient: &http.Client{},
		metrics:    metrics,
	}
}

// HTTPClient exposes the underlying client so tests can swap its transport.
func (c *Client) HTTPClient() *http.Client {
	return c.httpClient
}

// SearchProducts fetches one page of products matching filters.
func (c *Client) SearchProducts(ctx context.Context, filters models.SearchFilters) (models.ResultPage, error) {
	start := time.Now()
	page, err := c.searchProducts(ctx, filters)
	c.metrics.ObserveRequest(endpointSearch, time.Since(start), err)
	return page, err
}

func (c *Client) searchProducts(ctx context.Context, filters models.SearchFilters) (models.ResultPage, error) {
	values := query.Encode(filters)
	values.Set(query.ParamPage, strconv.Itoa(max(filters.Page, 1)))

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+SearchPath+"?"+values.Encode(), nil)
	if err != nil {
		return models.ResultPage{}, fmt.Errorf("build search request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	body, err := c.do(req)
	if err != nil {
		return models.ResultPage{}, err
	}

	var page models.ResultPage
	if err := json.Unmarshal(body, &page); err != nil {
		return models.ResultPage{}, ParseError{Err: err}
	}
	if err := checkPage(page); err != nil {
		return models.ResultPage{}, ParseError{Err: err}
	}
	if page.Products == nil {
		page.Products = []models.Product{}
	}

	log.Printf("[client] search %q page %d/%d: %d products",
		filters.Search, page.CurrentPage, page.TotalPages, len(page.Products))
	return page, nil
}

func checkPage(page models.ResultPage) error {
	if page.TotalPages < 0 {
		return fmt.Errorf("negative total_pages %d", page.TotalPages)
	}
	if page.TotalPages > 0 && (page.CurrentPage < 1 || page.CurrentPage > page.TotalPages) {
		return fmt.Errorf("current_page %d outside [1, %d]", page.CurrentPage, page.TotalPages)
	}
	return nil
}

// Track asks the backend to track or untrack a product and returns its
// acknowledgment.
func (c *Client) Track(ctx context.Context, productID string, action models.TrackAction) (models.TrackResponse, error) {
	start := time.Now()
	resp, err := c.track(ctx, productID, action)
	c.metrics.ObserveRequest(endpointTrack, time.Since(start), err)
	return resp, err
}

func (c *Client) track(ctx context.Context, productID string, action models.TrackAction) (models.TrackResponse, error) {
	payload, err := json.Marshal(models.TrackRequest{ProductID: productID, Action: action})
	if err != nil {
		return models.TrackResponse{}, fmt.Errorf("encode track request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+TrackPath, bytes.NewReader(payload))
	if err != nil {
		return models.TrackResponse{}, fmt.Errorf("build track request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	body, err := c.do(req)
	if err != nil {
		return models.TrackResponse{}, err
	}

	var ack models.TrackResponse
	if err := json.Unmarshal(body, &ack); err != nil {
		return models.TrackResponse{}, ParseError{Err: err}
	}
	if ack.Status != "success" {
		return ack, ServerError{StatusCode: http.StatusOK, Body: "status " + strconv.Quote(ack.Status)}
	}

	log.Printf("[client] %s %s acknowledged as %s", action, productID, ack.Action)
	return ack, nil
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, NetworkError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, NetworkError{Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, ServerError{StatusCode: resp.StatusCode, Body: snippet(body)}
	}
	return body, nil
}

func snippet(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > 200 {
		s = s[:200]
	}
	return s
}
