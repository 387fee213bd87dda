// Package tracking keeps the tracked flag of rendered products, updated
// optimistically on click and reconciled with the backend's acknowledgment.
package tracking

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"price-tracker-web/internal/client"
	"price-tracker-web/internal/models"
)

var (
	ErrUnknownProduct = errors.New("product is not on the page")
	ErrAnonymous      = errors.New("log in to track products")
)

// Acknowledger sends a track/untrack request and returns the server's answer.
type Acknowledger interface {
	Track(ctx context.Context, productID string, action models.TrackAction) (models.TrackResponse, error)
}

type entry struct {
	displayed bool
	confirmed bool
	pending   int
	issued    uint64
	applied   uint64
}

// Outcome describes a product after one toggle request resolved.
type Outcome struct {
	ProductID string `json:"product_id"`
	Tracked   bool   `json:"tracked"`
	Confirmed bool   `json:"confirmed"`
	// Settled is true when no other request for the product is in flight and
	// Tracked therefore equals the server's value.
	Settled  bool   `json:"settled"`
	Reverted bool   `json:"reverted"`
	Notice   string `json:"notice,omitempty"`
}

type Tracker struct {
	api     Acknowledger
	metrics *client.Metrics

	mu      sync.Mutex
	entries *lru.Cache[string, *entry]
	// anonymous products were rendered for a visitor who is not logged in
	anonymous map[string]bool
}

func NewTracker(api Acknowledger, capacity int, metrics *client.Metrics) (*Tracker, error) {
	entries, err := lru.New[string, *entry](capacity)
	if err != nil {
		return nil, fmt.Errorf("tracker cache: %w", err)
	}
	return &Tracker{
		api:       api,
		metrics:   metrics,
		entries:   entries,
		anonymous: make(map[string]bool),
	}, nil
}

// Seed records the server-reported state of freshly rendered products.
// Products with a toggle in flight keep their optimistic state.
func (t *Tracker) Seed(products []models.Product) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, p := range products {
		if p.Tracked == models.TrackAnonymous {
			t.anonymous[p.ID] = true
			t.entries.Remove(p.ID)
			continue
		}
		delete(t.anonymous, p.ID)

		tracked := p.Tracked == models.TrackTracked
		if e, ok := t.entries.Get(p.ID); ok && e.pending > 0 {
			continue
		}
		t.entries.Add(p.ID, &entry{displayed: tracked, confirmed: tracked})
	}
}

// Displayed returns the state currently shown for productID.
func (t *Tracker) Displayed(productID string) (tracked, ok bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.entries.Peek(productID)
	if !ok {
		return false, false
	}
	return e.displayed, true
}

// States returns the displayed state of every known product.
func (t *Tracker) States() map[string]models.TrackState {
	t.mu.Lock()
	defer t.mu.Unlock()

	states := make(map[string]models.TrackState, t.entries.Len())
	for _, id := range t.entries.Keys() {
		if e, ok := t.entries.Peek(id); ok {
			states[id] = models.FromBool(e.displayed)
		}
	}
	return states
}

// Toggle flips the product's displayed state, asks the backend to follow, and
// reconciles with its answer. The returned error is the request's failure,
// if any; the outcome is valid either way.
func (t *Tracker) Toggle(ctx context.Context, productID string) (Outcome, error) {
	t.mu.Lock()
	if t.anonymous[productID] {
		t.mu.Unlock()
		return Outcome{ProductID: productID, Notice: ErrAnonymous.Error()}, ErrAnonymous
	}
	e, ok := t.entries.Get(productID)
	if !ok {
		t.mu.Unlock()
		return Outcome{ProductID: productID}, ErrUnknownProduct
	}

	e.displayed = !e.displayed
	e.pending++
	e.issued++
	seq := e.issued
	action := models.ActionUntrack
	if e.displayed {
		action = models.ActionTrack
	}
	t.mu.Unlock()

	ack, err := t.api.Track(ctx, productID, action)

	t.mu.Lock()
	defer t.mu.Unlock()

	e.pending--
	if err == nil && seq > e.applied {
		e.confirmed = ack.Tracked()
		e.applied = seq
	}

	out := Outcome{ProductID: productID, Confirmed: e.confirmed}
	if e.pending == 0 {
		if e.displayed != e.confirmed {
			out.Reverted = true
			t.metrics.IncRevert()
			log.Printf("[tracking] %s: reverting to server state tracked=%t", productID, e.confirmed)
		}
		e.displayed = e.confirmed
		out.Settled = true
	}
	out.Tracked = e.displayed

	if err != nil {
		out.Notice = fmt.Sprintf("Could not %s this product. %s", action, client.Reason(err))
		return out, err
	}
	return out, nil
}
