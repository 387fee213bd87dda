// Package session keeps per-page-view state: the view's navigator and the
// tracked flags of the products it shows.
package session

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"

	"price-tracker-web/internal/client"
	"price-tracker-web/internal/navigation"
	"price-tracker-web/internal/tracking"
	"price-tracker-web/pkg/sequence"
)

const CookieName = "pt_view"

type View struct {
	ID        string
	Navigator *navigation.Navigator
	Tracker   *tracking.Tracker
}

type Config struct {
	Views          int
	TrackedPerView int
}

// Registry holds the most recently used page views.
type Registry struct {
	cfg     Config
	seq     sequence.Source
	api     tracking.Acknowledger
	metrics *client.Metrics

	mu    sync.Mutex
	views *lru.Cache[string, *View]
}

func NewRegistry(cfg Config, seq sequence.Source, api tracking.Acknowledger, metrics *client.Metrics) (*Registry, error) {
	r := &Registry{cfg: cfg, seq: seq, api: api, metrics: metrics}

	views, err := lru.NewWithEvict[string, *View](cfg.Views, r.onEvict)
	if err != nil {
		return nil, fmt.Errorf("session registry: %w", err)
	}
	r.views = views
	return r, nil
}

func (r *Registry) onEvict(id string, v *View) {
	v.Navigator.Close()
	if err := r.seq.Forget(context.Background(), id); err != nil {
		log.Printf("[session] forget view %s: %v", id, err)
	}
}

// NewID returns a fresh view ID.
func NewID() string {
	return uuid.NewString()
}

// ValidID reports whether id looks like an ID issued by NewID.
func ValidID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// Get returns the view for id, creating it when unknown. An invalid id gets a
// fresh view with a new ID.
func (r *Registry) Get(id string) (*View, error) {
	if !ValidID(id) {
		id = NewID()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if v, ok := r.views.Get(id); ok {
		return v, nil
	}

	tracker, err := tracking.NewTracker(r.api, r.cfg.TrackedPerView, r.metrics)
	if err != nil {
		return nil, err
	}
	v := &View{
		ID:        id,
		Navigator: navigation.NewNavigator(id, r.seq, r.metrics),
		Tracker:   tracker,
	}
	r.views.Add(id, v)
	return v, nil
}

// Lookup returns the view for id without creating one.
func (r *Registry) Lookup(id string) (*View, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.views.Get(id)
}

func (r *Registry) Len() int {
	return r.views.Len()
}
