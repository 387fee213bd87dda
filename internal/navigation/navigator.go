// Package navigation tracks the lifecycle of search navigations in one page
// view.
//
// Status graph:
//
//	IDLE ──► LOADING ──► LOADED
//	            │  ▲        │
//	            │  └────────┤ (new navigation)
//	            ▼           │
//	          FAILED ───────┘
//
// A navigation that starts while another is LOADING supersedes it: the older
// request's context is cancelled and its outcome, should it still arrive, is
// discarded.
package navigation

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"price-tracker-web/internal/client"
	"price-tracker-web/internal/viewmodel"
	"price-tracker-web/pkg/sequence"
)

type Status string

const (
	StatusIdle    Status = "IDLE"
	StatusLoading Status = "LOADING"
	StatusLoaded  Status = "LOADED"
	StatusFailed  Status = "FAILED"
)

// ErrStale is returned for the outcome of a navigation that was superseded.
var ErrStale = errors.New("navigation superseded by a newer request")

var validTransitions = map[Status][]Status{
	StatusIdle:    {StatusLoading},
	StatusLoading: {StatusLoading, StatusLoaded, StatusFailed},
	StatusLoaded:  {StatusLoading},
	StatusFailed:  {StatusLoading},
}

// IsTransitionAllowed reports whether a view may move from one status to
// another.
func IsTransitionAllowed(from, to Status) bool {
	for _, s := range validTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// State is a snapshot of a view's navigation.
type State struct {
	Status    Status
	Seq       uint64
	ViewModel *viewmodel.ViewModel
	Err       error
	Reason    string
}

// Ticket identifies one navigation. Its context is cancelled when a newer
// navigation begins.
type Ticket struct {
	Seq uint64
	Ctx context.Context
}

type Navigator struct {
	view    string
	seq     sequence.Source
	metrics *client.Metrics

	mu     sync.Mutex
	state  State
	cancel context.CancelFunc
}

func NewNavigator(view string, seq sequence.Source, metrics *client.Metrics) *Navigator {
	return &Navigator{
		view:    view,
		seq:     seq,
		metrics: metrics,
		state:   State{Status: StatusIdle},
	}
}

func (n *Navigator) State() State {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.state
}

// Begin starts a navigation, cancelling the one in flight, if any.
func (n *Navigator) Begin(ctx context.Context) (Ticket, error) {
	seq, err := n.seq.Next(ctx, n.view)
	if err != nil {
		return Ticket{}, fmt.Errorf("issue sequence: %w", err)
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	if seq <= n.state.Seq {
		// another navigation of this view got a later number first
		return Ticket{}, ErrStale
	}
	if err := n.transition(StatusLoading); err != nil {
		return Ticket{}, err
	}
	if n.cancel != nil {
		n.cancel()
	}

	navCtx, cancel := context.WithCancel(ctx)
	n.cancel = cancel
	n.state = State{Status: StatusLoading, Seq: seq}

	return Ticket{Seq: seq, Ctx: navCtx}, nil
}

// Complete records the outcome of the navigation identified by t. Outcomes
// of superseded navigations are discarded and reported as ErrStale.
func (n *Navigator) Complete(ctx context.Context, t Ticket, vm viewmodel.ViewModel, fetchErr error) (State, error) {
	latest, err := n.seq.Latest(ctx, n.view)
	if err != nil {
		log.Printf("[navigation] view %s: latest sequence unavailable, using local: %v", n.view, err)
		latest = 0
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	if t.Seq < latest || t.Seq != n.state.Seq {
		n.metrics.IncStale()
		log.Printf("[navigation] view %s: discarding response #%d (latest #%d)", n.view, t.Seq, max(latest, n.state.Seq))
		return n.state, ErrStale
	}

	status := StatusLoaded
	if fetchErr != nil {
		status = StatusFailed
	}
	if err := n.transition(status); err != nil {
		return n.state, err
	}

	if n.cancel != nil {
		n.cancel()
		n.cancel = nil
	}

	if fetchErr != nil {
		n.metrics.IncFailed(fetchErr)
		n.state = State{Status: StatusFailed, Seq: t.Seq, Err: fetchErr, Reason: client.Reason(fetchErr)}
		log.Printf("[navigation] view %s: navigation #%d failed: %v", n.view, t.Seq, fetchErr)
		return n.state, nil
	}

	n.state = State{Status: StatusLoaded, Seq: t.Seq, ViewModel: &vm}
	return n.state, nil
}

// Navigate runs fetch as a new navigation and records its outcome.
func (n *Navigator) Navigate(ctx context.Context, fetch func(context.Context) (viewmodel.ViewModel, error)) (State, error) {
	t, err := n.Begin(ctx)
	if err != nil {
		return n.State(), err
	}
	vm, fetchErr := fetch(t.Ctx)
	return n.Complete(ctx, t, vm, fetchErr)
}

// Close cancels any navigation in flight.
func (n *Navigator) Close() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.cancel != nil {
		n.cancel()
		n.cancel = nil
	}
}

func (n *Navigator) transition(to Status) error {
	if !IsTransitionAllowed(n.state.Status, to) {
		return fmt.Errorf("navigation: transition %s -> %s not allowed", n.state.Status, to)
	}
	return nil
}
