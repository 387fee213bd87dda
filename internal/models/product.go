package models

import (
	"encoding/json"
	"strings"
)

// TrackState is the tracked flag of a product as seen by the current user.
type TrackState int

const (
	TrackAnonymous TrackState = iota
	TrackUntracked
	TrackTracked
)

func (t TrackState) String() string {
	switch t {
	case TrackTracked:
		return "tracked"
	case TrackUntracked:
		return "untracked"
	default:
		return "anonymous"
	}
}

func (t TrackState) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// UnmarshalJSON accepts a JSON boolean, the strings "True"/"False" and any
// other string, which the backend sends for logged-out users.
func (t *TrackState) UnmarshalJSON(data []byte) error {
	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		*t = FromBool(b)
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		// null and other shapes carry no tracking information
		*t = TrackAnonymous
		return nil
	}

	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "tracked":
		*t = TrackTracked
	case "false", "untracked":
		*t = TrackUntracked
	default:
		*t = TrackAnonymous
	}
	return nil
}

func FromBool(tracked bool) TrackState {
	if tracked {
		return TrackTracked
	}
	return TrackUntracked
}

type Product struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Price       float64    `json:"price"`
	Currency    string     `json:"currency"`
	Domain      string     `json:"domain"`
	Rating      float64    `json:"rating"`
	RatingCount int        `json:"amount_of_ratings"`
	Category    string     `json:"item_class"`
	Image       string     `json:"image"`
	URL         string     `json:"url"`
	Tracked     TrackState `json:"tracked"`
}

// ResultPage is one page of search results as returned by the backend.
type ResultPage struct {
	Products    []Product `json:"products"`
	TotalPages  int       `json:"total_pages"`
	CurrentPage int       `json:"current_page"`
}

// SearchFilters is the filter set read from the page's query string.
// Nil pointers and empty strings are absent fields.
type SearchFilters struct {
	Search    string   `json:"search,omitempty"`
	MinPrice  *float64 `json:"min_price,omitempty"`
	MaxPrice  *float64 `json:"max_price,omitempty"`
	MinRating *float64 `json:"min_rating,omitempty"`
	MaxRating *float64 `json:"max_rating,omitempty"`
	Brand     string   `json:"brand,omitempty"`
	Page      int      `json:"page"`
}

// HasActive reports whether any field other than Page is set.
func (f SearchFilters) HasActive() bool {
	return f.Search != "" || f.Brand != "" ||
		f.MinPrice != nil || f.MaxPrice != nil ||
		f.MinRating != nil || f.MaxRating != nil
}

type PageLinkKind string

const (
	PageLinkPage     PageLinkKind = "page"
	PageLinkEllipsis PageLinkKind = "ellipsis"
)

type PageLink struct {
	Kind      PageLinkKind `json:"kind"`
	Number    int          `json:"number,omitempty"`
	IsCurrent bool         `json:"is_current,omitempty"`
	Href      string       `json:"href,omitempty"`
}

type TrackAction string

const (
	ActionTrack   TrackAction = "track"
	ActionUntrack TrackAction = "untrack"
)

type TrackRequest struct {
	ProductID string      `json:"product_id"`
	Action    TrackAction `json:"action"`
}

type TrackResponse struct {
	Status string `json:"status"`
	Action string `json:"action"`
}

// Tracked reports the server's view of the product after the request.
// Anything other than "track" (the backend answers "remove") means untracked.
func (r TrackResponse) Tracked() bool {
	return r.Action == string(ActionTrack)
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    int    `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}
