package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"price-tracker-web/internal/query"
)

// NetworkError indicates the request never completed.
type NetworkError struct {
	Err error
}

func (e NetworkError) Error() string {
	return fmt.Errorf("network: %w", e.Err).Error()
}

func (e NetworkError) Unwrap() error {
	return e.Err
}

// ServerError indicates a non-2xx response or an explicit error status in
// the body.
type ServerError struct {
	StatusCode int
	Body       string
}

func (e ServerError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("server: status %d", e.StatusCode)
	}
	return fmt.Sprintf("server: status %d: %s", e.StatusCode, e.Body)
}

// ParseError indicates a response body that could not be understood.
type ParseError struct {
	Err error
}

func (e ParseError) Error() string {
	return fmt.Errorf("parse: %w", e.Err).Error()
}

func (e ParseError) Unwrap() error {
	return e.Err
}

// Kind returns a short label for err, used in metrics and JSON error bodies.
func Kind(err error) string {
	if err == nil {
		return "ok"
	}
	var verr *query.ValidationError
	if errors.As(err, &verr) {
		return "validation"
	}
	if errors.Is(err, context.Canceled) {
		return "canceled"
	}
	var netErr NetworkError
	if errors.As(err, &netErr) {
		return "network"
	}
	var srvErr ServerError
	if errors.As(err, &srvErr) {
		return "server"
	}
	var parseErr ParseError
	if errors.As(err, &parseErr) {
		return "parse"
	}
	return "other"
}

// Reason renders err as a message fit to show on the search page.
func Reason(err error) string {
	switch Kind(err) {
	case "ok":
		return ""
	case "validation":
		var verr *query.ValidationError
		errors.As(err, &verr)
		return "Please check your filters: " + verr.Error() + "."
	case "canceled":
		return "The search was cancelled."
	case "network":
		if errors.Is(err, context.DeadlineExceeded) {
			return "The search service took too long to answer. Please try again."
		}
		return "Could not reach the search service. Please check your connection and try again."
	case "server":
		var srvErr ServerError
		errors.As(err, &srvErr)
		if srvErr.StatusCode >= http.StatusInternalServerError {
			return "The search service is having trouble right now. Please try again later."
		}
		return fmt.Sprintf("The search service rejected the request (%d %s).",
			srvErr.StatusCode, http.StatusText(srvErr.StatusCode))
	case "parse":
		return "The search service sent a response we could not read."
	default:
		return "Something went wrong: " + err.Error()
	}
}
