// Package query reads and writes the search filter set carried in a page's
// query string.
package query

import (
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"

	"price-tracker-web/internal/models"
)

const (
	ParamSearch    = "search"
	ParamMinPrice  = "min_price"
	ParamMaxPrice  = "max_price"
	ParamMinRating = "min_rating"
	ParamMaxRating = "max_rating"
	ParamBrand     = "brand"
	ParamPage      = "page"

	MaxRating = 5
)

// ValidationError reports a filter set that parsed but makes no sense.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// Parse builds the filter set from a raw query string. It never fails:
// malformed or unknown values are treated as absent.
func Parse(rawQuery string) models.SearchFilters {
	values := parseValues(strings.TrimPrefix(rawQuery, "?"))

	f := models.SearchFilters{
		Search:    text(values, ParamSearch),
		Brand:     text(values, ParamBrand),
		MinPrice:  number(values, ParamMinPrice),
		MaxPrice:  number(values, ParamMaxPrice),
		MinRating: number(values, ParamMinRating),
		MaxRating: number(values, ParamMaxRating),
		Page:      1,
	}

	if p := text(values, ParamPage); p != "" {
		if n, err := strconv.Atoi(p); err == nil && n > 0 {
			f.Page = n
		}
	}

	return f
}

// parseValues is url.ParseQuery that keeps the pairs it could decode when
// another pair carries a bad escape.
func parseValues(raw string) url.Values {
	values, err := url.ParseQuery(raw)
	if err == nil {
		return values
	}

	values = url.Values{}
	for _, pair := range strings.FieldsFunc(raw, func(r rune) bool { return r == '&' || r == ';' }) {
		key, value, _ := strings.Cut(pair, "=")
		k, kerr := url.QueryUnescape(key)
		v, verr := url.QueryUnescape(value)
		if kerr != nil || verr != nil {
			continue
		}
		values.Add(k, v)
	}
	return values
}

func text(values url.Values, key string) string {
	v := strings.TrimSpace(values.Get(key))
	if v == "null" || v == "undefined" {
		return ""
	}
	return v
}

func number(values url.Values, key string) *float64 {
	v := text(values, key)
	if v == "" {
		return nil
	}
	n, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
		return nil
	}
	return &n
}

// Validate checks ranges that Parse lets through.
func Validate(f models.SearchFilters) error {
	if f.MinPrice != nil && *f.MinPrice < 0 {
		return &ValidationError{Field: ParamMinPrice, Message: "cannot be negative"}
	}
	if f.MaxPrice != nil && *f.MaxPrice < 0 {
		return &ValidationError{Field: ParamMaxPrice, Message: "cannot be negative"}
	}
	if f.MinPrice != nil && f.MaxPrice != nil && *f.MinPrice > *f.MaxPrice {
		return &ValidationError{Field: ParamMinPrice, Message: "cannot exceed maximum price"}
	}

	for _, r := range []struct {
		field string
		value *float64
	}{
		{ParamMinRating, f.MinRating},
		{ParamMaxRating, f.MaxRating},
	} {
		if r.value != nil && (*r.value < 0 || *r.value > MaxRating) {
			return &ValidationError{Field: r.field, Message: fmt.Sprintf("must be between 0 and %d", MaxRating)}
		}
	}
	if f.MinRating != nil && f.MaxRating != nil && *f.MinRating > *f.MaxRating {
		return &ValidationError{Field: ParamMinRating, Message: "cannot exceed maximum rating"}
	}

	return nil
}

// Encode returns the set fields as query parameters. The page is included
// only when it is past the first one.
func Encode(f models.SearchFilters) url.Values {
	values := url.Values{}
	if f.Search != "" {
		values.Set(ParamSearch, f.Search)
	}
	setNumber(values, ParamMinPrice, f.MinPrice)
	setNumber(values, ParamMaxPrice, f.MaxPrice)
	setNumber(values, ParamMinRating, f.MinRating)
	setNumber(values, ParamMaxRating, f.MaxRating)
	if f.Brand != "" {
		values.Set(ParamBrand, f.Brand)
	}
	if f.Page > 1 {
		values.Set(ParamPage, strconv.Itoa(f.Page))
	}
	return values
}

func setNumber(values url.Values, key string, v *float64) {
	if v != nil {
		values.Set(key, strconv.FormatFloat(*v, 'f', -1, 64))
	}
}

// PageQuery is the encoded filter query with page set to n, overriding any
// page already present.
func PageQuery(f models.SearchFilters, n int) string {
	values := Encode(f)
	values.Set(ParamPage, strconv.Itoa(n))
	return values.Encode()
}
