package utils

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

const TitleLimit = 100

// FormatPrice renders an amount with two decimals followed by the currency
// sign, e.g. "1299.00 $". An empty currency leaves the bare amount.
func FormatPrice(amount float64, currency string) string {
	s := decimal.NewFromFloat(amount).StringFixed(2)
	currency = strings.TrimSpace(currency)
	if currency == "" {
		return s
	}
	return s + " " + currency
}

// FormatRating renders a rating and its vote count, e.g. "4.5 (120)".
func FormatRating(rating float64, count int) string {
	return fmt.Sprintf("%s (%d)", decimal.NewFromFloat(rating).Round(1).String(), count)
}

// TruncateTitle shortens a title to TitleLimit runes, appending "...".
func TruncateTitle(title string) string {
	title = strings.TrimSpace(title)
	if utf8.RuneCountInString(title) <= TitleLimit {
		return title
	}
	runes := []rune(title)
	return string(runes[:TitleLimit]) + "..."
}
