package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatPrice(t *testing.T) {
	assert.Equal(t, "1299.00 $", FormatPrice(1299, "$"))
	assert.Equal(t, "0.10 €", FormatPrice(0.1, " € "))
	assert.Equal(t, "19.99", FormatPrice(19.99, ""))
}

func TestFormatRating(t *testing.T) {
	assert.Equal(t, "4.5 (120)", FormatRating(4.5, 120))
	assert.Equal(t, "4.7 (3)", FormatRating(4.66, 3))
	assert.Equal(t, "0 (0)", FormatRating(0, 0))
}

func TestTruncateTitle(t *testing.T) {
	short := "Phone"
	assert.Equal(t, short, TruncateTitle(short))

	exact := strings.Repeat("a", TitleLimit)
	assert.Equal(t, exact, TruncateTitle(exact))

	long := strings.Repeat("ж", TitleLimit+5)
	got := TruncateTitle(long)
	assert.Equal(t, strings.Repeat("ж", TitleLimit)+"...", got)
}
