package variation

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/stockwave/harmony/internal/domain/variation"
)

func TestFormatPriceRange(t *testing.T) {
	tests := []struct {
		name     string
		r        variation.PriceRange
		currency string
		contains []string
		empty    bool
	}{
		{
			name:  "empty range",
			r:     variation.PriceRange{},
			empty: true,
		},
		{
			name:     "single price",
			r:        variation.PriceRange{Min: decimal.RequireFromString("20"), Max: decimal.RequireFromString("20"), Count: 2},
			currency: "USD",
			contains: []string{"20"},
		},
		{
			name:     "span",
			r:        variation.PriceRange{Min: decimal.RequireFromString("9.5"), Max: decimal.RequireFromString("30"), Count: 3},
			currency: "USD",
			contains: []string{"9.5", "30", " - "},
		},
		{
			name:     "unknown currency falls back to USD",
			r:        variation.PriceRange{Min: decimal.RequireFromString("5"), Max: decimal.RequireFromString("5"), Count: 1},
			currency: "???",
			contains: []string{"$"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FormatPriceRange(tt.r, tt.currency, "en")
			if tt.empty {
				assert.Empty(t, got)
				return
			}
			for _, want := range tt.contains {
				assert.Contains(t, got, want)
			}
		})
	}
}

func TestPriceFormatter_SinglePriceHasNoSeparator(t *testing.T) {
	f := NewPriceFormatter("EUR", "de")
	got := f.FormatPriceRange(variation.PriceRange{Min: decimal.NewFromInt(12), Max: decimal.NewFromInt(12), Count: 1})
	assert.NotEmpty(t, got)
	assert.NotContains(t, got, " - ")
}
