package variation

import (
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/stockwave/harmony/internal/domain/variation"
)

// PriceFormatter renders price ranges in a currency for a locale
type PriceFormatter struct {
	unit    currency.Unit
	printer *message.Printer
}

// NewPriceFormatter parses an ISO 4217 code and a BCP 47 locale.
// Unknown values fall back to USD and English.
func NewPriceFormatter(currencyCode, locale string) *PriceFormatter {
	unit, err := currency.ParseISO(currencyCode)
	if err != nil {
		unit = currency.USD
	}
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.English
	}
	return &PriceFormatter{unit: unit, printer: message.NewPrinter(tag)}
}

// FormatPriceRange renders "min - max", or a single price when both ends match.
// An empty range renders as "".
func (f *PriceFormatter) FormatPriceRange(r variation.PriceRange) string {
	if r.IsEmpty() {
		return ""
	}
	lo := f.printer.Sprint(currency.Symbol(f.unit.Amount(r.Min.InexactFloat64())))
	if r.Min.Equal(r.Max) {
		return lo
	}
	hi := f.printer.Sprint(currency.Symbol(f.unit.Amount(r.Max.InexactFloat64())))
	return lo + " - " + hi
}

// FormatPriceRange formats r with a one-off formatter
func FormatPriceRange(r variation.PriceRange, currencyCode, locale string) string {
	return NewPriceFormatter(currencyCode, locale).FormatPriceRange(r)
}

func (f *PriceFormatter) rangeResponse(r variation.PriceRange) *PriceRangeResponse {
	if r.IsEmpty() {
		return nil
	}
	return &PriceRangeResponse{
		Min:       r.Min.String(),
		Max:       r.Max.String(),
		Formatted: f.FormatPriceRange(r),
	}
}
