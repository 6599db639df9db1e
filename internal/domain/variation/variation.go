package variation

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/stockwave/harmony/internal/domain/shared"
)

// StockStatus is the stock availability of a variation
type StockStatus string

const (
	StockStatusInStock     StockStatus = "instock"
	StockStatusOutOfStock  StockStatus = "outofstock"
	StockStatusOnBackorder StockStatus = "onbackorder"
)

// IsValid returns true if the status is one of the known values
func (s StockStatus) IsValid() bool {
	switch s {
	case StockStatusInStock, StockStatusOutOfStock, StockStatusOnBackorder:
		return true
	default:
		return false
	}
}

// String returns the string representation of StockStatus
func (s StockStatus) String() string {
	return string(s)
}

// ParseStockStatus accepts both the store wire values and the dashboard's
// camel-case spelling (inStock, outOfStock, onBackorder).
func ParseStockStatus(s string) (StockStatus, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "instock":
		return StockStatusInStock, nil
	case "outofstock":
		return StockStatusOutOfStock, nil
	case "onbackorder":
		return StockStatusOnBackorder, nil
	default:
		return "", shared.WrapDomainError("INVALID_STOCK_STATUS", "Stock status must be one of instock, outofstock, onbackorder", ErrInvalidStockStatus)
	}
}

// ImageRef references an image stored by the remote store or object storage
type ImageRef struct {
	ID  int64  `json:"id,omitempty"`
	Src string `json:"src,omitempty"`
}

// Variation is a sellable variant corresponding to one combination.
// ID is nil until the variation has been persisted remotely.
type Variation struct {
	ID            *int64            `json:"id,omitempty"`
	Attributes    []AttributeOption `json:"attributes"`
	RegularPrice  string            `json:"regular_price"`
	SalePrice     string            `json:"sale_price"`
	SKU           string            `json:"sku"`
	StockQuantity *int              `json:"stock_quantity,omitempty"`
	ManageStock   *bool             `json:"manage_stock,omitempty"`
	StockStatus   StockStatus       `json:"stock_status,omitempty"`
	Image         *ImageRef         `json:"image,omitempty"`
}

// IsNew returns true if the variation has not been saved to the store yet
func (v Variation) IsNew() bool {
	return v.ID == nil
}

// Signature returns the variation's matching key
func (v Variation) Signature() string {
	return Signature(v.Attributes)
}

// isMatchable reports whether the variation can take part in signature matching.
// Records without attribute pairs carry no identity and are treated as absent.
func (v Variation) isMatchable() bool {
	return len(v.Attributes) > 0
}

// Clone returns a deep copy of the variation
func (v Variation) Clone() Variation {
	out := v
	if v.ID != nil {
		id := *v.ID
		out.ID = &id
	}
	if v.Attributes != nil {
		out.Attributes = append([]AttributeOption(nil), v.Attributes...)
	}
	if v.StockQuantity != nil {
		q := *v.StockQuantity
		out.StockQuantity = &q
	}
	if v.ManageStock != nil {
		m := *v.ManageStock
		out.ManageStock = &m
	}
	if v.Image != nil {
		img := *v.Image
		out.Image = &img
	}
	return out
}

// RegularPriceDecimal parses the regular price, ok is false when blank or not numeric
func (v Variation) RegularPriceDecimal() (decimal.Decimal, bool) {
	return parsePrice(v.RegularPrice)
}

// CloneVariations deep-copies a variation list
func CloneVariations(list []Variation) []Variation {
	if list == nil {
		return nil
	}
	out := make([]Variation, len(list))
	for i, v := range list {
		out[i] = v.Clone()
	}
	return out
}

// Defaults seeds new variations. It is taken from the parent product's
// top-level fields at the moment of generation.
type Defaults struct {
	RegularPrice  string      `json:"regular_price"`
	SalePrice     string      `json:"sale_price"`
	SKU           string      `json:"sku"`
	StockQuantity *int        `json:"stock_quantity,omitempty"`
	StockStatus   StockStatus `json:"stock_status,omitempty"`
	ManageStock   *bool       `json:"manage_stock,omitempty"`
}

// newVariation builds a fresh, unsaved variation for a combination
func (d Defaults) newVariation(c Combination) Variation {
	v := Variation{
		Attributes:   append([]AttributeOption(nil), c...),
		RegularPrice: d.RegularPrice,
		SalePrice:    d.SalePrice,
		SKU:          d.SKU,
		StockStatus:  d.StockStatus,
	}
	if d.StockQuantity != nil {
		q := *d.StockQuantity
		v.StockQuantity = &q
	}
	if d.ManageStock != nil {
		m := *d.ManageStock
		v.ManageStock = &m
	}
	return v
}

func parsePrice(s string) (decimal.Decimal, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

func intPtr(i int) *int {
	return &i
}

func boolPtr(b bool) *bool {
	return &b
}
