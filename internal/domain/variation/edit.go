package variation

import (
	"fmt"
	"strings"

	"github.com/stockwave/harmony/internal/domain/shared"
)

// Patch is a per-field edit of a single variation. Nil fields are left alone.
type Patch struct {
	RegularPrice  *string `json:"regular_price,omitempty"`
	SalePrice     *string `json:"sale_price,omitempty"`
	SKU           *string `json:"sku,omitempty"`
	StockQuantity *int    `json:"stock_quantity,omitempty"`
	ManageStock   *bool   `json:"manage_stock,omitempty"`
	StockStatus   *string `json:"stock_status,omitempty"`
	RemoveImage   bool    `json:"remove_image,omitempty"`
}

// IsEmpty returns true if the patch changes nothing
func (p Patch) IsEmpty() bool {
	return p.RegularPrice == nil && p.SalePrice == nil && p.SKU == nil &&
		p.StockQuantity == nil && p.ManageStock == nil && p.StockStatus == nil && !p.RemoveImage
}

// validate checks the patch and returns the parsed stock status, if any
func (p Patch) validate() (StockStatus, error) {
	if p.RegularPrice != nil {
		if err := validatePrice("regular_price", *p.RegularPrice); err != nil {
			return "", err
		}
	}
	if p.SalePrice != nil {
		if err := validatePrice("sale_price", *p.SalePrice); err != nil {
			return "", err
		}
	}
	if p.StockQuantity != nil && *p.StockQuantity < 0 {
		return "", shared.WrapDomainError("INVALID_QUANTITY", "Stock quantity must be a non-negative whole number", ErrInvalidQuantity)
	}
	if p.StockStatus != nil {
		return ParseStockStatus(*p.StockStatus)
	}
	return "", nil
}

// validatePrice accepts a blank price (clears the field) or a non-negative decimal
func validatePrice(field, s string) error {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	d, ok := parsePrice(s)
	if !ok || d.IsNegative() {
		return shared.WrapDomainError("INVALID_PRICE", fmt.Sprintf("%s must be a non-negative number", field), ErrInvalidPrice)
	}
	return nil
}

// apply writes the patch onto v
func (p Patch) apply(v *Variation, status StockStatus) {
	if p.RegularPrice != nil {
		v.RegularPrice = strings.TrimSpace(*p.RegularPrice)
	}
	if p.SalePrice != nil {
		v.SalePrice = strings.TrimSpace(*p.SalePrice)
	}
	if p.SKU != nil {
		v.SKU = strings.TrimSpace(*p.SKU)
	}
	if p.StockQuantity != nil {
		v.StockQuantity = intPtr(*p.StockQuantity)
	}
	if p.ManageStock != nil {
		v.ManageStock = boolPtr(*p.ManageStock)
	}
	if p.StockStatus != nil {
		v.StockStatus = status
	}
	if p.RemoveImage {
		v.Image = nil
	}
}

func checkIndex(list []Variation, index int) error {
	if index < 0 || index >= len(list) {
		return shared.WrapDomainError("VARIATION_INDEX_OUT_OF_RANGE",
			fmt.Sprintf("No variation at index %d (list has %d)", index, len(list)),
			ErrVariationIndexOutOfRange)
	}
	return nil
}

// UpdateAt returns a copy of list with the patch applied to the variation at index
func UpdateAt(list []Variation, index int, patch Patch) ([]Variation, error) {
	if err := checkIndex(list, index); err != nil {
		return nil, err
	}
	status, err := patch.validate()
	if err != nil {
		return nil, err
	}
	out := CloneVariations(list)
	patch.apply(&out[index], status)
	return out, nil
}

// RemoveAt returns a copy of list without the variation at index
func RemoveAt(list []Variation, index int) ([]Variation, Variation, error) {
	if err := checkIndex(list, index); err != nil {
		return nil, Variation{}, err
	}
	removed := list[index].Clone()
	out := make([]Variation, 0, len(list)-1)
	for i, v := range list {
		if i == index {
			continue
		}
		out = append(out, v.Clone())
	}
	return out, removed, nil
}

// AssignImage returns a copy of list with img recorded on the variation at index
func AssignImage(list []Variation, index int, img ImageRef) ([]Variation, error) {
	if err := checkIndex(list, index); err != nil {
		return nil, err
	}
	out := CloneVariations(list)
	out[index].Image = &img
	return out, nil
}
