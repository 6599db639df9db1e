package variation

import (
	"strconv"
	"strings"

	"github.com/stockwave/harmony/internal/domain/shared"
)

// BulkAction selects the mutation applied to every variation in the list
type BulkAction string

const (
	BulkSetRegularPrice   BulkAction = "set_regular_price"
	BulkSetSalePrice      BulkAction = "set_sale_price"
	BulkSetSKU            BulkAction = "set_sku"
	BulkSetStockStatus    BulkAction = "set_stock_status"
	BulkSetStockQuantity  BulkAction = "set_stock_quantity"
	BulkEnableManageStock BulkAction = "enable_manage_stock"
	BulkClearAll          BulkAction = "clear_all"
)

// AllBulkActions returns every supported action
func AllBulkActions() []BulkAction {
	return []BulkAction{
		BulkSetRegularPrice,
		BulkSetSalePrice,
		BulkSetSKU,
		BulkSetStockStatus,
		BulkSetStockQuantity,
		BulkEnableManageStock,
		BulkClearAll,
	}
}

// IsValid returns true if the action is supported
func (a BulkAction) IsValid() bool {
	for _, known := range AllBulkActions() {
		if a == known {
			return true
		}
	}
	return false
}

// String returns the string representation of BulkAction
func (a BulkAction) String() string {
	return string(a)
}

// BulkParams holds the action-specific inputs as entered by the operator
type BulkParams struct {
	Price       string `json:"price"`
	StockStatus string `json:"stock_status"`
	Quantity    string `json:"quantity"`
	Confirm     bool   `json:"confirm"`
}

// ApplyBulkAction applies action to a copy of list and returns the copy.
// Parameters are validated before anything is touched, so on error the
// returned list is nil and the input is unchanged.
func ApplyBulkAction(list []Variation, action BulkAction, params BulkParams) ([]Variation, error) {
	mutate, err := bulkMutation(action, params)
	if err != nil {
		return nil, err
	}
	if action == BulkClearAll {
		return []Variation{}, nil
	}

	out := CloneVariations(list)
	if out == nil {
		out = []Variation{}
	}
	for i := range out {
		mutate(i, &out[i])
	}
	return out, nil
}

// bulkMutation validates params and returns the per-variation mutation
func bulkMutation(action BulkAction, params BulkParams) (func(int, *Variation), error) {
	switch action {
	case BulkSetRegularPrice:
		price, err := requirePrice(params.Price)
		if err != nil {
			return nil, err
		}
		return func(_ int, v *Variation) { v.RegularPrice = price }, nil

	case BulkSetSalePrice:
		price, err := requirePrice(params.Price)
		if err != nil {
			return nil, err
		}
		return func(_ int, v *Variation) { v.SalePrice = price }, nil

	case BulkSetSKU:
		return func(i int, v *Variation) { v.SKU = positionalSKU(i, v) }, nil

	case BulkSetStockStatus:
		status, err := ParseStockStatus(params.StockStatus)
		if err != nil {
			return nil, err
		}
		return func(_ int, v *Variation) { v.StockStatus = status }, nil

	case BulkSetStockQuantity:
		qty, err := ParseQuantity(params.Quantity)
		if err != nil {
			return nil, err
		}
		return func(_ int, v *Variation) {
			v.ManageStock = boolPtr(true)
			v.StockQuantity = intPtr(qty)
		}, nil

	case BulkEnableManageStock:
		return func(_ int, v *Variation) { v.ManageStock = boolPtr(true) }, nil

	case BulkClearAll:
		if !params.Confirm {
			return nil, shared.WrapDomainError("CONFIRMATION_REQUIRED", "Clearing all variations must be confirmed", ErrConfirmationRequired)
		}
		return func(int, *Variation) {}, nil

	default:
		return nil, shared.WrapDomainError("UNKNOWN_BULK_ACTION", "Unsupported bulk action: "+string(action), ErrUnknownBulkAction)
	}
}

// positionalSKU is "SC" + id for saved variations, "SC" + 1-based position otherwise
func positionalSKU(i int, v *Variation) string {
	if v.ID != nil {
		return placeholderSKUPrefix + strconv.FormatInt(*v.ID, 10)
	}
	return placeholderSKUPrefix + strconv.Itoa(i+1)
}

func requirePrice(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", shared.WrapDomainError("PRICE_REQUIRED", "Price cannot be empty", ErrPriceRequired)
	}
	return s, nil
}

// ParseQuantity parses a non-negative whole stock quantity
func ParseQuantity(s string) (int, error) {
	qty, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || qty < 0 {
		return 0, shared.WrapDomainError("INVALID_QUANTITY", "Stock quantity must be a non-negative whole number", ErrInvalidQuantity)
	}
	return qty, nil
}
