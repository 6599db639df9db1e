package woocommerce

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/stockwave/harmony/internal/domain/integration"
	"github.com/stockwave/harmony/internal/domain/variation"
)

// wcErrorResponse is the body WordPress returns with a non-2xx status
type wcErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// wcAttribute is a product attribute as returned by /products/{id}
type wcAttribute struct {
	ID        int64    `json:"id"`
	Name      string   `json:"name"`
	Position  int      `json:"position"`
	Visible   bool     `json:"visible"`
	Variation bool     `json:"variation"`
	Options   []string `json:"options"`
}

// wcProduct is the subset of the product resource the editor reads
type wcProduct struct {
	ID            int64         `json:"id"`
	Name          string        `json:"name"`
	Type          string        `json:"type"`
	SKU           string        `json:"sku"`
	RegularPrice  string        `json:"regular_price"`
	SalePrice     string        `json:"sale_price"`
	StockQuantity *int          `json:"stock_quantity"`
	StockStatus   string        `json:"stock_status"`
	ManageStock   flexBool      `json:"manage_stock"`
	Attributes    []wcAttribute `json:"attributes"`
}

func (p wcProduct) toRemote() *integration.RemoteProduct {
	attrs := make([]variation.Attribute, 0, len(p.Attributes))
	for _, a := range p.Attributes {
		attrs = append(attrs, variation.Attribute{
			ID:               a.ID,
			Name:             a.Name,
			Position:         a.Position,
			Visible:          a.Visible,
			UsedForVariation: a.Variation,
			Options:          append([]string(nil), a.Options...),
		})
	}
	return &integration.RemoteProduct{
		ID:            p.ID,
		Name:          p.Name,
		Type:          p.Type,
		SKU:           p.SKU,
		RegularPrice:  p.RegularPrice,
		SalePrice:     p.SalePrice,
		StockQuantity: p.StockQuantity,
		StockStatus:   p.StockStatus,
		ManageStock:   p.ManageStock.ptr(),
		Attributes:    attrs,
	}
}

// wcImage is an image reference; the store sends null when unset
type wcImage struct {
	ID  int64  `json:"id"`
	Src string `json:"src"`
}

// wcVariation is a variation resource. Attributes stay raw so a malformed
// list can be dropped without failing the whole response.
type wcVariation struct {
	ID            int64            `json:"id"`
	Attributes    json.RawMessage  `json:"attributes"`
	RegularPrice  string           `json:"regular_price"`
	SalePrice     string           `json:"sale_price"`
	SKU           string           `json:"sku"`
	StockQuantity *int             `json:"stock_quantity"`
	StockStatus   string           `json:"stock_status"`
	ManageStock   flexBool         `json:"manage_stock"`
	Image         *wcImage         `json:"image"`
	Error         *wcErrorResponse `json:"error,omitempty"`
}

// decodeAttributes returns nil for anything that is not a list of name/option pairs
func decodeAttributes(raw json.RawMessage) []variation.AttributeOption {
	if len(raw) == 0 {
		return nil
	}
	var items []struct {
		Name   *string `json:"name"`
		Option *string `json:"option"`
	}
	if err := json.Unmarshal(raw, &items); err != nil || items == nil {
		return nil
	}
	out := make([]variation.AttributeOption, 0, len(items))
	for _, it := range items {
		if it.Name == nil || it.Option == nil {
			return nil
		}
		out = append(out, variation.AttributeOption{Name: *it.Name, Option: *it.Option})
	}
	return out
}

func (v wcVariation) toDomain() variation.Variation {
	id := v.ID
	out := variation.Variation{
		Attributes:    decodeAttributes(v.Attributes),
		RegularPrice:  v.RegularPrice,
		SalePrice:     v.SalePrice,
		SKU:           v.SKU,
		StockQuantity: v.StockQuantity,
		ManageStock:   v.ManageStock.ptr(),
	}
	if id != 0 {
		out.ID = &id
	}
	if status, err := variation.ParseStockStatus(v.StockStatus); err == nil {
		out.StockStatus = status
	}
	if v.Image != nil && (v.Image.ID != 0 || v.Image.Src != "") {
		out.Image = &variation.ImageRef{ID: v.Image.ID, Src: v.Image.Src}
	}
	return out
}

// flexBool decodes manage_stock, which is a bool on products and may be the
// string "parent" on variations that inherit stock management.
type flexBool struct {
	set   bool
	value bool
}

// UnmarshalJSON implements json.Unmarshaler
func (b *flexBool) UnmarshalJSON(data []byte) error {
	s := strings.Trim(strings.TrimSpace(string(data)), `"`)
	if s == "null" || s == "" || s == "parent" {
		*b = flexBool{}
		return nil
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		*b = flexBool{}
		return nil
	}
	*b = flexBool{set: true, value: v}
	return nil
}

func (b flexBool) ptr() *bool {
	if !b.set {
		return nil
	}
	v := b.value
	return &v
}

// wcBatchResponse is the answer of /products/{id}/variations/batch
type wcBatchResponse struct {
	Create []wcVariation `json:"create"`
	Update []wcVariation `json:"update"`
	Delete []wcVariation `json:"delete"`
}

// wcMedia is the answer of /wp/v2/media
type wcMedia struct {
	ID        int64  `json:"id"`
	SourceURL string `json:"source_url"`
}
