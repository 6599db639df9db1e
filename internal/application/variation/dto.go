package variation

import (
	"encoding/json"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/stockwave/harmony/internal/domain/integration"
	"github.com/stockwave/harmony/internal/domain/variation"
)

// UpdateAttributesRequest replaces the attribute list of a session.
// Defaults, when present, also replace the values new variations are seeded with.
type UpdateAttributesRequest struct {
	Attributes []AttributeInput    `json:"attributes" binding:"dive"`
	Defaults   *variation.Defaults `json:"defaults,omitempty"`
}

// AttributeInput is an attribute as the dashboard sends it
type AttributeInput struct {
	ID        int64    `json:"id"`
	Name      string   `json:"name" binding:"required,max=100"`
	Position  int      `json:"position"`
	Visible   bool     `json:"visible"`
	Variation bool     `json:"variation"`
	Options   []string `json:"options"`
}

func toDomainAttributes(in []AttributeInput) []variation.Attribute {
	out := make([]variation.Attribute, len(in))
	for i, a := range in {
		out[i] = variation.Attribute{
			ID:               a.ID,
			Name:             a.Name,
			Position:         a.Position,
			Visible:          a.Visible,
			UsedForVariation: a.Variation,
			Options:          append([]string(nil), a.Options...),
		}
	}
	return out
}

// BulkEditRequest applies one bulk action to the working list
type BulkEditRequest struct {
	Action      string `json:"action" binding:"required,bulk_action"`
	Price       string `json:"price"`
	StockStatus string `json:"stock_status"`
	Quantity    string `json:"quantity"`
	Confirm     bool   `json:"confirm"`
}

// UpdateVariationRequest is a per-field edit; omitted fields are unchanged
type UpdateVariationRequest struct {
	RegularPrice  *string `json:"regular_price"`
	SalePrice     *string `json:"sale_price"`
	SKU           *string `json:"sku" binding:"omitempty,max=100"`
	StockQuantity *int    `json:"stock_quantity" binding:"omitempty,min=0"`
	ManageStock   *bool   `json:"manage_stock"`
	StockStatus   *string `json:"stock_status"`
	RemoveImage   bool    `json:"remove_image"`
}

func (r UpdateVariationRequest) toPatch() variation.Patch {
	return variation.Patch{
		RegularPrice:  r.RegularPrice,
		SalePrice:     r.SalePrice,
		SKU:           r.SKU,
		StockQuantity: r.StockQuantity,
		ManageStock:   r.ManageStock,
		StockStatus:   r.StockStatus,
		RemoveImage:   r.RemoveImage,
	}
}

// UploadImageRequest carries an uploaded file for one variation
type UploadImageRequest struct {
	Index       int
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// GenerateRequest runs generation without a session
type GenerateRequest struct {
	Attributes       []AttributeInput      `json:"attributes" binding:"dive"`
	Previous         VariationHistory   `json:"previous"`
	Persisted        VariationHistory   `json:"persisted"`
	Defaults         variation.Defaults `json:"defaults"`
	PersistedProduct bool               `json:"persisted_product"`
}

// VariationHistory is a caller-supplied variation list. An entry that does not
// decode as a variation keeps its other fields but loses its attributes, so
// reconciliation counts it as malformed instead of the request failing.
type VariationHistory []variation.Variation

// UnmarshalJSON decodes each entry on its own
func (h *VariationHistory) UnmarshalJSON(data []byte) error {
	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return err
	}
	list := make(VariationHistory, 0, len(items))
	for _, item := range items {
		list = append(list, decodeHistoryEntry(item))
	}
	*h = list
	return nil
}

func decodeHistoryEntry(raw json.RawMessage) variation.Variation {
	var v variation.Variation
	if json.Unmarshal(raw, &v) == nil {
		return v
	}
	var fields map[string]json.RawMessage
	if json.Unmarshal(raw, &fields) != nil {
		return variation.Variation{}
	}
	delete(fields, "attributes")
	stripped, err := json.Marshal(fields)
	if err != nil {
		return variation.Variation{}
	}
	v = variation.Variation{}
	if json.Unmarshal(stripped, &v) != nil {
		return variation.Variation{}
	}
	return v
}

// GenerateResponse is the reconciled list and what changed
type GenerateResponse struct {
	Variations []variation.Variation        `json:"variations"`
	Report     variation.RegenerationReport `json:"report"`
}

// SessionResponse is the API view of an editing session
type SessionResponse struct {
	ID           uuid.UUID             `json:"id"`
	ProductID    int64                 `json:"product_id"`
	ProductName  string                `json:"product_name"`
	IsNewProduct bool                  `json:"is_new_product"`
	Attributes   []variation.Attribute `json:"attributes"`
	Defaults     variation.Defaults    `json:"defaults"`
	Variations   []variation.Variation `json:"variations"`
	Persisted    int                   `json:"persisted_count"`
	PriceRange   *PriceRangeResponse   `json:"price_range,omitempty"`
	Version      int                   `json:"version"`
	CreatedAt    time.Time             `json:"created_at"`
	UpdatedAt    time.Time             `json:"updated_at"`
}

// PriceRangeResponse is the regular price span of the working list
type PriceRangeResponse struct {
	Min       string `json:"min"`
	Max       string `json:"max"`
	Formatted string `json:"formatted"`
}

// SessionWithReport is returned by regeneration
type SessionWithReport struct {
	Session *SessionResponse             `json:"session"`
	Report  variation.RegenerationReport `json:"report"`
}

// PreviewResponse is exactly what Submit would send to the store
type PreviewResponse struct {
	Records []variation.SubmissionRecord `json:"records"`
	Create  []variation.SubmissionRecord `json:"create"`
	Update  []variation.SubmissionRecord `json:"update"`
	Delete  []int64                      `json:"delete"`
}

// SubmitResponse summarizes a successful submission
type SubmitResponse struct {
	Session *SessionResponse `json:"session"`
	Created int              `json:"created"`
	Updated int              `json:"updated"`
	Deleted int              `json:"deleted"`
}

// ImageUploadResponse is the image reference now recorded on the variation
type ImageUploadResponse struct {
	Index int                `json:"index"`
	Image variation.ImageRef `json:"image"`
}

func previewFromBatch(records []variation.SubmissionRecord, batch integration.VariationBatch) *PreviewResponse {
	resp := &PreviewResponse{
		Records: records,
		Create:  batch.Create,
		Update:  batch.Update,
		Delete:  batch.Delete,
	}
	if resp.Create == nil {
		resp.Create = []variation.SubmissionRecord{}
	}
	if resp.Update == nil {
		resp.Update = []variation.SubmissionRecord{}
	}
	if resp.Delete == nil {
		resp.Delete = []int64{}
	}
	return resp
}
