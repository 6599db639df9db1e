package integration

import (
	"context"
	"errors"
	"io"

	"github.com/stockwave/harmony/internal/domain/variation"
)

// ---------------------------------------------------------------------------
// Remote store errors
// ---------------------------------------------------------------------------

var (
	ErrStoreNotConfigured    = errors.New("integration: store not configured")
	ErrStoreUnavailable      = errors.New("integration: store temporarily unavailable")
	ErrStoreRequestFailed    = errors.New("integration: store request failed")
	ErrStoreInvalidResponse  = errors.New("integration: invalid store response")
	ErrStoreAuthFailed       = errors.New("integration: store authentication failed")
	ErrStoreRateLimited      = errors.New("integration: store rate limited")
	ErrRemoteProductNotFound = errors.New("integration: product not found in store")
	ErrImageUploadFailed     = errors.New("integration: image upload failed")
	ErrImageInvalid          = errors.New("integration: invalid image")
)

// ---------------------------------------------------------------------------
// Remote product
// ---------------------------------------------------------------------------

// RemoteProduct is a product as the store returns it
type RemoteProduct struct {
	ID            int64                 `json:"id"`
	Name          string                `json:"name"`
	Type          string                `json:"type"`
	SKU           string                `json:"sku"`
	RegularPrice  string                `json:"regular_price"`
	SalePrice     string                `json:"sale_price"`
	StockQuantity *int                  `json:"stock_quantity,omitempty"`
	StockStatus   string                `json:"stock_status"`
	ManageStock   *bool                 `json:"manage_stock,omitempty"`
	Attributes    []variation.Attribute `json:"attributes"`
}

// Defaults returns the product's top-level fields as seed values for new variations.
// An unrecognized stock status is left unset.
func (p RemoteProduct) Defaults() variation.Defaults {
	d := variation.Defaults{
		RegularPrice:  p.RegularPrice,
		SalePrice:     p.SalePrice,
		SKU:           p.SKU,
		StockQuantity: p.StockQuantity,
		ManageStock:   p.ManageStock,
	}
	if status, err := variation.ParseStockStatus(p.StockStatus); err == nil {
		d.StockStatus = status
	}
	return d
}

// ---------------------------------------------------------------------------
// Batch writes
// ---------------------------------------------------------------------------

// VariationBatch is one call to the store's variation batch endpoint
type VariationBatch struct {
	Create []variation.SubmissionRecord `json:"create,omitempty"`
	Update []variation.SubmissionRecord `json:"update,omitempty"`
	Delete []int64                      `json:"delete,omitempty"`
}

// IsEmpty returns true if the batch has nothing to send
func (b VariationBatch) IsEmpty() bool {
	return len(b.Create) == 0 && len(b.Update) == 0 && len(b.Delete) == 0
}

// BatchResult is the store's answer to a VariationBatch
type BatchResult struct {
	Created []variation.Variation `json:"create"`
	Updated []variation.Variation `json:"update"`
	Deleted []variation.Variation `json:"delete"`
}

// ---------------------------------------------------------------------------
// Ports
// ---------------------------------------------------------------------------

// ProductCatalog is the port to the remote store's product API
type ProductCatalog interface {
	// GetProduct retrieves a product with its attribute list
	GetProduct(ctx context.Context, productID int64) (*RemoteProduct, error)

	// ListVariations retrieves every saved variation of a product
	ListVariations(ctx context.Context, productID int64) ([]variation.Variation, error)

	// BatchVariations creates, updates and deletes variations in one request
	BatchVariations(ctx context.Context, productID int64, batch VariationBatch) (*BatchResult, error)
}

// ImageUpload is a variation image to be stored
type ImageUpload struct {
	ProductID   int64
	VariationID *int64
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// ImageUploader stores a variation image and returns its reference.
// The caller records the reference on the variation.
type ImageUploader interface {
	UploadVariationImage(ctx context.Context, upload ImageUpload) (variation.ImageRef, error)
}
