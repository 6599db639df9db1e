package woocommerce

import (
	"context"

	"github.com/stockwave/harmony/internal/domain/integration"
	"github.com/stockwave/harmony/internal/domain/variation"
)

// Unconfigured stands in for the client when no store credentials are set.
// Every call fails with integration.ErrStoreNotConfigured, so drafts and
// stateless generation keep working while store calls report why they cannot.
type Unconfigured struct{}

func (Unconfigured) GetProduct(context.Context, int64) (*integration.RemoteProduct, error) {
	return nil, integration.ErrStoreNotConfigured
}

func (Unconfigured) ListVariations(context.Context, int64) ([]variation.Variation, error) {
	return nil, integration.ErrStoreNotConfigured
}

func (Unconfigured) BatchVariations(context.Context, int64, integration.VariationBatch) (*integration.BatchResult, error) {
	return nil, integration.ErrStoreNotConfigured
}

func (Unconfigured) UploadVariationImage(context.Context, integration.ImageUpload) (variation.ImageRef, error) {
	return variation.ImageRef{}, integration.ErrStoreNotConfigured
}
