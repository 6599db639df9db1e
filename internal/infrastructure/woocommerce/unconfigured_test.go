package woocommerce

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/stockwave/harmony/internal/domain/integration"
)

var (
	_ integration.ProductCatalog = Unconfigured{}
	_ integration.ImageUploader  = Unconfigured{}
	_ integration.ProductCatalog = (*Client)(nil)
	_ integration.ImageUploader  = (*Client)(nil)
)

func TestUnconfigured(t *testing.T) {
	ctx := context.Background()
	var u Unconfigured

	_, err := u.GetProduct(ctx, 1)
	assert.ErrorIs(t, err, integration.ErrStoreNotConfigured)

	_, err = u.ListVariations(ctx, 1)
	assert.ErrorIs(t, err, integration.ErrStoreNotConfigured)

	_, err = u.BatchVariations(ctx, 1, integration.VariationBatch{})
	assert.ErrorIs(t, err, integration.ErrStoreNotConfigured)

	_, err = u.UploadVariationImage(ctx, integration.ImageUpload{ProductID: 1})
	assert.ErrorIs(t, err, integration.ErrStoreNotConfigured)
}
