package woocommerce

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/stockwave/harmony/internal/domain/integration"
	"github.com/stockwave/harmony/internal/domain/variation"
)

// variationsPageSize is the largest page the store serves
const variationsPageSize = 100

// ErrInvalidProductID indicates a product id the store cannot address
var ErrInvalidProductID = errors.New("woocommerce: invalid product ID")

func validateProductID(productID int64) error {
	if productID <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidProductID, productID)
	}
	return nil
}

func productPath(productID int64) string {
	return "/products/" + strconv.FormatInt(productID, 10)
}

// GetProduct retrieves a product with its attributes
func (c *Client) GetProduct(ctx context.Context, productID int64) (*integration.RemoteProduct, error) {
	if err := validateProductID(productID); err != nil {
		return nil, err
	}
	var p wcProduct
	if _, err := c.getJSON(ctx, productPath(productID), nil, &p); err != nil {
		return nil, err
	}
	if p.ID == 0 {
		return nil, fmt.Errorf("%w: product %d has no id", integration.ErrStoreInvalidResponse, productID)
	}
	return p.toRemote(), nil
}

// ListVariations retrieves every saved variation of a product, following pagination
func (c *Client) ListVariations(ctx context.Context, productID int64) ([]variation.Variation, error) {
	if err := validateProductID(productID); err != nil {
		return nil, err
	}

	out := make([]variation.Variation, 0)
	for page := 1; ; page++ {
		query := url.Values{}
		query.Set("per_page", strconv.Itoa(variationsPageSize))
		query.Set("page", strconv.Itoa(page))

		var items []wcVariation
		header, err := c.getJSON(ctx, productPath(productID)+"/variations", query, &items)
		if err != nil {
			return nil, err
		}
		for _, item := range items {
			v := item.toDomain()
			if len(v.Attributes) == 0 {
				c.logger.Debug("variation without usable attributes",
					zap.Int64("product_id", productID),
					zap.Int64("variation_id", item.ID),
				)
			}
			out = append(out, v)
		}

		totalPages, _ := strconv.Atoi(header.Get("X-WP-TotalPages"))
		if len(items) < variationsPageSize || (totalPages > 0 && page >= totalPages) {
			break
		}
	}
	return out, nil
}

// BatchVariations creates, updates and deletes variations in one request.
// Item-level errors reported by the store fail the whole call.
func (c *Client) BatchVariations(ctx context.Context, productID int64, batch integration.VariationBatch) (*integration.BatchResult, error) {
	if err := validateProductID(productID); err != nil {
		return nil, err
	}
	if batch.IsEmpty() {
		return &integration.BatchResult{}, nil
	}

	var resp wcBatchResponse
	if err := c.sendJSON(ctx, http.MethodPost, productPath(productID)+"/variations/batch", batch, &resp); err != nil {
		return nil, err
	}

	var itemErrs []string
	convert := func(items []wcVariation) []variation.Variation {
		out := make([]variation.Variation, 0, len(items))
		for _, item := range items {
			if item.Error != nil {
				itemErrs = append(itemErrs, fmt.Sprintf("%d: %s", item.ID, item.Error.Message))
				continue
			}
			out = append(out, item.toDomain())
		}
		return out
	}
	result := &integration.BatchResult{
		Created: convert(resp.Create),
		Updated: convert(resp.Update),
		Deleted: convert(resp.Delete),
	}
	if len(itemErrs) > 0 {
		return result, fmt.Errorf("%w: %s", integration.ErrStoreRequestFailed, strings.Join(itemErrs, "; "))
	}

	c.logger.Info("variation batch applied",
		zap.Int64("product_id", productID),
		zap.Int("created", len(result.Created)),
		zap.Int("updated", len(result.Updated)),
		zap.Int("deleted", len(result.Deleted)),
	)
	return result, nil
}

// Ensure Client implements ProductCatalog
var _ integration.ProductCatalog = (*Client)(nil)
