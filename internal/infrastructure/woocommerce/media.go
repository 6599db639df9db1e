package woocommerce

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/stockwave/harmony/internal/domain/integration"
	"github.com/stockwave/harmony/internal/domain/variation"
)

// UploadVariationImage uploads the image to the WordPress media library and,
// when the variation is already saved, attaches it to the variation.
func (c *Client) UploadVariationImage(ctx context.Context, upload integration.ImageUpload) (variation.ImageRef, error) {
	// Drafts (product 0) upload to the media library without attaching.
	if upload.ProductID < 0 || (upload.VariationID != nil && upload.ProductID == 0) {
		return variation.ImageRef{}, fmt.Errorf("%w: %d", ErrInvalidProductID, upload.ProductID)
	}
	data, err := readImage(upload.Body, c.config.MaxImageBytes)
	if err != nil {
		return variation.ImageRef{}, err
	}

	filename := sanitizeFilename(upload.Filename)
	contentType := upload.ContentType
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	if !strings.HasPrefix(contentType, "image/") {
		return variation.ImageRef{}, fmt.Errorf("%w: content type %q", integration.ErrImageInvalid, contentType)
	}

	user, password := c.config.mediaCredentials()
	req := request{
		method:      http.MethodPost,
		url:         c.config.mediaEndpoint(),
		body:        data,
		contentType: contentType,
		headers: map[string]string{
			"Content-Disposition": mime.FormatMediaType("attachment", map[string]string{"filename": filename}),
		},
		user:     user,
		password: password,
	}
	resp, err := c.do(ctx, req)
	if err != nil {
		return variation.ImageRef{}, fmt.Errorf("%w: %v", integration.ErrImageUploadFailed, err)
	}

	var media wcMedia
	if err := json.Unmarshal(resp.body, &media); err != nil || media.ID == 0 {
		return variation.ImageRef{}, fmt.Errorf("%w: media response without id", integration.ErrStoreInvalidResponse)
	}
	ref := variation.ImageRef{ID: media.ID, Src: media.SourceURL}

	if upload.VariationID != nil {
		vpath := productPath(upload.ProductID) + "/variations/" + strconv.FormatInt(*upload.VariationID, 10)
		payload := map[string]any{"image": map[string]int64{"id": media.ID}}
		if err := c.sendJSON(ctx, http.MethodPut, vpath, payload, nil); err != nil {
			return variation.ImageRef{}, fmt.Errorf("%w: attach to variation: %v", integration.ErrImageUploadFailed, err)
		}
	}

	c.logger.Info("variation image uploaded",
		zap.Int64("product_id", upload.ProductID),
		zap.Int64("media_id", media.ID),
	)
	return ref, nil
}

func readImage(body io.Reader, maxBytes int64) ([]byte, error) {
	if body == nil {
		return nil, fmt.Errorf("%w: empty body", integration.ErrImageInvalid)
	}
	data, err := io.ReadAll(io.LimitReader(body, maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", integration.ErrImageInvalid, err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty body", integration.ErrImageInvalid)
	}
	if int64(len(data)) > maxBytes {
		return nil, fmt.Errorf("%w: larger than %d bytes", integration.ErrImageInvalid, maxBytes)
	}
	return data, nil
}

func sanitizeFilename(name string) string {
	name = path.Base(strings.ReplaceAll(strings.TrimSpace(name), "\\", "/"))
	if name == "" || name == "." || name == "/" {
		return "variation-image"
	}
	return name
}

// Ensure Client implements ImageUploader
var _ integration.ImageUploader = (*Client)(nil)
