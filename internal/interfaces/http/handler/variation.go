package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	variationapp "github.com/stockwave/harmony/internal/application/variation"
	"github.com/stockwave/harmony/internal/infrastructure/logger"
	"github.com/stockwave/harmony/internal/interfaces/http/dto"
	"github.com/stockwave/harmony/internal/interfaces/http/middleware"
)

// imageFormField is the multipart field carrying an uploaded image
const imageFormField = "file"

// VariationHandler exposes variation editing sessions over HTTP
type VariationHandler struct {
	BaseHandler
	service       *variationapp.VariationService
	maxImageBytes int64
}

// VariationHandlerOption configures a VariationHandler
type VariationHandlerOption func(*VariationHandler)

// WithMaxImageBytes rejects uploads larger than n bytes before they reach the
// image backend. Zero or less leaves the check to the backend.
func WithMaxImageBytes(n int64) VariationHandlerOption {
	return func(h *VariationHandler) {
		h.maxImageBytes = n
	}
}

// NewVariationHandler creates a new VariationHandler
func NewVariationHandler(service *variationapp.VariationService, opts ...VariationHandlerOption) *VariationHandler {
	h := &VariationHandler{service: service}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// productID binds the :id path parameter and tags the request logger with it
func (h *VariationHandler) productID(c *gin.Context) (int64, bool) {
	var path dto.ProductPath
	if err := c.ShouldBindUri(&path); err != nil {
		h.BadRequest(c, "Product id must be a non-negative integer")
		return 0, false
	}
	h.tagProduct(c, path.ProductID)
	return path.ProductID, true
}

// variationPath binds the :id and :index path parameters
func (h *VariationHandler) variationPath(c *gin.Context) (dto.VariationPath, bool) {
	var path dto.VariationPath
	if err := c.ShouldBindUri(&path); err != nil {
		h.BadRequest(c, "Product id and variation index must be non-negative integers")
		return path, false
	}
	h.tagProduct(c, path.ProductID)
	return path, true
}

func (h *VariationHandler) tagProduct(c *gin.Context, productID int64) {
	ctx, _ := logger.WithProductID(c.Request.Context(), logger.GetGinLogger(c), productID)
	c.Request = c.Request.WithContext(ctx)
}

// bindJSON binds the request body and writes the 400 response on failure
func (h *VariationHandler) bindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		middleware.HandleValidationError(c, err)
		return false
	}
	return true
}

// OpenSession loads the product from the store and starts a fresh session
// POST /products/:id/variation-session
func (h *VariationHandler) OpenSession(c *gin.Context) {
	productID, ok := h.productID(c)
	if !ok {
		return
	}
	resp, err := h.service.OpenSession(c.Request.Context(), productID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// GetSession returns the open session
// GET /products/:id/variation-session
func (h *VariationHandler) GetSession(c *gin.Context) {
	productID, ok := h.productID(c)
	if !ok {
		return
	}
	resp, err := h.service.GetSession(c.Request.Context(), productID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Discard drops the session without touching the store
// DELETE /products/:id/variation-session
func (h *VariationHandler) Discard(c *gin.Context) {
	productID, ok := h.productID(c)
	if !ok {
		return
	}
	if err := h.service.Discard(c.Request.Context(), productID); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// UpdateAttributes replaces the attribute list
// PUT /products/:id/variation-session/attributes
func (h *VariationHandler) UpdateAttributes(c *gin.Context) {
	productID, ok := h.productID(c)
	if !ok {
		return
	}
	var req variationapp.UpdateAttributesRequest
	if !h.bindJSON(c, &req) {
		return
	}
	resp, err := h.service.UpdateAttributes(c.Request.Context(), productID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Generate regenerates the working list from the session attributes
// POST /products/:id/variation-session/generate
func (h *VariationHandler) Generate(c *gin.Context) {
	productID, ok := h.productID(c)
	if !ok {
		return
	}
	resp, err := h.service.Generate(c.Request.Context(), productID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// BulkEdit applies one bulk action to every variation
// POST /products/:id/variation-session/bulk
func (h *VariationHandler) BulkEdit(c *gin.Context) {
	productID, ok := h.productID(c)
	if !ok {
		return
	}
	var req variationapp.BulkEditRequest
	if !h.bindJSON(c, &req) {
		return
	}
	resp, err := h.service.BulkEdit(c.Request.Context(), productID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// UpdateVariation edits the fields of one variation
// PATCH /products/:id/variation-session/variations/:index
func (h *VariationHandler) UpdateVariation(c *gin.Context) {
	path, ok := h.variationPath(c)
	if !ok {
		return
	}
	var req variationapp.UpdateVariationRequest
	if !h.bindJSON(c, &req) {
		return
	}
	resp, err := h.service.UpdateVariation(c.Request.Context(), path.ProductID, path.Index, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// DeleteVariation removes one variation from the working list
// DELETE /products/:id/variation-session/variations/:index
func (h *VariationHandler) DeleteVariation(c *gin.Context) {
	path, ok := h.variationPath(c)
	if !ok {
		return
	}
	resp, err := h.service.DeleteVariation(c.Request.Context(), path.ProductID, path.Index)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// UploadImage uploads the multipart "file" and assigns it to one variation
// POST /products/:id/variation-session/variations/:index/image
func (h *VariationHandler) UploadImage(c *gin.Context) {
	path, ok := h.variationPath(c)
	if !ok {
		return
	}

	header, err := c.FormFile(imageFormField)
	if err != nil {
		h.BadRequest(c, fmt.Sprintf("Multipart field %q with the image is required", imageFormField))
		return
	}
	if h.maxImageBytes > 0 && header.Size > h.maxImageBytes {
		h.Error(c, http.StatusRequestEntityTooLarge, dto.ErrCodeRequestTooLarge,
			fmt.Sprintf("Image exceeds the maximum size of %d bytes", h.maxImageBytes))
		return
	}

	file, err := header.Open()
	if err != nil {
		h.BadRequest(c, "Uploaded file could not be read")
		return
	}
	defer file.Close()

	resp, err := h.service.UploadImage(c.Request.Context(), path.ProductID, variationapp.UploadImageRequest{
		Index:       path.Index,
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Body:        file,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	logger.GetGinLogger(c).Debug("variation image uploaded",
		zap.Int("index", path.Index),
		zap.Int64("size", header.Size),
	)
	h.Success(c, resp)
}

// Preview returns the records Submit would send
// GET /products/:id/variation-session/payload
func (h *VariationHandler) Preview(c *gin.Context) {
	productID, ok := h.productID(c)
	if !ok {
		return
	}
	resp, err := h.service.Preview(c.Request.Context(), productID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Submit sends the working list to the store
// POST /products/:id/variation-session/submit
func (h *VariationHandler) Submit(c *gin.Context) {
	productID, ok := h.productID(c)
	if !ok {
		return
	}
	resp, err := h.service.Submit(c.Request.Context(), productID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// GenerateStateless reconciles a posted attribute list without a session
// POST /variations/generate
func (h *VariationHandler) GenerateStateless(c *gin.Context) {
	var req variationapp.GenerateRequest
	if !h.bindJSON(c, &req) {
		return
	}
	resp, err := h.service.GenerateStateless(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}
