package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/stockwave/harmony/internal/domain/integration"
	"github.com/stockwave/harmony/internal/domain/shared"
	"github.com/stockwave/harmony/internal/domain/variation"
	"github.com/stockwave/harmony/internal/infrastructure/logger"
	"github.com/stockwave/harmony/internal/interfaces/http/dto"
	"github.com/stockwave/harmony/internal/interfaces/http/middleware"
)

// BaseHandler provides common handler utilities
type BaseHandler struct{}

// Success sends a success response
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// Created sends a 201 created response
func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(data))
}

// NoContent sends a 204 no content response
func (h *BaseHandler) NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Error sends an error response with the appropriate status code
func (h *BaseHandler) Error(c *gin.Context, statusCode int, code, message string) {
	middleware.SetErrorCode(c, code)
	c.JSON(statusCode, dto.NewErrorResponseWithRequestID(code, message, middleware.GetRequestID(c)))
}

// ErrorWithCode sends an error response, deriving status code from error code
func (h *BaseHandler) ErrorWithCode(c *gin.Context, code, message string) {
	h.Error(c, dto.GetHTTPStatus(code), code, message)
}

// BadRequest sends a 400 bad request response
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	h.Error(c, http.StatusBadRequest, dto.ErrCodeBadRequest, message)
}

// NotFound sends a 404 not found response
func (h *BaseHandler) NotFound(c *gin.Context, message string) {
	h.Error(c, http.StatusNotFound, dto.ErrCodeNotFound, message)
}

// InternalError sends a 500 internal server error response
func (h *BaseHandler) InternalError(c *gin.Context, message string) {
	h.Error(c, http.StatusInternalServerError, dto.ErrCodeInternal, message)
}

// ValidationError sends a 400 validation error response with details
func (h *BaseHandler) ValidationError(c *gin.Context, details []dto.ValidationDetail) {
	middleware.SetErrorCode(c, dto.ErrCodeValidation)
	c.JSON(http.StatusBadRequest, dto.NewValidationErrorResponse(
		"Request validation failed",
		middleware.GetRequestID(c),
		details,
	))
}

// storeErrors maps integration sentinels to API codes, most specific first
var storeErrors = []struct {
	target  error
	code    string
	message string
}{
	{integration.ErrRemoteProductNotFound, dto.ErrCodeProductNotFound, "Product not found in the store"},
	{integration.ErrImageInvalid, dto.ErrCodeInvalidImage, "The uploaded file is not a usable image"},
	{integration.ErrImageUploadFailed, dto.ErrCodeImageUploadFailed, "The image could not be uploaded"},
	{integration.ErrStoreNotConfigured, dto.ErrCodeStoreNotConfigured, "No store connection is configured"},
	{integration.ErrStoreUnavailable, dto.ErrCodeStoreUnavailable, "The store is temporarily unavailable, try again shortly"},
	{integration.ErrStoreRateLimited, dto.ErrCodeStoreUnavailable, "The store is rate limiting requests, try again shortly"},
	{integration.ErrStoreAuthFailed, dto.ErrCodeStoreRejected, "The store rejected the configured credentials"},
	{integration.ErrStoreInvalidResponse, dto.ErrCodeStoreRejected, "The store returned an unexpected response"},
	{integration.ErrStoreRequestFailed, dto.ErrCodeStoreRejected, ""},
}

// HandleError converts service errors to HTTP responses. Domain errors carry
// their own code; store and session errors are matched by sentinel.
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}

	if domainErr, ok := shared.AsDomainError(err); ok {
		h.ErrorWithCode(c, dto.NormalizeErrorCode(domainErr.Code), domainErr.Message)
		return
	}

	if errors.Is(err, variation.ErrSessionNotFound) {
		h.ErrorWithCode(c, dto.ErrCodeSessionNotFound, "No editing session is open for this product")
		return
	}

	for _, se := range storeErrors {
		if !errors.Is(err, se.target) {
			continue
		}
		message := se.message
		if message == "" {
			// the store's own item messages tell the operator what to fix
			message = err.Error()
		}
		logger.GetGinLogger(c).Warn("store call failed", zap.String("code", se.code), zap.Error(err))
		h.ErrorWithCode(c, se.code, message)
		return
	}

	if errors.Is(err, context.DeadlineExceeded) {
		logger.GetGinLogger(c).Warn("request timed out", zap.Error(err))
		h.ErrorWithCode(c, dto.ErrCodeStoreUnavailable, "The store did not answer in time")
		return
	}

	logger.GetGinLogger(c).Error("unhandled error", zap.Error(err))
	h.InternalError(c, "An unexpected error occurred")
}
