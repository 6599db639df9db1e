package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stockwave/harmony/internal/domain/integration"
	"github.com/stockwave/harmony/internal/domain/shared"
	"github.com/stockwave/harmony/internal/domain/variation"
	"github.com/stockwave/harmony/internal/interfaces/http/dto"
	"github.com/stockwave/harmony/internal/interfaces/http/middleware"
)

func init() {
	gin.SetMode(gin.TestMode)
	middleware.SetupValidator()
}

func newTestContext() (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	return c, w
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) dto.Response {
	t.Helper()
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestBaseHandlerSuccess(t *testing.T) {
	h := &BaseHandler{}
	c, w := newTestContext()

	h.Success(c, map[string]string{"key": "value"})

	assert.Equal(t, http.StatusOK, w.Code)
	resp := decodeResponse(t, w)
	assert.True(t, resp.Success)
	assert.Nil(t, resp.Error)
	assert.Equal(t, map[string]any{"key": "value"}, resp.Data)
}

func TestBaseHandlerCreated(t *testing.T) {
	h := &BaseHandler{}
	c, w := newTestContext()

	h.Created(c, map[string]int{"id": 1})

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.True(t, decodeResponse(t, w).Success)
}

func TestBaseHandlerNoContent(t *testing.T) {
	h := &BaseHandler{}
	router := gin.New()
	router.DELETE("/test", h.NoContent)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/test", nil))

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Body.String())
}

func TestBaseHandlerErrorMethods(t *testing.T) {
	h := &BaseHandler{}
	tests := []struct {
		name   string
		call   func(c *gin.Context)
		status int
		code   string
	}{
		{"bad request", func(c *gin.Context) { h.BadRequest(c, "bad") }, http.StatusBadRequest, dto.ErrCodeBadRequest},
		{"not found", func(c *gin.Context) { h.NotFound(c, "missing") }, http.StatusNotFound, dto.ErrCodeNotFound},
		{"internal", func(c *gin.Context) { h.InternalError(c, "boom") }, http.StatusInternalServerError, dto.ErrCodeInternal},
		{"error with code", func(c *gin.Context) { h.ErrorWithCode(c, dto.ErrCodeRateLimited, "slow down") }, http.StatusTooManyRequests, dto.ErrCodeRateLimited},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, w := newTestContext()
			tt.call(c)

			assert.Equal(t, tt.status, w.Code)
			resp := decodeResponse(t, w)
			assert.False(t, resp.Success)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.code, resp.Error.Code)
			assert.Equal(t, tt.code, c.GetString("error_code"))
		})
	}
}

func TestBaseHandlerErrorCarriesRequestID(t *testing.T) {
	h := &BaseHandler{}
	router := gin.New()
	router.Use(middleware.RequestID())
	router.GET("/fail", func(c *gin.Context) { h.BadRequest(c, "bad") })

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/fail", nil)
	req.Header.Set(middleware.RequestIDKey, "req-42")
	router.ServeHTTP(w, req)

	resp := decodeResponse(t, w)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "req-42", resp.Error.RequestID)
}

func TestBaseHandlerValidationError(t *testing.T) {
	h := &BaseHandler{}
	c, w := newTestContext()

	h.ValidationError(c, []dto.ValidationDetail{{Field: "price", Message: "price is required"}})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	resp := decodeResponse(t, w)
	require.NotNil(t, resp.Error)
	assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
	require.Len(t, resp.Error.Details, 1)
	assert.Equal(t, "price", resp.Error.Details[0].Field)
}

func TestBaseHandlerHandleError(t *testing.T) {
	h := &BaseHandler{}
	tests := []struct {
		name    string
		err     error
		status  int
		code    string
		message string
	}{
		{
			name:    "domain error keeps its code",
			err:     shared.NewDomainError(dto.CodeTooManyCombinations, "Too many combinations"),
			status:  http.StatusUnprocessableEntity,
			code:    dto.CodeTooManyCombinations,
			message: "Too many combinations",
		},
		{
			name:   "wrapped domain error",
			err:    fmt.Errorf("generate: %w", shared.NewDomainError(dto.CodeInvalidPrice, "bad price")),
			status: http.StatusBadRequest,
			code:   dto.CodeInvalidPrice,
		},
		{
			name:   "legacy domain code is normalized",
			err:    shared.NewDomainError("NOT_FOUND", "gone"),
			status: http.StatusNotFound,
			code:   dto.ErrCodeNotFound,
		},
		{
			name:   "session not found",
			err:    fmt.Errorf("load: %w", variation.ErrSessionNotFound),
			status: http.StatusNotFound,
			code:   dto.ErrCodeSessionNotFound,
		},
		{
			name:   "remote product not found",
			err:    fmt.Errorf("%w: 404", integration.ErrRemoteProductNotFound),
			status: http.StatusNotFound,
			code:   dto.ErrCodeProductNotFound,
		},
		{
			name:   "store unavailable",
			err:    fmt.Errorf("%w: 503", integration.ErrStoreUnavailable),
			status: http.StatusServiceUnavailable,
			code:   dto.ErrCodeStoreUnavailable,
		},
		{
			name:   "store rate limited",
			err:    integration.ErrStoreRateLimited,
			status: http.StatusServiceUnavailable,
			code:   dto.ErrCodeStoreUnavailable,
		},
		{
			name:   "store auth failed",
			err:    integration.ErrStoreAuthFailed,
			status: http.StatusBadGateway,
			code:   dto.ErrCodeStoreRejected,
		},
		{
			name:    "store item errors are passed through",
			err:     fmt.Errorf("%w: create SC1: Invalid or duplicated SKU", integration.ErrStoreRequestFailed),
			status:  http.StatusBadGateway,
			code:    dto.ErrCodeStoreRejected,
			message: "integration: store request failed: create SC1: Invalid or duplicated SKU",
		},
		{
			name:   "store not configured",
			err:    integration.ErrStoreNotConfigured,
			status: http.StatusServiceUnavailable,
			code:   dto.ErrCodeStoreNotConfigured,
		},
		{
			name:   "invalid image",
			err:    fmt.Errorf("%w: empty body", integration.ErrImageInvalid),
			status: http.StatusBadRequest,
			code:   dto.ErrCodeInvalidImage,
		},
		{
			name:   "image upload failed",
			err:    integration.ErrImageUploadFailed,
			status: http.StatusBadGateway,
			code:   dto.ErrCodeImageUploadFailed,
		},
		{
			name:   "deadline exceeded",
			err:    fmt.Errorf("get product: %w", context.DeadlineExceeded),
			status: http.StatusServiceUnavailable,
			code:   dto.ErrCodeStoreUnavailable,
		},
		{
			name:    "unknown error hides details",
			err:     fmt.Errorf("disk on fire"),
			status:  http.StatusInternalServerError,
			code:    dto.ErrCodeInternal,
			message: "An unexpected error occurred",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, w := newTestContext()
			h.HandleError(c, tt.err)

			assert.Equal(t, tt.status, w.Code)
			resp := decodeResponse(t, w)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.code, resp.Error.Code)
			if tt.message != "" {
				assert.Equal(t, tt.message, resp.Error.Message)
			}
		})
	}
}

func TestBaseHandlerHandleErrorNil(t *testing.T) {
	h := &BaseHandler{}
	c, w := newTestContext()

	h.HandleError(c, nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Body.String())
}
