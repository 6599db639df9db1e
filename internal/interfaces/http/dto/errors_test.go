package dto

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetHTTPStatus(t *testing.T) {
	tests := []struct {
		code     string
		expected int
	}{
		{ErrCodeUnknown, http.StatusInternalServerError},
		{ErrCodeInternal, http.StatusInternalServerError},
		{ErrCodeValidation, http.StatusBadRequest},
		{ErrCodeSessionNotFound, http.StatusNotFound},
		{ErrCodeProductNotFound, http.StatusNotFound},
		{ErrCodeInvalidImage, http.StatusBadRequest},
		{ErrCodeRequestTooLarge, http.StatusRequestEntityTooLarge},
		{ErrCodeStoreUnavailable, http.StatusServiceUnavailable},
		{ErrCodeStoreRejected, http.StatusBadGateway},
		{ErrCodeRateLimited, http.StatusTooManyRequests},
		{CodeInvalidPrice, http.StatusBadRequest},
		{CodeDuplicateAttribute, http.StatusBadRequest},
		{CodeVariationIndexOutOfRange, http.StatusNotFound},
		{CodeTooManyCombinations, http.StatusUnprocessableEntity},
		{CodeConfirmationRequired, http.StatusUnprocessableEntity},
		{CodeProductNotSaved, http.StatusUnprocessableEntity},
		{CodeNothingToSubmit, http.StatusUnprocessableEntity},
		// Unknown code should return 500
		{"UNKNOWN_CODE", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.expected, GetHTTPStatus(tt.code))
		})
	}
}

func TestNormalizeErrorCode(t *testing.T) {
	assert.Equal(t, ErrCodeNotFound, NormalizeErrorCode("NOT_FOUND"))
	assert.Equal(t, ErrCodeBadRequest, NormalizeErrorCode("INVALID_INPUT"))
	assert.Equal(t, CodeInvalidPrice, NormalizeErrorCode(CodeInvalidPrice))
}

func TestErrorEnvelope(t *testing.T) {
	t.Run("error with request id", func(t *testing.T) {
		body, err := json.Marshal(NewErrorResponseWithRequestID(CodeInvalidPrice, "bad price", "req-1"))
		require.NoError(t, err)
		assert.JSONEq(t, `{"success":false,"error":{"code":"INVALID_PRICE","message":"bad price","request_id":"req-1"}}`, string(body))
	})

	t.Run("validation details", func(t *testing.T) {
		resp := NewValidationErrorResponse("Request validation failed", "req-2", []ValidationDetail{
			{Field: "action", Message: "This field is required"},
		})
		assert.False(t, resp.Success)
		require.NotNil(t, resp.Error)
		assert.Equal(t, ErrCodeValidation, resp.Error.Code)
		assert.Equal(t, "req-2", resp.Error.RequestID)
		require.Len(t, resp.Error.Details, 1)
		assert.Equal(t, "action", resp.Error.Details[0].Field)
	})

	t.Run("success omits error", func(t *testing.T) {
		body, err := json.Marshal(NewSuccessResponse(map[string]int{"count": 2}))
		require.NoError(t, err)
		assert.JSONEq(t, `{"success":true,"data":{"count":2}}`, string(body))
	})
}
