package dto

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/dealerdesk/backend/internal/domain/shared/valueobject"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetHTTPStatus(t *testing.T) {
	tests := []struct {
		code     string
		expected int
	}{
		{ErrCodeInternal, http.StatusInternalServerError},
		{ErrCodeValidation, http.StatusBadRequest},
		{ErrCodeUnauthorized, http.StatusUnauthorized},
		{ErrCodeForbidden, http.StatusForbidden},
		{ErrCodeNotFound, http.StatusNotFound},
		{ErrCodeConcurrencyConflict, http.StatusConflict},
		{ErrCodeInvalidStateTransition, http.StatusConflict},
		{ErrCodeInvalidPlanReference, http.StatusUnprocessableEntity},
		{ErrCodeRateLimited, http.StatusTooManyRequests},
		{"ERR_INVALID_AMOUNT", http.StatusBadRequest},
		{"ERR_PAYMENT_NOT_FOUND", http.StatusNotFound},
		{"UNKNOWN_CODE", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.expected, GetHTTPStatus(tt.code))
		})
	}
}

func TestNormalizeErrorCode(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"NOT_FOUND", ErrCodeNotFound},
		{"FORBIDDEN", ErrCodeForbidden},
		{"INVALID_STATE_TRANSITION", ErrCodeInvalidStateTransition},
		{"INVALID_PLAN_REFERENCE", ErrCodeInvalidPlanReference},
		{"INVALID_AMOUNT", "ERR_INVALID_AMOUNT"},
		{ErrCodeValidation, ErrCodeValidation},
		{"", ErrCodeUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeErrorCode(tt.input))
		})
	}
}

func TestNewSuccessResponseWithMeta(t *testing.T) {
	resp := NewSuccessResponseWithMeta([]int{1, 2}, 41, 2, 20)

	require.NotNil(t, resp.Meta)
	assert.Equal(t, 3, resp.Meta.TotalPages)
	assert.True(t, resp.Success)
}

func TestNewValidationErrorResponse_JSON(t *testing.T) {
	resp := NewValidationErrorResponse("Request validation failed", "req-1", []ValidationDetail{
		{Field: "amount", Message: "Must be a non-negative decimal"},
	})

	data, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"success": false,
		"error": {
			"code": "ERR_VALIDATION",
			"message": "Request validation failed",
			"request_id": "req-1",
			"details": [{"field": "amount", "message": "Must be a non-negative decimal"}]
		}
	}`, string(data))
}

func TestFormatBDT(t *testing.T) {
	display := FormatBDT(valueobject.MustMoney("12500.5"))

	assert.Contains(t, display, "BDT")
	assert.Contains(t, display, "12")
}

func TestNewMoneyDisplay(t *testing.T) {
	display := NewMoneyDisplay(map[string]valueobject.Money{
		"amount": valueobject.NewMoneyFromInt(100),
	})

	assert.Len(t, display, 1)
	assert.Contains(t, display["amount"], "BDT")
}
