package types

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestAppErrorErrorFormat(t *testing.T) {
	appErr := &AppError{Code: ErrCodeNotFoundHive, Message: "hive not found"}

	expected := "not_found_hive: hive not found"
	if appErr.Error() != expected {
		t.Errorf("Error() = %q, want %q", appErr.Error(), expected)
	}
}

func TestAppErrorUnwrap(t *testing.T) {
	underlying := errors.New("connection reset")
	appErr := NewAppError(ErrCodeInternalDB, "failed to query hives", underlying)

	if !errors.Is(appErr, underlying) {
		t.Error("errors.Is should find the underlying error")
	}

	wrapped := fmt.Errorf("handler: %w", appErr)
	var target *AppError
	if !errors.As(wrapped, &target) {
		t.Fatal("errors.As should find AppError in the chain")
	}
	if target.Code != ErrCodeInternalDB {
		t.Errorf("Code = %q, want %q", target.Code, ErrCodeInternalDB)
	}
}

func TestErrorCodeHTTPStatus(t *testing.T) {
	tests := []struct {
		code ErrorCode
		want int
	}{
		{ErrCodeValidationInvalidEnum, http.StatusBadRequest},
		{ErrCodeValidationInvalidJSON, http.StatusBadRequest},
		{ErrCodeAuthTokenMissing, http.StatusUnauthorized},
		{ErrCodeAuthTokenRevoked, http.StatusUnauthorized},
		{ErrCodePermissionScope, http.StatusForbidden},
		{ErrCodeNotFoundApiary, http.StatusNotFound},
		{ErrCodeNotFoundAssessment, http.StatusNotFound},
		{ErrCodeConflictApiaryNotEmpty, http.StatusConflict},
		{ErrCodeUpstreamRateLimited, http.StatusTooManyRequests},
		{ErrCodeUpstreamWebhook, http.StatusBadGateway},
		{ErrCodeInternalDB, http.StatusInternalServerError},
		{ErrorCode("something_else"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			if got := tt.code.HTTPStatus(); got != tt.want {
				t.Errorf("HTTPStatus() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestAppErrorWithDetails_DoesNotMutateOriginal(t *testing.T) {
	orig := NewAppErrorWithDetails(ErrCodeValidationInvalidEnum, "bad value", nil, map[string]any{"field": "brood_pattern"})
	merged := orig.WithDetails(map[string]any{"value": "amazing"})

	if len(orig.Details) != 1 {
		t.Errorf("original details mutated: %v", orig.Details)
	}
	if merged.Details["field"] != "brood_pattern" || merged.Details["value"] != "amazing" {
		t.Errorf("merged details = %v", merged.Details)
	}
}
