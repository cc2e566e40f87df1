package types

import (
	"fmt"
	"net/http"
	"strings"
)

// ErrorCode is a typed string for categorizing application errors.
type ErrorCode string

// Error code constants. Handlers use these instead of hardcoded strings.
const (
	// Validation (400)
	ErrCodeValidationInvalidJSON    ErrorCode = "validation_invalid_json"
	ErrCodeValidationMissingField   ErrorCode = "validation_missing_required_field"
	ErrCodeValidationInvalidEnum    ErrorCode = "validation_invalid_enum"
	ErrCodeValidationOutOfRange     ErrorCode = "validation_out_of_range"
	ErrCodeValidationInvalidFormat  ErrorCode = "validation_invalid_format"
	ErrCodeValidationInvalidCursor  ErrorCode = "validation_invalid_cursor"
	ErrCodeValidationInvalidWebhook ErrorCode = "validation_invalid_webhook_url"
	ErrCodeValidationTooManyLabels  ErrorCode = "validation_too_many_labels"

	// Auth (401)
	ErrCodeAuthTokenMissing ErrorCode = "auth_token_missing"
	ErrCodeAuthTokenInvalid ErrorCode = "auth_token_invalid"
	ErrCodeAuthTokenRevoked ErrorCode = "auth_token_revoked"
	ErrCodeAuthTokenExpired ErrorCode = "auth_token_expired"

	// Permission (403)
	ErrCodePermissionAccountMismatch ErrorCode = "permission_account_mismatch"
	ErrCodePermissionScope           ErrorCode = "permission_scope_insufficient"

	// Not Found (404)
	ErrCodeNotFoundApiary     ErrorCode = "not_found_apiary"
	ErrCodeNotFoundHive       ErrorCode = "not_found_hive"
	ErrCodeNotFoundInspection ErrorCode = "not_found_inspection"
	ErrCodeNotFoundAssessment ErrorCode = "not_found_assessment"
	ErrCodeNotFoundAPIKey     ErrorCode = "not_found_api_key"

	// Conflict (409)
	ErrCodeConflictApiaryNotEmpty ErrorCode = "conflict_apiary_not_empty"
	ErrCodeConflictConcurrent     ErrorCode = "conflict_concurrent_modification"

	// Internal/Upstream (500/502)
	ErrCodeInternalDB          ErrorCode = "internal_database_error"
	ErrCodeInternalUnexpected  ErrorCode = "internal_unexpected_error"
	ErrCodeInternalCorruptData ErrorCode = "internal_corrupt_assessment"
	ErrCodeUpstreamQueue       ErrorCode = "upstream_queue_unavailable"
	ErrCodeUpstreamWebhook     ErrorCode = "upstream_webhook_unavailable"
	ErrCodeUpstreamUnavailable ErrorCode = "upstream_unavailable"
	ErrCodeUpstreamRateLimited ErrorCode = "upstream_rate_limited"
)

// HTTPStatus maps an ErrorCode to its HTTP status code.
// Returns 500 for unrecognized codes.
func (c ErrorCode) HTTPStatus() int {
	s := string(c)
	switch {
	case strings.HasPrefix(s, "validation_"):
		return http.StatusBadRequest
	case strings.HasPrefix(s, "auth_"):
		return http.StatusUnauthorized
	case strings.HasPrefix(s, "permission_"):
		return http.StatusForbidden
	case strings.HasPrefix(s, "not_found_"):
		return http.StatusNotFound
	case strings.HasPrefix(s, "conflict_"):
		return http.StatusConflict
	case s == string(ErrCodeUpstreamRateLimited):
		return http.StatusTooManyRequests
	case strings.HasPrefix(s, "upstream_"):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// AppError is the standard application error type. Handlers and repositories
// express failures as AppError so the API layer can map them consistently.
type AppError struct {
	Code    ErrorCode      `json:"code"`
	Message string         `json:"message"`
	Err     error          `json:"-"`
	Details map[string]any `json:"details,omitempty"`
}

// Error implements the error interface.
func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Is/errors.As support.
func (e *AppError) Unwrap() error {
	return e.Err
}

// HTTPStatus returns the HTTP status code for this error's code.
func (e *AppError) HTTPStatus() int {
	return e.Code.HTTPStatus()
}

// WithDetails returns a copy of the error with details merged in.
func (e *AppError) WithDetails(details map[string]any) *AppError {
	merged := make(map[string]any, len(e.Details)+len(details))
	for k, v := range e.Details {
		merged[k] = v
	}
	for k, v := range details {
		merged[k] = v
	}
	return &AppError{Code: e.Code, Message: e.Message, Err: e.Err, Details: merged}
}

// NewAppError creates a new AppError.
func NewAppError(code ErrorCode, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}

// NewAppErrorWithDetails creates a new AppError carrying structured details.
func NewAppErrorWithDetails(code ErrorCode, message string, err error, details map[string]any) *AppError {
	return &AppError{Code: code, Message: message, Err: err, Details: details}
}
