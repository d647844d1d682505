// Package handlers defines the HTTP-layer error codes used across endpoints.
//
// Codes are lowercase snake_case. Generic codes mirror common HTTP status
// semantics; domain-specific codes carry business failures the status alone
// cannot express. Handlers pass the most specific matching code to fail().
package handlers

const (
	ErrCodeBadRequest   = "bad_request"
	ErrCodeUnauthorized = "unauthorized"
	ErrCodeForbidden    = "forbidden"
	ErrCodeNotFound     = "not_found"
	ErrCodeRateLimited  = "too_many_requests"
	ErrCodeInternal     = "internal_error"

	// Domain-specific:
	ErrCodeValidation        = "validation_failed"
	ErrCodeCreateFailed      = "create_failed"
	ErrCodeUpdateFailed      = "update_failed"
	ErrCodeDeleteFailed      = "delete_failed"
	ErrCodeListFailed        = "list_failed"
	ErrCodeGenerateFailed    = "generate_failed"
	ErrCodeUploadFailed      = "upload_failed"
	ErrCodeEditorUnavailable = "editor_unavailable"
	ErrCodeMethodNotAllowed  = "method_not_allowed"
)
