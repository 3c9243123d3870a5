package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Kind classifies a failure independently of the layer that produced it.
type Kind string

const (
	// Caller passed a value of the wrong shape (unvalidated request, invalid id).
	KindTypeMismatch Kind = "TYPE_MISMATCH"
	// No matching row within the caller's scope.
	KindNotFound Kind = "NOT_FOUND"
	// Duplicate email or username.
	KindUniqueViolation Kind = "UNIQUE_VIOLATION"
	// Password did not match the stored hash.
	KindWrongCredential Kind = "WRONG_CREDENTIAL"
	// Malformed request payload.
	KindValidation Kind = "VALIDATION_FAILED"
	// Generic backend failure.
	KindStorage Kind = "STORAGE_ERROR"

	KindUnauthorized       Kind = "UNAUTHORIZED"
	KindServiceUnavailable Kind = "SERVICE_UNAVAILABLE"
	KindUpstream           Kind = "UPSTREAM_ERROR"
)

// Error is the failure value returned by services. It never carries the
// underlying driver error; callers only see the kind and a readable message.
type Error struct {
	Kind    Kind
	Message string
	Details []string
}

// Error implements the error interface
func (e *Error) Error() string {
	return e.Message
}

// New creates a new Error
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Newf creates a new Error with a formatted message
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// NewWithDetails creates a new Error listing individual problems
func NewWithDetails(kind Kind, message string, details []string) *Error {
	return &Error{Kind: kind, Message: message, Details: details}
}

// KindOf extracts the kind of err. Errors that are not *Error are reported
// as storage errors; nil has no kind.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var e *Error
	if stderrors.As(err, &e) {
		return e.Kind
	}
	return KindStorage
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// StatusCode maps a failure kind to the HTTP status used at the edge.
func StatusCode(kind Kind) int {
	switch kind {
	case KindTypeMismatch, KindValidation:
		return http.StatusBadRequest
	case KindUnauthorized, KindWrongCredential:
		return http.StatusUnauthorized
	case KindNotFound:
		return http.StatusNotFound
	case KindUniqueViolation:
		return http.StatusConflict
	case KindUpstream:
		return http.StatusBadGateway
	case KindServiceUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// APIError represents a standardized API error response
type APIError struct {
	Status  string   `json:"status"`
	Code    Kind     `json:"code"`
	Message string   `json:"message"`
	Details []string `json:"details,omitempty"`
}

// Respond writes err as a JSON error response with the status its kind maps to.
// Messages of errors that are not *Error are replaced so internals never leak.
func Respond(c *gin.Context, err error) {
	var e *Error
	if !stderrors.As(err, &e) {
		e = New(KindStorage, "Internal server error")
	}
	RespondWithError(c, StatusCode(e.Kind), e)
}

// RespondWithError sends an error response
func RespondWithError(c *gin.Context, statusCode int, err *Error) {
	c.JSON(statusCode, APIError{
		Status:  "error",
		Code:    err.Kind,
		Message: err.Message,
		Details: err.Details,
	})
}

// Unauthorized sends a 401 response
func Unauthorized(c *gin.Context, message string) {
	if message == "" {
		message = "Authentication required"
	}
	RespondWithError(c, http.StatusUnauthorized, New(KindUnauthorized, message))
}

// BadRequest sends a 400 response
func BadRequest(c *gin.Context, message string) {
	if message == "" {
		message = "Invalid request"
	}
	RespondWithError(c, http.StatusBadRequest, New(KindValidation, message))
}

// InternalError sends a 500 response
func InternalError(c *gin.Context, message string) {
	if message == "" {
		message = "Internal server error"
	}
	RespondWithError(c, http.StatusInternalServerError, New(KindStorage, message))
}
