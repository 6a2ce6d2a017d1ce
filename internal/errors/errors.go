package errors

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// APIError represents a standardized API error response. The body is the
// stable shape clients pattern-match on: an "error" string plus optional
// machine-readable boolean flags.
type APIError struct {
	Message string          `json:"error"`
	Flags   map[string]bool `json:"-"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	return e.Message
}

// NewAPIError creates a new APIError
func NewAPIError(message string) *APIError {
	return &APIError{Message: message}
}

// WithFlag attaches a boolean flag to the error body.
func (e *APIError) WithFlag(name string) *APIError {
	out := &APIError{Message: e.Message, Flags: map[string]bool{}}
	for k, v := range e.Flags {
		out.Flags[k] = v
	}
	out.Flags[name] = true
	return out
}

// RespondWithError sends an error response
func RespondWithError(c *gin.Context, statusCode int, err *APIError) {
	body := gin.H{"error": err.Message}
	for name, value := range err.Flags {
		body[name] = value
	}
	c.JSON(statusCode, body)
}

// Helper functions for common error responses

// Unauthorized sends a 401 response
func Unauthorized(c *gin.Context, message string) {
	if message == "" {
		message = "Authentication required"
	}
	RespondWithError(c, http.StatusUnauthorized, NewAPIError(message))
}

// Forbidden sends a 403 response
func Forbidden(c *gin.Context, message string) {
	if message == "" {
		message = "Access denied"
	}
	RespondWithError(c, http.StatusForbidden, NewAPIError(message))
}

// ForbiddenWithFlag sends a 403 response carrying a boolean flag the client
// can branch on, e.g. requiresVerification.
func ForbiddenWithFlag(c *gin.Context, message, flag string) {
	RespondWithError(c, http.StatusForbidden, NewAPIError(message).WithFlag(flag))
}

// NotFound sends a 404 response
func NotFound(c *gin.Context, message string) {
	if message == "" {
		message = "Resource not found"
	}
	RespondWithError(c, http.StatusNotFound, NewAPIError(message))
}

// BadRequest sends a 400 response
func BadRequest(c *gin.Context, message string) {
	if message == "" {
		message = "Invalid request"
	}
	RespondWithError(c, http.StatusBadRequest, NewAPIError(message))
}

// Conflict sends a 409 response
func Conflict(c *gin.Context, message string) {
	if message == "" {
		message = "Resource conflict"
	}
	RespondWithError(c, http.StatusConflict, NewAPIError(message))
}

// InternalError sends a 500 response
func InternalError(c *gin.Context, message string) {
	if message == "" {
		message = "Internal server error"
	}
	RespondWithError(c, http.StatusInternalServerError, NewAPIError(message))
}
