package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Error represents an application error
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is the same kind of application error.
// Two errors are the same kind when code and message match.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code && e.Message == t.Message
}

// New creates a new Error
func New(code int, message string, err error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Wrap returns a copy of base carrying err as its cause.
func Wrap(base *Error, err error) *Error {
	return New(base.Code, base.Message, err)
}

// Validation builds a validation error with a caller-facing message.
func Validation(message string) *Error {
	return New(http.StatusBadRequest, ErrValidation.Message, stderrors.New(message))
}

// Common error types
var (
	ErrBadRequest         = New(http.StatusBadRequest, "Bad request", nil)
	ErrUnauthorized       = New(http.StatusUnauthorized, "unauthorized access", nil)
	ErrForbidden          = New(http.StatusForbidden, "forbidden access", nil)
	ErrNotFound           = New(http.StatusNotFound, "Not found", nil)
	ErrInternalServer     = New(http.StatusInternalServerError, "Internal server error", nil)
	ErrServiceUnavailable = New(http.StatusServiceUnavailable, "Service unavailable", nil)
)

// Validation error types
var (
	ErrValidation = New(http.StatusBadRequest, "Validation error", nil)
)

// Payment error types
var (
	ErrPaymentFailed = New(http.StatusBadGateway, "Payment failed", nil)
)

// StatusOf maps any error to the application error that should be rendered.
func StatusOf(err error) *Error {
	var appErr *Error
	if stderrors.As(err, &appErr) {
		return appErr
	}
	return Wrap(ErrInternalServer, err)
}

// ErrorMiddleware renders the last error attached to the Gin context.
func ErrorMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		appErr := StatusOf(c.Errors.Last().Err)
		body := gin.H{"error": true, "message": appErr.Message}
		// validation details are caller input, safe to echo back
		if appErr.Is(ErrValidation) && appErr.Err != nil {
			body["details"] = appErr.Err.Error()
		}
		c.AbortWithStatusJSON(appErr.Code, body)
	}
}
