package store

import (
	"fmt"
	"net/http"
)

// Error is a store error with an HTTP status code.
type Error struct {
	Code    int    // HTTP status code
	Message string // User-facing message
	Err     error  // Underlying error (optional)
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// HTTPCode returns the HTTP status code associated with this error.
func (e *Error) HTTPCode() int { return e.Code }

// Sentinel errors.
var (
	ErrCatalogEntryNotFound = &Error{
		Code:    http.StatusNotFound,
		Message: "catalog entry not found",
	}

	ErrCatalogEntryExists = &Error{
		Code:    http.StatusConflict,
		Message: "catalog entry already exists for this BoardGameGeek id",
	}
)
