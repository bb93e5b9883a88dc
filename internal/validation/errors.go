package validation

import (
	"errors"
	"fmt"
	"net/http"
)

// Error carries the HTTP status the failure maps to at the API boundary.
type Error struct {
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func NotFound(format string, args ...any) *Error {
	return &Error{Status: http.StatusNotFound, Message: fmt.Sprintf(format, args...)}
}

func BadRequest(err error, format string, args ...any) *Error {
	return &Error{Status: http.StatusBadRequest, Message: fmt.Sprintf(format, args...), Err: err}
}

func Internal(err error, format string, args ...any) *Error {
	return &Error{Status: http.StatusInternalServerError, Message: fmt.Sprintf(format, args...), Err: err}
}

// StatusCode returns the status of the first *Error in the chain, or 500.
func StatusCode(err error) int {
	var verr *Error
	if errors.As(err, &verr) {
		return verr.Status
	}
	return http.StatusInternalServerError
}
