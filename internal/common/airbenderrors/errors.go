// Package airbenderrors contains generic errors shared by the ingestion packages.
//
// Callers should wrap these with github.com/pkg/errors to add context and use errors.As to recover them; retry
// decisions in the transport and the failure taxonomy in the ingester both look through the chain of errors rather
// than at the topmost one.
package airbenderrors

import (
	"fmt"
	"net/http"

	"github.com/pkg/errors"
)

// ErrInvalidArgument is a generic error to be returned on invalid argument.
// Message is optional and is omitted from the error message if not provided.
type ErrInvalidArgument struct {
	Name    string      // Name of the field referred to, e.g., "startDate"
	Value   interface{} // The invalid value that was provided
	Message string      // An optional message to include with the error message, e.g., explaining why the value is invalid
}

func (err *ErrInvalidArgument) Error() string {
	if err.Message == "" {
		return fmt.Sprintf("value %q is invalid for field %q", err.Value, err.Name)
	} else {
		return fmt.Sprintf("value %q is invalid for field %q; %s", err.Value, err.Name, err.Message)
	}
}

// ErrParse is returned when a type descriptor cannot be parsed or resolved to a storage type.
// Input is the full descriptor and Offending the substring that could not be handled.
type ErrParse struct {
	Input     string
	Offending string
	Message   string
}

func (err *ErrParse) Error() string {
	if err.Offending == "" || err.Offending == err.Input {
		return fmt.Sprintf("invalid type descriptor %q: %s", err.Input, err.Message)
	}
	return fmt.Sprintf("invalid type descriptor %q at %q: %s", err.Input, err.Offending, err.Message)
}

// ErrUnexpectedStatus is returned when an upstream HTTP call completes with a non-2xx status.
type ErrUnexpectedStatus struct {
	Method     string
	URL        string
	StatusCode int
}

func (err *ErrUnexpectedStatus) Error() string {
	return fmt.Sprintf("%s %s returned unexpected status %d %s", err.Method, err.URL, err.StatusCode, http.StatusText(err.StatusCode))
}

// IsRateLimited reports whether err carries a "too many requests" response somewhere in its chain.
func IsRateLimited(err error) bool {
	var e *ErrUnexpectedStatus
	return errors.As(err, &e) && e.StatusCode == http.StatusTooManyRequests
}

// IsServerError reports whether err carries a 5xx response somewhere in its chain.
func IsServerError(err error) bool {
	var e *ErrUnexpectedStatus
	return errors.As(err, &e) && e.StatusCode >= 500 && e.StatusCode <= 599
}
