// Package errs defines the error taxonomy shared by the bot components.
package errs

import (
	"errors"
	"fmt"
	"runtime/debug"
	"strings"
)

// TransportError is returned when the network call to the API fails or times out.
type TransportError struct {
	Op  string
	URL string
	Err error
}

// Error implements the error interface
func (e *TransportError) Error() string {
	return fmt.Sprintf("transport error during %s %s: %v", e.Op, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ResponseError is returned when the API answers with an error payload or
// with a payload that does not have the expected shape.
type ResponseError struct {
	StatusCode int
	Code       int // API level error code, 0 when unknown
	Message    string
	Err        error
}

// Error implements the error interface
func (e *ResponseError) Error() string {
	var b strings.Builder
	b.WriteString("response error")
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, " (HTTP %d)", e.StatusCode)
	}
	if e.Code != 0 {
		fmt.Fprintf(&b, " [code %d]", e.Code)
	}
	b.WriteString(": ")
	b.WriteString(e.Message)
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *ResponseError) Unwrap() error { return e.Err }

// ValidationError is returned for invalid arguments, e.g. an unsupported API
// version or a post that lacks the link its classification requires.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation error: " + e.Message
	}
	return fmt.Sprintf("validation error: %s: %s", e.Field, e.Message)
}

// DeliveryError is returned when a notification could not be delivered.
type DeliveryError struct {
	Channel string
	Err     error
}

// Error implements the error interface
func (e *DeliveryError) Error() string {
	return fmt.Sprintf("%s delivery failed: %v", e.Channel, e.Err)
}

func (e *DeliveryError) Unwrap() error { return e.Err }

// StackError carries the goroutine stack captured when a failure was reported
type StackError struct {
	Err   error
	Stack []byte
}

// Error implements the error interface
func (e *StackError) Error() string { return e.Err.Error() }

func (e *StackError) Unwrap() error { return e.Err }

// WithStack attaches the current stack to err. Nil errors and errors that
// already carry a stack are returned unchanged.
func WithStack(err error) error {
	if err == nil {
		return nil
	}
	var stackErr *StackError
	if errors.As(err, &stackErr) {
		return err
	}
	return &StackError{Err: err, Stack: debug.Stack()}
}

// Trace renders the chain of wrapped causes of err, outermost first, one per
// line, followed by the stack when err carries one (see WithStack). Joined
// errors are expanded depth first.
func Trace(err error) string {
	if err == nil {
		return ""
	}
	var b strings.Builder
	writeTrace(&b, err, 0)

	var stackErr *StackError
	if errors.As(err, &stackErr) {
		b.WriteString("\nStack:\n")
		b.Write(stackErr.Stack)
	}
	return strings.TrimRight(b.String(), "\n")
}

func writeTrace(b *strings.Builder, err error, depth int) {
	for err != nil {
		if stackErr, ok := err.(*StackError); ok {
			err = stackErr.Err
			continue
		}

		fmt.Fprintf(b, "%s%T: %s\n", strings.Repeat("  ", depth), err, err.Error())

		if joined, ok := err.(interface{ Unwrap() []error }); ok {
			for _, e := range joined.Unwrap() {
				writeTrace(b, e, depth+1)
			}
			return
		}

		err = errors.Unwrap(err)
		depth++
	}
}
