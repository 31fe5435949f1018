package errs

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestErrorMessages(t *testing.T) {
	base := errors.New("connection refused")

	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{
			name:     "transport error",
			err:      &TransportError{Op: "GET", URL: "https://graph.example/feed", Err: base},
			expected: "transport error during GET https://graph.example/feed: connection refused",
		},
		{
			name:     "response error with codes",
			err:      &ResponseError{StatusCode: 400, Code: 190, Message: "Invalid OAuth access token"},
			expected: "response error (HTTP 400) [code 190]: Invalid OAuth access token",
		},
		{
			name:     "response error with cause",
			err:      &ResponseError{Message: "malformed payload", Err: base},
			expected: "response error: malformed payload: connection refused",
		},
		{
			name:     "validation error with field",
			err:      &ValidationError{Field: "api_version", Message: "unsupported"},
			expected: "validation error: api_version: unsupported",
		},
		{
			name:     "validation error without field",
			err:      &ValidationError{Message: "no keywords"},
			expected: "validation error: no keywords",
		},
		{
			name:     "delivery error",
			err:      &DeliveryError{Channel: "email", Err: base},
			expected: "email delivery failed: connection refused",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.expected {
				t.Errorf("Error() = %q, expected %q", got, tt.expected)
			}
		})
	}
}

func TestErrorsAs(t *testing.T) {
	base := errors.New("timeout")
	wrapped := fmt.Errorf("failed to fetch feed: %w", &TransportError{Op: "GET", Err: base})

	var transportErr *TransportError
	if !errors.As(wrapped, &transportErr) {
		t.Fatal("expected wrapped error to match *TransportError")
	}
	if !errors.Is(wrapped, base) {
		t.Error("expected wrapped error to unwrap to the base cause")
	}

	var deliveryErr *DeliveryError
	if errors.As(wrapped, &deliveryErr) {
		t.Error("transport error should not match *DeliveryError")
	}
}

func TestTrace(t *testing.T) {
	if Trace(nil) != "" {
		t.Error("Trace(nil) should be empty")
	}

	base := errors.New("smtp: 535 authentication failed")
	err := fmt.Errorf("notify: %w", &DeliveryError{Channel: "email", Err: base})

	trace := Trace(err)
	lines := strings.Split(trace, "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 trace lines, got %d:\n%s", len(lines), trace)
	}
	if !strings.HasPrefix(lines[0], "*fmt.wrapError: notify:") {
		t.Errorf("unexpected first line %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], "  *errs.DeliveryError:") {
		t.Errorf("unexpected second line %q", lines[1])
	}
	if !strings.Contains(lines[2], "535 authentication failed") {
		t.Errorf("unexpected third line %q", lines[2])
	}
}

func TestTraceJoined(t *testing.T) {
	err := errors.Join(errors.New("first"), errors.New("second"))

	trace := Trace(err)
	if !strings.Contains(trace, "  *errors.errorString: first") {
		t.Errorf("expected first joined cause in trace, got:\n%s", trace)
	}
	if !strings.Contains(trace, "  *errors.errorString: second") {
		t.Errorf("expected second joined cause in trace, got:\n%s", trace)
	}
}

func TestWithStack(t *testing.T) {
	if WithStack(nil) != nil {
		t.Error("WithStack(nil) should be nil")
	}

	base := &TransportError{Op: "GET", URL: "https://graph.example/feed", Err: errors.New("i/o timeout")}
	err := WithStack(fmt.Errorf("poll failed: %w", base))

	var stackErr *StackError
	if !errors.As(err, &stackErr) || len(stackErr.Stack) == 0 {
		t.Fatalf("expected *StackError with a stack, got %#v", err)
	}
	if !errors.Is(err, base) {
		t.Error("WithStack should keep the cause chain")
	}
	if err.Error() != "poll failed: "+base.Error() {
		t.Errorf("Error() = %q, message should be unchanged", err.Error())
	}
	if again := WithStack(err); again != err {
		t.Error("WithStack should not stack an error twice")
	}

	trace := Trace(err)
	if !strings.HasPrefix(trace, "*fmt.wrapError: poll failed:") {
		t.Errorf("trace should start with the outermost cause, got:\n%s", trace)
	}
	if strings.Contains(trace, "*errs.StackError") {
		t.Errorf("stack wrapper should not appear as a cause:\n%s", trace)
	}
	if !strings.Contains(trace, "\nStack:\ngoroutine ") || !strings.Contains(trace, "TestWithStack") {
		t.Errorf("trace should end with the captured stack:\n%s", trace)
	}
}
