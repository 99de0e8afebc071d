package http

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrAlreadyExecuted is returned by Post when the builder has already been used.
var ErrAlreadyExecuted = errors.New("builder already executed")

// ConfigError reports a rejected URL, header or schema.
type ConfigError struct {
	Op  string
	Err error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error: %s: %v", e.Op, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// SerializationError reports a body value that could not be encoded as JSON.
type SerializationError struct {
	Err error
}

func (e *SerializationError) Error() string {
	return fmt.Sprintf("serialization error: %v", e.Err)
}

func (e *SerializationError) Unwrap() error { return e.Err }

// TransferError wraps an engine failure during the blocking transfer.
type TransferError struct {
	URL string
	Err error
}

func (e *TransferError) Error() string {
	return fmt.Sprintf("transfer error: POST %s: %v", e.URL, e.Err)
}

func (e *TransferError) Unwrap() error { return e.Err }

// TimeoutError is returned when the transfer does not finish within the
// configured timeout or the caller's context deadline.
type TimeoutError struct {
	URL     string
	Timeout time.Duration
	Err     error
}

func (e *TimeoutError) Error() string {
	if e.Timeout > 0 {
		return fmt.Sprintf("timeout after %s: POST %s", e.Timeout, e.URL)
	}
	return fmt.Sprintf("timeout: POST %s: %v", e.URL, e.Err)
}

func (e *TimeoutError) Unwrap() error { return e.Err }

// HTTPStatusError is returned when the response status is outside 200-299.
// Body holds the buffered response, or nil in stream mode.
type HTTPStatusError struct {
	StatusCode int
	Body       []byte
}

func (e *HTTPStatusError) Error() string {
	if snippet := bodySnippet(e.Body); snippet != "" {
		return fmt.Sprintf("http response status %d: %s", e.StatusCode, snippet)
	}
	return fmt.Sprintf("http response status %d", e.StatusCode)
}

// ResponseParseError is returned when the response body is not valid JSON.
// Raw keeps the bytes exactly as received.
type ResponseParseError struct {
	Raw []byte
	Err error
}

func (e *ResponseParseError) Error() string {
	return fmt.Sprintf("response is not valid JSON: %v", e.Err)
}

func (e *ResponseParseError) Unwrap() error { return e.Err }

// SchemaError lists the violations found when validating the response
// against the configured JSON schema.
type SchemaError struct {
	Violations []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("schema validation failed: %s", strings.Join(e.Violations, "; "))
}

func bodySnippet(body []byte) string {
	if len(body) == 0 {
		return ""
	}
	text := []rune(DecodeText(body))
	if len(text) > 512 {
		text = text[:512]
	}
	return strings.TrimSpace(string(text))
}
