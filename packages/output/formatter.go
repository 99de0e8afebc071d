package output

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/abdul-hamid-achik/jsonpost/packages/http"
)

// Formatter renders the outcome of one Post.
type Formatter interface {
	FormatResponse(url string, resp *http.Response) error
	FormatError(err error)
}

// Envelope is the machine-readable view of a response.
type Envelope struct {
	URL           string  `json:"url" yaml:"url"`
	StatusCode    int     `json:"statusCode" yaml:"statusCode"`
	Mode          string  `json:"mode" yaml:"mode"`
	Duration      float64 `json:"duration" yaml:"duration"` // milliseconds
	BytesSent     int64   `json:"bytesSent" yaml:"bytesSent"`
	BytesReceived int64   `json:"bytesReceived" yaml:"bytesReceived"`
	Body          any     `json:"body,omitempty" yaml:"body,omitempty"`
}

// ErrorEnvelope is the machine-readable view of a failed Post.
type ErrorEnvelope struct {
	Kind       string   `json:"kind" yaml:"kind"`
	Error      string   `json:"error" yaml:"error"`
	StatusCode int      `json:"statusCode,omitempty" yaml:"statusCode,omitempty"`
	Body       string   `json:"body,omitempty" yaml:"body,omitempty"`
	Violations []string `json:"violations,omitempty" yaml:"violations,omitempty"`
}

// NewEnvelope builds the envelope for resp.
func NewEnvelope(url string, resp *http.Response) Envelope {
	env := Envelope{
		URL:           url,
		StatusCode:    resp.StatusCode,
		Mode:          resp.Mode.String(),
		Duration:      float64(resp.Duration.Milliseconds()),
		BytesSent:     resp.BytesSent,
		BytesReceived: resp.BytesReceived,
	}
	switch {
	case resp.JSON != nil:
		env.Body = resp.JSON
	case resp.Text != "":
		env.Body = resp.Text
	}
	return env
}

// Kind names the error class of err.
func Kind(err error) string {
	var (
		cfgErr     *http.ConfigError
		serErr     *http.SerializationError
		timeoutErr *http.TimeoutError
		transErr   *http.TransferError
		statusErr  *http.HTTPStatusError
		parseErr   *http.ResponseParseError
		schemaErr  *http.SchemaError
	)
	switch {
	case errors.As(err, &cfgErr):
		return "config"
	case errors.As(err, &serErr):
		return "serialization"
	case errors.As(err, &timeoutErr):
		return "timeout"
	case errors.As(err, &transErr):
		return "transfer"
	case errors.As(err, &statusErr):
		return "status"
	case errors.As(err, &parseErr):
		return "parse"
	case errors.As(err, &schemaErr):
		return "schema"
	case errors.Is(err, http.ErrAlreadyExecuted):
		return "reuse"
	default:
		return "error"
	}
}

// NewErrorEnvelope builds the envelope for err, keeping any response body.
func NewErrorEnvelope(err error) ErrorEnvelope {
	env := ErrorEnvelope{Kind: Kind(err), Error: err.Error()}

	var statusErr *http.HTTPStatusError
	if errors.As(err, &statusErr) {
		env.StatusCode = statusErr.StatusCode
		env.Body = http.DecodeText(statusErr.Body)
	}
	var parseErr *http.ResponseParseError
	if errors.As(err, &parseErr) {
		env.Body = http.DecodeText(parseErr.Raw)
	}
	var schemaErr *http.SchemaError
	if errors.As(err, &schemaErr) {
		env.Violations = schemaErr.Violations
	}
	return env
}

// NewFormatter returns the formatter registered under name.
func NewFormatter(name string, w io.Writer, noColor bool) (Formatter, error) {
	switch strings.ToLower(name) {
	case "", "console":
		return NewConsoleFormatter(WithWriter(w), WithNoColor(noColor)), nil
	case "json":
		return NewJSONFormatter(JSONWithWriter(w)), nil
	case "yaml":
		return NewYAMLFormatter(YAMLWithWriter(w)), nil
	default:
		return nil, fmt.Errorf("unknown output format %q", name)
	}
}
