package output

import (
	"encoding/json"
	"io"
	"os"

	"github.com/abdul-hamid-achik/jsonpost/packages/http"
)

// JSONFormatter formats a response as a JSON envelope
type JSONFormatter struct {
	writer io.Writer
}

type JSONOption func(*JSONFormatter)

func NewJSONFormatter(opts ...JSONOption) *JSONFormatter {
	f := &JSONFormatter{
		writer: os.Stdout,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func JSONWithWriter(w io.Writer) JSONOption {
	return func(f *JSONFormatter) {
		f.writer = w
	}
}

func (f *JSONFormatter) FormatResponse(url string, resp *http.Response) error {
	return f.encode(NewEnvelope(url, resp))
}

func (f *JSONFormatter) FormatError(err error) {
	_ = f.encode(NewErrorEnvelope(err))
}

func (f *JSONFormatter) encode(v any) error {
	encoder := json.NewEncoder(f.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
