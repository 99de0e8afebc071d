package output

import (
	"io"
	"os"

	"github.com/abdul-hamid-achik/jsonpost/packages/http"
	"gopkg.in/yaml.v3"
)

// YAMLFormatter formats a response as a YAML envelope
type YAMLFormatter struct {
	writer io.Writer
}

type YAMLOption func(*YAMLFormatter)

func NewYAMLFormatter(opts ...YAMLOption) *YAMLFormatter {
	f := &YAMLFormatter{
		writer: os.Stdout,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func YAMLWithWriter(w io.Writer) YAMLOption {
	return func(f *YAMLFormatter) {
		f.writer = w
	}
}

func (f *YAMLFormatter) FormatResponse(url string, resp *http.Response) error {
	return f.encode(NewEnvelope(url, resp))
}

func (f *YAMLFormatter) FormatError(err error) {
	_ = f.encode(NewErrorEnvelope(err))
}

func (f *YAMLFormatter) encode(v any) error {
	encoder := yaml.NewEncoder(f.writer)
	encoder.SetIndent(2)
	if err := encoder.Encode(v); err != nil {
		return err
	}
	return encoder.Close()
}
