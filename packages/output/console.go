package output

import (
	"fmt"
	"io"
	"os"
	"unicode/utf8"

	"github.com/abdul-hamid-achik/jsonpost/packages/http"
	"github.com/fatih/color"
	"github.com/tidwall/gjson"
)

// formatValue truncates long strings for display, keeping at most maxLen runes
func formatValue(s string, maxLen int) string {
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	return string([]rune(s)[:maxLen]) + "..."
}

type ConsoleFormatter struct {
	writer  io.Writer
	verbose bool
	noColor bool
}

type ConsoleOption func(*ConsoleFormatter)

func NewConsoleFormatter(opts ...ConsoleOption) *ConsoleFormatter {
	f := &ConsoleFormatter{
		writer: os.Stdout,
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.noColor {
		color.NoColor = true
	}
	return f
}

func WithWriter(w io.Writer) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.writer = w
	}
}

func WithVerbose(v bool) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.verbose = v
	}
}

func WithNoColor(nc bool) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.noColor = nc
	}
}

func (f *ConsoleFormatter) FormatResponse(url string, resp *http.Response) error {
	bold := color.New(color.Bold).SprintFunc()
	cyan := color.New(color.FgCyan).SprintFunc()

	fmt.Fprintf(f.writer, "%s %s %s %s\n",
		bold("POST"), url, statusColor(resp.StatusCode)(fmt.Sprintf("%d", resp.StatusCode)),
		cyan(fmt.Sprintf("(%dms)", resp.DurationMs())))

	if f.verbose {
		fmt.Fprintf(f.writer, "  Sent:     %d bytes\n", resp.BytesSent)
		fmt.Fprintf(f.writer, "  Received: %d bytes\n", resp.BytesReceived)
	}

	if resp.Mode == http.ModeStream {
		fmt.Fprintf(f.writer, "  %d bytes streamed\n", resp.BytesReceived)
		return nil
	}

	if resp.Text == "" {
		return nil
	}

	body := resp.Text
	if gjson.Valid(body) {
		body = gjson.Get(body, "@pretty").Raw
	}
	fmt.Fprintf(f.writer, "\n%s\n", body)
	return nil
}

func (f *ConsoleFormatter) FormatError(err error) {
	red := color.New(color.FgRed).SprintFunc()
	fmt.Fprintf(f.writer, "%s %v\n", red("Error:"), err)

	env := NewErrorEnvelope(err)
	if env.Body != "" {
		fmt.Fprintf(f.writer, "  Body: %s\n", formatValue(env.Body, 512))
	}
	for _, v := range env.Violations {
		fmt.Fprintf(f.writer, "  %s %s\n", red("→"), v)
	}
}

func (f *ConsoleFormatter) FormatHeader(version string) {
	bold := color.New(color.Bold).SprintFunc()
	fmt.Fprintf(f.writer, "%s %s\n", bold("jsonpost"), version)
}

func statusColor(code int) func(a ...any) string {
	switch {
	case code >= 200 && code < 300:
		return color.New(color.FgGreen).SprintFunc()
	case code >= 300 && code < 400:
		return color.New(color.FgYellow).SprintFunc()
	default:
		return color.New(color.FgRed).SprintFunc()
	}
}
