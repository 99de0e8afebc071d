package http

import (
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"golang.org/x/text/encoding/unicode"
)

type Response struct {
	StatusCode    int
	Body          []byte
	Text          string
	JSON          any
	Mode          Mode
	BytesSent     int64
	BytesReceived int64
	Duration      time.Duration
}

func (r *Response) BodyString() string {
	return r.Text
}

// Get looks up a dotted path (e.g. "items.0.id") in the response body.
func (r *Response) Get(path string) gjson.Result {
	return gjson.Get(r.Text, path)
}

func (r *Response) IsSuccess() bool {
	return isSuccess(r.StatusCode)
}

func (r *Response) IsRedirect() bool {
	return r.StatusCode >= 300 && r.StatusCode < 400
}

func (r *Response) IsClientError() bool {
	return r.StatusCode >= 400 && r.StatusCode < 500
}

func (r *Response) IsServerError() bool {
	return r.StatusCode >= 500
}

func (r *Response) DurationMs() int64 {
	return r.Duration.Milliseconds()
}

func isSuccess(code int) bool {
	return code >= 200 && code < 300
}

// DecodeText decodes b as UTF-8. Each invalid byte becomes one U+FFFD, so
// "\xff\xfeok" decodes to "\uFFFD\uFFFDok".
func DecodeText(b []byte) string {
	out, err := unicode.UTF8.NewDecoder().Bytes(b)
	if err != nil {
		return strings.ToValidUTF8(string(b), "\uFFFD")
	}
	return string(out)
}
