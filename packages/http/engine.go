package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	neturl "net/url"
	"strings"

	"golang.org/x/net/http/httpguts"
)

// DefaultChunkSize is the size of the buffer engines use when pushing
// response bytes through the write callback.
const DefaultChunkSize = 16 * 1024

// ReadFunc supplies request body bytes. It follows io.Reader semantics and
// returns io.EOF once the body is exhausted.
type ReadFunc func(p []byte) (int, error)

// WriteFunc receives response body bytes as they arrive. Returning fewer
// bytes than given, or an error, aborts the transfer.
type WriteFunc func(p []byte) (int, error)

// Engine performs the network I/O for one HTTP exchange.
type Engine interface {
	// SetURL validates and stores the target URL.
	SetURL(rawURL string) error
	// SetHeaders replaces the header list. Lines use the "Key: Value" form.
	SetHeaders(lines []string) error
	// SetPost enables sending a request body with the POST method.
	SetPost(enable bool)
	// SetBody sets the request body size and the callback that produces it.
	SetBody(size int64, read ReadFunc)
	// SetWriteFunc sets the callback that consumes the response body.
	SetWriteFunc(write WriteFunc)
	// Perform runs the transfer and blocks until it completes.
	Perform(ctx context.Context) error
	// StatusCode returns the status of the last completed transfer.
	StatusCode() int
}

// ValidateURL checks that a URL is well-formed and uses an allowed scheme
func ValidateURL(rawURL string) error {
	u, err := neturl.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %v", err)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported URL scheme: %q (only http and https are allowed)", u.Scheme)
	}

	if u.Host == "" {
		return fmt.Errorf("URL must have a host")
	}

	return nil
}

// FormatHeaderLine renders a header in the engine's line form.
func FormatHeaderLine(key, value string) string {
	return key + ": " + value
}

// ParseHeaderLine splits a "Key: Value" line at the first colon. The name is
// taken as-is and must be an HTTP token; the value is trimmed and must not
// contain control characters.
func ParseHeaderLine(line string) (string, string, error) {
	key, value, found := strings.Cut(line, ":")
	if !found {
		return "", "", fmt.Errorf("header line %q has no colon", line)
	}
	value = strings.TrimSpace(value)

	if !httpguts.ValidHeaderFieldName(key) {
		return "", "", fmt.Errorf("invalid header name %q", key)
	}
	if !httpguts.ValidHeaderFieldValue(value) {
		return "", "", fmt.Errorf("invalid value for header %q", key)
	}
	return key, value, nil
}

func parseHeaderLines(lines []string) (map[string]string, error) {
	headers := make(map[string]string, len(lines))
	for _, line := range lines {
		k, v, err := ParseHeaderLine(line)
		if err != nil {
			return nil, err
		}
		headers[k] = v
	}
	return headers, nil
}

// readerFunc adapts a ReadFunc to io.Reader.
type readerFunc ReadFunc

func (f readerFunc) Read(p []byte) (int, error) { return f(p) }

// drain pushes everything from r through write in DefaultChunkSize pieces.
func drain(r io.Reader, write WriteFunc) (int64, error) {
	buf := make([]byte, DefaultChunkSize)
	var total int64
	for {
		n, rerr := r.Read(buf)
		if n > 0 {
			w, werr := write(buf[:n])
			total += int64(w)
			if werr != nil {
				return total, fmt.Errorf("write callback: %w", werr)
			}
			if w != n {
				return total, fmt.Errorf("write callback: %w", io.ErrShortWrite)
			}
		}
		if errors.Is(rerr, io.EOF) {
			return total, nil
		}
		if rerr != nil {
			return total, rerr
		}
	}
}

func discard(p []byte) (int, error) { return len(p), nil }
