package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/xeipuuv/gojsonschema"
	"go.uber.org/zap"
	"golang.org/x/net/http/httpguts"
)

const (
	// DefaultTimeout is the default limit for one Post call
	DefaultTimeout = 30 * time.Second
	// RequestIDHeader is set when WithRequestID is used
	RequestIDHeader = "X-Request-ID"
)

// Builder configures and executes a single POST. Configuration methods
// return the builder for chaining; the first failure is kept and returned
// by Post (see Err). A Builder is single-use and not safe for concurrent use.
type Builder struct {
	engine    Engine
	url       string
	headers   map[string]string
	body      []byte
	mode      Mode
	stream    io.Writer
	timeout   time.Duration
	parseJSON bool
	schema    []byte
	logger    *zap.Logger

	headersDirty bool
	executed     bool
	err          error
}

type Option func(*Builder)

func New(opts ...Option) *Builder {
	b := &Builder{
		headers:   make(map[string]string),
		timeout:   DefaultTimeout,
		parseJSON: true,
		logger:    zap.NewNop(),
	}

	for _, opt := range opts {
		opt(b)
	}

	if b.engine == nil {
		b.engine = NewNetEngine()
	}

	return b
}

// WithEngine sets the transfer engine. The builder takes ownership of it.
func WithEngine(e Engine) Option {
	return func(b *Builder) {
		b.engine = e
	}
}

// WithTimeout bounds the whole transfer. Zero disables the limit.
func WithTimeout(d time.Duration) Option {
	return func(b *Builder) {
		b.timeout = d
	}
}

func WithMode(m Mode) Option {
	return func(b *Builder) {
		b.mode = m
	}
}

// WithStreamSink switches to stream mode, forwarding response bytes to w.
func WithStreamSink(w io.Writer) Option {
	return func(b *Builder) {
		b.mode = ModeStream
		b.stream = w
	}
}

// WithJSONParse toggles parsing of the buffered response.
func WithJSONParse(parse bool) Option {
	return func(b *Builder) {
		b.parseJSON = parse
	}
}

// WithSchema validates the parsed response against a JSON schema document.
func WithSchema(schema []byte) Option {
	return func(b *Builder) {
		b.schema = schema
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(b *Builder) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// WithRequestID adds a random X-Request-ID header.
func WithRequestID() Option {
	return func(b *Builder) {
		b.AddHeader(RequestIDHeader, uuid.NewString())
	}
}

// Err returns the first configuration error, if any.
func (b *Builder) Err() error {
	return b.err
}

// Headers returns a copy of the accumulated headers.
func (b *Builder) Headers() map[string]string {
	out := make(map[string]string, len(b.headers))
	for k, v := range b.headers {
		out[k] = v
	}
	return out
}

// Body returns the bytes that Post will send.
func (b *Builder) Body() []byte {
	return b.body
}

func (b *Builder) fail(err error) *Builder {
	if b.err == nil {
		b.err = err
	}
	return b
}

// Bind sets the target URL.
func (b *Builder) Bind(url string) *Builder {
	if b.err != nil {
		return b
	}
	if err := b.engine.SetURL(url); err != nil {
		return b.fail(&ConfigError{Op: "bind", Err: err})
	}
	b.url = url
	b.logger.Debug("bound url", zap.String("url", url))
	return b
}

// AddHeader inserts or overwrites a header. Names are case-insensitive: a
// later write replaces any earlier spelling of the same name.
func (b *Builder) AddHeader(key, value string) *Builder {
	for k := range b.headers {
		if k != key && strings.EqualFold(k, key) {
			delete(b.headers, k)
		}
	}
	b.headers[key] = value
	b.headersDirty = true
	return b
}

// MaterializeHeaders hands the accumulated headers to the engine.
func (b *Builder) MaterializeHeaders() *Builder {
	if b.err != nil {
		return b
	}

	keys := make([]string, 0, len(b.headers))
	for k := range b.headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	lines := make([]string, 0, len(keys))
	for _, k := range keys {
		v := b.headers[k]
		// Checked before formatting: once joined, a ':' in the name would
		// silently move into the value.
		if !httpguts.ValidHeaderFieldName(k) {
			return b.fail(&ConfigError{Op: "header", Err: fmt.Errorf("invalid header name %q", k)})
		}
		if !httpguts.ValidHeaderFieldValue(v) {
			return b.fail(&ConfigError{Op: "header", Err: fmt.Errorf("invalid value for header %q", k)})
		}
		lines = append(lines, FormatHeaderLine(k, v))
	}

	if err := b.engine.SetHeaders(lines); err != nil {
		return b.fail(&ConfigError{Op: "header", Err: err})
	}
	b.headersDirty = false
	return b
}

// SetJSONBody serializes v as the request body. A Content-Type of
// application/json is added unless one is already set.
func (b *Builder) SetJSONBody(v any) *Builder {
	if b.err != nil {
		return b
	}
	data, err := json.Marshal(v)
	if err != nil {
		return b.fail(&SerializationError{Err: err})
	}
	b.body = data
	if !b.hasHeader("Content-Type") {
		b.AddHeader("Content-Type", "application/json")
	}
	return b
}

// SetRawBody uses body as-is.
func (b *Builder) SetRawBody(body []byte) *Builder {
	if b.err != nil {
		return b
	}
	b.body = body
	return b
}

func (b *Builder) hasHeader(key string) bool {
	for k := range b.headers {
		if strings.EqualFold(k, key) {
			return true
		}
	}
	return false
}

// Post performs the request. It may only be called once.
func (b *Builder) Post(ctx context.Context) (*Response, error) {
	if b.executed {
		return nil, ErrAlreadyExecuted
	}
	b.executed = true

	if b.err != nil {
		return nil, b.err
	}
	if b.url == "" {
		return nil, &ConfigError{Op: "post", Err: errors.New("no URL bound")}
	}
	if b.headersDirty {
		b.MaterializeHeaders()
		if b.err != nil {
			return nil, b.err
		}
	}

	var schema *gojsonschema.Schema
	if len(b.schema) > 0 {
		s, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(b.schema))
		if err != nil {
			return nil, &ConfigError{Op: "schema", Err: err}
		}
		schema = s
	}

	if b.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.timeout)
		defer cancel()
	}

	body := &countingReader{r: bytes.NewReader(b.body)}
	out := newSink(b.mode, b.stream)

	b.engine.SetPost(true)
	b.engine.SetBody(int64(len(b.body)), body.Read)
	b.engine.SetWriteFunc(out.Write)

	b.logger.Debug("posting",
		zap.String("url", b.url),
		zap.Int("body_bytes", len(b.body)),
		zap.Stringer("mode", b.mode),
	)

	start := time.Now()
	err := b.engine.Perform(ctx)
	duration := time.Since(start)

	if err != nil {
		b.logger.Warn("post failed", zap.String("url", b.url), zap.Error(err))
		if isTimeout(ctx, err) {
			return nil, &TimeoutError{URL: b.url, Timeout: b.timeout, Err: err}
		}
		return nil, &TransferError{URL: b.url, Err: err}
	}

	resp := &Response{
		StatusCode:    b.engine.StatusCode(),
		Body:          out.bytes(),
		Mode:          b.mode,
		BytesSent:     body.read,
		BytesReceived: out.received,
		Duration:      duration,
	}

	b.logger.Debug("post finished",
		zap.String("url", b.url),
		zap.Int("status", resp.StatusCode),
		zap.Int64("bytes_received", resp.BytesReceived),
		zap.Duration("duration", duration),
	)

	if !isSuccess(resp.StatusCode) {
		return nil, &HTTPStatusError{StatusCode: resp.StatusCode, Body: resp.Body}
	}

	if b.mode == ModeStream {
		return resp, nil
	}

	resp.Text = DecodeText(resp.Body)
	if !b.parseJSON {
		return resp, nil
	}

	if err := json.Unmarshal([]byte(resp.Text), &resp.JSON); err != nil {
		return nil, &ResponseParseError{Raw: resp.Body, Err: err}
	}

	if schema != nil {
		result, err := schema.Validate(gojsonschema.NewGoLoader(resp.JSON))
		if err != nil {
			return nil, &ResponseParseError{Raw: resp.Body, Err: err}
		}
		if !result.Valid() {
			violations := make([]string, 0, len(result.Errors()))
			for _, desc := range result.Errors() {
				violations = append(violations, desc.String())
			}
			return nil, &SchemaError{Violations: violations}
		}
	}

	return resp, nil
}

func isTimeout(ctx context.Context, err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
