package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// RestyEngine adapts resty.Client to the Engine interface.
type RestyEngine struct {
	client *resty.Client

	url        string
	headers    map[string]string
	post       bool
	bodySize   int64
	read       ReadFunc
	write      WriteFunc
	statusCode int
}

type RestyEngineOption func(*RestyEngine)

// NewRestyEngine creates a RestyEngine with connection reuse disabled.
func NewRestyEngine(opts ...RestyEngineOption) *RestyEngine {
	c := resty.New()
	c.SetCloseConnection(true)
	c.SetRedirectPolicy(resty.FlexibleRedirectPolicy(DefaultMaxRedirects))
	c.SetLogger(zap.NewNop().Sugar())

	e := &RestyEngine{
		client:  c,
		headers: make(map[string]string),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// WithRestyLogger routes resty's internal warnings through zap.
func WithRestyLogger(logger *zap.Logger) RestyEngineOption {
	return func(e *RestyEngine) {
		e.client.SetLogger(logger.Sugar())
	}
}

// WithRestyRedirects sets the redirect policy. As with NetEngine, max <= 0
// means no redirect is followed.
func WithRestyRedirects(follow bool, max int) RestyEngineOption {
	return func(e *RestyEngine) {
		switch {
		case !follow || max <= 0:
			e.client.SetRedirectPolicy(resty.RedirectPolicyFunc(func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			}))
		default:
			e.client.SetRedirectPolicy(resty.FlexibleRedirectPolicy(max))
		}
	}
}

// WithRestyClient replaces the underlying resty client.
func WithRestyClient(c *resty.Client) RestyEngineOption {
	return func(e *RestyEngine) {
		e.client = c
	}
}

func (e *RestyEngine) SetURL(rawURL string) error {
	if err := ValidateURL(rawURL); err != nil {
		return err
	}
	e.url = rawURL
	return nil
}

func (e *RestyEngine) SetHeaders(lines []string) error {
	headers, err := parseHeaderLines(lines)
	if err != nil {
		return err
	}
	e.headers = headers
	return nil
}

func (e *RestyEngine) SetPost(enable bool) { e.post = enable }

func (e *RestyEngine) SetBody(size int64, read ReadFunc) {
	e.bodySize = size
	e.read = read
}

func (e *RestyEngine) SetWriteFunc(write WriteFunc) { e.write = write }

func (e *RestyEngine) StatusCode() int { return e.statusCode }

func (e *RestyEngine) Perform(ctx context.Context) error {
	e.statusCode = 0
	if e.url == "" {
		return errors.New("no URL set")
	}

	req := e.client.R().
		SetContext(ctx).
		SetDoNotParseResponse(true)

	if len(e.headers) > 0 {
		req.SetHeaders(e.headers)
	}

	method := http.MethodGet
	if e.post {
		method = http.MethodPost
		if e.read != nil && e.bodySize != 0 {
			// Content-Length makes resty pull the whole body through the
			// read callback before the request is sent.
			req.SetBody(readerFunc(e.read)).SetContentLength(true)
		}
	}

	resp, err := req.Execute(method, e.url)
	if err != nil {
		return err
	}
	raw := resp.RawBody()
	if raw == nil {
		e.statusCode = resp.StatusCode()
		return nil
	}
	defer raw.Close()

	e.statusCode = resp.StatusCode()

	write := e.write
	if write == nil {
		write = discard
	}
	_, err = drain(raw, write)
	return err
}
