package http

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
)

const (
	// DefaultMaxRedirects is the maximum number of redirects to follow
	DefaultMaxRedirects = 10
)

// NetEngine is the default Engine, backed by net/http. Each engine owns its
// own client with keep-alives disabled, so no connection outlives a transfer.
type NetEngine struct {
	httpClient     *http.Client
	followRedirect bool
	maxRedirects   int

	url        string
	headers    map[string]string
	post       bool
	bodySize   int64
	read       ReadFunc
	write      WriteFunc
	statusCode int
}

type NetEngineOption func(*NetEngine)

func NewNetEngine(opts ...NetEngineOption) *NetEngine {
	e := &NetEngine{
		followRedirect: true,
		maxRedirects:   DefaultMaxRedirects,
		headers:        make(map[string]string),
	}

	for _, opt := range opts {
		opt(e)
	}

	transport := &http.Transport{
		Proxy:             http.ProxyFromEnvironment,
		DisableKeepAlives: true,
	}

	redirectPolicy := func(req *http.Request, via []*http.Request) error {
		if !e.followRedirect {
			return http.ErrUseLastResponse
		}
		if len(via) >= e.maxRedirects {
			return http.ErrUseLastResponse
		}
		return nil
	}

	e.httpClient = &http.Client{
		Transport:     transport,
		CheckRedirect: redirectPolicy,
	}

	return e
}

func WithFollowRedirects(follow bool) NetEngineOption {
	return func(e *NetEngine) {
		e.followRedirect = follow
	}
}

// WithMaxRedirects caps how many redirects are followed; 0 follows none.
func WithMaxRedirects(max int) NetEngineOption {
	return func(e *NetEngine) {
		e.maxRedirects = max
	}
}

func (e *NetEngine) SetURL(rawURL string) error {
	if err := ValidateURL(rawURL); err != nil {
		return err
	}
	e.url = rawURL
	return nil
}

func (e *NetEngine) SetHeaders(lines []string) error {
	headers, err := parseHeaderLines(lines)
	if err != nil {
		return err
	}
	e.headers = headers
	return nil
}

func (e *NetEngine) SetPost(enable bool) { e.post = enable }

func (e *NetEngine) SetBody(size int64, read ReadFunc) {
	e.bodySize = size
	e.read = read
}

func (e *NetEngine) SetWriteFunc(write WriteFunc) { e.write = write }

func (e *NetEngine) StatusCode() int { return e.statusCode }

func (e *NetEngine) Perform(ctx context.Context) error {
	e.statusCode = 0
	if e.url == "" {
		return errors.New("no URL set")
	}

	method := http.MethodGet
	var body io.Reader
	if e.post {
		method = http.MethodPost
		if e.read != nil && e.bodySize != 0 {
			body = readerFunc(e.read)
		}
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, e.url, body)
	if err != nil {
		return err
	}
	if body != nil {
		httpReq.ContentLength = e.bodySize
	}

	for k, v := range e.headers {
		if strings.EqualFold(k, "Host") {
			httpReq.Host = v
			continue
		}
		httpReq.Header.Set(k, v)
	}

	httpResp, err := e.httpClient.Do(httpReq)
	if err != nil {
		return err
	}
	defer httpResp.Body.Close()

	e.statusCode = httpResp.StatusCode

	write := e.write
	if write == nil {
		write = discard
	}
	_, err = drain(httpResp.Body, write)
	return err
}
