package fetcher

import (
	"compress/flate"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/andybalholm/brotli"

	"github.com/dreat42/Ecom-Crawler/internal/model"
)

// HTTPFetcher fetches pages over plain HTTP.
// It decodes gzip, deflate, and brotli response bodies and enforces a
// body size cap. Safe for concurrent use.
//
// Design decision: We request compressed encodings explicitly and decode
// them ourselves instead of relying on the transport's transparent gzip,
// because setting Accept-Encoding manually disables that transparency
// and brotli is not handled by net/http at all.
type HTTPFetcher struct {
	client       *http.Client
	userAgent    string
	extraHeaders map[string]string
	cookie       string
	maxBodySize  int64
}

// Option configures an HTTPFetcher.
type Option func(*HTTPFetcher) error

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(f *HTTPFetcher) error {
		if d > 0 {
			f.client.Timeout = d
		}
		return nil
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(f *HTTPFetcher) error {
		f.userAgent = ua
		return nil
	}
}

// WithHeaders sets extra headers sent with every request.
func WithHeaders(headers map[string]string) Option {
	return func(f *HTTPFetcher) error {
		for k, v := range headers {
			f.extraHeaders[k] = v
		}
		return nil
	}
}

// WithCookie sets a Cookie header sent with every request.
// Format: "name=value" or "name1=value1; name2=value2".
func WithCookie(cookie string) Option {
	return func(f *HTTPFetcher) error {
		f.cookie = cookie
		return nil
	}
}

// WithMaxBodySize caps the decoded response body size in bytes.
func WithMaxBodySize(size int64) Option {
	return func(f *HTTPFetcher) error {
		if size > 0 {
			f.maxBodySize = size
		}
		return nil
	}
}

// WithProxyURL routes all requests through the given HTTP(S) proxy.
func WithProxyURL(proxyURL string) Option {
	return func(f *HTTPFetcher) error {
		proxyURL = strings.TrimSpace(proxyURL)
		if proxyURL == "" {
			return nil
		}
		u, err := url.Parse(proxyURL)
		if err != nil {
			return fmt.Errorf("parse proxy url: %w", err)
		}
		transport, ok := f.client.Transport.(*http.Transport)
		if !ok {
			return errors.New("client transport does not support a proxy")
		}
		transport.Proxy = http.ProxyURL(u)
		return nil
	}
}

// WithClient replaces the HTTP client entirely.
// Intended for tests and callers that need custom transports.
func WithClient(client *http.Client) Option {
	return func(f *HTTPFetcher) error {
		f.client = client
		return nil
	}
}

// NewHTTPFetcher creates an HTTP fetcher.
func NewHTTPFetcher(opts ...Option) (*HTTPFetcher, error) {
	transport := &http.Transport{
		DialContext:           (&net.Dialer{Timeout: 10 * time.Second, KeepAlive: 30 * time.Second}).DialContext,
		TLSHandshakeTimeout:   10 * time.Second,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}

	f := &HTTPFetcher{
		client: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
		},
		extraHeaders: make(map[string]string),
		maxBodySize:  model.MaxPageSize,
	}

	for _, opt := range opts {
		if err := opt(f); err != nil {
			return nil, err
		}
	}

	return f, nil
}

// Fetch downloads a single URL.
// A non-2xx response is returned as a page, not an error; an error means
// no usable response arrived.
func (f *HTTPFetcher) Fetch(ctx context.Context, pageURL string) (*model.Page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.8")
	req.Header.Set("Accept-Encoding", "gzip, deflate, br")
	if f.cookie != "" {
		req.Header.Set("Cookie", f.cookie)
	}
	for k, v := range f.extraHeaders {
		req.Header.Set(k, v)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http fetch failed: %w", err)
	}

	body, err := f.readBody(resp)
	if err != nil {
		return nil, err
	}

	contentType := resp.Header.Get("Content-Type")
	if mediaType, _, found := strings.Cut(contentType, ";"); found {
		contentType = strings.TrimSpace(mediaType)
	}

	page := &model.Page{
		URL:         pageURL,
		StatusCode:  resp.StatusCode,
		Headers:     resp.Header.Clone(),
		ContentType: contentType,
		Raw:         body,
		FetchedAt:   time.Now(),
	}
	page.ComputeHash()
	return page, nil
}

// readBody decodes and reads the response body up to the size cap.
func (f *HTTPFetcher) readBody(resp *http.Response) ([]byte, error) {
	if resp == nil || resp.Body == nil {
		return nil, errors.New("empty response body")
	}

	reader := io.Reader(resp.Body)
	closers := []io.Closer{resp.Body}

	encoding := strings.ToLower(strings.TrimSpace(resp.Header.Get("Content-Encoding")))
	switch encoding {
	case "gzip":
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			_ = resp.Body.Close()
			return nil, fmt.Errorf("gzip decode: %w", err)
		}
		reader = gz
		closers = append(closers, gz)
	case "br":
		reader = brotli.NewReader(resp.Body)
	case "deflate":
		fl := flate.NewReader(resp.Body)
		reader = fl
		closers = append(closers, fl)
	}

	defer func() {
		for i := len(closers) - 1; i >= 0; i-- {
			_ = closers[i].Close()
		}
	}()

	// Read one byte past the cap to tell "exactly at the limit" apart
	// from "truncated".
	limited := io.LimitReader(reader, f.maxBodySize+1)
	body, err := io.ReadAll(limited)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if int64(len(body)) > f.maxBodySize {
		body = body[:f.maxBodySize]
	}
	return body, nil
}

// Client exposes the underlying HTTP client for reuse (eg. robots.txt fetches).
func (f *HTTPFetcher) Client() *http.Client {
	if f == nil {
		return nil
	}
	return f.client
}
