package fetcher

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/dreat42/Ecom-Crawler/internal/model"
)

// Renderer executes JavaScript and returns the rendered DOM.
type Renderer interface {
	Render(ctx context.Context, pageURL string) (*model.Page, error)
}

// RenderOptions configures the headless Chrome renderer.
type RenderOptions struct {
	// Timeout bounds a single render including browser startup.
	// Defaults to 60 seconds.
	Timeout time.Duration

	// UserAgent overrides the browser's User-Agent.
	UserAgent string

	// MaxBodySize caps the exported HTML size in bytes.
	MaxBodySize int64

	// ConcurrentSessions bounds how many Chrome sessions run at once.
	// Defaults to 1; each session is a full browser process.
	ConcurrentSessions int

	// CaptureDelay is how long to wait after navigation before
	// exporting the DOM, giving client-side rendering time to finish.
	CaptureDelay time.Duration
}

// ChromedpRenderer renders pages in headless Chrome via chromedp.
//
// Design decision: Sessions are bounded by a semaphore rather than a
// shared browser context because a crashed tab in a shared context takes
// down every in-flight render with it.
type ChromedpRenderer struct {
	opts      RenderOptions
	semaphore chan struct{}
	logger    *slog.Logger
}

// NewChromedpRenderer constructs a renderer with bounded concurrency.
func NewChromedpRenderer(opts RenderOptions) *ChromedpRenderer {
	if opts.Timeout <= 0 {
		opts.Timeout = 60 * time.Second
	}
	if opts.MaxBodySize <= 0 {
		opts.MaxBodySize = model.MaxPageSize
	}
	if opts.ConcurrentSessions <= 0 {
		opts.ConcurrentSessions = 1
	}
	if opts.CaptureDelay <= 0 {
		opts.CaptureDelay = 1500 * time.Millisecond
	}
	return &ChromedpRenderer{
		opts:      opts,
		semaphore: make(chan struct{}, opts.ConcurrentSessions),
		logger:    slog.Default(),
	}
}

// Render navigates to the URL and exports the final DOM outer HTML.
func (r *ChromedpRenderer) Render(parentCtx context.Context, pageURL string) (*model.Page, error) {
	select {
	case r.semaphore <- struct{}{}:
		defer func() { <-r.semaphore }()
	case <-parentCtx.Done():
		return nil, parentCtx.Err()
	}

	ctx, cancel := context.WithTimeout(parentCtx, r.opts.Timeout)
	defer cancel()

	execOpts := []chromedp.ExecAllocatorOption{
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("no-sandbox", true),
	}
	if ua := strings.TrimSpace(r.opts.UserAgent); ua != "" {
		execOpts = append(execOpts, chromedp.UserAgent(ua))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, execOpts...)
	defer allocCancel()

	chromeCtx, chromeCancel := chromedp.NewContext(allocCtx)
	defer chromeCancel()

	var html string
	start := time.Now()
	err := chromedp.Run(chromeCtx,
		chromedp.Navigate(pageURL),
		chromedp.Sleep(r.opts.CaptureDelay),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		return nil, fmt.Errorf("chromedp run: %w", err)
	}

	if int64(len(html)) > r.opts.MaxBodySize {
		html = html[:r.opts.MaxBodySize]
	}

	r.logger.Debug("render complete",
		slog.String("url", pageURL),
		slog.Int64("latency_ms", time.Since(start).Milliseconds()),
		slog.Int("html_bytes", len(html)))

	page := &model.Page{
		URL:         pageURL,
		StatusCode:  200,
		ContentType: "text/html",
		Raw:         []byte(html),
		Rendered:    true,
		FetchedAt:   time.Now(),
	}
	page.ComputeHash()
	return page, nil
}
