package fetcher

import (
	"bytes"
	"context"
	"log/slog"

	"github.com/dreat42/Ecom-Crawler/internal/model"
)

// Composite fetches over HTTP first and re-fetches through the renderer
// when the static HTML carries no links at all. Shops that render their
// whole navigation client-side serve an anchor-free shell to plain HTTP
// clients; the rendered DOM is the only way to see their link graph.
type Composite struct {
	fetcher  *HTTPFetcher
	renderer Renderer
	logger   *slog.Logger
}

// NewComposite builds a composite fetcher. A nil renderer degrades to
// plain HTTP fetching.
func NewComposite(httpFetcher *HTTPFetcher, renderer Renderer) *Composite {
	return &Composite{
		fetcher:  httpFetcher,
		renderer: renderer,
		logger:   slog.Default(),
	}
}

// Fetch implements crawler.Fetcher.
func (c *Composite) Fetch(ctx context.Context, pageURL string) (*model.Page, error) {
	page, err := c.fetcher.Fetch(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	if c.renderer == nil || !needsRender(page) {
		return page, nil
	}

	rendered, err := c.renderer.Render(ctx, pageURL)
	if err != nil {
		// The static page is still a valid result.
		c.logger.Warn("render failed, keeping static HTML",
			slog.String("url", pageURL),
			slog.String("error", err.Error()))
		return page, nil
	}
	return rendered, nil
}

// needsRender reports whether a fetched page looks like a client-side
// rendered shell: a successful HTML response without a single anchor.
func needsRender(page *model.Page) bool {
	if page.StatusCode < 200 || page.StatusCode > 299 || !page.IsHTML() {
		return false
	}
	return !bytes.Contains(bytes.ToLower(page.Raw), []byte("<a "))
}
