package connectors

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/chromedp/chromedp"

	"github.com/venuz/ingest/internal/config"
	"github.com/venuz/ingest/internal/keywords"
	"github.com/venuz/ingest/internal/logger"
	"github.com/venuz/ingest/internal/models"
)

const browserPageTimeout = 45 * time.Second

// BrowserScraper renders a JS-heavy listing page in headless Chrome and then
// runs the same selector cascade as the plain HTML scraper over the rendered
// DOM. Used for sources whose markup is empty without JavaScript.
type BrowserScraper struct {
	inner *HTMLScraper

	// render is swappable in tests so no Chrome binary is required.
	render func(ctx context.Context, url string) ([]byte, error)
}

func NewBrowserScraper(source config.HTMLSource, loader *keywords.Loader, log logger.Logger) *BrowserScraper {
	b := &BrowserScraper{inner: NewHTMLScraper(source, loader, log)}
	b.render = renderPage
	b.inner.fetch = func(ctx context.Context, url string) ([]byte, error) {
		return b.render(ctx, url)
	}
	return b
}

func (b *BrowserScraper) Name() string { return "browser:" + b.inner.source.Name }

func (b *BrowserScraper) EventSource() bool { return b.inner.EventSource() }

func (b *BrowserScraper) Fetch(ctx context.Context) ([]*models.Content, error) {
	return b.inner.Fetch(ctx)
}

func renderPage(ctx context.Context, url string) ([]byte, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.UserAgent(htmlScraperUA),
	)
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	taskCtx, cancelTask := chromedp.NewContext(allocCtx)
	defer cancelTask()

	taskCtx, cancelTimeout := context.WithTimeout(taskCtx, browserPageTimeout)
	defer cancelTimeout()

	var html string
	err := chromedp.Run(taskCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body"),
		chromedp.OuterHTML("html", &html),
	)
	if err != nil {
		return nil, fmt.Errorf("rendering %s: %w", url, err)
	}

	// round-trip through goquery to make sure the DOM is parseable
	if _, err := goquery.NewDocumentFromReader(bytes.NewReader([]byte(html))); err != nil {
		return nil, fmt.Errorf("parsing rendered page %s: %w", url, err)
	}
	return []byte(html), nil
}
