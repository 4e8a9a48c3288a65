package source

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"trailstatus/internal/domain"

	"github.com/chromedp/chromedp"
	"github.com/gocolly/colly/v2"
)

// ContentFetcher retrieves a page's extracted text. Static pages go through
// a colly collector; hosts known to render their content client-side go
// through a headless browser instead. All failures surface as typed
// *domain.FetchError values.
type ContentFetcher struct {
	dynamicHosts []string
	useHeadless  bool
	logger       *log.Logger
}

func NewContentFetcher(dynamicHosts []string, useHeadless bool, logger *log.Logger) *ContentFetcher {
	hosts := make([]string, 0, len(dynamicHosts))
	for _, h := range dynamicHosts {
		h = strings.ToLower(strings.TrimSpace(h))
		if h != "" {
			hosts = append(hosts, h)
		}
	}
	return &ContentFetcher{dynamicHosts: hosts, useHeadless: useHeadless, logger: logger}
}

// IsDynamic reports whether the locator belongs to a known highly-dynamic
// host that needs headless rendering and the shorter fetch budget.
func (f *ContentFetcher) IsDynamic(rawURL string) bool {
	if f == nil {
		return false
	}
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return false
	}
	host := strings.ToLower(u.Hostname())
	for _, h := range f.dynamicHosts {
		if host == h || strings.HasSuffix(host, "."+h) {
			return true
		}
	}
	return false
}

// Fetch retrieves the page text within the timeout.
func (f *ContentFetcher) Fetch(ctx context.Context, rawURL string, timeout time.Duration) (string, error) {
	if f == nil {
		return "", domain.NewFetchError(domain.FailureUnavailable, rawURL, errors.New("nil fetcher"))
	}
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return "", domain.NewFetchError(domain.FailureNotFound, rawURL, errors.New("empty locator"))
	}
	if timeout <= 0 {
		timeout = 20 * time.Second
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if f.useHeadless && f.IsDynamic(rawURL) {
		return f.fetchHeadless(ctx, rawURL)
	}
	return f.fetchStatic(ctx, rawURL, timeout)
}

func (f *ContentFetcher) fetchStatic(ctx context.Context, rawURL string, timeout time.Duration) (string, error) {
	c := colly.NewCollector(
		colly.UserAgent(userAgent),
	)
	c.SetRequestTimeout(timeout)

	var text string
	var title string
	c.OnHTML("title", func(e *colly.HTMLElement) {
		title = strings.TrimSpace(e.Text)
	})
	c.OnHTML("body", func(e *colly.HTMLElement) {
		text = strings.TrimSpace(e.DOM.Text())
	})

	var reqErr error
	var status int
	c.OnError(func(r *colly.Response, err error) {
		reqErr = err
		if r != nil {
			status = r.StatusCode
		}
	})

	if ctx.Err() != nil {
		return "", classifyTransportErr(rawURL, ctx.Err())
	}
	if err := c.Visit(rawURL); err != nil {
		reqErr = err
	}
	c.Wait()

	if reqErr != nil {
		if status == http.StatusNotFound || status == http.StatusGone {
			return "", domain.NewFetchError(domain.FailureNotFound, rawURL, reqErr)
		}
		return "", classifyTransportErr(rawURL, reqErr)
	}

	if title != "" && text != "" {
		text = title + "\n" + text
	}
	if looksLikeNotFoundPage(text) {
		return "", domain.NewFetchError(domain.FailureNotFound, rawURL, errors.New("not-found page content"))
	}
	if strings.TrimSpace(text) == "" {
		return "", domain.NewFetchError(domain.FailureUnavailable, rawURL, errors.New("empty page body"))
	}
	return text, nil
}

func (f *ContentFetcher) fetchHeadless(ctx context.Context, rawURL string) (string, error) {
	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx,
		append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", true),
			chromedp.Flag("disable-gpu", true),
			chromedp.Flag("no-sandbox", true),
			chromedp.Flag("disable-dev-shm-usage", true),
			chromedp.UserAgent(userAgent),
		)...,
	)
	defer allocCancel()

	browserCtx, browserCancel := chromedp.NewContext(allocCtx)
	defer browserCancel()

	var text string
	err := chromedp.Run(browserCtx,
		chromedp.Navigate(rawURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Sleep(1500*time.Millisecond),
		chromedp.EvaluateAsDevTools(`document.body ? document.body.innerText : ""`, &text),
	)
	if err != nil {
		if f.logger != nil {
			f.logger.Printf("[ContentFetch] headless fetch failed url=%s err=%v", rawURL, err)
		}
		return "", classifyTransportErr(rawURL, err)
	}

	text = strings.TrimSpace(text)
	if looksLikeNotFoundPage(text) {
		return "", domain.NewFetchError(domain.FailureNotFound, rawURL, errors.New("not-found page content"))
	}
	if text == "" {
		return "", domain.NewFetchError(domain.FailureUnavailable, rawURL, errors.New("empty rendered body"))
	}
	return text, nil
}

var notFoundMarkers = []string{
	"page not found",
	"404",
	"could not be found",
	"no longer exists",
	"page you requested",
}

// A genuine not-found page is short and self-describing; long pages that
// merely mention an error elsewhere are still content.
func looksLikeNotFoundPage(text string) bool {
	if len(text) == 0 || len(text) >= 500 {
		return false
	}
	lower := strings.ToLower(text)
	for _, m := range notFoundMarkers {
		if strings.Contains(lower, m) {
			return true
		}
	}
	return false
}

func classifyTransportErr(rawURL string, err error) *domain.FetchError {
	if err == nil {
		return domain.NewFetchError(domain.FailureUnavailable, rawURL, fmt.Errorf("unknown fetch failure"))
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return domain.NewFetchError(domain.FailureTimeout, rawURL, err)
	}
	var nerr net.Error
	if errors.As(err, &nerr) && nerr.Timeout() {
		return domain.NewFetchError(domain.FailureTimeout, rawURL, err)
	}
	return domain.NewFetchError(domain.FailureUnavailable, rawURL, err)
}
