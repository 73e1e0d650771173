package fetch

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gocolly/colly"
)

// DirectFetcher downloads pages as served, without running scripts. It is
// enough for trackers exported as static HTML.
type DirectFetcher struct {
	userAgent string
	timeout   time.Duration
}

func NewDirectFetcher(userAgent string, timeout time.Duration) *DirectFetcher {
	return &DirectFetcher{userAgent: userAgent, timeout: timeout}
}

func (f *DirectFetcher) Fetch(ctx context.Context, url string) (string, error) {
	options := []func(*colly.Collector){
		colly.AllowURLRevisit(),
		colly.MaxDepth(1),
	}
	if f.userAgent != "" {
		options = append(options, colly.UserAgent(f.userAgent))
	}

	c := colly.NewCollector(options...)
	c.MaxBodySize = 0
	c.SetRequestTimeout(f.timeout)
	c.WithTransport(&contextTransport{ctx: ctx, base: http.DefaultTransport})

	c.OnRequest(func(r *colly.Request) {
		r.Headers.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
		r.Headers.Set("Accept-Language", "en-US,en;q=0.5")
	})

	var (
		page     string
		fetchErr error
	)
	c.OnResponse(func(r *colly.Response) {
		page = string(r.Body)
	})
	c.OnError(func(r *colly.Response, err error) {
		status := 0
		if r != nil {
			status = r.StatusCode
		}
		fetchErr = &Error{URL: url, StatusCode: status, Err: err}
	})

	slog.Debug("fetching page", "url", url)

	if err := c.Visit(url); err != nil && fetchErr == nil {
		fetchErr = &Error{URL: url, Err: err}
	}
	if fetchErr != nil {
		return "", fetchErr
	}
	if page == "" {
		return "", &Error{URL: url, Err: fmt.Errorf("empty page")}
	}
	return page, nil
}

// contextTransport binds every request of a collector to ctx.
type contextTransport struct {
	ctx  context.Context
	base http.RoundTripper
}

func (t *contextTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	return t.base.RoundTrip(r.WithContext(t.ctx))
}
