package fetch

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// RodFetcher renders pages in a local headless Chrome.
type RodFetcher struct {
	controlURL string
	bin        string
	timeout    time.Duration

	mu      sync.Mutex
	browser *rod.Browser
}

// NewRodFetcher creates a fetcher. With an empty controlURL a browser is
// launched on first use, from bin when set.
func NewRodFetcher(controlURL, bin string, timeout time.Duration) *RodFetcher {
	return &RodFetcher{controlURL: controlURL, bin: bin, timeout: timeout}
}

func (f *RodFetcher) connect() (*rod.Browser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.browser != nil {
		return f.browser, nil
	}

	controlURL := f.controlURL
	if controlURL == "" {
		l := launcher.New().Headless(true)
		if f.bin != "" {
			l = l.Bin(f.bin)
		}
		u, err := l.Launch()
		if err != nil {
			return nil, fmt.Errorf("launch chrome: %w", err)
		}
		controlURL = u
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("connect to chrome: %w", err)
	}

	slog.Debug("connected to chrome", "controlURL", controlURL)
	f.browser = browser
	return browser, nil
}

func (f *RodFetcher) Fetch(ctx context.Context, url string) (string, error) {
	browser, err := f.connect()
	if err != nil {
		return "", &Error{URL: url, Err: err}
	}

	page, err := browser.Context(ctx).Page(proto.TargetCreateTarget{URL: url})
	if err != nil {
		return "", &Error{URL: url, Err: fmt.Errorf("create page: %w", err)}
	}
	defer page.Close()

	if f.timeout > 0 {
		page = page.Timeout(f.timeout)
	}
	if err := page.WaitLoad(); err != nil {
		return "", &Error{URL: url, Err: fmt.Errorf("wait load: %w", err)}
	}

	html, err := page.HTML()
	if err != nil {
		return "", &Error{URL: url, Err: fmt.Errorf("read html: %w", err)}
	}
	return html, nil
}

// Close shuts the browser down if one was started.
func (f *RodFetcher) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.browser == nil {
		return nil
	}
	err := f.browser.Close()
	f.browser = nil
	return err
}
