package fetch

import (
	"fmt"
	"time"
)

// Options selects and configures a fetcher.
type Options struct {
	Type        string
	ZyteAPIKey  string
	ZyteURL     string
	BrowserHTML bool
	ChromeURL   string
	ChromeBin   string
	UserAgent   string
	Timeout     time.Duration
}

// New returns the fetcher named by opts.Type.
func New(opts Options) (Fetcher, error) {
	switch opts.Type {
	case TypeZyte, "":
		return NewZyteFetcher(opts.ZyteAPIKey, opts.Timeout, WithEndpoint(opts.ZyteURL), WithBrowserHTML(opts.BrowserHTML)), nil
	case TypeRod:
		return NewRodFetcher(opts.ChromeURL, opts.ChromeBin, opts.Timeout), nil
	case TypeDirect:
		return NewDirectFetcher(opts.UserAgent, opts.Timeout), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, opts.Type)
	}
}

// NewRenderer returns a fetcher for pages whose content only exists after
// their scripts run. Zyte is asked for the browser DOM regardless of
// opts.BrowserHTML; the rod fetcher always renders. The direct fetcher
// cannot run scripts and is returned as configured.
func NewRenderer(opts Options) (Fetcher, error) {
	if opts.Type == TypeZyte || opts.Type == "" {
		opts.BrowserHTML = true
	}
	return New(opts)
}
