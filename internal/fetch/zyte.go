package fetch

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

const DefaultZyteEndpoint = "https://api.zyte.com/v1/extract"

var ErrMissingBody = errors.New("extract response has no page body")

// ZyteFetcher fetches pages through the Zyte extract API.
type ZyteFetcher struct {
	apiKey      string
	endpoint    string
	browserHTML bool
	http        *http.Client
}

// ZyteOption configures a ZyteFetcher.
type ZyteOption func(*ZyteFetcher)

// WithEndpoint overrides the extract API URL.
func WithEndpoint(endpoint string) ZyteOption {
	return func(f *ZyteFetcher) {
		if endpoint != "" {
			f.endpoint = endpoint
		}
	}
}

// WithBrowserHTML asks the API for the browser-rendered DOM instead of the
// raw response body.
func WithBrowserHTML(enabled bool) ZyteOption {
	return func(f *ZyteFetcher) {
		f.browserHTML = enabled
	}
}

func NewZyteFetcher(apiKey string, timeout time.Duration, opts ...ZyteOption) *ZyteFetcher {
	f := &ZyteFetcher{
		apiKey:   apiKey,
		endpoint: DefaultZyteEndpoint,
		http:     &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

type extractRequest struct {
	URL              string `json:"url"`
	HTTPResponseBody bool   `json:"httpResponseBody,omitempty"`
	BrowserHTML      bool   `json:"browserHtml,omitempty"`
	FollowRedirect   bool   `json:"followRedirect"`
}

type extractResponse struct {
	HTTPResponseBody string `json:"httpResponseBody"`
	BrowserHTML      string `json:"browserHtml"`
}

func (f *ZyteFetcher) Fetch(ctx context.Context, url string) (string, error) {
	payload, err := json.Marshal(extractRequest{
		URL:              url,
		HTTPResponseBody: !f.browserHTML,
		BrowserHTML:      f.browserHTML,
		FollowRedirect:   true,
	})
	if err != nil {
		return "", &Error{URL: url, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", &Error{URL: url, Err: fmt.Errorf("failed to create request: %w", err)}
	}
	req.SetBasicAuth(f.apiKey, "")
	req.Header.Set("Content-Type", "application/json")

	slog.Debug("requesting page through zyte", "url", url, "browserHtml", f.browserHTML)

	resp, err := f.http.Do(req)
	if err != nil {
		return "", &Error{URL: url, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &Error{URL: url, Err: fmt.Errorf("failed to read response: %w", err)}
	}
	if resp.StatusCode != http.StatusOK {
		return "", &Error{URL: url, StatusCode: resp.StatusCode, Err: fmt.Errorf("extract failed: %s", truncate(body, 200))}
	}

	var out extractResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return "", &Error{URL: url, Err: fmt.Errorf("failed to decode response: %w", err)}
	}

	if f.browserHTML {
		if out.BrowserHTML == "" {
			return "", &Error{URL: url, Err: ErrMissingBody}
		}
		return out.BrowserHTML, nil
	}

	if out.HTTPResponseBody == "" {
		return "", &Error{URL: url, Err: ErrMissingBody}
	}
	page, err := base64.StdEncoding.DecodeString(out.HTTPResponseBody)
	if err != nil {
		return "", &Error{URL: url, Err: fmt.Errorf("failed to decode page body: %w", err)}
	}
	return string(page), nil
}

func truncate(b []byte, n int) string {
	if len(b) > n {
		return string(b[:n]) + "..."
	}
	return string(b)
}
