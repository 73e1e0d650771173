package downloader

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

const (
	// Long timeout for large lossless files
	defaultTimeout = 10 * time.Minute

	DefaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

// Client performs plain GET requests against file hosts.
type Client struct {
	http      *http.Client
	userAgent string
}

// NewClient creates a client. A zero timeout selects the default.
func NewClient(timeout time.Duration, userAgent string) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	return &Client{
		http:      &http.Client{Timeout: timeout},
		userAgent: userAgent,
	}
}

// Get returns the body of url. Non-2xx responses and empty bodies are
// reported as *FetchError.
func (c *Client) Get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &FetchError{URL: url, Err: fmt.Errorf("failed to create request: %w", err)}
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &FetchError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &FetchError{URL: url, StatusCode: resp.StatusCode, Err: fmt.Errorf("unexpected status")}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &FetchError{URL: url, Err: fmt.Errorf("failed to read body: %w", err)}
	}
	if len(body) == 0 {
		return nil, &FetchError{URL: url, StatusCode: resp.StatusCode, Err: ErrEmptyBody}
	}

	slog.Debug("fetched", "url", url, "size", len(body))
	return body, nil
}

// GetJSON decodes the JSON body of url into v.
func (c *Client) GetJSON(ctx context.Context, url string, v any) error {
	body, err := c.Get(ctx, url)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return &FetchError{URL: url, Err: fmt.Errorf("failed to decode json: %w", err)}
	}
	return nil
}

// validateAudio rejects bodies that are obviously error pages rather than
// media. Unknown signatures are let through for ffmpeg to judge.
func validateAudio(url string, data []byte) error {
	if len(data) < 4 {
		return &FetchError{URL: url, Err: fmt.Errorf("%w: %d bytes", ErrNotAudio, len(data))}
	}

	switch {
	case data[0] == 0xFF && data[1]&0xE0 == 0xE0: // MP3 frame
		return nil
	case bytes.HasPrefix(data, []byte("ID3")),
		bytes.HasPrefix(data, []byte("RIFF")),
		bytes.HasPrefix(data, []byte("fLaC")),
		bytes.HasPrefix(data, []byte("OggS")):
		return nil
	case len(data) >= 8 && string(data[4:8]) == "ftyp": // M4A/MP4
		return nil
	}

	head := strings.ToLower(string(data[:min(len(data), 100)]))
	if strings.Contains(head, "<html") || strings.Contains(head, "<!doctype") {
		return &FetchError{URL: url, Err: fmt.Errorf("%w: got html", ErrNotAudio)}
	}

	slog.Warn("could not verify audio format, proceeding anyway", "url", url, "header", fmt.Sprintf("%x", data[:min(len(data), 16)]))
	return nil
}
