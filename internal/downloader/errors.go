package downloader

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyBody         = errors.New("empty response body")
	ErrNotAudio          = errors.New("response is not an audio file")
	ErrNoAudioElement    = errors.New("no audio element with a source")
	ErrIncompleteFileRef = errors.New("incomplete file metadata")
)

// UnsupportedHostError is returned for links that match no known host.
type UnsupportedHostError struct {
	URL string
}

func (e *UnsupportedHostError) Error() string {
	return fmt.Sprintf("unsupported download host: %s", e.URL)
}

// FetchError wraps a failed request against a file host.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: status %d: %v", e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}
