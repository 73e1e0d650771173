// Package fetch retrieves tracker and host pages, optionally through a
// script-executing renderer.
package fetch

import (
	"context"
	"errors"
	"fmt"
)

const (
	TypeZyte   = "zyte"
	TypeRod    = "rod"
	TypeDirect = "direct"
)

var ErrUnknownType = errors.New("unknown fetcher type")

// Fetcher returns the HTML of a page.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// Error reports a failed page fetch.
type Error struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch page %s: status %d: %v", e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("fetch page %s: %v", e.URL, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}
