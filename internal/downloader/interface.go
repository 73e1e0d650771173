// Package downloader retrieves the raw bytes behind tracker download links.
// Each supported host is served by a Strategy chosen from the link.
package downloader

import (
	"context"
	"fmt"
)

// Strategy retrieves the bytes of a file identified on one host.
type Strategy interface {
	Fetch(ctx context.Context, id string) ([]byte, error)
}

// PageFetcher renders a page, running its scripts, and returns the HTML.
type PageFetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// Dispatcher routes links to the strategy of their host.
type Dispatcher struct {
	strategies map[Host]Strategy
}

// NewDispatcher wires the strategies for every supported host.
func NewDispatcher(client *Client, renderer PageFetcher, endpoints Endpoints) *Dispatcher {
	return &Dispatcher{
		strategies: map[Host]Strategy{
			Pillowcase:  &DirectStrategy{client: client, template: endpoints.Pillowcase},
			Pixeldrain:  &DirectStrategy{client: client, template: endpoints.Pixeldrain},
			Froste:      &DirectStrategy{client: client, template: endpoints.Froste},
			Imgur:       &RenderStrategy{client: client, renderer: renderer, template: endpoints.ImgurPage},
			Krakenfiles: &MetadataStrategy{client: client, template: endpoints.KrakenfilesJSON},
		},
	}
}

// GetStrategy returns the strategy for host.
func (d *Dispatcher) GetStrategy(host Host) (Strategy, error) {
	s, ok := d.strategies[host]
	if !ok {
		return nil, fmt.Errorf("no strategy available for host: %s", host)
	}
	return s, nil
}

// Fetch retrieves a file by host and identifier.
func (d *Dispatcher) Fetch(ctx context.Context, host Host, id string) ([]byte, error) {
	s, err := d.GetStrategy(host)
	if err != nil {
		return nil, err
	}
	return s.Fetch(ctx, id)
}

// Download routes a raw link and retrieves the file behind it.
func (d *Dispatcher) Download(ctx context.Context, rawURL string) ([]byte, error) {
	host, id, err := Route(rawURL)
	if err != nil {
		return nil, err
	}
	return d.Fetch(ctx, host, id)
}
