package downloader

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// DirectStrategy downloads from a fixed direct-file URL template.
type DirectStrategy struct {
	client   *Client
	template string
}

func (s *DirectStrategy) Fetch(ctx context.Context, id string) ([]byte, error) {
	target := fmt.Sprintf(s.template, id)
	data, err := s.client.Get(ctx, target)
	if err != nil {
		return nil, err
	}
	if err := validateAudio(target, data); err != nil {
		return nil, err
	}
	return data, nil
}

// RenderStrategy renders the file page and downloads the source of its first
// audio element. The source is only present after the page scripts run.
type RenderStrategy struct {
	client   *Client
	renderer PageFetcher
	template string
}

func (s *RenderStrategy) Fetch(ctx context.Context, id string) ([]byte, error) {
	pageURL := fmt.Sprintf(s.template, id)

	page, err := s.renderer.Fetch(ctx, pageURL)
	if err != nil {
		return nil, &FetchError{URL: pageURL, Err: err}
	}

	src, err := audioSource(page)
	if err != nil {
		return nil, &FetchError{URL: pageURL, Err: err}
	}
	src = resolveReference(pageURL, src)

	data, err := s.client.Get(ctx, src)
	if err != nil {
		return nil, err
	}
	if err := validateAudio(src, data); err != nil {
		return nil, err
	}
	return data, nil
}

func audioSource(page string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		return "", fmt.Errorf("failed to parse page: %w", err)
	}

	var src string
	doc.Find("audio[src]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		src = strings.TrimSpace(s.AttrOr("src", ""))
		return src == ""
	})
	if src == "" {
		return "", ErrNoAudioElement
	}
	return src, nil
}

func resolveReference(base, ref string) string {
	b, err := url.Parse(base)
	if err != nil {
		return ref
	}
	r, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return b.ResolveReference(r).String()
}

// MetadataStrategy reads a JSON descriptor of the file and downloads the
// media URL composed from it.
type MetadataStrategy struct {
	client   *Client
	template string
}

type fileDescriptor struct {
	UploadDate string `json:"uploadDate"`
	ServerURL  string `json:"serverUrl"`
	Type       string `json:"type"`
}

func (s *MetadataStrategy) Fetch(ctx context.Context, id string) ([]byte, error) {
	descURL := fmt.Sprintf(s.template, id)

	var desc fileDescriptor
	if err := s.client.GetJSON(ctx, descURL, &desc); err != nil {
		return nil, err
	}
	if desc.UploadDate == "" || desc.ServerURL == "" || desc.Type == "" {
		return nil, &FetchError{URL: descURL, Err: ErrIncompleteFileRef}
	}

	target := fmt.Sprintf("%s/uploads/%s/%s/%s.m4a", strings.TrimRight(desc.ServerURL, "/"), desc.UploadDate, id, desc.Type)
	data, err := s.client.Get(ctx, target)
	if err != nil {
		return nil, err
	}
	if err := validateAudio(target, data); err != nil {
		return nil, err
	}
	return data, nil
}
