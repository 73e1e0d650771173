// Package tracker turns an exported tracker spreadsheet into ordered Era and
// Song records.
package tracker

import (
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/jaki95/unreleased-downloader/internal/domain"
)

const unknownTitle = "Unknown"

// Document wraps a parsed tracker page.
type Document struct {
	doc *goquery.Document
}

// NewDocument parses the tracker HTML read from r.
func NewDocument(r io.Reader) (*Document, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse tracker html: %w", err)
	}
	return &Document{doc: doc}, nil
}

// ParseHTML is a convenience wrapper around NewDocument for in-memory pages.
func ParseHTML(page string) (*Document, error) {
	return NewDocument(strings.NewReader(page))
}

// Title returns the page title, or "Unknown" when the page has none.
func (d *Document) Title() string {
	title := strings.TrimSpace(d.doc.Find("title").First().Text())
	if title == "" {
		return unknownTitle
	}
	return title
}

// TrackerName returns the tracker name derived from the page title.
func (d *Document) TrackerName() string {
	return domain.ExtractTrackerName(d.Title())
}

// Rows returns the table rows that carry an inline height style. Rows without
// it belong to the frozen header bar and are dropped.
func (d *Document) Rows() []*goquery.Selection {
	var rows []*goquery.Selection
	d.doc.Find("table > tbody > tr").Each(func(_ int, s *goquery.Selection) {
		if style, ok := s.Attr("style"); ok && strings.Contains(style, "height:") {
			rows = append(rows, s)
		}
	})
	return rows
}

// Records parses every row of the document.
func (d *Document) Records() ([]domain.Record, []error) {
	return ParseRows(d.Rows(), d.TrackerName())
}
