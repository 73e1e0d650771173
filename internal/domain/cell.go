package domain

import "strings"

// CellKind identifies the shape of a tracker cell.
type CellKind int

const (
	CellText CellKind = iota
	CellTextWithLinks
	CellImage
)

func (k CellKind) String() string {
	switch k {
	case CellText:
		return "text"
	case CellTextWithLinks:
		return "text_with_links"
	case CellImage:
		return "image"
	default:
		return "unknown"
	}
}

// Cell is a single classified tracker cell.
type Cell struct {
	Kind    CellKind `json:"kind"`
	Header  string   `json:"header"`
	Content string   `json:"content,omitempty"`
	Links   Links    `json:"links,omitempty"`
	URL     string   `json:"url,omitempty"`
}

// IsText reports whether the cell carries text, with or without links.
func (c Cell) IsText() bool {
	return c.Kind == CellText || c.Kind == CellTextWithLinks
}

// Lines returns the newline separated lines of the cell content.
func (c Cell) Lines() []string {
	if c.Content == "" {
		return nil
	}
	return strings.Split(c.Content, "\n")
}

// Link pairs the display text of an anchor with its target URL.
type Link struct {
	Label string `json:"label"`
	URL   string `json:"url"`
}

// Links is an insertion ordered set of links keyed by label.
type Links []Link

// Add appends a link unless the label is already present.
func (l *Links) Add(label, url string) bool {
	if _, ok := l.Get(label); ok {
		return false
	}
	*l = append(*l, Link{Label: label, URL: url})
	return true
}

// Get returns the URL stored for label.
func (l Links) Get(label string) (string, bool) {
	for _, link := range l {
		if link.Label == label {
			return link.URL, true
		}
	}
	return "", false
}

// First returns the first link in insertion order.
func (l Links) First() (Link, bool) {
	if len(l) == 0 {
		return Link{}, false
	}
	return l[0], true
}
