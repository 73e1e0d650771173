package tracker

import (
	"html"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"

	"github.com/jaki95/unreleased-downloader/internal/domain"
)

var (
	lineBreaks = strings.NewReplacer("<br>", "\n", "<br/>", "\n", "<br />", "\n")

	// textPolicy strips all markup and leaves escaped text behind.
	textPolicy = bluemonday.StrictPolicy()

	redirectParams = []string{"q", "url", "imgurl"}
)

// ClassifyCell turns a table cell into an Image, TextWithLinks or Text cell.
// Anchors without an absolute target are kept as text only.
func ClassifyCell(sel *goquery.Selection, header string) domain.Cell {
	if src := strings.TrimSpace(sel.Find("img").First().AttrOr("src", "")); src != "" {
		return domain.Cell{Kind: domain.CellImage, Header: header, URL: src}
	}

	cell := domain.Cell{Kind: domain.CellText, Header: header, Content: CellText(sel)}

	sel.Find("a").Each(func(_ int, a *goquery.Selection) {
		label := strings.TrimSpace(a.Text())
		if label == "" {
			return
		}
		target := CleanGoogleRedirect(a.AttrOr("href", ""))
		if !isAbsolute(target) {
			return
		}
		cell.Links.Add(label, target)
	})
	if len(cell.Links) > 0 {
		cell.Kind = domain.CellTextWithLinks
	}

	return cell
}

// CellText returns the visible text of a cell as trimmed, non-empty lines
// joined by newlines. Line break tags become line boundaries.
func CellText(sel *goquery.Selection) string {
	inner, err := sel.Html()
	if err != nil {
		inner = html.EscapeString(sel.Text())
	}

	text := html.UnescapeString(textPolicy.Sanitize(lineBreaks.Replace(inner)))

	var lines []string
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}

func isAbsolute(href string) bool {
	u, err := url.Parse(href)
	return err == nil && u.IsAbs() && u.Host != ""
}

// CleanGoogleRedirect unwraps "https://www.google.com/url?q=<target>" links
// and returns every other href unchanged.
func CleanGoogleRedirect(href string) string {
	if strings.TrimSpace(href) == "" {
		return href
	}
	href = html.UnescapeString(href)

	u, err := url.Parse(href)
	if err != nil || !u.IsAbs() {
		return href
	}
	if !strings.HasSuffix(strings.ToLower(u.Hostname()), "google.com") || !strings.EqualFold(u.Path, "/url") {
		return href
	}

	query := u.Query()
	for _, key := range redirectParams {
		target := query.Get(key)
		if target == "" {
			continue
		}
		if t, err := url.Parse(target); err == nil && t.IsAbs() {
			return t.String()
		}
		return target
	}
	return href
}
