package tracker

import (
	"fmt"
	"strings"

	"github.com/jaki95/unreleased-downloader/internal/domain"
)

const (
	// linkColumns is how many trailing columns may carry download links.
	linkColumns = 2

	songTextColumns = 9
	eraTextColumns  = 3
)

// BuildSong assembles a song from the classified cells of a row.
func BuildSong(cells []domain.Cell, trackerName string) (*domain.Song, error) {
	var linkCells []domain.Cell
	for _, c := range trailing(cells, linkColumns) {
		if c.Kind == domain.CellTextWithLinks && strings.Contains(strings.ToLower(c.Header), "link") {
			linkCells = append(linkCells, c)
		}
	}

	texts := textCells(cells)
	texts = texts[:len(texts)-len(linkCells)]
	if len(texts) < songTextColumns {
		return nil, fmt.Errorf("song row has %d text columns, want at least %d", len(texts), songTextColumns)
	}

	var links domain.Links
	for _, c := range linkCells {
		lines := c.Lines()
		n := min(len(lines), len(c.Links))
		for i := 0; i < n; i++ {
			links.Add(lines[i], c.Links[i].URL)
		}
	}

	return domain.NewSong(domain.SongFields{
		Era:         texts[0].Content,
		Name:        texts[1].Content,
		Notes:       texts[2].Content,
		TrackLength: parseLength(texts[3].Content),
		FileDate:    parseDate(texts[4].Content),
		LeakDate:    parseDate(texts[5].Content),
		Type:        texts[6].Content,
		Portion:     texts[7].Content,
		Quality:     texts[8].Content,
		Links:       links,
		TrackerName: trackerName,
	}), nil
}

// BuildEra assembles an era from the classified cells of a section row.
func BuildEra(cells []domain.Cell) (*domain.Era, error) {
	texts := textCells(cells)
	if len(texts) < eraTextColumns {
		return nil, fmt.Errorf("era row has %d text columns, want at least %d", len(texts), eraTextColumns)
	}

	var image string
	for _, c := range trailing(cells, linkColumns) {
		if c.Kind == domain.CellImage {
			image = c.URL
			break
		}
	}
	if image == "" {
		return nil, fmt.Errorf("era row has no image in its last %d columns", linkColumns)
	}

	era := &domain.Era{
		Stats:    parseStats(texts[0].Content),
		Name:     texts[1].Content,
		Timeline: texts[2].Content,
		ImageURL: image,
	}
	if len(texts) > eraTextColumns {
		era.Description = texts[3].Content
	}
	return era, nil
}

func trailing(cells []domain.Cell, n int) []domain.Cell {
	if len(cells) <= n {
		return cells
	}
	return cells[len(cells)-n:]
}

func textCells(cells []domain.Cell) []domain.Cell {
	texts := make([]domain.Cell, 0, len(cells))
	for _, c := range cells {
		if c.IsText() {
			texts = append(texts, c)
		}
	}
	return texts
}
