package tracker

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/PuerkitoBio/goquery"

	"github.com/jaki95/unreleased-downloader/internal/domain"
)

// headerMinColumns is the number of filled cells, row number included, that
// marks the header row.
const headerMinColumns = 11

// nameColumn is the index of the song name among the data cells.
const nameColumn = 1

var errNoHeader = errors.New("column has no header")

// ParseRows classifies rows in order. Rows before the header row are
// ignored. Rows that fail are reported as *ParseError, carrying their index
// in the table body, and skipped.
func ParseRows(rows []*goquery.Selection, trackerName string) ([]domain.Record, []error) {
	var (
		headers []string
		records []domain.Record
		errs    []error
	)

	for _, row := range rows {
		if headers == nil {
			if filledChildren(row) >= headerMinColumns {
				headers = parseHeaders(row)
			}
			continue
		}

		record, err := parseRow(row, headers, trackerName)
		if err != nil {
			perr := &ParseError{Row: row.Index(), Err: err}
			slog.Debug("skipping row", "row", perr.Row, "error", err)
			errs = append(errs, perr)
			continue
		}
		if record != nil {
			records = append(records, record)
		}
	}

	return records, errs
}

// ClassifyRow turns the data cells of a row (row number column removed)
// into an era, a song, or nil for rows without a song name.
func ClassifyRow(cells []domain.Cell, trackerName string) (domain.Record, error) {
	for _, c := range cells {
		if c.Kind == domain.CellImage {
			era, err := BuildEra(cells)
			if err != nil {
				return nil, err
			}
			return era, nil
		}
	}

	if len(cells) <= nameColumn {
		return nil, fmt.Errorf("row has %d columns", len(cells))
	}
	if cells[nameColumn].Content == "" {
		return nil, nil
	}

	song, err := BuildSong(cells, trackerName)
	if err != nil {
		return nil, err
	}
	return song, nil
}

func parseRow(row *goquery.Selection, headers []string, trackerName string) (record domain.Record, err error) {
	defer func() {
		if r := recover(); r != nil {
			record, err = nil, fmt.Errorf("panic: %v", r)
		}
	}()

	children := row.Children()
	if children.Length() < 2 {
		return nil, fmt.Errorf("row has %d columns", children.Length())
	}

	columns := children.Slice(1, goquery.ToEnd)
	cells := make([]domain.Cell, 0, columns.Length())
	columns.EachWithBreak(func(i int, s *goquery.Selection) bool {
		if i >= len(headers) {
			err = fmt.Errorf("column %d: %w", i, errNoHeader)
			return false
		}
		cells = append(cells, ClassifyCell(s, headers[i]))
		return true
	})
	if err != nil {
		return nil, err
	}

	return ClassifyRow(cells, trackerName)
}

func parseHeaders(row *goquery.Selection) []string {
	headers := []string{}
	row.Children().Slice(1, goquery.ToEnd).Filter("td").Each(func(_ int, s *goquery.Selection) {
		headers = append(headers, CellText(s))
	})
	return headers
}

func filledChildren(row *goquery.Selection) int {
	return row.Children().FilterFunction(func(_ int, s *goquery.Selection) bool {
		return s.Contents().Length() > 0
	}).Length()
}
