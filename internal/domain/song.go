package domain

import (
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/jaki95/unreleased-downloader/internal/naming"
)

var (
	trackerNameRegex = regexp.MustCompile(`^(.+) Tracker - Google Drive$`)

	ogFilenameRegex = regexp.MustCompile(`OG Filename:\s*(.+)`)

	mediaExtensions = map[string]struct{}{
		".mp3": {}, ".wav": {}, ".aac": {}, ".flac": {}, ".ogg": {}, ".aiff": {},
		".wma": {}, ".m4a": {}, ".opus": {}, ".mp4": {}, ".avi": {}, ".mov": {},
		".wmv": {}, ".mkv": {}, ".flv": {}, ".webm": {}, ".mpeg": {}, ".mpg": {},
		".3gp": {},
	}
)

// Record is either an *Era or a *Song, in tracker order.
type Record interface {
	record()
}

// SongFields are the raw column values of a song row.
type SongFields struct {
	Name        string
	Era         string
	Type        string
	Portion     string
	Quality     string
	TrackLength *int
	FileDate    *time.Time
	LeakDate    *time.Time
	Notes       string
	Links       Links
	// TrackerName is the extracted name, not the page title.
	TrackerName string
}

// Song is a single tracker entry. Values derived from the name are computed
// once by NewSong.
type Song struct {
	SongFields

	parsed     naming.Name
	artists    []string
	producers  []string
	ogFilename string
}

func (*Song) record() {}

// NewSong builds a song and derives its name annotations.
func NewSong(f SongFields) *Song {
	s := &Song{SongFields: f}
	s.parsed = naming.Parse(nameLines(f.Name))

	lead := s.parsed.Artist
	if lead == "" {
		lead = f.TrackerName
	}
	s.artists = naming.Unique(append([]string{lead}, s.parsed.Features...))
	s.producers = naming.Unique(s.parsed.Producers)
	s.ogFilename = extractOGFilename(f.Notes)
	return s
}

func nameLines(name string) []string {
	var lines []string
	for _, l := range strings.Split(name, "\n") {
		if l = strings.TrimSpace(l); l != "" {
			lines = append(lines, l)
		}
	}
	return lines
}

func (s *Song) Emoji() string  { return s.parsed.Emoji }
func (s *Song) Artist() string { return s.parsed.Artist }
func (s *Song) Title() string  { return s.parsed.Title }

// Version returns the explicit version, or nil when the name has none.
func (s *Song) Version() *int { return s.parsed.Version }

// DisplayVersion returns the version with 1 substituted when absent.
func (s *Song) DisplayVersion() int { return s.parsed.DisplayVersion() }

// Artists returns the main artist followed by every featured artist.
func (s *Song) Artists() []string { return s.artists }

func (s *Song) Producers() []string { return s.producers }

// OGFilename returns the original file name noted for the song, without
// its media extension.
func (s *Song) OGFilename() string { return s.ogFilename }

// DisplayNotes returns the notes without the OG filename line.
func (s *Song) DisplayNotes() string {
	if s.ogFilename == "" {
		return s.Notes
	}
	_, rest, _ := strings.Cut(s.Notes, "\n")
	return rest
}

// Aliases returns the alternative titles listed on the third name line.
func (s *Song) Aliases() []string {
	return aliasesFromLine(s.Name, 2)
}

func extractOGFilename(notes string) string {
	m := ogFilenameRegex.FindStringSubmatch(notes)
	if m == nil {
		return ""
	}
	name := strings.TrimSpace(m[1])
	if _, ok := mediaExtensions[strings.ToLower(filepath.Ext(name))]; ok {
		name = strings.TrimSuffix(name, filepath.Ext(name))
	}
	return name
}

// ExtractTrackerName turns a page title such as
// "Ken Carson Tracker - Google Drive" into "Ken Carson".
func ExtractTrackerName(title string) string {
	if m := trackerNameRegex.FindStringSubmatch(title); m != nil {
		return strings.TrimSpace(m[1])
	}
	title = strings.ReplaceAll(title, " - Google Drive", "")
	title = strings.ReplaceAll(title, " Tracker", "")
	return strings.TrimSpace(title)
}
