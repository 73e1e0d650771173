// Package output names downloaded songs and guards their destination
// directories against overwrites.
package output

import (
	"strconv"
	"strings"
	"time"

	"github.com/jaki95/unreleased-downloader/internal/domain"
)

const (
	DefaultTemplate = "%title [v%version] - %mainArtist"

	defaultEmoji = "🎵"
	unknown      = "Unknown"
	dateLayout   = "2006-01-02"
)

var invalidChars = strings.NewReplacer(
	"<", "_", ">", "_", ":", "_", `"`, "_", "/", "_", `\`, "_", "|", "_", "?", "_", "*", "_",
)

// Sanitize replaces characters that are not allowed in file names.
func Sanitize(name string) string {
	return invalidChars.Replace(name)
}

// Options controls how file names are built.
type Options struct {
	// Template uses %placeholders; empty selects DefaultTemplate.
	Template string
	// PreferOGFilename names the file after its original file name when no
	// template is set and the notes carry one.
	PreferOGFilename bool
}

// FormatFilename returns the sanitized file name, without extension, for a
// song of era.
func FormatFilename(song *domain.Song, era *domain.Era, opts Options) string {
	return Sanitize(Format(song, era, opts))
}

// Format expands the template for song without sanitizing the result.
func Format(song *domain.Song, era *domain.Era, opts Options) string {
	template := opts.Template
	if strings.TrimSpace(template) == "" {
		if opts.PreferOGFilename && song.OGFilename() != "" {
			return song.OGFilename()
		}
		template = DefaultTemplate
	}

	artists := song.Artists()
	producers := song.Producers()

	emoji := song.Emoji()
	if emoji == "" {
		emoji = defaultEmoji
	}

	eraTitle := unknown
	if era != nil {
		eraTitle = era.Title()
	}

	r := strings.NewReplacer(
		"%emoji", emoji,
		"%title", song.Title(),
		"%version", strconv.Itoa(song.DisplayVersion()),
		"%artists", strings.Join(artists, ", "),
		"%producers", joinOr(producers, unknown),
		"%mainArtist", firstOr(artists, unknown),
		"%mainProducer", firstOr(producers, unknown),
		"%fileYear", formatDate(song.FileDate, "2006"),
		"%leakYear", formatDate(song.LeakDate, "2006"),
		"%fileDate", formatDate(song.FileDate, dateLayout),
		"%leakDate", formatDate(song.LeakDate, dateLayout),
		"%era", eraTitle,
	)
	return r.Replace(template)
}

func joinOr(values []string, fallback string) string {
	if len(values) == 0 {
		return fallback
	}
	return strings.Join(values, ", ")
}

func firstOr(values []string, fallback string) string {
	if len(values) == 0 {
		return fallback
	}
	return values[0]
}

func formatDate(t *time.Time, layout string) string {
	if t == nil {
		return unknown
	}
	return t.Format(layout)
}

// Dir returns the directory, relative to the output root, that holds the
// songs of era on a tracker.
func Dir(trackerName string, era *domain.Era) string {
	eraTitle := unknown
	if era != nil {
		eraTitle = era.Title()
	}
	return segment(trackerName) + "/" + segment(eraTitle)
}

// segment sanitizes one directory name so it cannot be empty or refer to
// the current or parent directory.
func segment(name string) string {
	s := strings.TrimSpace(Sanitize(name))
	switch s {
	case "":
		return unknown
	case ".", "..":
		return strings.Repeat("_", len(s))
	}
	return s
}
