package audio

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/bogem/id3v2"

	"github.com/jaki95/unreleased-downloader/internal/domain"
)

// Metadata is the tag content written to a song file.
type Metadata struct {
	Title      string
	Album      string
	Year       int
	Performers []string
	Composers  []string
	Comment    string
	Cover      []byte
}

// SongMetadata collects the tags of a song. The album is the era title and
// the comment lists the tracker columns that have no dedicated frame.
func SongMetadata(song *domain.Song, era *domain.Era, cover []byte) Metadata {
	meta := Metadata{
		Title:      song.Title(),
		Performers: song.Artists(),
		Composers:  song.Producers(),
		Comment:    songComment(song),
		Cover:      cover,
	}
	if era != nil {
		meta.Album = era.Title()
	}
	if song.FileDate != nil {
		meta.Year = song.FileDate.Year()
	}
	return meta
}

func songComment(song *domain.Song) string {
	var lines []string
	add := func(key, value string) {
		if value != "" {
			lines = append(lines, key+": "+value)
		}
	}

	add("Notes", song.DisplayNotes())
	add("Type", song.Type)
	add("Portion", song.Portion)
	add("Quality", song.Quality)
	add("Emoji", song.Emoji())
	if v := song.Version(); v != nil {
		add("Version", strconv.Itoa(*v))
	}
	add("OG Filename", song.OGFilename())

	return strings.Join(lines, "\n")
}

// ID3Tagger writes ID3v2.3 tags.
type ID3Tagger struct{}

func NewID3Tagger() *ID3Tagger {
	return &ID3Tagger{}
}

func (t *ID3Tagger) Tag(path string, meta Metadata) error {
	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		return fmt.Errorf("failed to open %s for tagging: %w", path, err)
	}
	defer tag.Close()

	tag.SetVersion(3)
	tag.SetDefaultEncoding(id3v2.EncodingUTF16)
	enc := tag.DefaultEncoding()

	tag.SetTitle(meta.Title)
	tag.SetAlbum(meta.Album)
	if meta.Year > 0 {
		tag.SetYear(strconv.Itoa(meta.Year))
	}
	if len(meta.Performers) > 0 {
		tag.SetArtist(strings.Join(meta.Performers, "/"))
	}
	if len(meta.Composers) > 0 {
		tag.AddTextFrame("TCOM", enc, strings.Join(meta.Composers, "/"))
	}

	if meta.Comment != "" {
		tag.AddCommentFrame(id3v2.CommentFrame{
			Encoding:    enc,
			Language:    "eng",
			Description: "",
			Text:        meta.Comment,
		})
	}

	if len(meta.Cover) > 0 {
		tag.AddAttachedPicture(id3v2.PictureFrame{
			Encoding:    enc,
			MimeType:    "image/jpeg",
			PictureType: id3v2.PTFrontCover,
			Description: "Front cover",
			Picture:     meta.Cover,
		})
	}

	if err := tag.Save(); err != nil {
		return fmt.Errorf("failed to save tags: %w", err)
	}
	return nil
}
