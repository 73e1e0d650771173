package audio

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/bogem/id3v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jaki95/unreleased-downloader/internal/domain"
)

func pngBytes(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for x := 0; x < width; x += 7 {
		img.Set(x, x%height, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// silentWAV returns a short mono 16 bit PCM file.
func silentWAV() []byte {
	const sampleRate, samples = 8000, 800
	var buf bytes.Buffer
	buf.WriteString("RIFF")
	binary.Write(&buf, binary.LittleEndian, uint32(36+samples*2))
	buf.WriteString("WAVEfmt ")
	binary.Write(&buf, binary.LittleEndian, uint32(16))
	binary.Write(&buf, binary.LittleEndian, uint16(1))
	binary.Write(&buf, binary.LittleEndian, uint16(1))
	binary.Write(&buf, binary.LittleEndian, uint32(sampleRate))
	binary.Write(&buf, binary.LittleEndian, uint32(sampleRate*2))
	binary.Write(&buf, binary.LittleEndian, uint16(2))
	binary.Write(&buf, binary.LittleEndian, uint16(16))
	buf.WriteString("data")
	binary.Write(&buf, binary.LittleEndian, uint32(samples*2))
	buf.Write(make([]byte, samples*2))
	return buf.Bytes()
}

func TestPrepareCover(t *testing.T) {
	tests := []struct {
		name           string
		width, height  int
		maxSize        int
		expectedWidth  int
		expectedHeight int
	}{
		{"wide image is scaled", 3000, 1500, 1400, 1400, 700},
		{"tall image is scaled", 500, 1000, 400, 200, 400},
		{"small image is kept", 120, 80, 1400, 120, 80},
		{"default size", 2800, 2800, 0, DefaultCoverSize, DefaultCoverSize},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := PrepareCover(pngBytes(t, tt.width, tt.height), tt.maxSize)
			require.NoError(t, err)

			img, err := jpeg.Decode(bytes.NewReader(out))
			require.NoError(t, err)
			assert.Equal(t, tt.expectedWidth, img.Bounds().Dx())
			assert.Equal(t, tt.expectedHeight, img.Bounds().Dy())
		})
	}

	_, err := PrepareCover([]byte("not an image"), 100)
	assert.Error(t, err)
}

func TestSongMetadata(t *testing.T) {
	file := time.Date(2021, time.June, 1, 0, 0, 0, 0, time.UTC)
	song := domain.NewSong(domain.SongFields{
		Name:        "✨ Freestyle [v2] (feat. Destroy Lonely)\n(prod. F1LTHY)",
		Notes:       "OG Filename: fs.wav\nLeaked in 2023.",
		Type:        "OG File",
		Portion:     "Full",
		Quality:     "CD Quality",
		FileDate:    &file,
		TrackerName: "Ken Carson",
	})
	era := &domain.Era{Name: "Project X\n(PX)"}

	meta := SongMetadata(song, era, []byte{1})

	assert.Equal(t, Metadata{
		Title:      "Freestyle",
		Album:      "Project X",
		Year:       2021,
		Performers: []string{"Ken Carson", "Destroy Lonely"},
		Composers:  []string{"F1LTHY"},
		Comment: "Notes: Leaked in 2023.\n" +
			"Type: OG File\n" +
			"Portion: Full\n" +
			"Quality: CD Quality\n" +
			"Emoji: ✨\n" +
			"Version: 2\n" +
			"OG Filename: fs",
		Cover: []byte{1},
	}, meta)
}

func TestSongMetadataSparse(t *testing.T) {
	meta := SongMetadata(domain.NewSong(domain.SongFields{Name: "Plain", Quality: "Lossless"}), nil, nil)

	assert.Equal(t, "Plain", meta.Title)
	assert.Empty(t, meta.Album)
	assert.Zero(t, meta.Year)
	assert.Equal(t, "Quality: Lossless", meta.Comment)
}

func TestID3Tagger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "song.mp3")
	require.NoError(t, os.WriteFile(path, []byte{0xFF, 0xFB, 0x90, 0x00, 0, 0, 0, 0}, 0644))

	cover := []byte{0xFF, 0xD8, 0xFF, 0xE0}
	err := NewID3Tagger().Tag(path, Metadata{
		Title:      "Freestyle",
		Album:      "Project X",
		Year:       2021,
		Performers: []string{"Ken Carson", "Destroy Lonely"},
		Composers:  []string{"F1LTHY", "AM"},
		Comment:    "Type: OG File",
		Cover:      cover,
	})
	require.NoError(t, err)

	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	require.NoError(t, err)
	defer tag.Close()

	assert.Equal(t, byte(3), tag.Version())
	assert.Equal(t, "Freestyle", tag.Title())
	assert.Equal(t, "Project X", tag.Album())
	assert.Equal(t, "2021", tag.Year())
	assert.Equal(t, "Ken Carson/Destroy Lonely", tag.Artist())
	assert.Equal(t, "F1LTHY/AM", tag.GetTextFrame("TCOM").Text)

	comments := tag.GetFrames(tag.CommonID("Comments"))
	require.Len(t, comments, 1)
	comment, ok := comments[0].(id3v2.CommentFrame)
	require.True(t, ok)
	assert.Equal(t, "Type: OG File", comment.Text)

	pictures := tag.GetFrames(tag.CommonID("Attached picture"))
	require.Len(t, pictures, 1)
	picture, ok := pictures[0].(id3v2.PictureFrame)
	require.True(t, ok)
	assert.Equal(t, cover, picture.Picture)
	assert.Equal(t, byte(id3v2.PTFrontCover), picture.PictureType)
}

func TestID3TaggerMissingFile(t *testing.T) {
	err := NewID3Tagger().Tag(filepath.Join(t.TempDir(), "missing", "song.mp3"), Metadata{Title: "x"})
	assert.Error(t, err)
}

func TestTranscodeEmptyInput(t *testing.T) {
	err := NewFFMPEGEngine().Transcode(context.Background(), nil, filepath.Join(t.TempDir(), "out.mp3"))
	assert.ErrorIs(t, err, ErrEmptyInput)
}

func TestTranscodeFailureCleansUp(t *testing.T) {
	tempDir := t.TempDir()
	outDir := t.TempDir()
	f := NewFFMPEGEngine(WithBinary(filepath.Join(tempDir, "no-such-ffmpeg")), WithTempDir(tempDir))

	err := f.Transcode(context.Background(), silentWAV(), filepath.Join(outDir, "out.mp3"))

	var transcodeErr *TranscodeError
	require.True(t, errors.As(err, &transcodeErr))
	assert.Contains(t, transcodeErr.Cmd, "no-such-ffmpeg")

	staged, err := os.ReadDir(tempDir)
	require.NoError(t, err)
	assert.Empty(t, staged)
	assert.NoFileExists(t, filepath.Join(outDir, "out.mp3"))
}

func TestTranscode(t *testing.T) {
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		t.Skip("ffmpeg not installed")
	}

	tempDir := t.TempDir()
	dest := filepath.Join(t.TempDir(), "era", "out.mp3")
	f := NewFFMPEGEngine(WithTempDir(tempDir), WithBitrate("128k"), WithTimeout(time.Minute))

	require.NoError(t, f.Transcode(context.Background(), silentWAV(), dest))

	info, err := os.Stat(dest)
	require.NoError(t, err)
	assert.Positive(t, info.Size())

	staged, err := os.ReadDir(tempDir)
	require.NoError(t, err)
	assert.Empty(t, staged)
}
