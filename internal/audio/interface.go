package audio

import "context"

// Transcoder converts raw media bytes into an MP3 file at destPath.
type Transcoder interface {
	Transcode(ctx context.Context, data []byte, destPath string) error
}

// Tagger embeds metadata into an audio file.
type Tagger interface {
	Tag(path string, meta Metadata) error
}
