package storage

import (
	"context"
	"fmt"
)

const (
	TypeLocal = "local"
	TypeGCS   = "gcs"
)

// Storage is where finished songs end up. Directories are slash separated
// and relative to the storage root.
type Storage interface {
	// ListNames returns the file names in dir. A missing dir is empty.
	ListNames(ctx context.Context, dir string) ([]string, error)

	// Prepare returns a local path that the transcoder can write filename to.
	Prepare(dir, filename string) (string, error)

	// Commit publishes a prepared file and returns its final location.
	Commit(ctx context.Context, localPath, dir, filename string) (string, error)

	// Discard removes a prepared file that will not be committed.
	Discard(localPath string) error
}

// Options selects and configures a storage backend.
type Options struct {
	Type            string
	OutputDir       string
	Bucket          string
	ObjectPrefix    string
	CredentialsFile string
	TempDir         string
}

// New returns the storage named by opts.Type.
func New(ctx context.Context, opts Options) (Storage, error) {
	switch opts.Type {
	case TypeLocal, "":
		return NewLocalFileStorage(opts.OutputDir)
	case TypeGCS:
		return NewGCSStorage(ctx, opts.Bucket, opts.ObjectPrefix, opts.TempDir, opts.CredentialsFile)
	default:
		return nil, fmt.Errorf("unknown storage type: %q", opts.Type)
	}
}
