package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

// GCSStorage uploads songs to a Google Cloud Storage bucket. Files are
// written to a local staging directory first.
type GCSStorage struct {
	client       *storage.Client
	bucket       string
	objectPrefix string
	tempDir      string
}

// NewGCSStorage creates a new GCSStorage instance
func NewGCSStorage(ctx context.Context, bucketName, objectPrefix, tempDir, credentialsFile string) (*GCSStorage, error) {
	if bucketName == "" {
		return nil, errors.New("gcs storage requires a bucket")
	}

	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	// Without a credentials file, application default credentials are used
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCS client: %w", err)
	}

	if tempDir == "" {
		tempDir = filepath.Join(os.TempDir(), "unreleased-staging")
	}
	if err := os.MkdirAll(tempDir, os.ModePerm); err != nil {
		return nil, fmt.Errorf("failed to create temp directory: %w", err)
	}

	return &GCSStorage{
		client:       client,
		bucket:       bucketName,
		objectPrefix: strings.Trim(objectPrefix, "/"),
		tempDir:      tempDir,
	}, nil
}

func (s *GCSStorage) objectName(dir, filename string) string {
	return path.Join(s.objectPrefix, dir, filename)
}

func (s *GCSStorage) ListNames(ctx context.Context, dir string) ([]string, error) {
	prefix := s.objectName(dir, "") + "/"

	it := s.client.Bucket(s.bucket).Objects(ctx, &storage.Query{
		Prefix:    prefix,
		Delimiter: "/",
	})

	var names []string
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error listing objects: %w", err)
		}

		// Skip synthetic directory entries
		if attrs.Name == "" || strings.HasSuffix(attrs.Name, "/") {
			continue
		}
		names = append(names, path.Base(attrs.Name))
	}

	return names, nil
}

func (s *GCSStorage) Prepare(dir, filename string) (string, error) {
	stageDir := filepath.Join(s.tempDir, filepath.FromSlash(dir))
	if err := os.MkdirAll(stageDir, os.ModePerm); err != nil {
		return "", fmt.Errorf("failed to create staging directory: %w", err)
	}
	return filepath.Join(stageDir, filename), nil
}

// Commit uploads the staged file and removes it locally.
func (s *GCSStorage) Commit(ctx context.Context, localPath, dir, filename string) (string, error) {
	f, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("failed to open file %s: %w", localPath, err)
	}
	defer f.Close()

	objectName := s.objectName(dir, filename)

	// Fail rather than overwrite an object created since the name was reserved
	wc := s.client.Bucket(s.bucket).Object(objectName).If(storage.Conditions{DoesNotExist: true}).NewWriter(ctx)
	wc.ContentType = "audio/mpeg"

	if _, err := io.Copy(wc, f); err != nil {
		wc.Close()
		return "", fmt.Errorf("failed to upload %s: %w", objectName, err)
	}
	if err := wc.Close(); err != nil {
		return "", fmt.Errorf("failed to finalize upload %s: %w", objectName, err)
	}

	f.Close()
	if err := os.Remove(localPath); err != nil {
		return "", fmt.Errorf("failed to remove staged file: %w", err)
	}

	return fmt.Sprintf("gs://%s/%s", s.bucket, objectName), nil
}

func (s *GCSStorage) Discard(localPath string) error {
	if err := os.Remove(localPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove %s: %w", localPath, err)
	}
	return nil
}
