package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// LocalFileStorage keeps songs under a directory on the local filesystem.
type LocalFileStorage struct {
	outputDir string
}

// NewLocalFileStorage creates a new local file storage instance
func NewLocalFileStorage(outputDir string) (*LocalFileStorage, error) {
	if err := os.MkdirAll(outputDir, os.ModePerm); err != nil {
		return nil, fmt.Errorf("failed to create directory %s: %w", outputDir, err)
	}
	abs, err := filepath.Abs(outputDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", outputDir, err)
	}
	return &LocalFileStorage{outputDir: abs}, nil
}

func (s *LocalFileStorage) path(dir string) string {
	return filepath.Join(s.outputDir, filepath.FromSlash(dir))
}

func (s *LocalFileStorage) ListNames(_ context.Context, dir string) ([]string, error) {
	entries, err := os.ReadDir(s.path(dir))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read directory: %w", err)
	}

	var names []string
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	return names, nil
}

// Prepare ensures the output directory exists and returns the final path;
// local files need no separate commit step.
func (s *LocalFileStorage) Prepare(dir, filename string) (string, error) {
	outputDir := s.path(dir)
	if err := os.MkdirAll(outputDir, os.ModePerm); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	return filepath.Join(outputDir, filename), nil
}

func (s *LocalFileStorage) Commit(_ context.Context, localPath, _, _ string) (string, error) {
	return localPath, nil
}

func (s *LocalFileStorage) Discard(localPath string) error {
	if err := os.Remove(localPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove %s: %w", localPath, err)
	}
	return nil
}
