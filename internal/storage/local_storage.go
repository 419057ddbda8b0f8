package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

type LocalStorage struct {
	basePath string
}

func NewLocalStorage(basePath string) (*LocalStorage, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	return &LocalStorage{basePath: basePath}, nil
}

func (ls *LocalStorage) SaveFrame(cameraName string, capturedAt time.Time, jpegData []byte) (string, error) {
	filename := fmt.Sprintf("%s_%s.jpg", sanitizeName(cameraName), capturedAt.Format("20060102_150405"))
	fullPath := filepath.Join(ls.basePath, filename)

	if err := os.WriteFile(fullPath, jpegData, 0644); err != nil {
		return "", fmt.Errorf("failed to save frame: %w", err)
	}

	return filename, nil
}

func (ls *LocalStorage) OpenFrame(path string) (io.ReadSeekCloser, error) {
	cleanPath := filepath.Clean(path)
	if strings.Contains(cleanPath, "..") {
		return nil, fmt.Errorf("invalid path")
	}

	fullPath := filepath.Join(ls.basePath, cleanPath)
	file, err := os.Open(fullPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open frame: %w", err)
	}

	return file, nil
}

func (ls *LocalStorage) DeleteFrame(path string) error {
	cleanPath := filepath.Clean(path)
	if strings.Contains(cleanPath, "..") {
		return fmt.Errorf("invalid path")
	}

	fullPath := filepath.Join(ls.basePath, cleanPath)
	if err := os.Remove(fullPath); err != nil {
		return fmt.Errorf("failed to delete frame: %w", err)
	}

	return nil
}

func sanitizeName(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '-' || r == '_':
			return r
		default:
			return '_'
		}
	}, name)
}
