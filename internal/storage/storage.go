// Package storage keeps uploaded images and hands out their public URLs.
package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"querystack/internal/apperror"
)

// DefaultMaxBytes is the largest accepted upload.
const DefaultMaxBytes = 5 << 20

var allowedTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// Uploader stores an image and returns its public URL.
type Uploader interface {
	Upload(ctx context.Context, r io.Reader) (string, error)
}

// LocalStore writes uploads under a directory served at baseURL.
type LocalStore struct {
	dir      string
	baseURL  string
	maxBytes int64
}

func NewLocalStore(dir, baseURL string, maxBytes int64) (*LocalStore, error) {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &LocalStore{dir: dir, baseURL: strings.TrimRight(baseURL, "/"), maxBytes: maxBytes}, nil
}

func (s *LocalStore) Dir() string { return s.dir }

// Upload sniffs the content type, rejecting anything that is not a JPEG,
// PNG, GIF or WebP image or that exceeds the size limit.
func (s *LocalStore) Upload(ctx context.Context, r io.Reader) (string, error) {
	data, err := io.ReadAll(io.LimitReader(r, s.maxBytes+1))
	if err != nil {
		return "", fmt.Errorf("read upload: %w", err)
	}
	if len(data) == 0 {
		return "", apperror.ValidationFailed("file", "File is required")
	}
	if int64(len(data)) > s.maxBytes {
		return "", apperror.ValidationFailed("file", fmt.Sprintf("File must be at most %d MB", s.maxBytes>>20))
	}

	mt := mimetype.Detect(data)
	ext, ok := allowedTypes[mt.String()]
	if !ok {
		return "", apperror.ValidationFailed("file", "Only JPEG, PNG, GIF and WebP images are allowed")
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	name := uuid.NewString() + ext
	if err := os.WriteFile(filepath.Join(s.dir, name), data, 0o644); err != nil {
		return "", fmt.Errorf("write upload: %w", err)
	}
	return s.baseURL + "/" + name, nil
}

var _ Uploader = (*LocalStore)(nil)
