package store

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
)

// BlobStore persists uploaded report files in a local directory. Files are
// opaque blobs; nothing is parsed or validated here.
type BlobStore struct {
	dir string
	log zerolog.Logger
}

func NewBlobStore(dir string, log zerolog.Logger) *BlobStore {
	return &BlobStore{dir: dir, log: log}
}

// Persist writes src to the uploads directory under filename and returns
// the stored path. On a write failure the partial file is removed before
// returning; the removal never masks the original error.
func (b *BlobStore) Persist(src io.Reader, filename string) (string, error) {
	if err := os.MkdirAll(b.dir, 0o755); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}

	path := filepath.Join(b.dir, filename)

	dst, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create upload file: %w", err)
	}

	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		b.Discard(path)

		return "", fmt.Errorf("write upload: %w", err)
	}

	if err := dst.Close(); err != nil {
		b.Discard(path)

		return "", fmt.Errorf("close upload file: %w", err)
	}

	return path, nil
}

// Discard removes a stored or partially stored file, best effort.
func (b *BlobStore) Discard(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		b.log.Warn().Err(err).Str("path", path).Msg("discard upload failed")
	}
}
