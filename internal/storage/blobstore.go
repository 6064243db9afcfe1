package storage

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/bennyh960/stupid-chat-app/pkg/logger"
	"github.com/bennyh960/stupid-chat-app/pkg/utils"
)

// BlobStore owns the attachment files on disk. Blobs are independently
// addressable, so operations on different filenames never block each other;
// a file disappearing between an existence check and a read is the normal
// ErrNotFound outcome, not a fault.
type BlobStore struct {
	dir string
}

// NewBlobStore returns a store rooted at dir. The directory must already
// exist; Init creates it.
func NewBlobStore(dir string) *BlobStore {
	return &BlobStore{dir: dir}
}

// GenerateFilename builds the storage name for an uploaded file:
// <sender>_to_<receiver>_<unix millis>_<original basename>. The millisecond
// timestamp keeps concurrent uploads from colliding, and the embedded
// participants keep the name traceable.
func (s *BlobStore) GenerateFilename(sender, receiver, original string) string {
	return fmt.Sprintf("%s_to_%s_%d_%s",
		utils.SanitizeFilePart(sender),
		utils.SanitizeFilePart(receiver),
		time.Now().UnixMilli(),
		utils.SanitizeFilePart(filepath.Base(original)),
	)
}

// Put writes the blob under filename, consuming r.
func (s *BlobStore) Put(filename string, r io.Reader) error {
	f, err := os.Create(s.path(filename))
	if err != nil {
		return fmt.Errorf("%w: creating blob %s: %v", ErrWriteFailed, filename, err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(s.path(filename))
		return fmt.Errorf("%w: writing blob %s: %v", ErrWriteFailed, filename, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(s.path(filename))
		return fmt.Errorf("%w: closing blob %s: %v", ErrWriteFailed, filename, err)
	}
	return nil
}

// Exists reports whether the blob is present.
func (s *BlobStore) Exists(filename string) bool {
	_, err := os.Stat(s.path(filename))
	return err == nil
}

// Get returns the full blob contents. An absent blob is ErrNotFound whether
// it was already reclaimed or never written; callers cannot tell the cases
// apart.
func (s *BlobStore) Get(filename string) ([]byte, error) {
	data, err := os.ReadFile(s.path(filename))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, filename)
	}
	if err != nil {
		return nil, fmt.Errorf("reading blob %s: %w", filename, err)
	}
	return data, nil
}

// Delete removes the blob. Deleting an absent blob is not an error.
func (s *BlobStore) Delete(filename string) error {
	err := os.Remove(s.path(filename))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("deleting blob %s: %w", filename, err)
	}
	return nil
}

// Clear deletes every blob in the store. Individual failures are logged and
// skipped; the next session matters more than forensic accuracy about stale
// files.
func (s *BlobStore) Clear() error {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		logger.Error().Err(err).Str("dir", s.dir).Msg("Failed to list blob directory during clear")
		return nil
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if err := os.Remove(filepath.Join(s.dir, entry.Name())); err != nil {
			logger.Warn().Err(err).Str("file", entry.Name()).Msg("Failed to remove blob during clear")
		}
	}
	return nil
}

// path resolves filename inside the store directory. Base() strips any path
// separators a crafted filename could smuggle in.
func (s *BlobStore) path(filename string) string {
	return filepath.Join(s.dir, filepath.Base(filename))
}
