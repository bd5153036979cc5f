package services

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"ticketdesk/internal/config"

	"github.com/google/uuid"
)

var ErrBlobNotFound = errors.New("attachment not found")

// blobNamePattern matches the names Save generates: a UUID plus an optional
// file extension. Anything else is rejected before touching the filesystem.
var blobNamePattern = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}(\.[A-Za-z0-9]+)?$`)

// StorageService stores attachment blobs on disk under generated names. The
// uploaded filename only contributes its extension, so concurrent uploads
// cannot collide and the name cannot carry path segments.
type StorageService struct {
	uploadsPath string
}

func NewStorageService(cfg *config.Config) *StorageService {
	return &StorageService{uploadsPath: cfg.Storage.UploadsPath}
}

// Save writes the blob and returns its generated name.
func (s *StorageService) Save(r io.Reader, originalName string) (string, error) {
	name := uuid.NewString() + filepath.Ext(filepath.Base(originalName))

	dst, err := os.Create(filepath.Join(s.uploadsPath, name))
	if err != nil {
		return "", err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, r); err != nil {
		os.Remove(dst.Name())
		return "", err
	}

	return name, nil
}

// Path resolves a generated name to its on-disk location, verifying both the
// name shape and that the blob exists.
func (s *StorageService) Path(name string) (string, error) {
	if !blobNamePattern.MatchString(name) {
		return "", ErrBlobNotFound
	}

	path := filepath.Join(s.uploadsPath, name)
	if _, err := os.Stat(path); err != nil {
		return "", ErrBlobNotFound
	}
	return path, nil
}

// Remove deletes a stored blob. Missing blobs are not an error.
func (s *StorageService) Remove(name string) error {
	if !blobNamePattern.MatchString(name) {
		return ErrBlobNotFound
	}
	err := os.Remove(filepath.Join(s.uploadsPath, name))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
