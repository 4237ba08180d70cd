package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/arzan03/usermanager/internal/models"
)

// LocalStore writes files under a directory that is served statically at URLPrefix.
type LocalStore struct {
	dir       string
	urlPrefix string
}

// NewLocalStore creates dir if needed. Stored files get URLs under urlPrefix.
func NewLocalStore(dir, urlPrefix string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &LocalStore{dir: dir, urlPrefix: urlPrefix}, nil
}

// Dir is the directory served under the URL prefix.
func (s *LocalStore) Dir() string {
	return s.dir
}

// Save writes data to a new file. Existing files are never overwritten.
func (s *LocalStore) Save(_ context.Context, name, contentType string, data []byte) (*models.StoredFile, error) {
	if err := checkName(name); err != nil {
		return nil, err
	}

	// O_EXCL: never overwrite an existing upload
	f, err := os.OpenFile(filepath.Join(s.dir, name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", name, err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		_ = os.Remove(f.Name())
		return nil, fmt.Errorf("write %s: %w", name, err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(f.Name())
		return nil, fmt.Errorf("close %s: %w", name, err)
	}

	return &models.StoredFile{
		Name:        name,
		URL:         path.Join(s.urlPrefix, name),
		ContentType: contentType,
		Size:        int64(len(data)),
		CreatedAt:   time.Now(),
	}, nil
}

// Remove deletes the file. A missing file is not an error.
func (s *LocalStore) Remove(_ context.Context, name string) error {
	if err := checkName(name); err != nil {
		return err
	}
	err := os.Remove(filepath.Join(s.dir, name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}
