package storage

import (
	"context"
	"errors"
	"path/filepath"
	"strings"

	"github.com/arzan03/usermanager/internal/models"
)

var ErrInvalidName = errors.New("invalid object name")

// Store persists uploaded profile pictures.
type Store interface {
	Save(ctx context.Context, name, contentType string, data []byte) (*models.StoredFile, error)
	Remove(ctx context.Context, name string) error
}

// checkName only admits flat names, never paths.
func checkName(name string) error {
	if name == "" || name == "." || name == ".." || filepath.Base(name) != name || strings.ContainsAny(name, `/\`) {
		return ErrInvalidName
	}
	return nil
}
