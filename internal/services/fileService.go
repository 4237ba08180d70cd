package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"strings"

	"github.com/arzan03/usermanager/internal/apperror"
	"github.com/arzan03/usermanager/internal/logger"
	"github.com/arzan03/usermanager/internal/models"
	"github.com/arzan03/usermanager/internal/policy"
	"github.com/arzan03/usermanager/internal/storage"
	"github.com/gabriel-vasile/mimetype"
	"go.uber.org/zap"
)

const noImage = "No file uploaded or invalid file type"

func generateSecureToken() (string, error) {
	token := make([]byte, 16)
	if _, err := rand.Read(token); err != nil {
		return "", fmt.Errorf("failed to generate secure token: %w", err)
	}
	return hex.EncodeToString(token), nil
}

// PictureService stores profile pictures and links them to user records.
type PictureService struct {
	users    UserStore
	files    storage.Store
	maxBytes int64
}

// NewPictureService creates a PictureService accepting uploads up to maxBytes.
func NewPictureService(users UserStore, files storage.Store, maxBytes int64) *PictureService {
	return &PictureService{users: users, files: files, maxBytes: maxBytes}
}

// UpdateProfilePicture validates an uploaded image, stores it under a random
// name and points the user's profilePicture at it. The stored object is
// removed again when the user record is gone by the time it is linked.
func (s *PictureService) UpdateProfilePicture(ctx context.Context, actor models.Identity, id string, fh *multipart.FileHeader) (*models.User, error) {
	if err := authorizeTarget(policy.UpdateProfilePicture, actor, id); err != nil {
		return nil, err
	}
	if fh == nil {
		return nil, apperror.BadRequest(noImage)
	}
	if fh.Size > s.maxBytes {
		return nil, apperror.BadRequest(fmt.Sprintf("File too large, limit is %d bytes", s.maxBytes))
	}
	if !strings.HasPrefix(fh.Header.Get("Content-Type"), "image/") {
		return nil, apperror.BadRequest("Only image files are allowed!")
	}

	data, err := readUpload(fh, s.maxBytes)
	if err != nil {
		return nil, err
	}

	detected := mimetype.Detect(data)
	if !strings.HasPrefix(detected.String(), "image/") {
		return nil, apperror.BadRequest("Only image files are allowed!")
	}

	name, err := objectName(fh.Filename, detected)
	if err != nil {
		return nil, apperror.Internal(err)
	}

	stored, err := s.files.Save(ctx, name, detected.String(), data)
	if err != nil {
		return nil, apperror.Internal(err)
	}

	user, err := s.users.Update(ctx, id, models.UserUpdate{ProfilePicture: &stored.URL})
	if err != nil {
		if rmErr := s.files.Remove(ctx, name); rmErr != nil {
			logger.Error("Failed to remove orphaned upload", zap.String("name", name), zap.Error(rmErr))
		}
		if errors.Is(err, models.ErrUserNotFound) {
			logger.Warn("User not found during profile picture update", zap.String("id", id))
		}
		return nil, storeError(err)
	}

	logger.Info("Profile picture updated", zap.String("email", user.Email), zap.String("file", name))
	return user, nil
}

func readUpload(fh *multipart.FileHeader, limit int64) ([]byte, error) {
	file, err := fh.Open()
	if err != nil {
		return nil, apperror.BadRequest("Failed to open file").Wrap(err)
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, limit+1))
	if err != nil {
		return nil, apperror.BadRequest("Failed to read file").Wrap(err)
	}
	if int64(len(data)) > limit {
		return nil, apperror.BadRequest(fmt.Sprintf("File too large, limit is %d bytes", limit))
	}
	if len(data) == 0 {
		return nil, apperror.BadRequest(noImage)
	}
	return data, nil
}

// objectName is a random hex name keeping the original extension. Falls back
// to the extension of the detected type when the upload has none.
func objectName(original string, detected *mimetype.MIME) (string, error) {
	token, err := generateSecureToken()
	if err != nil {
		return "", err
	}

	ext := strings.ToLower(filepath.Ext(original))
	if ext == "" || strings.ContainsAny(ext, `/\`) {
		ext = detected.Extension()
	}
	return token + ext, nil
}
