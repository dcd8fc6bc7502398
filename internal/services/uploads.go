package services

import (
	"fmt"
	"path"
	"strings"

	"github.com/google/uuid"
	"song-request-backend/internal/apperr"
	"song-request-backend/internal/models"
)

// MaxReferenceFileSize caps a single customer reference upload.
const MaxReferenceFileSize = 50 << 20

var allowedReferenceExt = map[string]bool{
	".mp3": true, ".wav": true, ".m4a": true, ".aac": true, ".flac": true, ".ogg": true,
	".pdf": true, ".txt": true, ".doc": true, ".docx": true,
	".jpg": true, ".jpeg": true, ".png": true,
}

// ReferenceStore is implemented by *supabase.StorageClient.
type ReferenceStore interface {
	UploadReference(userID uuid.UUID, filename, contentType string, data []byte) (string, string, error)
}

// UploadService stores reference files customers attach before checkout.
type UploadService struct {
	store ReferenceStore
}

func NewUploadService(store ReferenceStore) *UploadService {
	return &UploadService{store: store}
}

// Upload stores one file and returns its public URL.
func (s *UploadService) Upload(caller Caller, filename, contentType string, data []byte) (*models.FileInfo, error) {
	ext := strings.ToLower(path.Ext(filename))
	if !allowedReferenceExt[ext] {
		return nil, fmt.Errorf("%s: unsupported file type %q: %w", filename, ext, apperr.ErrValidation)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%s: file is empty: %w", filename, apperr.ErrValidation)
	}
	if len(data) > MaxReferenceFileSize {
		return nil, fmt.Errorf("%s: file exceeds %d MB: %w", filename, MaxReferenceFileSize>>20, apperr.ErrValidation)
	}

	_, publicURL, err := s.store.UploadReference(caller.UserID, filename, contentType, data)
	if err != nil {
		return nil, fmt.Errorf("%s: %v: %w", filename, err, apperr.ErrUpstream)
	}
	return &models.FileInfo{Filename: filename, Size: int64(len(data)), StorageURL: publicURL}, nil
}
