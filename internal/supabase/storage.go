package supabase

import (
	"bytes"
	"fmt"
	"path"
	"strings"

	"github.com/google/uuid"
	storage "github.com/supabase-community/storage-go"
)

type StorageClient struct {
	client  *storage.Client
	bucket  string
	baseURL string
}

func NewStorageClient(supabaseURL, serviceRoleKey, bucket string) (*StorageClient, error) {
	baseURL := strings.TrimSuffix(supabaseURL, "/")
	client := storage.NewClient(baseURL+"/storage/v1", serviceRoleKey, nil)

	return &StorageClient{
		client:  client,
		bucket:  bucket,
		baseURL: baseURL,
	}, nil
}

// StoragePath is users/{user_id}/uploads/{upload_id}-{filename}.
func StoragePath(userID, uploadID uuid.UUID, filename string) string {
	return fmt.Sprintf("users/%s/uploads/%s-%s", userID.String(), uploadID.String(), path.Base(filename))
}

// UploadReference stores a customer reference file and returns its path and public URL.
func (s *StorageClient) UploadReference(userID uuid.UUID, filename, contentType string, data []byte) (string, string, error) {
	storagePath := StoragePath(userID, uuid.New(), filename)

	upsert := false
	_, err := s.client.UploadFile(s.bucket, storagePath, bytes.NewReader(data), storage.FileOptions{
		ContentType: &contentType,
		Upsert:      &upsert,
	})
	if err != nil {
		return "", "", fmt.Errorf("failed to upload file: %w", err)
	}

	return storagePath, s.publicURL(storagePath), nil
}

func (s *StorageClient) publicURL(storagePath string) string {
	return fmt.Sprintf("%s/storage/v1/object/public/%s/%s",
		s.baseURL, s.bucket, storagePath)
}
