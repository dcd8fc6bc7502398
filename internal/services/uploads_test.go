package services_test

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"song-request-backend/internal/apperr"
	"song-request-backend/internal/services"
)

type fakeReferenceStore struct {
	paths []string
	err   error
}

func (f *fakeReferenceStore) UploadReference(userID uuid.UUID, filename, _ string, _ []byte) (string, string, error) {
	if f.err != nil {
		return "", "", f.err
	}
	path := userID.String() + "/" + filename
	f.paths = append(f.paths, path)
	return path, "https://storage.example.com/" + path, nil
}

func TestUpload(t *testing.T) {
	store := &fakeReferenceStore{}
	svc := services.NewUploadService(store)
	caller := customer()

	info, err := svc.Upload(caller, "demo.MP3", "audio/mpeg", []byte("ID3"))
	require.NoError(t, err)
	assert.Equal(t, int64(3), info.Size)
	assert.Contains(t, info.StorageURL, caller.UserID.String())

	tests := []struct {
		name     string
		filename string
		data     []byte
	}{
		{"unsupported extension", "run.exe", []byte("MZ")},
		{"empty file", "lyrics.txt", nil},
		{"too large", "take.wav", make([]byte, services.MaxReferenceFileSize+1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Upload(caller, tt.filename, "", tt.data)
			assert.ErrorIs(t, err, apperr.ErrValidation)
		})
	}
	assert.Len(t, store.paths, 1)
}

func TestUpload_StorageFailure(t *testing.T) {
	svc := services.NewUploadService(&fakeReferenceStore{err: errors.New("bucket gone")})
	_, err := svc.Upload(customer(), "notes.pdf", "application/pdf", []byte("%PDF"))
	assert.ErrorIs(t, err, apperr.ErrUpstream)
}
