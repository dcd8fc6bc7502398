package gdrive_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
	"song-request-backend/internal/apperr"
	"song-request-backend/internal/gdrive"
	"song-request-backend/internal/models"
)

type memoryTokens struct {
	mu     sync.Mutex
	tokens map[uuid.UUID]models.DriveToken
	writes int
}

func (m *memoryTokens) GetDriveToken(_ context.Context, id uuid.UUID) (*models.DriveToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tokens[id]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	return &t, nil
}

func (m *memoryTokens) UpsertDriveToken(_ context.Context, t *models.DriveToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens[t.ProducerID] = *t
	m.writes++
	return nil
}

func TestAuthURLRequestsOfflineAccess(t *testing.T) {
	client := gdrive.NewClient(gdrive.NewOAuthConfig("cid", "secret", "https://app.example.com/drive/callback"), &memoryTokens{}, "")

	u := client.AuthURL("state-1")
	assert.Contains(t, u, "access_type=offline")
	assert.Contains(t, u, "prompt=consent")
	assert.Contains(t, u, "state=state-1")
}

func TestStartUpload_ReturnsSessionLocation(t *testing.T) {
	producerID := uuid.New()
	store := &memoryTokens{tokens: map[uuid.UUID]models.DriveToken{
		producerID: {ProducerID: producerID, AccessToken: "live-token", RefreshToken: "r", ExpiresAt: time.Now().Add(time.Hour)},
	}}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer live-token", r.Header.Get("Authorization"))
		assert.Equal(t, "/upload/drive/v3/files", r.URL.Path)
		assert.Equal(t, "resumable", r.URL.Query().Get("uploadType"))
		assert.Equal(t, "audio/wav", r.Header.Get("X-Upload-Content-Type"))
		assert.Equal(t, "1024", r.Header.Get("X-Upload-Content-Length"))

		var meta map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&meta))
		assert.Equal(t, "final.wav", meta["name"])

		w.Header().Set("Location", "https://upload.example.com/session/abc")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := gdrive.NewClient(&oauth2.Config{}, store, srv.URL)
	sess, err := client.StartUpload(context.Background(), producerID, "folder-1", "final.wav", "audio/wav", 1024)
	require.NoError(t, err)
	assert.Equal(t, "https://upload.example.com/session/abc", sess.UploadURL)
	assert.Equal(t, "folder-1", sess.FolderID)
	assert.Zero(t, store.writes)
}

func TestCreateFolder_RefreshesExpiredToken(t *testing.T) {
	producerID := uuid.New()
	store := &memoryTokens{tokens: map[uuid.UUID]models.DriveToken{
		producerID: {ProducerID: producerID, AccessToken: "stale", RefreshToken: "refresh-1", ExpiresAt: time.Now().Add(-time.Hour)},
	}}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/token":
			require.NoError(t, r.ParseForm())
			assert.Equal(t, "refresh-1", r.PostForm.Get("refresh_token"))
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"access_token":"fresh","token_type":"Bearer","expires_in":3600}`))
		case strings.HasPrefix(r.URL.Path, "/drive/v3/files"):
			assert.Equal(t, "Bearer fresh", r.Header.Get("Authorization"))
			_, _ = w.Write([]byte(`{"id":"folder-9","webViewLink":"https://drive.example.com/folder-9"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	cfg := &oauth2.Config{ClientID: "cid", ClientSecret: "secret", Endpoint: oauth2.Endpoint{TokenURL: srv.URL + "/token"}}
	client := gdrive.NewClient(cfg, store, srv.URL)

	folder, err := client.CreateFolder(context.Background(), producerID, "Order 1")
	require.NoError(t, err)
	assert.Equal(t, "folder-9", folder.ID)
	assert.Equal(t, "https://drive.example.com/folder-9", folder.WebViewLink)

	saved := store.tokens[producerID]
	assert.Equal(t, "fresh", saved.AccessToken)
	assert.Equal(t, "refresh-1", saved.RefreshToken)
	assert.Equal(t, 1, store.writes)
}

func TestStartUpload_UpstreamError(t *testing.T) {
	producerID := uuid.New()
	store := &memoryTokens{tokens: map[uuid.UUID]models.DriveToken{
		producerID: {ProducerID: producerID, AccessToken: "t", ExpiresAt: time.Now().Add(time.Hour)},
	}}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusForbidden)
	}))
	defer srv.Close()

	client := gdrive.NewClient(&oauth2.Config{}, store, srv.URL)
	_, err := client.StartUpload(context.Background(), producerID, "f", "a.wav", "", 0)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrUpstream)
	assert.Contains(t, err.Error(), "quota exceeded")
}
