// Package gdrive connects producers' Google Drive accounts for final file
// delivery.
package gdrive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"song-request-backend/internal/apperr"
	"song-request-backend/internal/models"
)

const (
	ScopeDriveFile   = "https://www.googleapis.com/auth/drive.file"
	DefaultAPIBase   = "https://www.googleapis.com"
	folderMimeType   = "application/vnd.google-apps.folder"
	driveFilesPath   = "/drive/v3/files"
	driveUploadsPath = "/upload/drive/v3/files"
)

type TokenStore interface {
	GetDriveToken(ctx context.Context, producerID uuid.UUID) (*models.DriveToken, error)
	UpsertDriveToken(ctx context.Context, t *models.DriveToken) error
}

type Client struct {
	oauth   *oauth2.Config
	store   TokenStore
	apiBase string
}

func NewOAuthConfig(clientID, clientSecret, redirectURL string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURL,
		Scopes:       []string{ScopeDriveFile},
		Endpoint:     google.Endpoint,
	}
}

func NewClient(cfg *oauth2.Config, store TokenStore, apiBase string) *Client {
	if apiBase == "" {
		apiBase = DefaultAPIBase
	}
	return &Client{oauth: cfg, store: store, apiBase: apiBase}
}

// AuthURL asks for offline access so a refresh token is issued.
func (c *Client) AuthURL(state string) string {
	return c.oauth.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
}

func (c *Client) Exchange(ctx context.Context, producerID uuid.UUID, code string) error {
	tok, err := c.oauth.Exchange(ctx, code)
	if err != nil {
		return fmt.Errorf("google token exchange: %v: %w", err, apperr.ErrUpstream)
	}
	return c.store.UpsertDriveToken(ctx, &models.DriveToken{
		ProducerID:   producerID,
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		ExpiresAt:    tok.Expiry,
	})
}

// httpClient returns an authorized client, refreshing and persisting the
// access token first when it has expired.
func (c *Client) httpClient(ctx context.Context, producerID uuid.UUID) (*http.Client, error) {
	stored, err := c.store.GetDriveToken(ctx, producerID)
	if err != nil {
		return nil, err
	}

	current := &oauth2.Token{
		AccessToken:  stored.AccessToken,
		RefreshToken: stored.RefreshToken,
		Expiry:       stored.ExpiresAt,
		TokenType:    "Bearer",
	}
	fresh, err := c.oauth.TokenSource(ctx, current).Token()
	if err != nil {
		return nil, fmt.Errorf("google token refresh: %v: %w", err, apperr.ErrUpstream)
	}

	if fresh.AccessToken != stored.AccessToken {
		refresh := fresh.RefreshToken
		if refresh == "" {
			refresh = stored.RefreshToken
		}
		err := c.store.UpsertDriveToken(ctx, &models.DriveToken{
			ProducerID:   producerID,
			AccessToken:  fresh.AccessToken,
			RefreshToken: refresh,
			ExpiresAt:    fresh.Expiry,
		})
		if err != nil {
			return nil, err
		}
	}

	return oauth2.NewClient(ctx, oauth2.StaticTokenSource(fresh)), nil
}

type Folder struct {
	ID          string `json:"id"`
	WebViewLink string `json:"webViewLink"`
}

func (c *Client) CreateFolder(ctx context.Context, producerID uuid.UUID, name string) (*Folder, error) {
	client, err := c.httpClient(ctx, producerID)
	if err != nil {
		return nil, err
	}

	body, _ := json.Marshal(map[string]any{"name": name, "mimeType": folderMimeType})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.apiBase+driveFilesPath+"?fields=id,webViewLink", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("drive create folder: %v: %w", err, apperr.ErrUpstream)
	}
	defer resp.Body.Close()
	if err := checkStatus(resp); err != nil {
		return nil, err
	}

	var folder Folder
	if err := json.NewDecoder(resp.Body).Decode(&folder); err != nil {
		return nil, fmt.Errorf("drive create folder: %w", err)
	}
	return &folder, nil
}

type UploadSession struct {
	UploadURL string    `json:"upload_url"`
	FolderID  string    `json:"folder_id"`
	CreatedAt time.Time `json:"created_at"`
}

// StartUpload opens a resumable upload session. The browser PUTs the bytes
// straight to the returned URL.
func (c *Client) StartUpload(ctx context.Context, producerID uuid.UUID, folderID, filename, mimeType string, size int64) (*UploadSession, error) {
	client, err := c.httpClient(ctx, producerID)
	if err != nil {
		return nil, err
	}

	meta := map[string]any{"name": filename, "parents": []string{folderID}}
	if mimeType != "" {
		meta["mimeType"] = mimeType
	}
	body, _ := json.Marshal(meta)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.apiBase+driveUploadsPath+"?uploadType=resumable", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json; charset=UTF-8")
	if mimeType != "" {
		req.Header.Set("X-Upload-Content-Type", mimeType)
	}
	if size > 0 {
		req.Header.Set("X-Upload-Content-Length", strconv.FormatInt(size, 10))
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("drive start upload: %v: %w", err, apperr.ErrUpstream)
	}
	defer resp.Body.Close()
	if err := checkStatus(resp); err != nil {
		return nil, err
	}

	location := resp.Header.Get("Location")
	if location == "" {
		return nil, fmt.Errorf("drive start upload: missing session location: %w", apperr.ErrUpstream)
	}
	return &UploadSession{UploadURL: location, FolderID: folderID, CreatedAt: time.Now().UTC()}, nil
}

func checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return fmt.Errorf("drive returned %d: %s: %w", resp.StatusCode, bytes.TrimSpace(msg), apperr.ErrUpstream)
}
