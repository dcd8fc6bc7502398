package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"song-request-backend/internal/apperr"
	"song-request-backend/internal/gdrive"
	"song-request-backend/internal/models"
)

// DriveClient is implemented by *gdrive.Client.
type DriveClient interface {
	AuthURL(state string) string
	Exchange(ctx context.Context, producerID uuid.UUID, code string) error
	CreateFolder(ctx context.Context, producerID uuid.UUID, name string) (*gdrive.Folder, error)
	StartUpload(ctx context.Context, producerID uuid.UUID, folderID, filename, mimeType string, size int64) (*gdrive.UploadSession, error)
}

// DriveService lets the assigned producer deliver files into their own
// Google Drive.
type DriveService struct {
	rt        *Runtime
	orders    OrderStore
	producers ProducerStore
	drive     DriveClient
	access    access
}

func NewDriveService(rt *Runtime, orders OrderStore, producers ProducerStore, drive DriveClient) *DriveService {
	return &DriveService{rt: rt, orders: orders, producers: producers, drive: drive, access: access{producers: producers}}
}

func (s *DriveService) producer(ctx context.Context, caller Caller) (*models.Producer, error) {
	p, err := s.producers.GetProducerByUserID(ctx, caller.UserID)
	if err != nil {
		return nil, fmt.Errorf("not a producer: %w", apperr.ErrForbidden)
	}
	return p, nil
}

// AuthURL uses the producer id as OAuth state; the callback checks it.
func (s *DriveService) AuthURL(ctx context.Context, caller Caller) (string, error) {
	p, err := s.producer(ctx, caller)
	if err != nil {
		return "", err
	}
	return s.drive.AuthURL(p.ID.String()), nil
}

func (s *DriveService) Callback(ctx context.Context, caller Caller, req models.DriveCallbackRequest) error {
	if strings.TrimSpace(req.Code) == "" {
		return fmt.Errorf("code is required: %w", apperr.ErrValidation)
	}
	p, err := s.producer(ctx, caller)
	if err != nil {
		return err
	}
	if req.State != "" && req.State != p.ID.String() {
		return fmt.Errorf("oauth state mismatch: %w", apperr.ErrValidation)
	}
	return s.drive.Exchange(ctx, p.ID, req.Code)
}

// UploadSession creates the order folder on first use and opens a resumable
// upload into it.
func (s *DriveService) UploadSession(ctx context.Context, caller Caller, orderID uuid.UUID, req models.DriveUploadSessionRequest) (*models.DriveUploadSessionResponse, error) {
	if strings.TrimSpace(req.Filename) == "" {
		return nil, fmt.Errorf("filename is required: %w", apperr.ErrValidation)
	}
	order, err := s.orders.GetSongRequest(ctx, orderID)
	if err != nil {
		return nil, err
	}
	p, err := s.access.assignedProducer(ctx, caller, order)
	if err != nil {
		return nil, err
	}

	resp := &models.DriveUploadSessionResponse{FolderID: req.FolderID}
	if resp.FolderID == "" {
		folder, err := s.drive.CreateFolder(ctx, p.ID, "Song request "+order.ID.String()[:8])
		if err != nil {
			return nil, err
		}
		resp.FolderID, resp.FolderURL = folder.ID, folder.WebViewLink
	}

	sess, err := s.drive.StartUpload(ctx, p.ID, resp.FolderID, req.Filename, req.MimeType, req.Size)
	if err != nil {
		return nil, err
	}
	resp.UploadURL = sess.UploadURL
	return resp, nil
}

// Finalize records the delivered folder link on the order.
func (s *DriveService) Finalize(ctx context.Context, caller Caller, orderID uuid.UUID, req models.DriveFinalizeRequest) (*models.SongRequest, error) {
	if err := validLink("folder_url", req.FolderURL); err != nil {
		return nil, err
	}
	order, err := s.orders.GetSongRequest(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if _, err := s.access.assignedProducer(ctx, caller, order); err != nil {
		return nil, err
	}
	if err := s.orders.SetDriveFolderURL(ctx, orderID, req.FolderURL); err != nil {
		return nil, err
	}
	order.DriveFolderURL.String, order.DriveFolderURL.Valid = req.FolderURL, true
	return order, nil
}
