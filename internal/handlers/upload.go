package handlers

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"
	"song-request-backend/internal/models"
	"song-request-backend/internal/services"
)

type UploadHandler struct {
	uploads *services.UploadService
}

func NewUploadHandler(uploads *services.UploadService) *UploadHandler {
	return &UploadHandler{uploads: uploads}
}

// Upload godoc
// @Summary     Upload reference files
// @Description Stores audio, document or image references before checkout. Returned storage URLs go into uploaded_files on the checkout request. Files that fail are listed in errors; the rest are still stored.
// @Tags        upload
// @Accept      multipart/form-data
// @Produce     json
// @Security    Bearer
// @Param       files formData file true "Reference files (multiple allowed, 50 MB each)"
// @Success     200 {object} models.UploadResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     401 {object} models.ErrorResponse
// @Router      /uploads [post]
func (h *UploadHandler) Upload(c *gin.Context) {
	who, ok := caller(c)
	if !ok {
		return
	}

	if err := c.Request.ParseMultipartForm(32 << 20); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "validation",
			Message: "failed to parse multipart form: " + err.Error(),
		})
		return
	}

	var files []*multipart.FileHeader
	for _, field := range []string{"files", "file"} {
		if f := c.Request.MultipartForm.File[field]; len(f) > 0 {
			files = f
			break
		}
	}
	if len(files) == 0 {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "validation",
			Message: "no files uploaded; use the files field",
		})
		return
	}

	resp := models.UploadResponse{Files: []models.FileInfo{}}
	for _, fh := range files {
		info, err := h.store(who, fh)
		if err != nil {
			resp.Errors = append(resp.Errors, err.Error())
			continue
		}
		resp.Files = append(resp.Files, *info)
	}

	if len(resp.Files) == 0 {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "validation",
			Message: fmt.Sprintf("no files stored: %v", resp.Errors),
		})
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *UploadHandler) store(who services.Caller, fh *multipart.FileHeader) (*models.FileInfo, error) {
	if fh.Size > services.MaxReferenceFileSize {
		return nil, fmt.Errorf("%s: file exceeds %d MB", fh.Filename, services.MaxReferenceFileSize>>20)
	}
	src, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("%s: failed to open file: %w", fh.Filename, err)
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to read file: %w", fh.Filename, err)
	}
	return h.uploads.Upload(who, fh.Filename, fh.Header.Get("Content-Type"), data)
}
