package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"song-request-backend/internal/models"
	"song-request-backend/internal/services"
)

type DriveHandler struct {
	drive *services.DriveService
}

func NewDriveHandler(drive *services.DriveService) *DriveHandler {
	return &DriveHandler{drive: drive}
}

// AuthURL godoc
// @Summary     Google Drive consent URL
// @Tags        drive
// @Produce     json
// @Security    Bearer
// @Success     200 {object} models.DriveAuthURLResponse
// @Failure     403 {object} models.ErrorResponse
// @Router      /producer/drive/auth-url [get]
func (h *DriveHandler) AuthURL(c *gin.Context) {
	who, ok := caller(c)
	if !ok {
		return
	}
	u, err := h.drive.AuthURL(c.Request.Context(), who)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.DriveAuthURLResponse{URL: u})
}

// Callback godoc
// @Summary     Finish Google Drive authorization
// @Tags        drive
// @Accept      json
// @Produce     json
// @Security    Bearer
// @Param       request body models.DriveCallbackRequest true "OAuth code and state"
// @Success     200 {object} map[string]string "status"
// @Failure     400 {object} models.ErrorResponse
// @Failure     502 {object} models.ErrorResponse
// @Router      /producer/drive/callback [post]
func (h *DriveHandler) Callback(c *gin.Context) {
	who, ok := caller(c)
	if !ok {
		return
	}
	var req models.DriveCallbackRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.drive.Callback(c.Request.Context(), who, req); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "connected"})
}

// UploadSession godoc
// @Summary     Open a resumable Drive upload for an order
// @Description Creates the order folder in the producer's Drive on first use. The client uploads the file bytes straight to upload_url.
// @Tags        drive
// @Accept      json
// @Produce     json
// @Security    Bearer
// @Param       order_id path string true "Order ID (UUID)"
// @Param       request body models.DriveUploadSessionRequest true "File metadata"
// @Success     200 {object} models.DriveUploadSessionResponse
// @Failure     403 {object} models.ErrorResponse
// @Router      /orders/{order_id}/drive/upload-session [post]
func (h *DriveHandler) UploadSession(c *gin.Context) {
	who, ok := caller(c)
	if !ok {
		return
	}
	orderID, ok := uuidParam(c, "order_id")
	if !ok {
		return
	}
	var req models.DriveUploadSessionRequest
	if !bindJSON(c, &req) {
		return
	}
	resp, err := h.drive.UploadSession(c.Request.Context(), who, orderID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Finalize godoc
// @Summary     Attach the Drive folder to an order
// @Tags        drive
// @Accept      json
// @Produce     json
// @Security    Bearer
// @Param       order_id path string true "Order ID (UUID)"
// @Param       request body models.DriveFinalizeRequest true "Folder link"
// @Success     200 {object} models.OrderResponse
// @Router      /orders/{order_id}/drive/finalize [post]
func (h *DriveHandler) Finalize(c *gin.Context) {
	who, ok := caller(c)
	if !ok {
		return
	}
	orderID, ok := uuidParam(c, "order_id")
	if !ok {
		return
	}
	var req models.DriveFinalizeRequest
	if !bindJSON(c, &req) {
		return
	}
	order, err := h.drive.Finalize(c.Request.Context(), who, orderID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.NewOrderResponse(order))
}
