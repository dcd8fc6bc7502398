package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"song-request-backend/internal/models"
	"song-request-backend/internal/services"
)

type RevisionsHandler struct {
	revisions *services.RevisionService
}

func NewRevisionsHandler(revisions *services.RevisionService) *RevisionsHandler {
	return &RevisionsHandler{revisions: revisions}
}

// ListRevisions godoc
// @Summary     List an order's revisions
// @Tags        revisions
// @Produce     json
// @Security    Bearer
// @Param       order_id path string true "Order ID (UUID)"
// @Success     200 {array} models.RevisionResponse
// @Failure     403 {object} models.ErrorResponse
// @Router      /orders/{order_id}/revisions [get]
func (h *RevisionsHandler) ListRevisions(c *gin.Context) {
	who, ok := caller(c)
	if !ok {
		return
	}
	orderID, ok := uuidParam(c, "order_id")
	if !ok {
		return
	}
	revs, err := h.revisions.List(c.Request.Context(), who, orderID)
	if err != nil {
		respondError(c, err)
		return
	}
	resp := make([]models.RevisionResponse, 0, len(revs))
	for i := range revs {
		resp = append(resp, models.NewRevisionResponse(&revs[i]))
	}
	c.JSON(http.StatusOK, resp)
}

// RequestRevision godoc
// @Summary     Request a revision
// @Description Customer only. Moves a pending revision to requested and emails the producer.
// @Tags        revisions
// @Accept      json
// @Produce     json
// @Security    Bearer
// @Param       revision_id path string true "Revision ID (UUID)"
// @Param       request body models.RequestRevisionRequest true "What should change"
// @Success     200 {object} models.RevisionResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     409 {object} models.ErrorResponse
// @Router      /revisions/{revision_id}/request [post]
func (h *RevisionsHandler) RequestRevision(c *gin.Context) {
	who, ok := caller(c)
	if !ok {
		return
	}
	revisionID, ok := uuidParam(c, "revision_id")
	if !ok {
		return
	}
	var req models.RequestRevisionRequest
	if !bindJSON(c, &req) {
		return
	}
	rev, err := h.revisions.Request(c.Request.Context(), who, revisionID, req.Notes)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.NewRevisionResponse(rev))
}

// DeliverRevision godoc
// @Summary     Deliver a revision
// @Description Assigned producer only. Records the delivery link and emails the customer.
// @Tags        revisions
// @Accept      json
// @Produce     json
// @Security    Bearer
// @Param       revision_id path string true "Revision ID (UUID)"
// @Param       request body models.DeliverRevisionRequest true "Delivery"
// @Success     200 {object} models.RevisionResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     403 {object} models.ErrorResponse
// @Router      /revisions/{revision_id}/deliver [post]
func (h *RevisionsHandler) DeliverRevision(c *gin.Context) {
	who, ok := caller(c)
	if !ok {
		return
	}
	revisionID, ok := uuidParam(c, "revision_id")
	if !ok {
		return
	}
	var req models.DeliverRevisionRequest
	if !bindJSON(c, &req) {
		return
	}
	rev, err := h.revisions.Deliver(c.Request.Context(), who, revisionID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.NewRevisionResponse(rev))
}

// ListMessages godoc
// @Summary     Read a revision's chat
// @Tags        revisions
// @Produce     json
// @Security    Bearer
// @Param       revision_id path string true "Revision ID (UUID)"
// @Success     200 {array} models.RevisionMessageResponse
// @Router      /revisions/{revision_id}/messages [get]
func (h *RevisionsHandler) ListMessages(c *gin.Context) {
	who, ok := caller(c)
	if !ok {
		return
	}
	revisionID, ok := uuidParam(c, "revision_id")
	if !ok {
		return
	}
	msgs, err := h.revisions.Messages(c.Request.Context(), who, revisionID)
	if err != nil {
		respondError(c, err)
		return
	}
	resp := make([]models.RevisionMessageResponse, 0, len(msgs))
	for i := range msgs {
		resp = append(resp, models.NewRevisionMessageResponse(&msgs[i]))
	}
	c.JSON(http.StatusOK, resp)
}

// PostMessage godoc
// @Summary     Add a message to a revision's chat
// @Tags        revisions
// @Accept      json
// @Produce     json
// @Security    Bearer
// @Param       revision_id path string true "Revision ID (UUID)"
// @Param       request body models.RevisionMessageRequest true "Message"
// @Success     201 {object} models.RevisionMessageResponse
// @Router      /revisions/{revision_id}/messages [post]
func (h *RevisionsHandler) PostMessage(c *gin.Context) {
	who, ok := caller(c)
	if !ok {
		return
	}
	revisionID, ok := uuidParam(c, "revision_id")
	if !ok {
		return
	}
	var req models.RevisionMessageRequest
	if !bindJSON(c, &req) {
		return
	}
	msg, err := h.revisions.PostMessage(c.Request.Context(), who, revisionID, req.Body)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, models.NewRevisionMessageResponse(msg))
}
