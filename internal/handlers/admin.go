package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"song-request-backend/internal/models"
	"song-request-backend/internal/services"
)

type AdminHandler struct {
	sweeper   *services.ExpirySweeper
	payouts   *services.PayoutService
	assigner  *services.AssignmentNotifier
	producers *services.ProducerService
}

func NewAdminHandler(sweeper *services.ExpirySweeper, payouts *services.PayoutService, assigner *services.AssignmentNotifier, producers *services.ProducerService) *AdminHandler {
	return &AdminHandler{sweeper: sweeper, payouts: payouts, assigner: assigner, producers: producers}
}

// SweepExpired godoc
// @Summary     Refund expired orders
// @Description Refunds every order nobody accepted before its deadline. Failures are reported per order and do not stop the sweep. Called by an external scheduler with the cron secret; the server also runs it on its own schedule.
// @Tags        internal
// @Produce     json
// @Param       Authorization header string true "Bearer cron secret"
// @Success     200 {object} models.SweepResponse
// @Failure     401 {object} models.ErrorResponse
// @Router      /internal/sweep-expired [post]
func (h *AdminHandler) SweepExpired(c *gin.Context) {
	resp, err := h.sweeper.Sweep(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Payout godoc
// @Summary     Pay the producer of a completed order
// @Description Transfers the producer share through Stripe Connect when the producer finished onboarding, otherwise records a manual payout.
// @Tags        admin
// @Produce     json
// @Security    Bearer
// @Param       order_id path string true "Order ID (UUID)"
// @Success     200 {object} models.PayoutResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     409 {object} models.ErrorResponse
// @Router      /admin/orders/{order_id}/payout [post]
func (h *AdminHandler) Payout(c *gin.Context) {
	orderID, ok := uuidParam(c, "order_id")
	if !ok {
		return
	}
	resp, err := h.payouts.Payout(c.Request.Context(), orderID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Notify godoc
// @Summary     Re-send the producer offer for a paid order
// @Tags        admin
// @Produce     json
// @Security    Bearer
// @Param       order_id path string true "Order ID (UUID)"
// @Success     200 {object} models.NotifyResponse
// @Failure     404 {object} models.ErrorResponse
// @Failure     502 {object} models.ErrorResponse
// @Router      /admin/orders/{order_id}/notify [post]
func (h *AdminHandler) Notify(c *gin.Context) {
	orderID, ok := uuidParam(c, "order_id")
	if !ok {
		return
	}
	producer, err := h.assigner.Notify(c.Request.Context(), orderID, nil)
	if err != nil {
		respondError(c, err)
		return
	}
	resp := models.NotifyResponse{OrderID: orderID.String()}
	if producer != nil {
		resp.ProducerID = producer.ID.String()
	}
	c.JSON(http.StatusOK, resp)
}

// ListApplications godoc
// @Summary     List producer applications
// @Tags        admin
// @Produce     json
// @Security    Bearer
// @Param       status query string false "pending, approved or rejected"
// @Success     200 {array} models.ApplicationResponse
// @Router      /admin/applications [get]
func (h *AdminHandler) ListApplications(c *gin.Context) {
	apps, err := h.producers.Applications(c.Request.Context(), c.Query("status"))
	if err != nil {
		respondError(c, err)
		return
	}
	resp := make([]models.ApplicationResponse, 0, len(apps))
	for i := range apps {
		resp = append(resp, models.NewApplicationResponse(&apps[i]))
	}
	c.JSON(http.StatusOK, resp)
}

// DecideApplication godoc
// @Summary     Approve or reject a producer application
// @Description Approval creates the producer profile and grants the producer role.
// @Tags        admin
// @Accept      json
// @Produce     json
// @Security    Bearer
// @Param       application_id path string true "Application ID (UUID)"
// @Param       request body models.DecideApplicationRequest true "Decision"
// @Success     200 {object} models.ApplicationResponse
// @Failure     409 {object} models.ErrorResponse
// @Router      /admin/applications/{application_id}/decision [post]
func (h *AdminHandler) DecideApplication(c *gin.Context) {
	id, ok := uuidParam(c, "application_id")
	if !ok {
		return
	}
	var req models.DecideApplicationRequest
	if !bindJSON(c, &req) {
		return
	}
	app, err := h.producers.Decide(c.Request.Context(), id, req.Approve)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.NewApplicationResponse(app))
}
