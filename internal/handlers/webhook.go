package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/webhook"
	"go.uber.org/zap"
	"song-request-backend/internal/apperr"
	"song-request-backend/internal/models"
	"song-request-backend/internal/services"
)

const maxWebhookBody = 1 << 16

type WebhookHandler struct {
	secret string
	orders *services.OrderService
	logger *zap.Logger
}

func NewWebhookHandler(secret string, orders *services.OrderService, logger *zap.Logger) *WebhookHandler {
	return &WebhookHandler{secret: secret, orders: orders, logger: logger}
}

// HandleStripe godoc
// @Summary     Stripe webhook endpoint
// @Description Receives checkout.session.completed and runs the same idempotent payment verification as /checkout/verify. Other events are acknowledged and ignored.
// @Tags        webhooks
// @Accept      json
// @Produce     json
// @Param       Stripe-Signature header string true "Stripe signature"
// @Success     200 {object} map[string]string "status"
// @Failure     400 {object} models.ErrorResponse
// @Failure     401 {object} models.ErrorResponse
// @Router      /webhooks/stripe [post]
func (h *WebhookHandler) HandleStripe(c *gin.Context) {
	if h.secret == "" {
		c.JSON(http.StatusServiceUnavailable, models.ErrorResponse{Error: "unavailable", Message: "stripe webhook is not configured"})
		return
	}

	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "validation",
			Message: "failed to read request body",
		})
		return
	}

	event, err := webhook.ConstructEventWithOptions(body, c.GetHeader("Stripe-Signature"), h.secret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: "unauthorized", Message: "invalid stripe signature"})
		return
	}

	if string(event.Type) != "checkout.session.completed" {
		c.JSON(http.StatusOK, gin.H{"status": "ignored"})
		return
	}

	var sess stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "validation", Message: "invalid checkout session payload"})
		return
	}

	resp, err := h.orders.VerifyPayment(c.Request.Context(), sess.ID)
	switch {
	case errors.Is(err, apperr.ErrPaymentRequired):
		// async payment methods complete later
		c.JSON(http.StatusOK, gin.H{"status": "awaiting_payment"})
	case err != nil:
		h.logger.Error("stripe webhook verification failed", zap.String("session_id", sess.ID), zap.Error(err))
		respondError(c, err)
	default:
		c.JSON(http.StatusOK, gin.H{"status": resp.Status})
	}
}
