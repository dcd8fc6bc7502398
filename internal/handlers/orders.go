package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"song-request-backend/internal/models"
	"song-request-backend/internal/services"
)

type OrdersHandler struct {
	orders *services.OrderService
}

func NewOrdersHandler(orders *services.OrderService) *OrdersHandler {
	return &OrdersHandler{orders: orders}
}

// Checkout godoc
// @Summary     Start checkout for a song request
// @Description Creates the order in pending_payment, computes the platform fee and producer payout, and opens a hosted Stripe checkout session.
// @Tags        checkout
// @Accept      json
// @Produce     json
// @Security    Bearer
// @Param       request body models.CheckoutRequest true "Order details"
// @Success     200 {object} models.CheckoutResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     401 {object} models.ErrorResponse
// @Failure     502 {object} models.ErrorResponse
// @Router      /checkout [post]
func (h *OrdersHandler) Checkout(c *gin.Context) {
	who, ok := caller(c)
	if !ok {
		return
	}
	var req models.CheckoutRequest
	if !bindJSON(c, &req) {
		return
	}

	resp, err := h.orders.Checkout(c.Request.Context(), who, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// VerifyPayment godoc
// @Summary     Verify a completed checkout
// @Description Records the purchase for a paid session and moves the order to paid. Safe to call more than once; repeat calls return already_processed.
// @Tags        checkout
// @Accept      json
// @Produce     json
// @Security    Bearer
// @Param       request body models.VerifyPaymentRequest true "Checkout session"
// @Success     200 {object} models.VerifyPaymentResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     404 {object} models.ErrorResponse
// @Router      /checkout/verify [post]
func (h *OrdersHandler) VerifyPayment(c *gin.Context) {
	var req models.VerifyPaymentRequest
	if !bindJSON(c, &req) {
		return
	}

	resp, err := h.orders.VerifyPayment(c.Request.Context(), req.SessionID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func orderList(orders []models.SongRequest) models.OrderListResponse {
	resp := models.OrderListResponse{Orders: make([]models.OrderResponse, 0, len(orders))}
	for i := range orders {
		resp.Orders = append(resp.Orders, models.NewOrderResponse(&orders[i]))
	}
	return resp
}

// ListOrders godoc
// @Summary     List my orders
// @Tags        orders
// @Produce     json
// @Security    Bearer
// @Success     200 {object} models.OrderListResponse
// @Failure     401 {object} models.ErrorResponse
// @Router      /orders [get]
func (h *OrdersHandler) ListOrders(c *gin.Context) {
	who, ok := caller(c)
	if !ok {
		return
	}
	orders, err := h.orders.ListMine(c.Request.Context(), who)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, orderList(orders))
}

// ListAssigned godoc
// @Summary     List orders assigned to me as a producer
// @Tags        producer
// @Produce     json
// @Security    Bearer
// @Success     200 {object} models.OrderListResponse
// @Failure     403 {object} models.ErrorResponse
// @Router      /producer/orders [get]
func (h *OrdersHandler) ListAssigned(c *gin.Context) {
	who, ok := caller(c)
	if !ok {
		return
	}
	orders, err := h.orders.ListAssigned(c.Request.Context(), who)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, orderList(orders))
}

// GetOrder godoc
// @Summary     Get an order
// @Description Visible to the customer, the assigned producer and admins.
// @Tags        orders
// @Produce     json
// @Security    Bearer
// @Param       order_id path string true "Order ID (UUID)"
// @Success     200 {object} models.OrderResponse
// @Failure     403 {object} models.ErrorResponse
// @Failure     404 {object} models.ErrorResponse
// @Router      /orders/{order_id} [get]
func (h *OrdersHandler) GetOrder(c *gin.Context) {
	who, ok := caller(c)
	if !ok {
		return
	}
	orderID, ok := uuidParam(c, "order_id")
	if !ok {
		return
	}
	order, err := h.orders.Get(c.Request.Context(), who, orderID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.NewOrderResponse(order))
}

// StartOrder godoc
// @Summary     Start production
// @Description Moves an accepted order to in_progress. Assigned producer only.
// @Tags        orders
// @Produce     json
// @Security    Bearer
// @Param       order_id path string true "Order ID (UUID)"
// @Success     200 {object} models.OrderResponse
// @Failure     403 {object} models.ErrorResponse
// @Failure     409 {object} models.ErrorResponse
// @Router      /orders/{order_id}/start [post]
func (h *OrdersHandler) StartOrder(c *gin.Context) {
	who, ok := caller(c)
	if !ok {
		return
	}
	orderID, ok := uuidParam(c, "order_id")
	if !ok {
		return
	}
	order, err := h.orders.Start(c.Request.Context(), who, orderID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.NewOrderResponse(order))
}

// RequestCancellation godoc
// @Summary     Ask to cancel an order
// @Tags        orders
// @Produce     json
// @Security    Bearer
// @Param       order_id path string true "Order ID (UUID)"
// @Success     200 {object} models.OrderResponse
// @Failure     403 {object} models.ErrorResponse
// @Failure     409 {object} models.ErrorResponse
// @Router      /orders/{order_id}/cancel-request [post]
func (h *OrdersHandler) RequestCancellation(c *gin.Context) {
	who, ok := caller(c)
	if !ok {
		return
	}
	orderID, ok := uuidParam(c, "order_id")
	if !ok {
		return
	}
	order, err := h.orders.RequestCancellation(c.Request.Context(), who, orderID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.NewOrderResponse(order))
}

// Deliver godoc
// @Summary     Submit the final delivery
// @Description Records the final delivery link, completes the order and emails the customer. Assigned producer only.
// @Tags        orders
// @Accept      json
// @Produce     json
// @Security    Bearer
// @Param       order_id path string true "Order ID (UUID)"
// @Param       request body models.FinalDeliveryRequest true "Delivery link"
// @Success     200 {object} models.OrderResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     403 {object} models.ErrorResponse
// @Failure     409 {object} models.ErrorResponse
// @Router      /orders/{order_id}/deliver [post]
func (h *OrdersHandler) Deliver(c *gin.Context) {
	who, ok := caller(c)
	if !ok {
		return
	}
	orderID, ok := uuidParam(c, "order_id")
	if !ok {
		return
	}
	var req models.FinalDeliveryRequest
	if !bindJSON(c, &req) {
		return
	}
	order, err := h.orders.Deliver(c.Request.Context(), who, orderID, req.DeliveryLink)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.NewOrderResponse(order))
}
