package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"song-request-backend/internal/models"
	"song-request-backend/internal/services"
)

type ProducersHandler struct {
	producers *services.ProducerService
}

func NewProducersHandler(producers *services.ProducerService) *ProducersHandler {
	return &ProducersHandler{producers: producers}
}

// ListProducers godoc
// @Summary     List producers
// @Tags        producers
// @Produce     json
// @Success     200 {array} models.ProducerResponse
// @Router      /producers [get]
func (h *ProducersHandler) ListProducers(c *gin.Context) {
	producers, err := h.producers.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	resp := make([]models.ProducerResponse, 0, len(producers))
	for i := range producers {
		resp = append(resp, models.NewProducerResponse(&producers[i]))
	}
	c.JSON(http.StatusOK, resp)
}

// GetProducer godoc
// @Summary     Get a producer by slug
// @Tags        producers
// @Produce     json
// @Param       slug path string true "Producer slug"
// @Success     200 {object} models.ProducerResponse
// @Failure     404 {object} models.ErrorResponse
// @Router      /producers/{slug} [get]
func (h *ProducersHandler) GetProducer(c *gin.Context) {
	p, err := h.producers.GetBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.NewProducerResponse(p))
}

// Me godoc
// @Summary     My producer profile
// @Tags        producer
// @Produce     json
// @Security    Bearer
// @Success     200 {object} models.ProducerResponse
// @Failure     403 {object} models.ErrorResponse
// @Router      /producer/profile [get]
func (h *ProducersHandler) Me(c *gin.Context) {
	who, ok := caller(c)
	if !ok {
		return
	}
	p, err := h.producers.Me(c.Request.Context(), who)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.NewProducerResponse(p))
}

// UpdateProfile godoc
// @Summary     Update my producer profile
// @Tags        producer
// @Accept      json
// @Produce     json
// @Security    Bearer
// @Param       request body models.UpdateProducerProfileRequest true "Fields to change"
// @Success     200 {object} models.ProducerResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     403 {object} models.ErrorResponse
// @Router      /producer/profile [put]
func (h *ProducersHandler) UpdateProfile(c *gin.Context) {
	who, ok := caller(c)
	if !ok {
		return
	}
	var req models.UpdateProducerProfileRequest
	if !bindJSON(c, &req) {
		return
	}
	p, err := h.producers.UpdateProfile(c.Request.Context(), who, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.NewProducerResponse(p))
}

// Apply godoc
// @Summary     Apply to become a producer
// @Tags        producers
// @Accept      json
// @Produce     json
// @Security    Bearer
// @Param       request body models.ProducerApplicationRequest true "Application"
// @Success     201 {object} models.ApplicationResponse
// @Failure     400 {object} models.ErrorResponse
// @Router      /producer-applications [post]
func (h *ProducersHandler) Apply(c *gin.Context) {
	who, ok := caller(c)
	if !ok {
		return
	}
	var req models.ProducerApplicationRequest
	if !bindJSON(c, &req) {
		return
	}
	app, err := h.producers.Apply(c.Request.Context(), who, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, models.NewApplicationResponse(app))
}

// Connect godoc
// @Summary     Start Stripe Connect onboarding
// @Description Creates the Express account on first use and returns a fresh onboarding link.
// @Tags        producer
// @Produce     json
// @Security    Bearer
// @Success     200 {object} models.ConnectResponse
// @Failure     403 {object} models.ErrorResponse
// @Failure     502 {object} models.ErrorResponse
// @Router      /producer/connect [post]
func (h *ProducersHandler) Connect(c *gin.Context) {
	who, ok := caller(c)
	if !ok {
		return
	}
	resp, err := h.producers.Connect(c.Request.Context(), who)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ConnectStatus godoc
// @Summary     Stripe Connect onboarding status
// @Tags        producer
// @Produce     json
// @Security    Bearer
// @Success     200 {object} models.ConnectResponse
// @Router      /producer/connect/status [get]
func (h *ProducersHandler) ConnectStatus(c *gin.Context) {
	who, ok := caller(c)
	if !ok {
		return
	}
	resp, err := h.producers.ConnectStatus(c.Request.Context(), who)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
