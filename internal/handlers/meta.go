package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"song-request-backend/internal/matching"
	"song-request-backend/internal/models"
)

type genreResponse struct {
	Slug  string `json:"slug"`
	Label string `json:"label"`
}

// Statuses godoc
// @Summary     Order status display table
// @Tags        meta
// @Produce     json
// @Success     200 {array} models.StatusInfo
// @Router      /meta/statuses [get]
func Statuses(c *gin.Context) {
	c.JSON(http.StatusOK, models.Statuses())
}

// Genres godoc
// @Summary     Genres used for producer matching
// @Tags        meta
// @Produce     json
// @Success     200 {array} genreResponse
// @Router      /meta/genres [get]
func Genres(c *gin.Context) {
	genres := matching.Genres()
	resp := make([]genreResponse, 0, len(genres))
	for _, g := range genres {
		resp = append(resp, genreResponse{Slug: g.Slug, Label: g.Label})
	}
	c.JSON(http.StatusOK, resp)
}
