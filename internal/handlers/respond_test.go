package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"song-request-backend/internal/apperr"
)

func TestRespondError(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		err      error
		status   int
		contains string
	}{
		{fmt.Errorf("tier is required: %w", apperr.ErrValidation), http.StatusBadRequest, "tier is required"},
		{fmt.Errorf("order x: %w", apperr.ErrForbidden), http.StatusForbidden, `"error":"forbidden"`},
		{fmt.Errorf("already paid: %w", apperr.ErrConflict), http.StatusConflict, `"error":"conflict"`},
		{fmt.Errorf("stripe: %w", apperr.ErrUpstream), http.StatusBadGateway, `"error":"upstream"`},
		{errors.New("pq: connection refused"), http.StatusInternalServerError, "internal server error"},
	}
	for _, tt := range tests {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		respondError(c, tt.err)

		assert.Equal(t, tt.status, w.Code, tt.err.Error())
		assert.Contains(t, w.Body.String(), tt.contains)
		assert.NotContains(t, w.Body.String(), "connection refused")
	}
}
