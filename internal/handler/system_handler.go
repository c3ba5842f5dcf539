package handler

import (
	"net/http"
	"time"

	"github.com/diemthi/thpt-score-backend/internal/response"
	"github.com/gin-gonic/gin"
)

// CacheHealth reports cache backend connectivity.
type CacheHealth interface {
	IsLive() bool
}

// SystemHandler serves operational endpoints.
type SystemHandler struct {
	cacheHealth CacheHealth
}

// NewSystemHandler creates a new SystemHandler.
func NewSystemHandler(cacheHealth CacheHealth) *SystemHandler {
	return &SystemHandler{cacheHealth: cacheHealth}
}

// Health godoc
// GET /health
//
// Always returns 200: a dead cache degrades latency, not correctness, so it
// must not fail readiness.
func (h *SystemHandler) Health(c *gin.Context) {
	healthy := h.cacheHealth.IsLive()
	status := "connected"
	if !healthy {
		status = "disconnected"
	}

	response.Success(c, http.StatusOK, gin.H{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"services": gin.H{
			"redis": gin.H{
				"status":  status,
				"healthy": healthy,
			},
		},
	})
}
