package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/psds-microservice/watchparty-service/internal/service"
)

// HealthHandler handles health and ready checks.
type HealthHandler struct {
	mgr *service.LifecycleManager
}

// NewHealthHandler creates a health handler.
func NewHealthHandler(mgr *service.LifecycleManager) *HealthHandler {
	return &HealthHandler{mgr: mgr}
}

// Health responds to GET /health with aggregate party/connection counters.
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"service":   "watchparty-service",
		"timestamp": time.Now().UTC(),
		"stats":     h.mgr.Stats(),
	})
}

// Ready responds to GET /ready (for k8s readiness).
func (h *HealthHandler) Ready(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}
