package health

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Check reports whether a dependency is ready to serve.
type Check func() error

type Handler struct {
	checks  map[string]Check
	started time.Time
}

func NewHandler(checks map[string]Check) *Handler {
	return &Handler{
		checks:  checks,
		started: time.Now(),
	}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	health := r.Group("/health")
	{
		health.GET("/live", h.LivenessCheck)
		health.GET("/ready", h.ReadinessCheck)
	}
}

func (h *Handler) LivenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "UP",
		"uptime": time.Since(h.started).Round(time.Second).String(),
	})
}

func (h *Handler) ReadinessCheck(c *gin.Context) {
	for name, check := range h.checks {
		if err := check(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "DOWN",
				"reason": name + ": " + err.Error(),
			})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "UP"})
}
