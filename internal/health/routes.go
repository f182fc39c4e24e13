package health

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jgirmay/privacy-tower/internal/api"
)

// HealthHandler provides health check endpoints
type HealthHandler struct {
	checker *HealthChecker
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(checker *HealthChecker) *HealthHandler {
	return &HealthHandler{
		checker: checker,
	}
}

// RegisterRoutes registers health check endpoints under /health
func (h *HealthHandler) RegisterRoutes(router gin.IRouter) {
	health := router.Group("/health")
	{
		health.GET("", h.handleHealthStatus)
		health.GET("/live", h.handleLiveness)
		health.GET("/ready", h.handleReadiness)
		health.GET("/apps/:appName", h.handleAppHealth)
	}
}

func (h *HealthHandler) handleHealthStatus(c *gin.Context) {
	status := h.checker.Check(c.Request.Context())

	httpStatus := http.StatusOK
	if status.Status != "healthy" {
		httpStatus = http.StatusServiceUnavailable
	}

	api.RespondWith(c, httpStatus, status)
}

func (h *HealthHandler) handleLiveness(c *gin.Context) {
	api.RespondWith(c, http.StatusOK, gin.H{
		"status":  "alive",
		"message": "Service is running",
	})
}

func (h *HealthHandler) handleReadiness(c *gin.Context) {
	status := h.checker.Check(c.Request.Context())

	if status.Status == "healthy" {
		api.RespondWith(c, http.StatusOK, gin.H{
			"status":  "ready",
			"message": "Service is ready to serve requests",
		})
		return
	}
	api.RespondWithError(c, api.NewError(
		api.ErrCodeUnavailable,
		"Service is not ready: "+status.Message,
		http.StatusServiceUnavailable,
	))
}

func (h *HealthHandler) handleAppHealth(c *gin.Context) {
	appName := c.Param("appName")
	appHealth := h.checker.CheckApp(appName)

	if appHealth.Status == "not_found" {
		api.RespondWithError(c, api.NewError(
			api.ErrCodeNotFound,
			"App not found: "+appName,
			http.StatusNotFound,
		))
		return
	}

	api.RespondWith(c, http.StatusOK, appHealth)
}
