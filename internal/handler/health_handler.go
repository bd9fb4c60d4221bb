// internal/handler/health_handler.go
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"printer-bridge/internal/config"
	"printer-bridge/internal/session"
	"printer-bridge/internal/utils"
)

// Pinger checks a backing store
type Pinger interface {
	Health(ctx context.Context) error
}

// SessionLister snapshots the printer sessions
type SessionLister interface {
	Sessions() []session.Snapshot
}

// EventStats reports push event delivery counters
type EventStats interface {
	Stats() (delivered, dropped int64)
}

// HealthHandler handles health check requests
type HealthHandler struct {
	db        Pinger
	sessions  SessionLister
	events    EventStats
	config    *config.Config
	startTime time.Time
	logger    *utils.ServiceLogger
}

// NewHealthHandler creates a new health handler. db is nil when the journal
// is kept in memory.
func NewHealthHandler(db Pinger, sessions SessionLister, events EventStats, config *config.Config, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{
		db:        db,
		sessions:  sessions,
		events:    events,
		config:    config,
		startTime: time.Now(),
		logger:    utils.NewServiceLogger(logger, "health-handler"),
	}
}

// HealthCheck performs general health check
// @Summary Health check
// @Description Get overall service health including journal storage and printer sessions
// @Tags Health
// @Produce json
// @Success 200 {object} HealthResponse "Service is healthy"
// @Failure 503 {object} HealthResponse "Service is unhealthy"
// @Router /health [get]
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	health := &HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now(),
		Service:   h.config.App.Name,
		Version:   h.config.App.Version,
		Uptime:    time.Since(h.startTime).String(),
		Checks:    make(map[string]CheckResult),
	}

	if h.db == nil {
		health.Checks["journal"] = CheckResult{Status: "healthy", Message: "In-memory journal"}
	} else if err := h.db.Health(c.Request.Context()); err != nil {
		h.logger.Error("Database health check failed", zap.Error(err))
		health.Status = "unhealthy"
		health.Checks["journal"] = CheckResult{Status: "unhealthy", Message: err.Error()}
	} else {
		health.Checks["journal"] = CheckResult{Status: "healthy", Message: "Database connection OK"}
	}

	snapshots := h.sessions.Sessions()
	open := 0
	for _, s := range snapshots {
		if s.State == session.StateOpen {
			open++
		}
	}
	health.Checks["sessions"] = CheckResult{
		Status: "healthy",
		Data: map[string]interface{}{
			"total": len(snapshots),
			"open":  open,
		},
	}

	if h.events != nil {
		delivered, dropped := h.events.Stats()
		health.Checks["events"] = CheckResult{
			Status: "healthy",
			Data: map[string]interface{}{
				"delivered": delivered,
				"dropped":   dropped,
			},
		}
	}

	statusCode := http.StatusOK
	if health.Status == "unhealthy" {
		statusCode = http.StatusServiceUnavailable
	}

	c.JSON(statusCode, health)
}

// SessionsCheck lists every known printer session
// @Summary Printer sessions
// @Description Snapshot of the connection registry
// @Tags Health
// @Produce json
// @Success 200 {object} utils.APIResponse{data=[]session.Snapshot} "Sessions retrieved"
// @Router /health/sessions [get]
func (h *HealthHandler) SessionsCheck(c *gin.Context) {
	utils.SuccessResponse(c, http.StatusOK, "Sessions retrieved", h.sessions.Sessions())
}

// ReadinessCheck for Kubernetes readiness probe
// @Summary Readiness check
// @Tags Health
// @Produce json
// @Success 200 {object} object{status=string,timestamp=string} "Service is ready"
// @Failure 503 {object} object{status=string,reason=string} "Service is not ready"
// @Router /ready [get]
func (h *HealthHandler) ReadinessCheck(c *gin.Context) {
	if h.db != nil {
		if err := h.db.Health(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "not ready",
				"reason": "database not available",
			})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    "ready",
		"timestamp": time.Now(),
	})
}

// LivenessCheck for Kubernetes liveness probe
// @Summary Liveness check
// @Tags Health
// @Produce json
// @Success 200 {object} object{status=string,timestamp=string} "Service is alive"
// @Router /live [get]
func (h *HealthHandler) LivenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "alive",
		"timestamp": time.Now(),
	})
}

// HealthResponse represents health check response
type HealthResponse struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Service   string                 `json:"service"`
	Version   string                 `json:"version"`
	Uptime    string                 `json:"uptime"`
	Checks    map[string]CheckResult `json:"checks"`
}

// CheckResult represents individual check result
type CheckResult struct {
	Status  string                 `json:"status"`
	Message string                 `json:"message,omitempty"`
	Data    map[string]interface{} `json:"data,omitempty"`
}
