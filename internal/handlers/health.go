package handlers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stwalsh4118/landsync/internal/middleware"
)

const (
	// APIVersion is the current version of the API
	APIVersion = "0.1.0"
	// HealthCheckTimeout is the timeout for dependency health checks
	HealthCheckTimeout = 2 * time.Second
)

// Pinger is a dependency that can report whether it is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler handles health check and readiness endpoints.
type HealthHandler struct {
	db        Pinger // nil when the in-memory store is in use
	lock      Pinger // nil when run locking is disabled
	startTime time.Time
	env       string
	store     string
}

// NewHealthHandler creates a new HealthHandler instance. Either pinger may be nil.
func NewHealthHandler(db, lock Pinger, env string) *HealthHandler {
	store := "postgres"
	if db == nil {
		store = "memory"
	}
	return &HealthHandler{
		db:        db,
		lock:      lock,
		startTime: time.Now(),
		env:       env,
		store:     store,
	}
}

// HealthResponse represents the basic health check response.
type HealthResponse struct {
	Status string `json:"status"`
}

// ReadyResponse represents the readiness check response.
type ReadyResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Lock     string `json:"lock,omitempty"`
}

// InfoResponse represents the API information response.
type InfoResponse struct {
	Version     string `json:"version"`
	Environment string `json:"environment"`
	Uptime      string `json:"uptime"`
	Store       string `json:"store"`
}

// Health handles GET /health endpoint.
// This is a basic health check that always returns 200 OK.
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status: "healthy",
	})
}

// Ready handles GET /health/ready endpoint.
// Returns 200 OK when every configured dependency answers, 503 Service Unavailable otherwise.
func (h *HealthHandler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), HealthCheckTimeout)
	defer cancel()

	resp := ReadyResponse{Status: "ready", Database: "in_memory"}
	status := http.StatusOK

	if h.db != nil {
		resp.Database = "connected"
		if err := h.db.Ping(ctx); err != nil {
			h.logFailure(c, "Database health check failed", err)
			resp.Database = "disconnected"
			status = http.StatusServiceUnavailable
		}
	}

	if h.lock != nil {
		resp.Lock = "connected"
		if err := h.lock.Ping(ctx); err != nil {
			h.logFailure(c, "Lock backend health check failed", err)
			resp.Lock = "disconnected"
			status = http.StatusServiceUnavailable
		}
	}

	if status != http.StatusOK {
		resp.Status = "not_ready"
	}
	c.JSON(status, resp)
}

func (h *HealthHandler) logFailure(c *gin.Context, msg string, err error) {
	if log := middleware.GetLogger(c); log != nil {
		log.Error(msg, err, map[string]interface{}{
			"timeout": HealthCheckTimeout.String(),
		})
	}
}

// Info handles GET /api/v1/info endpoint.
// Returns API metadata including version, environment, and uptime.
func (h *HealthHandler) Info(c *gin.Context) {
	uptime := time.Since(h.startTime)

	c.JSON(http.StatusOK, InfoResponse{
		Version:     APIVersion,
		Environment: h.env,
		Uptime:      formatUptime(uptime),
		Store:       h.store,
	})
}

// formatUptime formats a duration into a human-readable string.
func formatUptime(d time.Duration) string {
	days := int(d.Hours() / 24)
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60

	if days > 0 {
		return fmt.Sprintf("%dd %dh %dm %ds", days, hours, minutes, seconds)
	}
	return fmt.Sprintf("%dh %dm %ds", hours, minutes, seconds)
}
