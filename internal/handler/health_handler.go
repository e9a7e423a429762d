package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/GTDGit/costchecker/internal/utils"
)

var startTime = time.Now()

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts a function to Pinger.
type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

// HealthHandler provides health endpoint.
type HealthHandler struct {
	deps map[string]Pinger
}

// NewHealthHandler creates a new HealthHandler. Nil dependencies are
// reported as disabled.
func NewHealthHandler(deps map[string]Pinger) *HealthHandler {
	return &HealthHandler{deps: deps}
}

// GetHealth handles GET /api/health. Any unreachable dependency turns the
// response into a 503.
func (h *HealthHandler) GetHealth(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	healthy := true
	status := gin.H{}
	for name, dep := range h.deps {
		switch {
		case dep == nil:
			status[name] = "disabled"
		case dep.Ping(ctx) != nil:
			status[name] = "disconnected"
			healthy = false
		default:
			status[name] = "connected"
		}
	}

	body := gin.H{
		"status":       "healthy",
		"version":      "1.0.0",
		"uptime":       int(time.Since(startTime).Seconds()),
		"dependencies": status,
	}
	if !healthy {
		body["status"] = "degraded"
		c.JSON(http.StatusServiceUnavailable, utils.Response{
			Success: false,
			Code:    http.StatusServiceUnavailable,
			Message: "Service is degraded",
			Data:    body,
			Meta:    utils.Meta{RequestID: utils.RequestID(c), Timestamp: time.Now().Format(time.RFC3339)},
		})
		return
	}
	utils.Success(c, http.StatusOK, "Service is healthy", body)
}
