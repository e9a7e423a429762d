package handler

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/GTDGit/costchecker/internal/sse"
	"github.com/GTDGit/costchecker/internal/utils"
)

// SSEHandler serves the live query feed to admin dashboards.
type SSEHandler struct {
	hub       *sse.Hub
	jwtSecret string
}

// NewSSEHandler creates a new SSEHandler.
func NewSSEHandler(hub *sse.Hub, jwtSecret string) *SSEHandler {
	return &SSEHandler{hub: hub, jwtSecret: jwtSecret}
}

// Stream handles GET /api/analytics/stream?token=<jwt>[&status=success|error][&event=resolved|confirmed][&classification=...]
// EventSource cannot set headers, so the token comes from the query string.
func (h *SSEHandler) Stream(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		utils.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Missing token query parameter")
		return
	}

	claims, err := utils.ValidateJWT(h.jwtSecret, token)
	if err != nil {
		utils.Error(c, http.StatusUnauthorized, "INVALID_TOKEN", "Invalid or expired token")
		return
	}

	filter, err := sse.ParseFilter(c.Query("status"), c.Query("event"), c.Query("classification"))
	if err != nil {
		utils.Error(c, http.StatusBadRequest, "INVALID_FILTER", err.Error())
		return
	}

	clientID := fmt.Sprintf("admin-%s-%d", claims.Username, time.Now().UnixNano())

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no") // Disable nginx buffering

	client := h.hub.Register(clientID, filter)
	defer h.hub.Unregister(clientID)

	c.SSEvent("connected", gin.H{
		"clientId":  clientID,
		"status":    filter.Outcome,
		"event":     filter.Event,
		"timestamp": time.Now().Format(time.RFC3339),
	})
	c.Writer.Flush()

	log.Info().Str("client_id", clientID).Msg("Query feed stream started")

	c.Stream(func(w io.Writer) bool {
		select {
		case data, ok := <-client.Events:
			if !ok {
				return false
			}
			c.SSEvent("query", string(data))
			return true
		case <-time.After(30 * time.Second):
			c.SSEvent("ping", gin.H{"timestamp": time.Now().Format(time.RFC3339)})
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}
