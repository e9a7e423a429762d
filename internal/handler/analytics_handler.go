package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/GTDGit/costchecker/internal/models"
	"github.com/GTDGit/costchecker/internal/service"
	"github.com/GTDGit/costchecker/internal/utils"
)

// AnalyticsHandler serves the admin analytics endpoints.
type AnalyticsHandler struct {
	analytics *service.AnalyticsService
}

// NewAnalyticsHandler constructs an AnalyticsHandler.
func NewAnalyticsHandler(analytics *service.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{analytics: analytics}
}

// ListQueries handles GET /api/analytics/queries
func (h *AnalyticsHandler) ListQueries(c *gin.Context) {
	filter := &models.QueryLogFilter{Status: c.Query("status")}
	switch filter.Status {
	case "", "success", "error":
	default:
		utils.Error(c, http.StatusBadRequest, "INVALID_REQUEST", "status must be success or error")
		return
	}

	if start := c.Query("startDate"); start != "" {
		t, err := time.Parse("2006-01-02", start)
		if err != nil {
			utils.Error(c, http.StatusBadRequest, "INVALID_REQUEST", "startDate must be YYYY-MM-DD")
			return
		}
		filter.Start = &t
	}
	if end := c.Query("endDate"); end != "" {
		t, err := time.Parse("2006-01-02", end)
		if err != nil {
			utils.Error(c, http.StatusBadRequest, "INVALID_REQUEST", "endDate must be YYYY-MM-DD")
			return
		}
		t = t.AddDate(0, 0, 1)
		filter.End = &t
	}

	page := queryInt(c, "page", 1)
	if page < 1 {
		page = 1
	}
	limit := queryInt(c, "limit", 50)
	if limit < 1 || limit > 500 {
		limit = 50
	}
	filter.Limit = limit
	filter.Offset = (page - 1) * limit

	logs, total, err := h.analytics.ListQueries(c.Request.Context(), filter)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list query logs")
		utils.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list queries")
		return
	}
	utils.SuccessWithPagination(c, http.StatusOK, "Queries retrieved", logs, page, limit, total)
}

// Summary handles GET /api/analytics/summary
func (h *AnalyticsHandler) Summary(c *gin.Context) {
	days := queryInt(c, "days", 7)
	if days < 1 || days > 365 {
		days = 7
	}
	sum, err := h.analytics.Summary(c.Request.Context(), days)
	if err != nil {
		log.Error().Err(err).Msg("Failed to summarize query logs")
		utils.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to summarize queries")
		return
	}
	utils.Success(c, http.StatusOK, "Summary retrieved", sum)
}

func queryInt(c *gin.Context, key string, def int) int {
	if raw := c.Query(key); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil {
			return v
		}
	}
	return def
}
