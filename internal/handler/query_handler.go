package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/GTDGit/costchecker/internal/models"
	"github.com/GTDGit/costchecker/internal/service"
	"github.com/GTDGit/costchecker/internal/utils"
)

// Resolver answers price queries and confirmations.
type Resolver interface {
	Resolve(ctx context.Context, text string) models.Resolution
	Confirm(ctx context.Context, confirmationID, optionID string) models.Resolution
}

// QueryRecorder receives every outcome for analytics.
type QueryRecorder interface {
	Record(ctx context.Context, e service.QueryLogEntry)
}

// QueryHandler serves the public query endpoints.
type QueryHandler struct {
	resolver Resolver
	recorder QueryRecorder
}

// NewQueryHandler creates a new QueryHandler. recorder may be nil.
func NewQueryHandler(resolver Resolver, recorder QueryRecorder) *QueryHandler {
	return &QueryHandler{resolver: resolver, recorder: recorder}
}

type queryRequest struct {
	Query       string `json:"query" binding:"required"`
	UserSession string `json:"user_session"`
}

type confirmRequest struct {
	ConfirmationID string `json:"confirmation_id" binding:"required"`
	SelectedOption string `json:"selected_option" binding:"required"`
	UserSession    string `json:"user_session"`
}

// Query handles POST /api/query
func (h *QueryHandler) Query(c *gin.Context) {
	var req queryRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Query) == "" {
		utils.Error(c, http.StatusBadRequest, "INVALID_REQUEST", "query is required")
		return
	}

	res := h.resolver.Resolve(c.Request.Context(), req.Query)
	h.record(c, service.QueryLogEntry{Text: req.Query, Session: req.UserSession, Resolution: res})
	h.respond(c, res)
}

// Confirm handles POST /api/confirm
func (h *QueryHandler) Confirm(c *gin.Context) {
	var req confirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, http.StatusBadRequest, "INVALID_REQUEST", "confirmation_id and selected_option are required")
		return
	}

	res := h.resolver.Confirm(c.Request.Context(), req.ConfirmationID, req.SelectedOption)
	h.record(c, service.QueryLogEntry{
		Text:       "confirm:" + req.ConfirmationID + ":" + req.SelectedOption,
		Session:    req.UserSession,
		Confirmed:  true,
		Resolution: res,
	})
	h.respond(c, res)
}

func (h *QueryHandler) record(c *gin.Context, e service.QueryLogEntry) {
	if h.recorder == nil {
		return
	}
	e.IP = c.ClientIP()
	h.recorder.Record(c.Request.Context(), e)
}

// respond sends domain outcomes, including user-facing errors, as 200.
// Only internal failures map to 500.
func (h *QueryHandler) respond(c *gin.Context, res models.Resolution) {
	switch res.Status {
	case models.StatusSuccess:
		utils.Success(c, http.StatusOK, "Query resolved", res)
	case models.StatusNeedsConfirmation:
		utils.Success(c, http.StatusOK, res.NeedsConfirmation.Message, res)
	default:
		if res.Error != nil && res.Error.Kind == models.ErrInternal {
			utils.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", res.Error.Message)
			return
		}
		msg := ""
		if res.Error != nil {
			msg = res.Error.Message
		}
		utils.Success(c, http.StatusOK, msg, res)
	}
}
