package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/GTDGit/costchecker/internal/service"
	"github.com/GTDGit/costchecker/internal/utils"
)

type AuthHandler struct {
	authService *service.AdminAuthService
}

func NewAuthHandler(authService *service.AdminAuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// Login handles POST /api/admin/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body")
		return
	}

	token, err := h.authService.Login(req.Username, req.Password)
	switch {
	case errors.Is(err, utils.ErrNoCredentials):
		utils.Error(c, http.StatusServiceUnavailable, "ADMIN_DISABLED", "Admin login is not configured")
		return
	case err != nil:
		utils.Error(c, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid username or password")
		return
	}

	utils.Success(c, http.StatusOK, "Login successful", gin.H{
		"token": token,
	})
}
