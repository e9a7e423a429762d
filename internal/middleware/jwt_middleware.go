package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/GTDGit/costchecker/internal/utils"
)

// JWTMiddleware guards the analytics routes with admin bearer tokens.
type JWTMiddleware struct {
	secret string
}

func NewJWTMiddleware(secret string) *JWTMiddleware {
	return &JWTMiddleware{secret: secret}
}

func (m *JWTMiddleware) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			utils.Abort(c, http.StatusUnauthorized, "UNAUTHORIZED", "Missing authorization header")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			utils.Abort(c, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid authorization header")
			return
		}

		claims, err := utils.ValidateJWT(m.secret, parts[1])
		if err != nil {
			utils.Abort(c, http.StatusUnauthorized, "INVALID_TOKEN", "Invalid or expired token")
			return
		}

		c.Set("username", claims.Username)
		c.Next()
	}
}
