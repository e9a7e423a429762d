package middleware

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
)

// originHost returns the host part of origin or referer URL, or empty if invalid.
// Strips default ports (:443, :80) so "example.com:443" matches "example.com".
func originHost(raw string) string {
	raw = strings.TrimSpace(strings.TrimSuffix(raw, "/"))
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ""
	}
	host := strings.ToLower(u.Host)
	if strings.HasSuffix(host, ":443") || strings.HasSuffix(host, ":80") {
		host, _, _ = strings.Cut(host, ":")
	}
	return host
}

// CORSMiddleware handles Cross-Origin Resource Sharing headers. origins are
// full origins or bare hosts; "*" allows any origin without credentials.
func CORSMiddleware(origins []string) gin.HandlerFunc {
	allowAny := false
	allowedHosts := make(map[string]bool, len(origins))
	for _, o := range origins {
		if o == "*" {
			allowAny = true
			continue
		}
		if h := originHost(o); h != "" {
			allowedHosts[h] = true
		} else {
			allowedHosts[strings.ToLower(o)] = true
		}
	}

	return func(c *gin.Context) {
		origin := strings.TrimSpace(strings.TrimSuffix(c.Request.Header.Get("Origin"), "/"))

		switch {
		case allowAny:
			c.Header("Access-Control-Allow-Origin", "*")
		case origin != "" && allowedHosts[originHost(origin)]:
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Access-Control-Allow-Credentials", "true")
			c.Header("Vary", "Origin")
		}

		c.Header("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Header("Access-Control-Allow-Methods", "POST, OPTIONS, GET")
		c.Header("Access-Control-Max-Age", "86400")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
