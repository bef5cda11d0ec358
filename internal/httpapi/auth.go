package httpapi

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungtweek/pollinations-proxy/internal/config"
	"github.com/yungtweek/pollinations-proxy/internal/logger"
)

const bearerPrefix = "bearer "

// MasterKeyAuth guards every route with the configured master key. It is a pass-through
// when auth is disabled. A missing or non-bearer header is 401; a wrong key is 403.
func MasterKeyAuth(cfg config.Config) gin.HandlerFunc {
	if !cfg.AuthEnabled() {
		return func(c *gin.Context) { c.Next() }
	}

	want := []byte(cfg.APIMasterKey)
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if len(header) < len(bearerPrefix) || !strings.EqualFold(header[:len(bearerPrefix)], bearerPrefix) {
			logger.Log.Infow("[http] auth missing", "path", c.Request.URL.Path, "remote", c.ClientIP())
			abortDetail(c, http.StatusUnauthorized, "Bearer token authentication required.")
			return
		}

		token := header[len(bearerPrefix):]
		if subtle.ConstantTimeCompare([]byte(token), want) != 1 {
			logger.Log.Infow("[http] auth invalid", "path", c.Request.URL.Path, "remote", c.ClientIP())
			abortDetail(c, http.StatusForbidden, "Invalid API key.")
			return
		}

		c.Next()
	}
}
