package server

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"barter-exchange/internal/session"
	"barter-exchange/services/barter/helpers"
	"barter-exchange/utils"

	"github.com/gin-gonic/gin"
)

// RequestLoggerMiddleware logs incoming requests with timing
func RequestLoggerMiddleware(c *gin.Context) {
	start := time.Now()

	c.Next() // process request

	fields := map[string]any{
		"method":  c.Request.Method,
		"path":    c.Request.URL.Path,
		"status":  c.Writer.Status(),
		"latency": time.Since(start).String(),
	}
	if s := helpers.SessionFromContext(c); s.UserID != "" {
		fields["user_id"] = s.UserID
	}
	utils.Info("HTTP Request", fields)
}

// AuthMiddleware resolves the Bearer token into the request's session
func AuthMiddleware(sessions *session.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			utils.AbortWithError(c, http.StatusUnauthorized, errors.New("missing bearer token"), "authentication required")
			return
		}

		s, err := sessions.Validate(strings.TrimSpace(token))
		if err != nil {
			utils.Warn("AuthMiddleware: token rejected", map[string]any{
				"path":  c.Request.URL.Path,
				"error": err.Error(),
			})
			utils.AbortWithError(c, http.StatusUnauthorized, err, "authentication required")
			return
		}

		helpers.SetSession(c, s)
		c.Next()
	}
}
