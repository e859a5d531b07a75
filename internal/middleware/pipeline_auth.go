package middleware

import (
	"crypto/subtle"

	"github.com/gin-gonic/gin"

	apperrors "esarbank/internal/errors"
)

// PipelineAuthMiddleware guards the internal job endpoints. Callers present
// the configured key in X-API-Key; with no key configured the endpoints are
// switched off.
func PipelineAuthMiddleware(apiKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if apiKey == "" {
			abortWithAppError(c, apperrors.ErrPipelineNotConfigured)
			return
		}
		key := c.GetHeader("X-API-Key")
		if subtle.ConstantTimeCompare([]byte(key), []byte(apiKey)) != 1 {
			abortWithAppError(c, apperrors.ErrInvalidAPIKey)
			return
		}
		c.Next()
	}
}
