package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/krishhhh88/instadrive-backend/domain/apperr"
	"github.com/krishhhh88/instadrive-backend/domain/dto"
	"github.com/krishhhh88/instadrive-backend/infrastructure/logger"

	"github.com/gin-gonic/gin"
)

// Header channels a trigger secret may arrive on, highest precedence first.
const (
	HeaderVercelCron = "X-Vercel-Cron"
	HeaderCronSecret = "X-Cron-Secret"
)

// TriggerToken extracts the presented trigger secret from the request headers.
func TriggerToken(h http.Header) string {
	token := h.Get(HeaderVercelCron)
	if token == "" {
		token = h.Get("Authorization")
	}
	if token == "" {
		token = h.Get(HeaderCronSecret)
	}
	return strings.TrimPrefix(token, "Bearer ")
}

// VerifyTrigger checks the presented secret in constant time. An empty secret never matches.
func VerifyTrigger(h http.Header, secret string) error {
	token := TriggerToken(h)
	if secret == "" {
		return &apperr.AuthError{Reason: "trigger secret not configured"}
	}
	if token == "" {
		return &apperr.AuthError{Reason: "missing trigger secret"}
	}
	if subtle.ConstantTimeCompare([]byte(token), []byte(secret)) != 1 {
		return &apperr.AuthError{Reason: "trigger secret mismatch"}
	}
	return nil
}

func CronAuth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := VerifyTrigger(c.Request.Header, secret); err != nil {
			logger.GetLogger().
				WithField("remote_addr", c.ClientIP()).
				WithField("error", err).
				Warn("Rejected trigger request")
			c.AbortWithStatusJSON(http.StatusForbidden, dto.CronErrorResponse{Error: "forbidden"})
			return
		}
		c.Next()
	}
}
