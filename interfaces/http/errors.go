package http

import (
	"net/http"

	"github.com/krishhhh88/instadrive-backend/domain/apperr"
	"github.com/krishhhh88/instadrive-backend/infrastructure/logger"

	"github.com/gin-gonic/gin"
)

const (
	ErrorUnmarshal = "Error while unmarshal"
)

// respondError maps err onto a status and an {"error": ...} body.
// Internal failures are logged and reported without detail.
func respondError(c *gin.Context, err error) {
	status := apperr.HTTPStatus(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		logger.GetLogger().
			WithField("path", c.FullPath()).
			WithField("error", err).
			Error("Request failed")
		msg = "internal error"
	}
	c.JSON(status, gin.H{"error": msg})
}
