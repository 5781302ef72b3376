package http

import (
	"context"
	"net/http"
	"time"

	"github.com/krishhhh88/instadrive-backend/domain/dto"
	"github.com/krishhhh88/instadrive-backend/infrastructure/logger"
	"github.com/krishhhh88/instadrive-backend/infrastructure/utils"
	"github.com/krishhhh88/instadrive-backend/usecase"

	"github.com/gin-gonic/gin"
)

type ICronHandler interface {
	RunJobs(c *gin.Context)
}

type CronHandler struct {
	pipeline usecase.IPipelineUsecase
	timeout  time.Duration
	now      func() time.Time
}

func NewCronHandler(pipeline usecase.IPipelineUsecase, timeout time.Duration) ICronHandler {
	return &CronHandler{pipeline: pipeline, timeout: timeout, now: utils.GetCurrentTime}
}

// RunJobs runs one trigger for the current minute. Authorization happens in CronAuth.
func (h *CronHandler) RunJobs(c *gin.Context) {
	ctx := c.Request.Context()
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	processed, err := h.pipeline.RunTrigger(ctx, h.now())
	if err != nil {
		logger.GetLogger().WithField("error", err).Error("Cron run failed")
		c.JSON(http.StatusInternalServerError, dto.CronErrorResponse{Error: "cron failed", Details: err.Error()})
		return
	}
	c.JSON(http.StatusOK, dto.CronRunResponse{OK: true, Processed: processed})
}
