package http

import (
	"net/http"

	"github.com/krishhhh88/instadrive-backend/domain/dto"
	"github.com/krishhhh88/instadrive-backend/infrastructure/logger"
	"github.com/krishhhh88/instadrive-backend/interfaces/middleware"
	"github.com/krishhhh88/instadrive-backend/usecase"

	"github.com/gin-gonic/gin"
)

type IScheduleHandler interface {
	Get(c *gin.Context)
	Save(c *gin.Context)
}

type ScheduleHandler struct {
	scheduleUsecase usecase.IScheduleUsecase
}

func NewScheduleHandler(scheduleUsecase usecase.IScheduleUsecase) IScheduleHandler {
	return &ScheduleHandler{scheduleUsecase: scheduleUsecase}
}

func (h *ScheduleHandler) Get(c *gin.Context) {
	weekly, err := h.scheduleUsecase.GetWeekly(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, weekly)
}

func (h *ScheduleHandler) Save(c *gin.Context) {
	var req dto.WeeklySchedule
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.GetLogger().WithField("error", err).Error(ErrorUnmarshal)
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	if err := h.scheduleUsecase.ReplaceWeekly(c.Request.Context(), middleware.UserID(c), req); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
