package http

import (
	"net/http"
	"strconv"

	"github.com/krishhhh88/instadrive-backend/domain/dto"
	"github.com/krishhhh88/instadrive-backend/infrastructure/logger"
	"github.com/krishhhh88/instadrive-backend/interfaces/middleware"
	"github.com/krishhhh88/instadrive-backend/usecase"

	"github.com/gin-gonic/gin"
)

type IQueueHandler interface {
	List(c *gin.Context)
	Create(c *gin.Context)
	Delete(c *gin.Context)
}

type QueueHandler struct {
	queueUsecase usecase.IQueueUsecase
}

func NewQueueHandler(queueUsecase usecase.IQueueUsecase) IQueueHandler {
	return &QueueHandler{queueUsecase: queueUsecase}
}

func (h *QueueHandler) List(c *gin.Context) {
	items, err := h.queueUsecase.List(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.QueueListResponse{Queue: items})
}

func (h *QueueHandler) Create(c *gin.Context) {
	var req dto.QueueCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.GetLogger().WithField("error", err).Error(ErrorUnmarshal)
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	item, err := h.queueUsecase.Add(c.Request.Context(), middleware.UserID(c), req.GoogleDriveFileID, req.Caption)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.QueueItemResponse{Item: item})
}

func (h *QueueHandler) Delete(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	if err := h.queueUsecase.Remove(c.Request.Context(), middleware.UserID(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
