package http

import (
	"net/http"

	"github.com/krishhhh88/instadrive-backend/domain/dto"
	"github.com/krishhhh88/instadrive-backend/interfaces/middleware"
	"github.com/krishhhh88/instadrive-backend/usecase"

	"github.com/gin-gonic/gin"
)

type IDriveHandler interface {
	Files(c *gin.Context)
}

type DriveHandler struct {
	driveUsecase usecase.IDriveUsecase
}

func NewDriveHandler(driveUsecase usecase.IDriveUsecase) IDriveHandler {
	return &DriveHandler{driveUsecase: driveUsecase}
}

func (h *DriveHandler) Files(c *gin.Context) {
	files, err := h.driveUsecase.ListVideos(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.DriveFilesResponse{Files: files})
}
