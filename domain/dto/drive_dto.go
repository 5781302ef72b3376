package dto

import "github.com/krishhhh88/instadrive-backend/domain/model"

type DriveFilesResponse struct {
	Files []model.DriveFile `json:"files"`
}
