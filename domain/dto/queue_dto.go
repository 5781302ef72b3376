package dto

import "github.com/krishhhh88/instadrive-backend/domain/model"

type QueueCreateRequest struct {
	GoogleDriveFileID string  `json:"googleDriveFileId"`
	Caption           *string `json:"caption"`
}

type QueueListResponse struct {
	Queue []*model.QueueItem `json:"queue"`
}

type QueueItemResponse struct {
	Item *model.QueueItem `json:"item"`
}
