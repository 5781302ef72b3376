package model

import (
	"encoding/json"
	"time"
)

type QueueStatus string

const (
	QueueStatusQueued     QueueStatus = "queued"
	QueueStatusProcessing QueueStatus = "processing"
	QueueStatusPosted     QueueStatus = "posted"
	QueueStatusFailed     QueueStatus = "failed"
)

// QueueItem is one video waiting to be republished for a user
type QueueItem struct {
	ID            int64       `json:"id"`
	UserID        string      `json:"user_id"`
	SourceAssetID string      `json:"google_drive_file_id"`
	Caption       *string     `json:"caption,omitempty"`
	PostOrder     int         `json:"post_order"`
	Status        QueueStatus `json:"status"`
	ErrorMessage  *string     `json:"error_message,omitempty"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

// QueueEvent is broadcast whenever the pipeline moves an item to a new status.
type QueueEvent struct {
	Type         string      `json:"type"`
	ItemID       int64       `json:"item_id"`
	UserID       string      `json:"user_id"`
	Status       QueueStatus `json:"status"`
	ErrorMessage *string     `json:"error_message,omitempty"`
	MediaID      string      `json:"media_id,omitempty"`
	At           time.Time   `json:"at"`
}

// PublishResult is the outcome of the two-phase Instagram publish.
type PublishResult struct {
	CreationID string          `json:"creation_id"`
	MediaID    string          `json:"media_id,omitempty"`
	Raw        json.RawMessage `json:"raw"`
}
