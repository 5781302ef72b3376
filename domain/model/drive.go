package model

// DriveFile is the subset of Drive metadata exposed to the queue UI.
type DriveFile struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	MimeType      string `json:"mimeType"`
	ThumbnailLink string `json:"thumbnailLink,omitempty"`
	ModifiedTime  string `json:"modifiedTime,omitempty"`
	DurationMs    int64  `json:"durationMillis,omitempty"`
	Width         int64  `json:"width,omitempty"`
	Height        int64  `json:"height,omitempty"`
}
