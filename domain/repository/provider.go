package repository

import (
	"context"
	"io"

	"github.com/krishhhh88/instadrive-backend/domain/model"
)

// ITokenProvider is one provider-specific refresh protocol.
type ITokenProvider interface {
	Provider() model.Provider
	Refresh(ctx context.Context, refreshToken string) (*model.RefreshedToken, error)
}

// ISecretCodec seals token material at rest.
type ISecretCodec interface {
	Seal(plaintext string) (string, error)
	Open(sealed string) (string, error)
}

// IDrive reads assets from the source provider.
type IDrive interface {
	Fetch(ctx context.Context, accessToken, fileID string) (*model.TempAsset, error)
	ListVideos(ctx context.Context, accessToken string) ([]model.DriveFile, error)
}

// IInstagram publishes assets to the destination provider.
type IInstagram interface {
	Publish(ctx context.Context, accessToken string, video io.Reader, fileName, caption string) (*model.PublishResult, error)
}

// IRefreshLocker serializes credential refreshes per account.
type IRefreshLocker interface {
	Lock(ctx context.Context, accountID int64) (unlock func(), err error)
}

// IQueueNotifier receives queue status transitions.
type IQueueNotifier interface {
	Notify(ctx context.Context, evt model.QueueEvent) error
}

// IOAuthConnector runs the authorization-code flow that first links a provider account.
type IOAuthConnector interface {
	Provider() model.Provider
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (*model.RefreshedToken, error)
}
