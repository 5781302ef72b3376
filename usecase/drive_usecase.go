package usecase

import (
	"context"

	"github.com/krishhhh88/instadrive-backend/domain/apperr"
	"github.com/krishhhh88/instadrive-backend/domain/model"
	"github.com/krishhhh88/instadrive-backend/domain/repository"
)

type IDriveUsecase interface {
	ListVideos(ctx context.Context, userID string) ([]model.DriveFile, error)
}

type driveUsecase struct {
	accounts    repository.IAccount
	credentials ICredentialUsecase
	drive       repository.IDrive
}

func NewDriveUsecase(accounts repository.IAccount, credentials ICredentialUsecase, drive repository.IDrive) IDriveUsecase {
	return &driveUsecase{accounts: accounts, credentials: credentials, drive: drive}
}

func (u *driveUsecase) ListVideos(ctx context.Context, userID string) ([]model.DriveFile, error) {
	list, err := u.accounts.FindByUserAndProvider(ctx, userID, model.ProviderGoogle)
	if err != nil {
		return nil, apperr.Persistence("find accounts", err)
	}
	if len(list) == 0 || list[0].AccessTokenEnc == nil {
		return nil, &apperr.ValidationError{Msg: "Google not connected"}
	}
	token, err := u.credentials.EnsureAccessToken(ctx, list[0])
	if err != nil {
		return nil, err
	}
	files, err := u.drive.ListVideos(ctx, token)
	if err != nil {
		return nil, err
	}
	if files == nil {
		files = []model.DriveFile{}
	}
	return files, nil
}
