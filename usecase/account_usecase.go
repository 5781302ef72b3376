package usecase

import (
	"context"

	"github.com/krishhhh88/instadrive-backend/domain/apperr"
	"github.com/krishhhh88/instadrive-backend/domain/model"
	"github.com/krishhhh88/instadrive-backend/domain/repository"
)

type IAccountUsecase interface {
	// Status reports which providers the user has linked.
	Status(ctx context.Context, userID string) (map[model.Provider]bool, error)
}

type accountUsecase struct {
	accounts repository.IAccount
}

func NewAccountUsecase(accounts repository.IAccount) IAccountUsecase {
	return &accountUsecase{accounts: accounts}
}

func (u *accountUsecase) Status(ctx context.Context, userID string) (map[model.Provider]bool, error) {
	out := make(map[model.Provider]bool, len(model.Providers))
	for _, p := range model.Providers {
		list, err := u.accounts.FindByUserAndProvider(ctx, userID, p)
		if err != nil {
			return nil, apperr.Persistence("find accounts", err)
		}
		out[p] = len(list) > 0
	}
	return out, nil
}
