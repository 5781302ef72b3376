package usecase

import (
	"context"
	"strings"

	"github.com/krishhhh88/instadrive-backend/domain/apperr"
	"github.com/krishhhh88/instadrive-backend/domain/model"
	"github.com/krishhhh88/instadrive-backend/domain/repository"
	"github.com/krishhhh88/instadrive-backend/infrastructure/logger"
)

type IQueueUsecase interface {
	List(ctx context.Context, userID string) ([]*model.QueueItem, error)
	Add(ctx context.Context, userID, fileID string, caption *string) (*model.QueueItem, error)
	Remove(ctx context.Context, userID string, id int64) error
}

type queueUsecase struct {
	queue repository.IQueue
}

func NewQueueUsecase(queue repository.IQueue) IQueueUsecase {
	return &queueUsecase{queue: queue}
}

func (u *queueUsecase) List(ctx context.Context, userID string) ([]*model.QueueItem, error) {
	items, err := u.queue.ListByUser(ctx, userID)
	if err != nil {
		return nil, apperr.Persistence("list queue", err)
	}
	if items == nil {
		items = []*model.QueueItem{}
	}
	return items, nil
}

func (u *queueUsecase) Add(ctx context.Context, userID, fileID string, caption *string) (*model.QueueItem, error) {
	fileID = strings.TrimSpace(fileID)
	if fileID == "" {
		return nil, &apperr.ValidationError{Msg: "missing file id"}
	}
	item, err := u.queue.Append(ctx, &model.QueueItem{
		UserID:        userID,
		SourceAssetID: fileID,
		Caption:       caption,
		Status:        model.QueueStatusQueued,
	})
	if err != nil {
		return nil, apperr.Persistence("append queue item", err)
	}
	logger.GetLogger().
		WithField("user_id", userID).
		WithField("item_id", item.ID).
		WithField("post_order", item.PostOrder).
		Info("Queued video")
	return item, nil
}

func (u *queueUsecase) Remove(ctx context.Context, userID string, id int64) error {
	if id <= 0 {
		return &apperr.ValidationError{Msg: "invalid id"}
	}
	if err := u.queue.Delete(ctx, userID, id); err != nil {
		return apperr.Persistence("delete queue item", err)
	}
	return nil
}
