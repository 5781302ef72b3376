package repository

import (
	"context"

	"github.com/krishhhh88/instadrive-backend/domain/model"
)

type IQueue interface {
	// ClaimNext moves the user's next queued item to processing and returns it.
	// Returns nil when nothing is queued. Two concurrent callers never get the same item.
	ClaimNext(ctx context.Context, userID string) (*model.QueueItem, error)
	MarkPosted(ctx context.Context, id int64) error
	MarkFailed(ctx context.Context, id int64, errMsg string) error

	ListByUser(ctx context.Context, userID string) ([]*model.QueueItem, error)
	// Append creates an item at max(post_order)+1 for the user.
	Append(ctx context.Context, item *model.QueueItem) (*model.QueueItem, error)
	Delete(ctx context.Context, userID string, id int64) error
}
