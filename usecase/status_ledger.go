package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/krishhhh88/instadrive-backend/domain/apperr"
	"github.com/krishhhh88/instadrive-backend/domain/model"
	"github.com/krishhhh88/instadrive-backend/domain/repository"
	"github.com/krishhhh88/instadrive-backend/infrastructure/logger"
	"github.com/krishhhh88/instadrive-backend/infrastructure/utils"
)

// QueueStatusEvent is the event type emitted on every terminal transition.
const QueueStatusEvent = "queue_status"

// StatusLedger records terminal queue transitions and fans them out to notifiers.
type StatusLedger struct {
	queue     repository.IQueue
	notifiers []repository.IQueueNotifier
	now       func() time.Time
}

func NewStatusLedger(queue repository.IQueue, notifiers ...repository.IQueueNotifier) *StatusLedger {
	return &StatusLedger{queue: queue, notifiers: notifiers, now: utils.GetCurrentTime}
}

func (l *StatusLedger) Posted(ctx context.Context, item *model.QueueItem, result *model.PublishResult) error {
	if err := l.queue.MarkPosted(ctx, item.ID); err != nil {
		return apperr.Persistence("mark posted", err)
	}
	evt := l.event(item, model.QueueStatusPosted)
	if result != nil {
		evt.MediaID = result.MediaID
	}
	l.notify(ctx, evt)
	return nil
}

// Failed stores a bounded description of cause on the item.
func (l *StatusLedger) Failed(ctx context.Context, item *model.QueueItem, cause error) error {
	msg := FailureMessage(cause)
	if err := l.queue.MarkFailed(ctx, item.ID, msg); err != nil {
		return apperr.Persistence("mark failed", err)
	}
	evt := l.event(item, model.QueueStatusFailed)
	evt.ErrorMessage = &msg
	l.notify(ctx, evt)
	return nil
}

// FailureMessage renders the text persisted for a failed item.
func FailureMessage(cause error) string {
	switch {
	case cause == nil:
		return "unknown error"
	case errors.Is(cause, apperr.ErrMissingAccounts):
		return apperr.ErrMissingAccounts.Error()
	}
	return utils.Truncate(cause.Error(), utils.MaxErrorMessageLen)
}

func (l *StatusLedger) event(item *model.QueueItem, status model.QueueStatus) model.QueueEvent {
	return model.QueueEvent{
		Type:   QueueStatusEvent,
		ItemID: item.ID,
		UserID: item.UserID,
		Status: status,
		At:     l.now(),
	}
}

func (l *StatusLedger) notify(ctx context.Context, evt model.QueueEvent) {
	for _, n := range l.notifiers {
		if err := n.Notify(ctx, evt); err != nil {
			logger.GetLogger().
				WithField("item_id", evt.ItemID).
				WithField("error", err).
				Warn("Queue notifier failed")
		}
	}
}
