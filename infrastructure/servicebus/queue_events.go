package servicebus

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/krishhhh88/instadrive-backend/domain/model"
	"github.com/krishhhh88/instadrive-backend/domain/repository"
	"github.com/krishhhh88/instadrive-backend/infrastructure/logger"

	"github.com/Azure/azure-sdk-for-go/sdk/messaging/azservicebus"
)

type messageSender interface {
	SendMessage(ctx context.Context, message *azservicebus.Message, options *azservicebus.SendMessageOptions) error
	Close(ctx context.Context) error
}

// QueueEventSender forwards queue status transitions to a Service Bus queue.
type QueueEventSender struct {
	sender messageSender
}

// NewQueueEventSender opens a sender for the queue. Call Close on shutdown.
func NewQueueEventSender(client *azservicebus.Client, queue string) (*QueueEventSender, error) {
	sender, err := client.NewSender(queue, nil)
	if err != nil {
		logger.GetLogger().
			WithField("error", err).
			Error("Error while making new sender service bus.")
		return nil, err
	}
	return &QueueEventSender{sender: sender}, nil
}

var _ repository.IQueueNotifier = (*QueueEventSender)(nil)

func (s *QueueEventSender) Notify(ctx context.Context, evt model.QueueEvent) error {
	msg, err := toMessage(evt)
	if err != nil {
		return err
	}
	if err := s.sender.SendMessage(ctx, msg, nil); err != nil {
		logger.GetLogger().WithField("error", err).Error("Error while sending message.")
		return err
	}
	return nil
}

func (s *QueueEventSender) Close(ctx context.Context) error {
	return s.sender.Close(ctx)
}

func toMessage(evt model.QueueEvent) (*azservicebus.Message, error) {
	body, err := json.Marshal(evt)
	if err != nil {
		return nil, err
	}
	contentType := "application/json"
	subject := evt.Type
	messageID := strconv.FormatInt(evt.ItemID, 10) + ":" + string(evt.Status)
	return &azservicebus.Message{
		Body:        body,
		ContentType: &contentType,
		Subject:     &subject,
		MessageID:   &messageID,
		ApplicationProperties: map[string]any{
			"status":  string(evt.Status),
			"user_id": evt.UserID,
		},
	}, nil
}
