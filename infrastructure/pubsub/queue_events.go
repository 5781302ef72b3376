package pubsub

import (
	"context"
	"encoding/json"
	"strconv"
	"sync"

	"github.com/krishhhh88/instadrive-backend/domain/model"
	"github.com/krishhhh88/instadrive-backend/domain/repository"
	"github.com/krishhhh88/instadrive-backend/infrastructure/logger"

	"cloud.google.com/go/pubsub"
)

// QueueEventPublisher forwards queue status transitions to a Pub/Sub topic.
type QueueEventPublisher struct {
	client    *pubsub.Client
	topicName string

	once     sync.Once
	topic    *pubsub.Topic
	topicErr error
}

func NewQueueEventPublisher(client *pubsub.Client, topicName string) repository.IQueueNotifier {
	return &QueueEventPublisher{client: client, topicName: topicName}
}

// resolveTopic creates the topic on first use if it doesn't exist.
func (p *QueueEventPublisher) resolveTopic(ctx context.Context) (*pubsub.Topic, error) {
	p.once.Do(func() {
		topic := p.client.Topic(p.topicName)
		exists, err := topic.Exists(ctx)
		if err != nil {
			p.topicErr = err
			return
		}
		if !exists {
			logger.GetLogger().WithField("topic", p.topicName).Info("Topic doesn't exist - creating it")
			if topic, err = p.client.CreateTopic(ctx, p.topicName); err != nil {
				p.topicErr = err
				return
			}
		}
		p.topic = topic
	})
	return p.topic, p.topicErr
}

func (p *QueueEventPublisher) Notify(ctx context.Context, evt model.QueueEvent) error {
	topic, err := p.resolveTopic(ctx)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(evt)
	if err != nil {
		return err
	}
	msg := &pubsub.Message{
		Data: payload,
		Attributes: map[string]string{
			"type":    evt.Type,
			"status":  string(evt.Status),
			"user_id": evt.UserID,
			"item_id": strconv.FormatInt(evt.ItemID, 10),
		},
	}
	serverID, err := topic.Publish(ctx, msg).Get(ctx)
	if err != nil {
		return err
	}
	logger.GetLogger().WithField("server_id", serverID).WithField("item_id", evt.ItemID).Debug("Queue event published")
	return nil
}
