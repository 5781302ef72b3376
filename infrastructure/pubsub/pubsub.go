package pubsub

import (
	"context"
	"errors"

	"cloud.google.com/go/pubsub"
	"google.golang.org/api/option"
)

// NewPubSub creates a Pub/Sub client for the project using application default credentials.
func NewPubSub(ctx context.Context, projectID string, opts ...option.ClientOption) (*pubsub.Client, error) {
	if projectID == "" {
		return nil, errors.New("pubsub project id not configured")
	}
	return pubsub.NewClient(ctx, projectID, opts...)
}
