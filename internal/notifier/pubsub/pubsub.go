// Package pubsub publishes notifications to a Google Cloud Pub/Sub topic, for
// chat bridges that subscribe to it.
package pubsub

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/pubsub"
)

// AttrSource marks messages emitted by this service.
const AttrSource = "source"

const sourceValue = "crawler-notifier"

// Notifier implements crawler.Notifier on a Pub/Sub topic.
type Notifier struct {
	topic *pubsub.Topic
}

// New wraps an existing topic handle.
func New(topic *pubsub.Topic) *Notifier {
	return &Notifier{topic: topic}
}

// Open connects to projectID and verifies that topicID exists.
func Open(ctx context.Context, projectID, topicID string) (*pubsub.Client, *Notifier, error) {
	client, err := pubsub.NewClient(ctx, projectID)
	if err != nil {
		return nil, nil, fmt.Errorf("create pubsub client: %w", err)
	}
	topic := client.Topic(topicID)
	exists, err := topic.Exists(ctx)
	if err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("check pubsub topic %q: %w", topicID, err)
	}
	if !exists {
		_ = client.Close()
		return nil, nil, fmt.Errorf("pubsub topic %q does not exist in project %q", topicID, projectID)
	}
	return client, New(topic), nil
}

// Send publishes message as the raw payload and waits for the server ack.
func (n *Notifier) Send(ctx context.Context, message string) error {
	if n.topic == nil {
		return errors.New("pubsub topic is not configured")
	}
	result := n.topic.Publish(ctx, &pubsub.Message{
		Data:       []byte(message),
		Attributes: map[string]string{AttrSource: sourceValue},
	})
	if _, err := result.Get(ctx); err != nil {
		return fmt.Errorf("publish notification: %w", err)
	}
	return nil
}

// Stop flushes pending publishes.
func (n *Notifier) Stop() {
	if n.topic != nil {
		n.topic.Stop()
	}
}
