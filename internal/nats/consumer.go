package nats

import (
	"context"
	"fmt"
	"time"

	"github.com/nats-io/nats.go/jetstream"
)

const (
	consumerAckWait    = 30 * time.Second
	consumerMaxDeliver = 5
)

// ConsumerManager handles durable consumer creation and retrieval.
type ConsumerManager struct {
	js jetstream.JetStream
}

// NewConsumerManager creates a new ConsumerManager.
func NewConsumerManager(js jetstream.JetStream) *ConsumerManager {
	return &ConsumerManager{js: js}
}

// EnsureConsumer creates or updates a durable consumer on the given stream.
// Messages that keep failing are dropped after consumerMaxDeliver attempts.
func (cm *ConsumerManager) EnsureConsumer(ctx context.Context, stream, name, filterSubject string) (jetstream.Consumer, error) {
	cfg := jetstream.ConsumerConfig{
		Durable:       name,
		FilterSubject: filterSubject,
		AckPolicy:     jetstream.AckExplicitPolicy,
		AckWait:       consumerAckWait,
		MaxDeliver:    consumerMaxDeliver,
	}

	consumer, err := cm.js.CreateOrUpdateConsumer(ctx, stream, cfg)
	if err != nil {
		return nil, fmt.Errorf("ensuring consumer %s on %s: %w", name, stream, err)
	}
	return consumer, nil
}
