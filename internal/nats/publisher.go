package nats

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go/jetstream"
)

// Publisher provides typed methods for publishing events to NATS JetStream.
type Publisher struct {
	js jetstream.JetStream
}

// NewPublisher creates a new Publisher.
func NewPublisher(js jetstream.JetStream) *Publisher {
	return &Publisher{js: js}
}

// PublishTurnCompleted hands a finished turn to the dialogue persister.
func (p *Publisher) PublishTurnCompleted(ctx context.Context, event TurnCompleted) error {
	return p.publish(ctx, SubjectTurnCompleted, event)
}

// PublishInferenceFailed records a failed generation call.
func (p *Publisher) PublishInferenceFailed(ctx context.Context, event InferenceFailed) error {
	return p.publish(ctx, SubjectInferenceFailed, event)
}

func (p *Publisher) publish(ctx context.Context, subject string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshaling event for %s: %w", subject, err)
	}
	_, err = p.js.Publish(ctx, subject, payload)
	if err != nil {
		return fmt.Errorf("publishing to %s: %w", subject, err)
	}
	return nil
}
