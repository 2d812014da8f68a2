package dialogue

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/dentalcare/aftercare/internal/metrics"
	inats "github.com/dentalcare/aftercare/internal/nats"
)

const persisterName = "dialogue-persister"

// Persister consumes TurnCompleted events and records each turn.
type Persister struct {
	recorder    *Recorder
	consumerMgr *inats.ConsumerManager
}

func NewPersister(recorder *Recorder, consumerMgr *inats.ConsumerManager) *Persister {
	return &Persister{recorder: recorder, consumerMgr: consumerMgr}
}

// Start begins the consume loop. Blocks until ctx is cancelled.
func (p *Persister) Start(ctx context.Context) error {
	consumer, err := p.consumerMgr.EnsureConsumer(ctx, inats.StreamDialogues, persisterName, inats.SubjectTurnCompleted)
	if err != nil {
		return err
	}

	slog.Info("dialogue persister started", "consumer", persisterName)

	for {
		msgs, err := consumer.Fetch(10, jetstream.FetchMaxWait(inats.FetchTimeout))
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			slog.Debug("dialogue persister: fetching events", "error", err)
			continue
		}

		for msg := range msgs.Messages() {
			p.handleEvent(ctx, msg)
		}

		if ctx.Err() != nil {
			return nil
		}
	}
}

func (p *Persister) handleEvent(ctx context.Context, msg jetstream.Msg) {
	var event inats.TurnCompleted
	if err := json.Unmarshal(msg.Data(), &event); err != nil {
		slog.Error("dialogue persister: unmarshaling event", "error", err)
		// Redelivery cannot fix a bad payload.
		_ = msg.Term()
		return
	}

	turn := turnFromEvent(event)
	if err := p.recorder.Record(ctx, turn); err != nil {
		slog.Error("dialogue persister: recording turn", "error", err, "turn_id", turn.ID)
		_ = msg.Nak()
		return
	}

	_ = msg.Ack()
	metrics.TurnsRecordedTotal.WithLabelValues("event").Inc()

	slog.Debug("dialogue persister: recorded turn",
		"turn_id", turn.ID,
		"session_id", turn.SessionID,
	)
}

func turnFromEvent(e inats.TurnCompleted) *Turn {
	msgType := e.MessageType
	if msgType == "" {
		msgType = DefaultMessageType
	}
	return &Turn{
		ID:          e.TurnID,
		PatientID:   e.PatientID,
		SessionID:   e.SessionID,
		UserMessage: e.UserMessage,
		AIResponse:  e.AIResponse,
		MessageType: msgType,
		CreatedAt:   e.CreatedAt,
	}
}

func eventFromTurn(t *Turn) inats.TurnCompleted {
	return inats.TurnCompleted{
		TurnID:      t.ID,
		PatientID:   t.PatientID,
		SessionID:   t.SessionID,
		UserMessage: t.UserMessage,
		AIResponse:  t.AIResponse,
		MessageType: t.MessageType,
		CreatedAt:   t.CreatedAt,
	}
}
