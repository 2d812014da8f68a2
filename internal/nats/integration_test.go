//go:build integration

package nats_test

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dentalcare/aftercare/internal/dialogue"
	inats "github.com/dentalcare/aftercare/internal/nats"
	"github.com/dentalcare/aftercare/internal/testutil"
)

type syncWriter struct {
	mu    sync.Mutex
	turns []dialogue.Turn
}

func (w *syncWriter) Insert(_ context.Context, t *dialogue.Turn) (bool, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.turns = append(w.turns, *t)
	return true, nil
}

func (w *syncWriter) len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.turns)
}

func TestNATSTurnPipeline(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	ctx := context.Background()

	client, err := inats.NewClient(ctx, testutil.NATS(t))
	require.NoError(t, err)
	t.Cleanup(client.Close)
	require.True(t, client.Healthy())

	publisher := inats.NewPublisher(client.JetStream())
	consumerMgr := inats.NewConsumerManager(client.JetStream())

	t.Run("inference failures land on the events stream", func(t *testing.T) {
		event := inats.InferenceFailed{
			ID:        uuid.New(),
			Shape:     "completion",
			Kind:      "timeout",
			Detail:    "deadline exceeded",
			Timestamp: time.Now().UTC(),
		}
		require.NoError(t, publisher.PublishInferenceFailed(ctx, event))

		consumer, err := consumerMgr.EnsureConsumer(ctx, inats.StreamEvents, "test-events", inats.SubjectInferenceFailed)
		require.NoError(t, err)

		batch, err := consumer.Fetch(1, jetstream.FetchMaxWait(5*time.Second))
		require.NoError(t, err)

		var got inats.InferenceFailed
		for m := range batch.Messages() {
			require.NoError(t, json.Unmarshal(m.Data(), &got))
			_ = m.Ack()
		}
		assert.Equal(t, event.ID, got.ID)
		assert.Equal(t, "timeout", got.Kind)
	})

	t.Run("persister records published turns", func(t *testing.T) {
		w := &syncWriter{}
		persister := dialogue.NewPersister(dialogue.NewRecorder(w, nil), consumerMgr)

		runCtx, cancel := context.WithCancel(ctx)
		done := make(chan error, 1)
		go func() { done <- persister.Start(runCtx) }()

		id := uuid.New()
		require.NoError(t, publisher.PublishTurnCompleted(ctx, inats.TurnCompleted{
			TurnID:      id,
			PatientID:   7,
			SessionID:   "s-nats",
			UserMessage: "Is swelling normal?",
			AIResponse:  "Swelling peaks around day two.",
			CreatedAt:   time.Now().UTC(),
		}))

		assert.Eventually(t, func() bool { return w.len() == 1 }, 15*time.Second, 100*time.Millisecond)

		cancel()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(10 * time.Second):
			t.Fatal("persister did not stop")
		}

		w.mu.Lock()
		defer w.mu.Unlock()
		require.Len(t, w.turns, 1)
		assert.Equal(t, id, w.turns[0].ID)
		assert.Equal(t, dialogue.DefaultMessageType, w.turns[0].MessageType)
	})
}
