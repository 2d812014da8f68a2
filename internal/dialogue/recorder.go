package dialogue

import (
	"context"
	"log/slog"
)

// TurnWriter is the durable store for turns. Insert returns false when the
// turn ID was already stored.
type TurnWriter interface {
	Insert(ctx context.Context, t *Turn) (bool, error)
}

// SessionAppender caches recent turns per session.
type SessionAppender interface {
	Append(ctx context.Context, t *Turn) error
}

// Recorder persists a finished turn to the durable store and the session
// cache.
type Recorder struct {
	writer  TurnWriter
	session SessionAppender
}

// NewRecorder creates a Recorder. session may be nil.
func NewRecorder(writer TurnWriter, session SessionAppender) *Recorder {
	return &Recorder{writer: writer, session: session}
}

// Record writes the turn. Only a durable store failure is returned; the
// session cache is best effort. A turn the store already holds is not
// cached again.
func (r *Recorder) Record(ctx context.Context, t *Turn) error {
	inserted, err := r.writer.Insert(ctx, t)
	if err != nil {
		return err
	}
	if !inserted {
		slog.Debug("turn already recorded", "turn_id", t.ID, "session_id", t.SessionID)
		return nil
	}
	if r.session != nil {
		if err := r.session.Append(ctx, t); err != nil {
			slog.Warn("caching session turn", "error", err, "session_id", t.SessionID)
		}
	}
	return nil
}
