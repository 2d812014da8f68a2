package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dentalcare/aftercare/internal/inference"
	inats "github.com/dentalcare/aftercare/internal/nats"
)

const reportTimeout = 2 * time.Second

type failurePublisher interface {
	PublishInferenceFailed(ctx context.Context, event inats.InferenceFailed) error
}

// failureEvents publishes every failed generation call on NATS.
type failureEvents struct {
	publisher failurePublisher
	now       func() time.Time
}

func (f *failureEvents) ReportFailure(ctx context.Context, err *inference.Error) {
	// The generation deadline has usually passed by now.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), reportTimeout)
	defer cancel()

	event := inats.InferenceFailed{
		ID:        uuid.New(),
		Shape:     err.Shape,
		Kind:      string(err.Kind),
		Detail:    err.Error(),
		Timestamp: f.now().UTC(),
	}
	if perr := f.publisher.PublishInferenceFailed(ctx, event); perr != nil {
		slog.Warn("publishing inference failure", "error", perr, "failure_kind", err.Kind)
	}
}
