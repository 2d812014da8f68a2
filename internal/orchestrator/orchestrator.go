// Package orchestrator answers one patient question end to end.
package orchestrator

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/dentalcare/aftercare/internal/fallback"
	"github.com/dentalcare/aftercare/internal/inference"
	"github.com/dentalcare/aftercare/internal/metrics"
	"github.com/dentalcare/aftercare/internal/prompt"
)

type ContextAssembler interface {
	GetContext(ctx context.Context, sessionID string, maxTurns int) string
}

type FlagLoader interface {
	Flags(ctx context.Context, patientID int64) *prompt.PatientFlags
}

type KnowledgeSearcher interface {
	Search(ctx context.Context, query string, limit int) ([]string, error)
}

type Generator interface {
	Generate(ctx context.Context, req inference.Request) (string, error)
}

type PostProcessor interface {
	Process(raw string) string
}

// Components are the collaborators of an Orchestrator. Context, Flags and
// Knowledge may be nil and are then treated as returning nothing. A nil
// Generator means no endpoint is configured.
type Components struct {
	Context   ContextAssembler
	Flags     FlagLoader
	Knowledge KnowledgeSearcher
	Composer  *prompt.Composer
	Generator Generator
	Processor PostProcessor
	Fallback  *fallback.Responder
}

// Options tune how much context is gathered per question.
type Options struct {
	ContextTurns   int
	KnowledgeLimit int
}

// Orchestrator runs retrieval, prompt composition, generation and
// post-processing, and falls back to canned answers on any failure.
type Orchestrator struct {
	c    Components
	opts Options
}

// New creates an Orchestrator. Composer, Processor and Fallback are required.
func New(c Components, opts Options) *Orchestrator {
	if c.Composer == nil || c.Processor == nil || c.Fallback == nil {
		panic("orchestrator: composer, processor and fallback are required")
	}
	return &Orchestrator{c: c, opts: opts}
}

// Answer returns the reply for message. It never fails and never returns an
// empty string.
func (o *Orchestrator) Answer(ctx context.Context, message string, patientID int64, sessionID string) (answer string) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("answer pipeline panicked", "panic", r, "session_id", sessionID)
			metrics.FallbackTotal.WithLabelValues("panic").Inc()
			answer = fallback.Generic
		}
	}()

	history, flags, knowledge := o.gather(ctx, message, patientID, sessionID)
	bundle := o.c.Composer.Compose(message, history, knowledge, flags)

	if o.c.Generator == nil {
		slog.Debug("no generation endpoint configured, answering from fallback", "session_id", sessionID)
		return o.fallback(message, knowledge, "not_configured")
	}

	raw, err := o.c.Generator.Generate(ctx, inference.Request{
		SystemPrompt: bundle.SystemPrompt,
		UserPrompt:   bundle.UserPrompt(),
	})
	if err != nil {
		kind := string(inference.KindOf(err))
		if kind == "" {
			kind = "error"
		}
		slog.Warn("generation failed, answering from fallback",
			"failure_kind", kind,
			"session_id", sessionID,
			"error", err,
		)
		return o.fallback(message, knowledge, kind)
	}

	answer = o.c.Processor.Process(raw)
	if strings.TrimSpace(answer) == "" {
		slog.Warn("generated answer empty after post-processing", "session_id", sessionID)
		return o.fallback(message, knowledge, "empty")
	}
	return answer
}

// gather runs the three independent fetches concurrently. A failed or
// panicking fetch contributes nothing.
func (o *Orchestrator) gather(ctx context.Context, message string, patientID int64, sessionID string) (history string, flags *prompt.PatientFlags, knowledge []string) {
	var wg sync.WaitGroup

	if o.c.Context != nil {
		spawn(&wg, "context", func() {
			history = o.c.Context.GetContext(ctx, sessionID, o.opts.ContextTurns)
		})
	}
	if o.c.Flags != nil {
		spawn(&wg, "patient", func() {
			flags = o.c.Flags.Flags(ctx, patientID)
		})
	}
	if o.c.Knowledge != nil {
		spawn(&wg, "knowledge", func() {
			found, err := o.c.Knowledge.Search(ctx, message, o.opts.KnowledgeLimit)
			if err != nil {
				slog.Warn("knowledge search failed", "error", err)
				return
			}
			knowledge = found
		})
	}

	wg.Wait()
	return history, flags, knowledge
}

func spawn(wg *sync.WaitGroup, name string, fn func()) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer func() {
			if r := recover(); r != nil {
				slog.Error("context fetch panicked", "fetch", name, "panic", r)
			}
		}()
		fn()
	}()
}

func (o *Orchestrator) fallback(message string, knowledge []string, reason string) string {
	metrics.FallbackTotal.WithLabelValues(reason).Inc()
	return o.c.Fallback.Respond(message, knowledge)
}
