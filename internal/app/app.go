// Package app wires the service together from configuration. It is shared
// by the HTTP server and the command-line client.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"

	"github.com/dentalcare/aftercare/internal/api"
	"github.com/dentalcare/aftercare/internal/cache"
	"github.com/dentalcare/aftercare/internal/config"
	"github.com/dentalcare/aftercare/internal/database"
	"github.com/dentalcare/aftercare/internal/dialogue"
	"github.com/dentalcare/aftercare/internal/fallback"
	"github.com/dentalcare/aftercare/internal/inference"
	"github.com/dentalcare/aftercare/internal/knowledge"
	mw "github.com/dentalcare/aftercare/internal/middleware"
	inats "github.com/dentalcare/aftercare/internal/nats"
	"github.com/dentalcare/aftercare/internal/orchestrator"
	"github.com/dentalcare/aftercare/internal/patient"
	"github.com/dentalcare/aftercare/internal/postprocess"
	"github.com/dentalcare/aftercare/internal/prompt"
	iredis "github.com/dentalcare/aftercare/internal/redis"
)

// Options select optional infrastructure.
type Options struct {
	// Events connects to NATS when a URL is configured. The CLI leaves it
	// off and records turns directly.
	Events bool
}

// App holds the connected infrastructure and the assembled components.
type App struct {
	cfg   *config.Config
	pool  *pgxpool.Pool
	redis *goredis.Client
	nats  *inats.Client

	inference    *inference.Client
	Orchestrator *orchestrator.Orchestrator
	Retriever    *knowledge.Retriever
	Recorder     *dialogue.Recorder
	Dialogues    *dialogue.Handler
	Knowledge    *knowledge.Handler
	persister    *dialogue.Persister
	rateLimiter  *mw.RateLimiter
}

// New connects to Postgres, Redis and optionally NATS, and builds every
// component. Call Close when done.
func New(ctx context.Context, cfg *config.Config, opts Options) (*App, error) {
	a := &App{cfg: cfg}

	pool, err := database.NewPostgresPool(ctx, cfg.DB)
	if err != nil {
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}
	a.pool = pool

	redisClient, err := iredis.NewClient(ctx, cfg.Redis)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}
	a.redis = redisClient

	var publisher *inats.Publisher
	if opts.Events && cfg.NATS.URL != "" {
		nc, err := inats.NewClient(ctx, cfg.NATS)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("connecting to nats: %w", err)
		}
		a.nats = nc
		publisher = inats.NewPublisher(nc.JetStream())
	}

	if err := a.build(publisher); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) build(publisher *inats.Publisher) error {
	cfg := a.cfg

	// Inference
	var reporter inference.FailureReporter
	if publisher != nil {
		reporter = &failureEvents{publisher: publisher, now: time.Now}
	}
	client, err := inference.New(cfg.AI, reporter)
	switch {
	case errors.Is(err, inference.ErrNotConfigured):
		slog.Info("no generation endpoint configured, answers come from the fallback responder")
	case err != nil:
		return fmt.Errorf("creating inference client: %w", err)
	default:
		a.inference = client
		slog.Info("inference client ready", "shape", client.Shape(), "timeout", cfg.AI.Timeout)
	}

	processor, err := NewProcessor(cfg.Postprocess)
	if err != nil {
		return fmt.Errorf("creating post-processor: %w", err)
	}

	// Dialogue log
	dialogueRepo := dialogue.NewPostgresRepository(a.pool)
	sessions := dialogue.NewShortTermStore(a.redis, cfg.Dialogue.MaxSessionTurns, cfg.Dialogue.SessionTTL)
	var turnLog dialogue.Log = sessions
	if cfg.Dialogue.LogBackend == "postgres" {
		turnLog = dialogueRepo
	}
	a.Recorder = dialogue.NewRecorder(dialogueRepo, sessions)

	// Knowledge
	a.Retriever = knowledge.NewRetriever(
		knowledge.NewPostgresRepository(a.pool),
		cache.NewRedisCache(a.redis),
		cfg.Assistant.CacheTTL,
	)
	a.Knowledge = knowledge.NewHandler(a.Retriever, cfg.Assistant.KnowledgeLimit)

	components := orchestrator.Components{
		Context:   dialogue.NewAssembler(turnLog),
		Flags:     patient.NewLoader(patient.NewPostgresRepository(a.pool)),
		Knowledge: a.Retriever,
		Composer:  prompt.NewComposer(processorClosingReply(cfg.Postprocess)),
		Processor: processor,
		Fallback:  fallback.NewResponder(nil),
	}
	if a.inference != nil {
		components.Generator = a.inference
	}
	a.Orchestrator = orchestrator.New(components, orchestrator.Options{
		ContextTurns:   cfg.Assistant.ContextTurns,
		KnowledgeLimit: cfg.Assistant.KnowledgeLimit,
	})

	var turnPublisher dialogue.TurnPublisher
	if publisher != nil {
		turnPublisher = publisher
		a.persister = dialogue.NewPersister(a.Recorder, inats.NewConsumerManager(a.nats.JetStream()))
	}
	a.Dialogues = dialogue.NewHandler(a.Orchestrator, turnPublisher, a.Recorder, dialogueRepo)

	a.rateLimiter = mw.NewRateLimiter(a.redis, "dialogues", cfg.RateLimit.MaxRequests, cfg.RateLimit.WindowSec)
	return nil
}

// NewProcessor builds the post-processor from configured phrase lists,
// using the built-in lists for any left empty.
func NewProcessor(cfg config.PostprocessConfig) (*postprocess.Processor, error) {
	closing := cfg.ClosingPhrases
	if len(closing) == 0 {
		closing = postprocess.DefaultClosingPhrases
	}
	followUp := cfg.FollowUpPhrases
	if len(followUp) == 0 {
		followUp = postprocess.DefaultFollowUpPhrases
	}
	detector, err := postprocess.NewPhraseDetector(closing, followUp)
	if err != nil {
		return nil, err
	}
	return postprocess.New(detector, processorClosingReply(cfg))
}

func processorClosingReply(cfg config.PostprocessConfig) string {
	if cfg.ClosingReply == "" {
		return postprocess.DefaultClosingReply
	}
	return cfg.ClosingReply
}

// Router returns the HTTP handler for the service.
func (a *App) Router() http.Handler {
	checks := []api.ReadinessCheck{
		{Name: "database", Check: func(ctx context.Context) error { return database.HealthCheck(ctx, a.pool) }},
		{Name: "redis", Check: func(ctx context.Context) error { return iredis.HealthCheck(ctx, a.redis) }},
		{Name: "nats", Optional: true},
		{Name: "inference"},
	}
	if a.nats != nil {
		checks[2].Check = func(context.Context) error {
			if !a.nats.Healthy() {
				return errors.New("nats disconnected")
			}
			return nil
		}
	}
	if a.inference != nil {
		checks[3].Check = func(context.Context) error { return nil }
	}

	return api.NewRouter(api.RouterConfig{
		CORSAllowedOrigins:  a.cfg.CORS.AllowedOrigins,
		DialogueRateLimiter: a.rateLimiter.Middleware,
		Readiness:           checks,
	}, api.HandlerSet{
		CreateDialogue:       a.Dialogues.Create,
		ListSessionDialogues: a.Dialogues.ListBySession,
		HandoverDialogue:     a.Dialogues.Handover,
		PendingHandover:      a.Dialogues.PendingHandover,
		SearchKnowledge:      a.Knowledge.Search,
	})
}

// StartBackground runs the dialogue persister until ctx is cancelled. It is
// a no-op without NATS.
func (a *App) StartBackground(ctx context.Context) {
	if a.persister == nil {
		return
	}
	go func() {
		if err := a.persister.Start(ctx); err != nil {
			slog.Error("dialogue persister stopped", "error", err)
		}
	}()
}

// Close releases every connection.
func (a *App) Close() {
	if a.nats != nil {
		a.nats.Close()
	}
	if a.redis != nil {
		a.redis.Close()
	}
	if a.pool != nil {
		a.pool.Close()
	}
}
