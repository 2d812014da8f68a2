package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	mw "github.com/dentalcare/aftercare/internal/middleware"
)

// HandlerSet holds handler functions injected from main.go to avoid import cycles.
type HandlerSet struct {
	// Dialogue handlers
	CreateDialogue       http.HandlerFunc
	ListSessionDialogues http.HandlerFunc
	HandoverDialogue     http.HandlerFunc
	PendingHandover      http.HandlerFunc

	// Knowledge handlers
	SearchKnowledge http.HandlerFunc
}

// ReadinessCheck is one dependency probed by /health/ready. A nil Check
// reports the dependency as not configured. Optional checks degrade the
// status without failing the probe.
type ReadinessCheck struct {
	Name     string
	Check    func(ctx context.Context) error
	Optional bool
}

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	CORSAllowedOrigins  []string
	DialogueRateLimiter func(http.Handler) http.Handler
	Readiness           []ReadinessCheck
}

const readinessTimeout = 2 * time.Second

func NewRouter(cfg RouterConfig, h HandlerSet) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(mw.RequestID)
	r.Use(mw.SecurityHeaders)
	r.Use(mw.Logging)
	r.Use(mw.Recovery)
	r.Use(mw.Metrics)
	r.Use(cors.Handler(mw.CORS(cfg.CORSAllowedOrigins)))

	// Liveness probe: always 200, no dependency checks
	r.Get("/health/live", func(w http.ResponseWriter, r *http.Request) {
		JSON(w, http.StatusOK, map[string]string{"status": "alive"})
	})

	readiness := readinessHandler(cfg.Readiness)
	r.Get("/health/ready", readiness)
	r.Get("/health", readiness)

	// Prometheus metrics
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/dialogues", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				if cfg.DialogueRateLimiter != nil {
					r.Use(cfg.DialogueRateLimiter)
				}
				r.Post("/", h.CreateDialogue)
			})
			r.Get("/session/{sessionID}", h.ListSessionDialogues)
			r.Get("/handover/pending", h.PendingHandover)
			r.Post("/{dialogueID}/handover", h.HandoverDialogue)
		})

		r.Get("/knowledge/search", h.SearchKnowledge)
	})

	return r
}

func readinessHandler(checks []ReadinessCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()

		health := map[string]string{"status": "healthy"}
		status := http.StatusOK

		for _, c := range checks {
			if c.Check == nil {
				health[c.Name] = "not configured"
				continue
			}
			if err := c.Check(ctx); err != nil {
				health[c.Name] = "unhealthy"
				health["status"] = "degraded"
				if !c.Optional {
					status = http.StatusServiceUnavailable
				}
				continue
			}
			health[c.Name] = "healthy"
		}

		JSON(w, status, health)
	}
}
