package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
)

var validShapes = map[string]bool{"completion": true, "chat": true, "openai": true}

// Validate checks Config for production-critical problems.
// It collects all errors into a single joined error.
func (c *Config) Validate() error {
	var errs []string

	// DB password
	if c.DB.Password == "" {
		errs = append(errs, "DB_PASSWORD is required")
	}

	// Port ranges
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("SERVER_PORT must be 1–65535, got %d", c.Server.Port))
	}
	if c.DB.Port < 1 || c.DB.Port > 65535 {
		errs = append(errs, fmt.Sprintf("DB_PORT must be 1–65535, got %d", c.DB.Port))
	}
	if c.Redis.Port < 1 || c.Redis.Port > 65535 {
		errs = append(errs, fmt.Sprintf("REDIS_PORT must be 1–65535, got %d", c.Redis.Port))
	}

	// Postgres pool
	if c.DB.MaxConns < 1 {
		errs = append(errs, fmt.Sprintf("DB_MAX_CONNS must be at least 1, got %d", c.DB.MaxConns))
	}
	if c.DB.MinConns < 0 || c.DB.MinConns > c.DB.MaxConns {
		errs = append(errs, fmt.Sprintf("DB_MIN_CONNS must be between 0 and DB_MAX_CONNS (%d), got %d", c.DB.MaxConns, c.DB.MinConns))
	}

	// Generation endpoint
	if c.AI.ServiceURL != "" {
		if u, err := url.Parse(c.AI.ServiceURL); err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, fmt.Sprintf("AI_SERVICE_URL must be an absolute URL, got %q", c.AI.ServiceURL))
		}
		if !validShapes[c.AI.Shape] {
			errs = append(errs, fmt.Sprintf("AI_SERVICE_SHAPE must be one of completion, chat, openai, got %q", c.AI.Shape))
		}
		if c.AI.InsecureSkipVerify {
			slog.Warn("AI_TLS_INSECURE is set: generation endpoint certificates are not verified")
		}
	}
	if c.AI.Timeout <= 0 {
		errs = append(errs, "AI_TIMEOUT must be positive")
	}
	if c.AI.MaxTokens <= 0 {
		errs = append(errs, "AI_MAX_TOKENS must be positive")
	}

	// Assistant
	if c.Assistant.ContextTurns < 0 {
		errs = append(errs, "ASSISTANT_CONTEXT_TURNS must not be negative")
	}
	if c.Assistant.KnowledgeLimit < 1 {
		errs = append(errs, "ASSISTANT_KNOWLEDGE_LIMIT must be at least 1")
	}
	if c.Assistant.CacheTTL <= 0 {
		errs = append(errs, "ASSISTANT_CACHE_TTL must be positive")
	}

	// Dialogue log
	if c.Dialogue.LogBackend != "redis" && c.Dialogue.LogBackend != "postgres" {
		errs = append(errs, fmt.Sprintf("DIALOGUE_LOG_BACKEND must be redis or postgres, got %q", c.Dialogue.LogBackend))
	}
	// The session list must hold the whole context window.
	if c.Dialogue.MaxSessionTurns < 1 {
		errs = append(errs, fmt.Sprintf("DIALOGUE_MAX_SESSION_TURNS must be at least 1, got %d", c.Dialogue.MaxSessionTurns))
	} else if c.Dialogue.MaxSessionTurns < c.Assistant.ContextTurns {
		errs = append(errs, fmt.Sprintf("DIALOGUE_MAX_SESSION_TURNS (%d) must not be below ASSISTANT_CONTEXT_TURNS (%d)",
			c.Dialogue.MaxSessionTurns, c.Assistant.ContextTurns))
	}
	if c.Dialogue.SessionTTL <= 0 {
		errs = append(errs, "DIALOGUE_SESSION_TTL must be positive")
	}

	// NATS: warn only
	if c.NATS.URL == "" {
		slog.Warn("NATS_URL is empty: dialogue turns are recorded synchronously")
	}

	if len(errs) > 0 {
		return errors.New("config validation failed:\n  " + strings.Join(errs, "\n  "))
	}
	return nil
}
