package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/dotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	Server      ServerConfig
	DB          DBConfig
	Redis       RedisConfig
	NATS        NATSConfig
	Log         LogConfig
	CORS        CORSConfig
	RateLimit   RateLimitConfig
	AI          AIConfig
	Assistant   AssistantConfig
	Postprocess PostprocessConfig
	Dialogue    DialogueConfig
}

type ServerConfig struct {
	Host string
	Port int
}

type DBConfig struct {
	Host           string
	Port           int
	User           string
	Password       string
	Name           string
	SSLMode        string
	MaxConns       int32
	MigrationsPath string
	AutoMigrate    bool

	// Pool tuning.
	MinConns          int32
	MaxConnLifetime   time.Duration
	HealthCheckPeriod time.Duration
}

func (c DBConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Name, c.SSLMode)
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// NATSConfig is optional; an empty URL disables event publishing and the
// dialogue handler records turns directly.
type NATSConfig struct {
	URL string
}

type LogConfig struct {
	Level  string
	Format string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type RateLimitConfig struct {
	MaxRequests int
	WindowSec   int
}

// AIConfig describes the external generation endpoint. An empty ServiceURL
// means no endpoint is configured and every answer comes from the fallback
// responder.
type AIConfig struct {
	ServiceURL         string
	Shape              string
	APIKey             string
	Model              string
	MaxTokens          int
	Temperature        float64
	Timeout            time.Duration
	InsecureSkipVerify bool
}

type AssistantConfig struct {
	ContextTurns   int
	KnowledgeLimit int
	CacheTTL       time.Duration
}

type PostprocessConfig struct {
	ClosingPhrases  []string
	FollowUpPhrases []string
	ClosingReply    string
}

type DialogueConfig struct {
	LogBackend      string
	SessionTTL      time.Duration
	MaxSessionTurns int
}

func Load() (*Config, error) {
	k := koanf.New(".")

	// Load .env file if it exists (ignore error if missing)
	_ = k.Load(file.Provider(".env"), dotenv.Parser())

	// Load environment variables (override .env)
	err := k.Load(env.Provider("", ".", func(s string) string {
		return strings.ToLower(strings.ReplaceAll(s, "_", "."))
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("loading env vars: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Host: k.String("server.host"),
			Port: k.Int("server.port"),
		},
		DB: DBConfig{
			Host:           k.String("db.host"),
			Port:           k.Int("db.port"),
			User:           k.String("db.user"),
			Password:       k.String("db.password"),
			Name:           k.String("db.name"),
			SSLMode:        k.String("db.sslmode"),
			MaxConns:       int32(k.Int("db.max.conns")),
			MinConns:       int32(k.Int("db.min.conns")),
			MigrationsPath: k.String("db.migrations.path"),
			AutoMigrate:    k.Bool("db.auto.migrate"),
		},
		Redis: RedisConfig{
			Host:     k.String("redis.host"),
			Port:     k.Int("redis.port"),
			Password: k.String("redis.password"),
			DB:       k.Int("redis.db"),
		},
		NATS: NATSConfig{
			URL: k.String("nats.url"),
		},
		Log: LogConfig{
			Level:  k.String("log.level"),
			Format: k.String("log.format"),
		},
		CORS: CORSConfig{
			AllowedOrigins: splitList(k.String("cors.allowed.origins")),
		},
		RateLimit: RateLimitConfig{
			MaxRequests: k.Int("ratelimit.max.requests"),
			WindowSec:   k.Int("ratelimit.window.sec"),
		},
		AI: AIConfig{
			ServiceURL:         k.String("ai.service.url"),
			Shape:              strings.ToLower(k.String("ai.service.shape")),
			APIKey:             k.String("ai.api.key"),
			Model:              k.String("ai.model"),
			MaxTokens:          k.Int("ai.max.tokens"),
			Temperature:        k.Float64("ai.temperature"),
			InsecureSkipVerify: k.Bool("ai.tls.insecure"),
		},
		Assistant: AssistantConfig{
			ContextTurns:   k.Int("assistant.context.turns"),
			KnowledgeLimit: k.Int("assistant.knowledge.limit"),
		},
		Postprocess: PostprocessConfig{
			ClosingPhrases:  splitList(k.String("postprocess.closing.phrases")),
			FollowUpPhrases: splitList(k.String("postprocess.followup.phrases")),
			ClosingReply:    k.String("postprocess.closing.reply"),
		},
		Dialogue: DialogueConfig{
			LogBackend:      strings.ToLower(k.String("dialogue.log.backend")),
			MaxSessionTurns: k.Int("dialogue.max.session.turns"),
		},
	}

	// Apply defaults
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.DB.Host == "" {
		cfg.DB.Host = "localhost"
	}
	if cfg.DB.Port == 0 {
		cfg.DB.Port = 5432
	}
	if cfg.DB.User == "" {
		cfg.DB.User = "aftercare"
	}
	if cfg.DB.Name == "" {
		cfg.DB.Name = "dental_clinic"
	}
	if cfg.DB.SSLMode == "" {
		cfg.DB.SSLMode = "disable"
	}
	if cfg.DB.MaxConns == 0 {
		cfg.DB.MaxConns = 25
	}
	if !k.Exists("db.min.conns") {
		cfg.DB.MinConns = 2
	}
	if cfg.DB.MigrationsPath == "" {
		cfg.DB.MigrationsPath = "migrations"
	}
	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "localhost"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "debug"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
	if cfg.RateLimit.MaxRequests == 0 {
		cfg.RateLimit.MaxRequests = 30
	}
	if cfg.RateLimit.WindowSec == 0 {
		cfg.RateLimit.WindowSec = 60
	}
	if cfg.AI.Shape == "" {
		cfg.AI.Shape = "completion"
	}
	if cfg.AI.Model == "" {
		cfg.AI.Model = "dental_qwen"
	}
	if cfg.AI.MaxTokens == 0 {
		cfg.AI.MaxTokens = 150
	}
	if !k.Exists("ai.temperature") {
		cfg.AI.Temperature = 0.7
	}
	if cfg.Assistant.ContextTurns == 0 {
		cfg.Assistant.ContextTurns = 3
	}
	if cfg.Assistant.KnowledgeLimit == 0 {
		cfg.Assistant.KnowledgeLimit = 3
	}
	if cfg.Dialogue.LogBackend == "" {
		cfg.Dialogue.LogBackend = "redis"
	}
	if cfg.Dialogue.MaxSessionTurns == 0 {
		cfg.Dialogue.MaxSessionTurns = 20
	}

	// Parse durations
	cfg.DB.MaxConnLifetime, err = durationOr(k, "db.max.conn.lifetime", "1h")
	if err != nil {
		return nil, fmt.Errorf("parsing db max conn lifetime: %w", err)
	}
	cfg.DB.HealthCheckPeriod, err = durationOr(k, "db.health.check.period", "1m")
	if err != nil {
		return nil, fmt.Errorf("parsing db health check period: %w", err)
	}
	cfg.AI.Timeout, err = durationOr(k, "ai.timeout", "60s")
	if err != nil {
		return nil, fmt.Errorf("parsing ai timeout: %w", err)
	}
	cfg.Assistant.CacheTTL, err = durationOr(k, "assistant.cache.ttl", "30m")
	if err != nil {
		return nil, fmt.Errorf("parsing assistant cache ttl: %w", err)
	}
	cfg.Dialogue.SessionTTL, err = durationOr(k, "dialogue.session.ttl", "30m")
	if err != nil {
		return nil, fmt.Errorf("parsing dialogue session ttl: %w", err)
	}

	return cfg, nil
}

func durationOr(k *koanf.Koanf, key, def string) (time.Duration, error) {
	s := k.String(key)
	if s == "" {
		s = def
	}
	return time.ParseDuration(s)
}

// splitList parses a comma-separated env value, dropping empty items.
func splitList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
