package config

import (
	"strings"
	"testing"
	"time"
)

func validConfig() *Config {
	return &Config{
		Server: ServerConfig{Host: "0.0.0.0", Port: 8080},
		DB: DBConfig{
			Host: "localhost", Port: 5432, User: "aftercare",
			Password: "secret", Name: "dental_clinic", SSLMode: "disable", MaxConns: 25,
		},
		Redis: RedisConfig{Host: "localhost", Port: 6379},
		NATS:  NATSConfig{URL: "nats://localhost:4222"},
		AI: AIConfig{
			ServiceURL: "https://inference.example.com:8443",
			Shape:      "completion",
			MaxTokens:  150,
			Timeout:    60 * time.Second,
		},
		Assistant: AssistantConfig{ContextTurns: 3, KnowledgeLimit: 3, CacheTTL: 30 * time.Minute},
		Dialogue:  DialogueConfig{LogBackend: "redis", SessionTTL: 30 * time.Minute, MaxSessionTurns: 20},
	}
}

func TestValidate_ValidConfig(t *testing.T) {
	cfg := validConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
}

func TestValidate_NoEndpointIsValid(t *testing.T) {
	cfg := validConfig()
	cfg.AI.ServiceURL = ""
	cfg.AI.Shape = "bogus"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected no error without endpoint, got: %v", err)
	}
}

func TestValidate_UnknownShape(t *testing.T) {
	cfg := validConfig()
	cfg.AI.Shape = "grpc"
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "AI_SERVICE_SHAPE") {
		t.Fatalf("expected AI_SERVICE_SHAPE error, got: %v", err)
	}
}

func TestValidate_RelativeServiceURL(t *testing.T) {
	cfg := validConfig()
	cfg.AI.ServiceURL = "inference.local/generate"
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "AI_SERVICE_URL") {
		t.Fatalf("expected AI_SERVICE_URL error, got: %v", err)
	}
}

func TestValidate_NonPositiveTimeout(t *testing.T) {
	cfg := validConfig()
	cfg.AI.Timeout = 0
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "AI_TIMEOUT") {
		t.Fatalf("expected AI_TIMEOUT error, got: %v", err)
	}
}

func TestValidate_UnknownLogBackend(t *testing.T) {
	cfg := validConfig()
	cfg.Dialogue.LogBackend = "mysql"
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "DIALOGUE_LOG_BACKEND") {
		t.Fatalf("expected DIALOGUE_LOG_BACKEND error, got: %v", err)
	}
}

func TestValidate_DBPasswordRequired(t *testing.T) {
	cfg := validConfig()
	cfg.DB.Password = ""
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "DB_PASSWORD") {
		t.Fatalf("expected DB_PASSWORD error, got: %v", err)
	}
}

func TestValidate_InvalidPorts(t *testing.T) {
	cfg := validConfig()
	cfg.Server.Port = 0
	cfg.DB.Port = 99999
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected port validation errors")
	}
	if !strings.Contains(err.Error(), "SERVER_PORT") {
		t.Errorf("expected SERVER_PORT error in: %v", err)
	}
	if !strings.Contains(err.Error(), "DB_PORT") {
		t.Errorf("expected DB_PORT error in: %v", err)
	}
}

func TestValidate_MultipleErrors(t *testing.T) {
	cfg := &Config{
		Server: ServerConfig{Port: 0},
		DB:     DBConfig{Port: 5432},
		Redis:  RedisConfig{Port: 6379},
	}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected multiple validation errors")
	}
	errStr := err.Error()
	for _, substr := range []string{"DB_PASSWORD", "SERVER_PORT", "AI_TIMEOUT", "ASSISTANT_KNOWLEDGE_LIMIT", "DIALOGUE_LOG_BACKEND"} {
		if !strings.Contains(errStr, substr) {
			t.Errorf("expected %q in error: %s", substr, errStr)
		}
	}
}

func TestSplitList(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", nil},
		{"  ", nil},
		{"thanks", []string{"thanks"}},
		{"thank you, got it ,,okay", []string{"thank you", "got it", "okay"}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := splitList(tt.in)
			if len(got) != len(tt.want) {
				t.Fatalf("splitList(%q) = %v, want %v", tt.in, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("splitList(%q) = %v, want %v", tt.in, got, tt.want)
				}
			}
		})
	}
}

func TestValidate_SessionTurns(t *testing.T) {
	tests := []struct {
		name    string
		turns   int
		wantErr string
	}{
		{"zero", 0, "DIALOGUE_MAX_SESSION_TURNS must be at least 1"},
		{"negative", -5, "DIALOGUE_MAX_SESSION_TURNS must be at least 1"},
		{"below context window", 2, "must not be below ASSISTANT_CONTEXT_TURNS"},
		{"equal to context window", 3, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			cfg.Assistant.ContextTurns = 3
			cfg.Dialogue.MaxSessionTurns = tt.turns
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("expected no error, got: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected %q error, got: %v", tt.wantErr, err)
			}
		})
	}
}

func TestValidate_PoolBounds(t *testing.T) {
	cfg := validConfig()
	cfg.DB.MinConns = 30
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "DB_MIN_CONNS") {
		t.Fatalf("expected DB_MIN_CONNS error, got: %v", err)
	}

	cfg = validConfig()
	cfg.DB.MaxConns = 0
	cfg.DB.MinConns = 0
	err = cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "DB_MAX_CONNS") {
		t.Fatalf("expected DB_MAX_CONNS error, got: %v", err)
	}
}
