// Package inference calls the external text-generation endpoint.
package inference

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/dentalcare/aftercare/internal/config"
	"github.com/dentalcare/aftercare/internal/metrics"
)

// Endpoint shapes.
const (
	ShapeCompletion = "completion"
	ShapeChat       = "chat"
	ShapeOpenAI     = "openai"
)

// Request is one generation call.
type Request struct {
	SystemPrompt string
	UserPrompt   string
}

// FailureReporter receives every failed call. Implementations must not block
// for long; Generate waits for them.
type FailureReporter interface {
	ReportFailure(ctx context.Context, err *Error)
}

// backend is one endpoint shape.
type backend interface {
	generate(ctx context.Context, req Request) (string, error)
}

// Client sends prompts to the configured endpoint shape. It makes exactly
// one attempt per call.
type Client struct {
	shape    string
	backend  backend
	timeout  time.Duration
	reporter FailureReporter
}

// New builds a Client for cfg. It returns ErrNotConfigured when no endpoint
// URL is set. reporter may be nil.
func New(cfg config.AIConfig, reporter FailureReporter) (*Client, error) {
	if cfg.ServiceURL == "" {
		return nil, ErrNotConfigured
	}
	if cfg.Timeout <= 0 {
		return nil, errors.New("inference timeout must be positive")
	}

	httpClient := &http.Client{Transport: newTransport(cfg.InsecureSkipVerify)}

	var b backend
	switch cfg.Shape {
	case ShapeCompletion:
		b = &completionBackend{
			url:         NormalizeEndpoint(cfg.ServiceURL, completionRoute),
			apiKey:      cfg.APIKey,
			maxTokens:   cfg.MaxTokens,
			temperature: cfg.Temperature,
			http:        httpClient,
		}
	case ShapeChat:
		b = &chatBackend{
			url:         NormalizeEndpoint(cfg.ServiceURL, chatRoute),
			apiKey:      cfg.APIKey,
			model:       cfg.Model,
			maxTokens:   cfg.MaxTokens,
			temperature: cfg.Temperature,
			http:        httpClient,
		}
	case ShapeOpenAI:
		b = newOpenAIBackend(cfg, httpClient)
	default:
		return nil, fmt.Errorf("unknown inference shape %q", cfg.Shape)
	}

	if cfg.InsecureSkipVerify {
		slog.Warn("inference TLS verification disabled", "url", cfg.ServiceURL)
	}

	return &Client{
		shape:    cfg.Shape,
		backend:  b,
		timeout:  cfg.Timeout,
		reporter: reporter,
	}, nil
}

func newTransport(insecure bool) *http.Transport {
	t := http.DefaultTransport.(*http.Transport).Clone()
	if insecure {
		t.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // self-signed deployment certificates
	}
	return t
}

// Shape returns the configured endpoint shape.
func (c *Client) Shape() string { return c.shape }

// Generate returns the generated text. Every failure is an *Error.
func (c *Client) Generate(ctx context.Context, req Request) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	text, err := c.backend.generate(ctx, req)
	metrics.InferenceDuration.WithLabelValues(c.shape).Observe(time.Since(start).Seconds())

	if err != nil {
		var ie *Error
		if !errors.As(err, &ie) {
			ie = transportError(c.shape, err)
		}
		metrics.InferenceRequestsTotal.WithLabelValues(c.shape, string(ie.Kind)).Inc()
		if c.reporter != nil {
			c.reporter.ReportFailure(ctx, ie)
		}
		return "", ie
	}

	metrics.InferenceRequestsTotal.WithLabelValues(c.shape, "ok").Inc()
	return text, nil
}
