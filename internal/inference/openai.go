package inference

import (
	"context"
	"errors"
	"net/http"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/dentalcare/aftercare/internal/config"
)

// openAIBackend talks to OpenAI-compatible hosted endpoints.
type openAIBackend struct {
	client      *openai.Client
	model       string
	maxTokens   int
	temperature float32
}

func newOpenAIBackend(cfg config.AIConfig, httpClient *http.Client) *openAIBackend {
	oc := openai.DefaultConfig(cfg.APIKey)
	oc.BaseURL = NormalizeEndpoint(cfg.ServiceURL, openAIRoute)
	oc.HTTPClient = httpClient

	return &openAIBackend{
		client:      openai.NewClientWithConfig(oc),
		model:       cfg.Model,
		maxTokens:   cfg.MaxTokens,
		temperature: float32(cfg.Temperature),
	}
}

func (b *openAIBackend) generate(ctx context.Context, req Request) (string, error) {
	resp, err := b.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: b.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: req.SystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: req.UserPrompt},
		},
		MaxTokens:   b.maxTokens,
		Temperature: b.temperature,
	})
	if err != nil {
		return "", classifyOpenAIError(err)
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return "", malformedError(ShapeOpenAI, errors.New("completion has no content"))
	}
	return resp.Choices[0].Message.Content, nil
}

func classifyOpenAIError(err error) *Error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &Error{Kind: KindStatus, Shape: ShapeOpenAI, StatusCode: apiErr.HTTPStatusCode, Err: err}
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return &Error{Kind: KindStatus, Shape: ShapeOpenAI, StatusCode: reqErr.HTTPStatusCode, Err: err}
	}
	return transportError(ShapeOpenAI, err)
}
