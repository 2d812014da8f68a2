package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const (
	maxResponseBytes = 1 << 20
	maxErrorSnippet  = 256
)

// constraintSuffix is appended to completion-style prompts, which have no
// separate channel for instructions the model reliably follows.
const constraintSuffix = "\n\n(Reply in 80 to 120 characters of plain sentences. No lists, no headings, no follow-up questions.)"

// completionBackend speaks the single-prompt shape: POST <base>/generate,
// reply in "text".
type completionBackend struct {
	url         string
	apiKey      string
	maxTokens   int
	temperature float64
	http        *http.Client
}

type completionRequest struct {
	Prompt       string  `json:"prompt"`
	SystemPrompt string  `json:"system_prompt"`
	MaxTokens    int     `json:"max_tokens"`
	Temperature  float64 `json:"temperature"`
}

type completionResponse struct {
	Text *string `json:"text"`
}

func (b *completionBackend) generate(ctx context.Context, req Request) (string, error) {
	body := completionRequest{
		Prompt:       req.UserPrompt + constraintSuffix,
		SystemPrompt: req.SystemPrompt,
		MaxTokens:    b.maxTokens,
		Temperature:  b.temperature,
	}
	var resp completionResponse
	if err := postJSON(ctx, b.http, ShapeCompletion, b.url, b.apiKey, body, &resp); err != nil {
		return "", err
	}
	if resp.Text == nil {
		return "", malformedError(ShapeCompletion, errors.New(`response has no "text" field`))
	}
	if strings.TrimSpace(*resp.Text) == "" {
		return "", malformedError(ShapeCompletion, errors.New(`response "text" is empty`))
	}
	return *resp.Text, nil
}

// chatBackend speaks the message-list shape: POST <base>/v1/chat/completions,
// reply in "response" or choices[0].message.content.
type chatBackend struct {
	url         string
	apiKey      string
	model       string
	maxTokens   int
	temperature float64
	http        *http.Client
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model,omitempty"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Response *string `json:"response"`
	Choices  []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (r chatResponse) text() (string, bool) {
	if r.Response != nil && strings.TrimSpace(*r.Response) != "" {
		return *r.Response, true
	}
	if len(r.Choices) > 0 && strings.TrimSpace(r.Choices[0].Message.Content) != "" {
		return r.Choices[0].Message.Content, true
	}
	return "", false
}

func (b *chatBackend) generate(ctx context.Context, req Request) (string, error) {
	body := chatRequest{
		Model: b.model,
		Messages: []chatMessage{
			{Role: "system", Content: req.SystemPrompt},
			{Role: "user", Content: req.UserPrompt},
		},
		MaxTokens:   b.maxTokens,
		Temperature: b.temperature,
	}
	var resp chatResponse
	if err := postJSON(ctx, b.http, ShapeChat, b.url, b.apiKey, body, &resp); err != nil {
		return "", err
	}
	text, ok := resp.text()
	if !ok {
		return "", malformedError(ShapeChat, errors.New(`response has neither "response" nor choices[0].message.content`))
	}
	return text, nil
}

// postJSON sends body and decodes a 2xx reply into out.
func postJSON(ctx context.Context, client *http.Client, shape, url, apiKey string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encoding %s request: %w", shape, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("building %s request: %w", shape, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+apiKey)
	}

	resp, err := client.Do(req)
	if err != nil {
		return transportError(shape, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return transportError(shape, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet := string(data)
		if len(snippet) > maxErrorSnippet {
			snippet = snippet[:maxErrorSnippet]
		}
		return statusError(shape, resp.StatusCode, snippet)
	}

	if err := json.Unmarshal(data, out); err != nil {
		return malformedError(shape, fmt.Errorf("decoding response: %w", err))
	}
	return nil
}
