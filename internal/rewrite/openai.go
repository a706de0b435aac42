package rewrite

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ruanshan4896/tintuc24h-sub000/internal/config"
)

const (
	defaultOpenAIEndpoint = "https://api.openai.com/v1/chat/completions"
	defaultOpenAIModel    = "gpt-4o-mini"
)

// OpenAIProvider talks to OpenAI-compatible chat completion APIs. Quota and
// "insufficient" errors are classified distinctly; everything else
// propagates as-is.
type OpenAIProvider struct {
	endpoint     string
	model        string
	apiKey       string
	systemPrompt string
	client       *http.Client
}

// NewOpenAIProvider returns nil when no API key is configured.
func NewOpenAIProvider(cfg config.OpenAIConfig) *OpenAIProvider {
	if cfg.APIKey == "" {
		return nil
	}
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = defaultOpenAIEndpoint
	}
	model := cfg.Model
	if model == "" {
		model = defaultOpenAIModel
	}
	return &OpenAIProvider{
		endpoint:     endpoint,
		model:        model,
		apiKey:       cfg.APIKey,
		systemPrompt: cfg.SystemPrompt,
		client:       &http.Client{Timeout: 60 * time.Second},
	}
}

// Name identifies the provider inside the orchestrator.
func (p *OpenAIProvider) Name() string { return ProviderOpenAI }

type openAIResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		TotalTokens int `json:"total_tokens"`
	} `json:"usage"`
}

// Rewrite performs a single chat-completion call.
func (p *OpenAIProvider) Rewrite(ctx context.Context, prompt string) (string, int, string, error) {
	messages := []map[string]string{}
	if sys := strings.TrimSpace(p.systemPrompt); sys != "" {
		messages = append(messages, map[string]string{"role": "system", "content": sys})
	}
	messages = append(messages, map[string]string{"role": "user", "content": prompt})

	body, err := json.Marshal(map[string]any{
		"model":    p.model,
		"messages": messages,
	})
	if err != nil {
		return "", 0, "", fmt.Errorf("marshal openai payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", 0, "", fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+p.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return "", 0, "", fmt.Errorf("openai request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return "", 0, "", fmt.Errorf("read openai response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", 0, "", classifyHTTPError(resp.StatusCode, string(raw))
	}

	var parsed openAIResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", 0, "", fmt.Errorf("decode openai response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", 0, "", fmt.Errorf("openai returned no choices")
	}

	text := strings.TrimSpace(parsed.Choices[0].Message.Content)
	if text == "" {
		return "", 0, "", fmt.Errorf("openai returned empty content")
	}

	return text, parsed.Usage.TotalTokens, p.model, nil
}

// Generate satisfies ports.TextGenerator.
func (p *OpenAIProvider) Generate(ctx context.Context, prompt string) (string, error) {
	text, _, _, err := p.Rewrite(ctx, prompt)
	return text, err
}
