package rewrite

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/ruanshan4896/tintuc24h-sub000/internal/config"
)

const defaultGeminiEndpoint = "https://generativelanguage.googleapis.com/v1beta"

// defaultGeminiModels is the preference order, fastest/cheapest first.
var defaultGeminiModels = []string{
	"gemini-2.0-flash",
	"gemini-2.0-flash-lite",
	"gemini-1.5-flash",
}

// GeminiProvider iterates (model, key, config-variant) tuples until one call
// succeeds. The minimal-parameter variant goes first because some backends
// reject explicit sampling parameters for certain models.
type GeminiProvider struct {
	endpoint string
	models   []string
	keys     []string
	client   *http.Client
	logger   *slog.Logger
}

// NewGeminiProvider returns nil when no API keys are configured.
func NewGeminiProvider(cfg config.GeminiConfig, logger *slog.Logger) *GeminiProvider {
	if len(cfg.APIKeys) == 0 {
		return nil
	}
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = defaultGeminiEndpoint
	}
	models := cfg.Models
	if len(models) == 0 {
		models = defaultGeminiModels
	}
	return &GeminiProvider{
		endpoint: strings.TrimSuffix(endpoint, "/"),
		models:   models,
		keys:     cfg.APIKeys,
		client:   &http.Client{Timeout: 60 * time.Second},
		logger:   logger,
	}
}

// Name identifies the provider inside the orchestrator.
func (p *GeminiProvider) Name() string { return ProviderGemini }

// Rewrite walks models outer, credentials inner. Per (model, key) pair the
// minimal call is tried first and the fully-parameterized call second; a
// quota-classified error skips straight to the next credential.
func (p *GeminiProvider) Rewrite(ctx context.Context, prompt string) (string, int, string, error) {
	var lastErr error
	for _, model := range p.models {
		for i, key := range p.keys {
			text, tokens, err := p.call(ctx, model, key, prompt, false)
			if err == nil {
				return text, tokens, model, nil
			}
			lastErr = err
			if isQuotaErr(err) {
				p.debug("gemini key exhausted", "model", model, "key_index", i)
				continue
			}

			text, tokens, err = p.call(ctx, model, key, prompt, true)
			if err == nil {
				return text, tokens, model, nil
			}
			lastErr = err
			if isQuotaErr(err) {
				p.debug("gemini key exhausted", "model", model, "key_index", i)
			}
		}
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("no gemini models configured")
	}
	return "", 0, "", fmt.Errorf("all gemini attempts failed: %w", lastErr)
}

// Generate satisfies ports.TextGenerator for auxiliary calls such as
// image-keyword translation.
func (p *GeminiProvider) Generate(ctx context.Context, prompt string) (string, error) {
	text, _, _, err := p.Rewrite(ctx, prompt)
	return text, err
}

type geminiRequest struct {
	Contents         []geminiContent   `json:"contents"`
	GenerationConfig *generationConfig `json:"generationConfig,omitempty"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type generationConfig struct {
	Temperature     float64 `json:"temperature"`
	TopP            float64 `json:"topP"`
	TopK            int     `json:"topK"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
	UsageMetadata struct {
		TotalTokenCount int `json:"totalTokenCount"`
	} `json:"usageMetadata"`
	Error struct {
		Status  string `json:"status"`
		Message string `json:"message"`
	} `json:"error"`
}

func (p *GeminiProvider) call(ctx context.Context, model, key, prompt string, fullConfig bool) (string, int, error) {
	payload := geminiRequest{
		Contents: []geminiContent{{Parts: []geminiPart{{Text: prompt}}}},
	}
	if fullConfig {
		payload.GenerationConfig = &generationConfig{
			Temperature:     0.7,
			TopP:            0.95,
			TopK:            40,
			MaxOutputTokens: 8192,
		}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", 0, fmt.Errorf("marshal gemini payload: %w", err)
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent?key=%s", p.endpoint, model, key)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", 0, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return "", 0, fmt.Errorf("gemini request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return "", 0, fmt.Errorf("read gemini response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", 0, classifyHTTPError(resp.StatusCode, string(raw))
	}

	var parsed geminiResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", 0, fmt.Errorf("decode gemini response: %w", err)
	}
	if len(parsed.Candidates) == 0 {
		return "", 0, fmt.Errorf("gemini returned no candidates")
	}

	var sb strings.Builder
	for _, part := range parsed.Candidates[0].Content.Parts {
		sb.WriteString(part.Text)
	}
	text := strings.TrimSpace(sb.String())
	if text == "" {
		return "", 0, fmt.Errorf("gemini returned empty text")
	}

	return text, parsed.UsageMetadata.TotalTokenCount, nil
}

func (p *GeminiProvider) debug(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Debug(msg, args...)
	}
}
