package rewrite

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/ruanshan4896/tintuc24h-sub000/internal/domain"
)

// Provider is one interchangeable generative-text backend. Implementations
// own their internal model/credential fallback.
type Provider interface {
	Name() string
	Rewrite(ctx context.Context, prompt string) (text string, reportedTokens int, model string, err error)
}

// Orchestrator routes rewrite requests to the requested provider when it is
// configured, falling back to whichever provider is. It keeps no state
// between calls beyond the static preference order.
type Orchestrator struct {
	providers map[string]Provider
	order     []string
	logger    *slog.Logger
}

// NewOrchestrator registers the configured providers; nil providers are
// skipped so callers can pass constructor results straight through.
func NewOrchestrator(logger *slog.Logger, providers ...Provider) *Orchestrator {
	o := &Orchestrator{providers: map[string]Provider{}, logger: logger}
	for _, p := range providers {
		if p == nil || isNilProvider(p) {
			continue
		}
		if _, dup := o.providers[p.Name()]; dup {
			continue
		}
		o.providers[p.Name()] = p
		o.order = append(o.order, p.Name())
	}
	return o
}

// Rewrite produces a rewritten article body. The returned content is
// guaranteed to clear domain.MinRewriteLength; anything shorter is treated
// as a content-filtered placeholder and surfaces as ErrRewriteTooShort.
func (o *Orchestrator) Rewrite(ctx context.Context, req domain.RewriteRequest) (*domain.RewriteResult, error) {
	if len(o.order) == 0 {
		return nil, domain.ErrNoProvider
	}

	provider := o.resolve(req.Provider)
	prompt := buildPrompt(req)

	text, reported, model, err := provider.Rewrite(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("rewrite via %s: %w", provider.Name(), err)
	}

	text = strings.TrimSpace(text)
	if utf8.RuneCountInString(text) < domain.MinRewriteLength {
		return nil, fmt.Errorf("%w: got %d runes from %s", domain.ErrRewriteTooShort, utf8.RuneCountInString(text), provider.Name())
	}

	tokens, cost, free := estimateUsage(provider.Name(), len(prompt), len(text), reported)
	if o.logger != nil {
		o.logger.Info("rewrite completed",
			"provider", provider.Name(),
			"model", model,
			"tokens", tokens,
			"cost_usd", cost,
			"free", free)
	}

	return &domain.RewriteResult{
		RewrittenContent: text,
		TokensUsed:       tokens,
		CostUSD:          cost,
		Free:             free,
		ProviderUsed:     provider.Name(),
		ModelUsed:        model,
	}, nil
}

// resolve honors the requested provider when configured, otherwise returns
// the first configured one.
func (o *Orchestrator) resolve(requested string) Provider {
	if p, ok := o.providers[strings.ToLower(strings.TrimSpace(requested))]; ok {
		return p
	}
	return o.providers[o.order[0]]
}

func buildPrompt(req domain.RewriteRequest) string {
	tone := strings.TrimSpace(req.Tone)
	if tone == "" {
		tone = "trung lập, chuyên nghiệp"
	}

	var sb strings.Builder
	sb.WriteString("Bạn là biên tập viên của một trang tin tức tiếng Việt. ")
	sb.WriteString("Viết lại bài báo dưới đây bằng giọng văn ")
	sb.WriteString(tone)
	sb.WriteString(", giữ nguyên toàn bộ thông tin, số liệu và trích dẫn. ")
	sb.WriteString("Trả về nội dung Markdown, không thêm lời dẫn hay ghi chú nào khác.\n\n")
	sb.WriteString("Tiêu đề: ")
	sb.WriteString(req.Title)
	sb.WriteString("\n\nNội dung:\n")
	sb.WriteString(req.Content)
	return sb.String()
}

// isNilProvider guards against typed-nil interface values from constructors
// that return nil pointers.
func isNilProvider(p Provider) bool {
	switch v := p.(type) {
	case *GeminiProvider:
		return v == nil
	case *OpenAIProvider:
		return v == nil
	default:
		return false
	}
}
