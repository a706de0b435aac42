package rewrite

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/ruanshan4896/tintuc24h-sub000/internal/domain"
)

type fakeProvider struct {
	name   string
	text   string
	tokens int
	model  string
	err    error
	prompt string
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) Rewrite(ctx context.Context, prompt string) (string, int, string, error) {
	f.prompt = prompt
	return f.text, f.tokens, f.model, f.err
}

func longText() string {
	return strings.Repeat("Nội dung bài viết đã được viết lại. ", 10)
}

func TestOrchestratorNoProvider(t *testing.T) {
	t.Parallel()

	o := NewOrchestrator(nil)
	_, err := o.Rewrite(context.Background(), domain.RewriteRequest{Title: "a", Content: "b"})
	if !errors.Is(err, domain.ErrNoProvider) {
		t.Fatalf("expected ErrNoProvider, got %v", err)
	}
}

func TestOrchestratorSkipsTypedNilProviders(t *testing.T) {
	t.Parallel()

	var gemini *GeminiProvider
	var openAI *OpenAIProvider
	o := NewOrchestrator(nil, gemini, openAI)

	_, err := o.Rewrite(context.Background(), domain.RewriteRequest{Title: "a", Content: "b"})
	if !errors.Is(err, domain.ErrNoProvider) {
		t.Fatalf("expected ErrNoProvider with only nil providers, got %v", err)
	}
}

func TestOrchestratorRoutesToRequestedProvider(t *testing.T) {
	t.Parallel()

	first := &fakeProvider{name: "gemini", text: longText(), tokens: 120, model: "gemini-2.0-flash"}
	second := &fakeProvider{name: "openai", text: longText(), tokens: 80, model: "gpt-4o-mini"}
	o := NewOrchestrator(nil, first, second)

	result, err := o.Rewrite(context.Background(), domain.RewriteRequest{
		Title:    "Tiêu đề",
		Content:  "Nội dung gốc",
		Provider: "openai",
	})
	if err != nil {
		t.Fatalf("Rewrite error: %v", err)
	}
	if result.ProviderUsed != "openai" {
		t.Fatalf("expected openai, got %s", result.ProviderUsed)
	}
	if result.ModelUsed != "gpt-4o-mini" {
		t.Fatalf("unexpected model: %s", result.ModelUsed)
	}
	if result.Free {
		t.Fatalf("openai usage must not be free")
	}
}

func TestOrchestratorFallsBackToConfiguredProvider(t *testing.T) {
	t.Parallel()

	only := &fakeProvider{name: "gemini", text: longText(), tokens: 50, model: "gemini-2.0-flash"}
	o := NewOrchestrator(nil, only)

	result, err := o.Rewrite(context.Background(), domain.RewriteRequest{
		Title:    "Tiêu đề",
		Content:  "Nội dung",
		Provider: "openai",
	})
	if err != nil {
		t.Fatalf("Rewrite error: %v", err)
	}
	if result.ProviderUsed != "gemini" {
		t.Fatalf("expected fallback to gemini, got %s", result.ProviderUsed)
	}
	if !result.Free {
		t.Fatalf("gemini usage must be free")
	}
}

func TestOrchestratorRejectsShortOutput(t *testing.T) {
	t.Parallel()

	short := &fakeProvider{name: "gemini", text: "Tôi không thể viết lại bài này.", model: "gemini-2.0-flash"}
	o := NewOrchestrator(nil, short)

	_, err := o.Rewrite(context.Background(), domain.RewriteRequest{Title: "a", Content: "b"})
	if !errors.Is(err, domain.ErrRewriteTooShort) {
		t.Fatalf("expected ErrRewriteTooShort, got %v", err)
	}
}

func TestOrchestratorPropagatesQuotaClass(t *testing.T) {
	t.Parallel()

	exhausted := &fakeProvider{name: "gemini", err: classifyHTTPError(429, "quota exceeded")}
	o := NewOrchestrator(nil, exhausted)

	_, err := o.Rewrite(context.Background(), domain.RewriteRequest{Title: "a", Content: "b"})
	if !errors.Is(err, domain.ErrQuotaExceeded) {
		t.Fatalf("expected ErrQuotaExceeded, got %v", err)
	}
}

func TestBuildPromptIncludesTone(t *testing.T) {
	t.Parallel()

	p := &fakeProvider{name: "gemini", text: longText()}
	o := NewOrchestrator(nil, p)

	_, err := o.Rewrite(context.Background(), domain.RewriteRequest{
		Title:   "Tiêu đề",
		Content: "Nội dung",
		Tone:    "hài hước",
	})
	if err != nil {
		t.Fatalf("Rewrite error: %v", err)
	}
	if !strings.Contains(p.prompt, "hài hước") {
		t.Fatalf("tone missing from prompt:\n%s", p.prompt)
	}
	if !strings.Contains(p.prompt, "Tiêu đề") || !strings.Contains(p.prompt, "Nội dung") {
		t.Fatalf("title/content missing from prompt:\n%s", p.prompt)
	}
}

func TestClassifyHTTPError(t *testing.T) {
	t.Parallel()

	cases := []struct {
		status int
		body   string
		quota  bool
	}{
		{429, "slow down", true},
		{402, "payment required", true},
		{400, "RESOURCE_EXHAUSTED: daily quota", true},
		{403, "insufficient balance", true},
		{500, "internal error", false},
		{400, "invalid model name", false},
	}
	for _, tc := range cases {
		err := classifyHTTPError(tc.status, tc.body)
		if got := isQuotaErr(err); got != tc.quota {
			t.Fatalf("status %d body %q: quota=%v, want %v", tc.status, tc.body, got, tc.quota)
		}
	}
}

func TestEstimateUsage(t *testing.T) {
	t.Parallel()

	tokens, cost, free := estimateUsage(ProviderGemini, 400, 400, 0)
	if tokens != 200 {
		t.Fatalf("expected chars/4 estimate of 200, got %d", tokens)
	}
	if !free || cost != 0 {
		t.Fatalf("gemini must report free usage, got cost=%v free=%v", cost, free)
	}

	tokens, cost, free = estimateUsage(ProviderOpenAI, 0, 0, 1_000_000)
	if tokens != 1_000_000 {
		t.Fatalf("reported tokens must win, got %d", tokens)
	}
	if free || cost != 0.60 {
		t.Fatalf("expected $0.60 for 1M openai tokens, got cost=%v free=%v", cost, free)
	}

	_, _, free = estimateUsage("unknown", 100, 100, 0)
	if !free {
		t.Fatalf("unknown providers must default to free")
	}
}
