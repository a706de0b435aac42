package scrape

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ruanshan4896/tintuc24h-sub000/internal/domain"
	"github.com/ruanshan4896/tintuc24h-sub000/internal/markdown"
)

func paragraphs(n int) string {
	var sb strings.Builder
	for i := 0; i < n; i++ {
		fmt.Fprintf(&sb, "<p>Đoạn %d: giá xe điện tại các thành phố lớn tiếp tục tăng mạnh trong quý này.</p>", i)
	}
	return sb.String()
}

func newTestExtractor(extra map[string]Profile) *Extractor {
	return NewExtractor(NewFetcher(nil), markdown.NewConverter(), extra, nil)
}

func TestExtractFromHTMLUsesProfile(t *testing.T) {
	t.Parallel()

	extra := map[string]Profile{
		"news.example.com": {
			ContentSelectors: []string{".missing", ".article-body"},
			TitleSelector:    "h1.title",
			RemoveSelectors:  []string{".comments"},
		},
	}
	e := newTestExtractor(extra)

	html := `<html><head>
		<meta name="author" content="Phóng viên A">
		<meta property="og:site_name" content="News Example">
	</head><body>
		<h1 class="title">Giá xe điện tăng mạnh</h1>
		<div class="article-body">` + paragraphs(8) + `
			<img src="/images/xe.jpg" alt="xe">
			<div class="comments">bình luận rác</div>
		</div>
	</body></html>`

	got, err := e.ExtractFromHTML("https://news.example.com/bai-viet", html)
	if err != nil {
		t.Fatalf("ExtractFromHTML error: %v", err)
	}

	if got.Title != "Giá xe điện tăng mạnh" {
		t.Fatalf("unexpected title: %s", got.Title)
	}
	if got.Author != "Phóng viên A" {
		t.Fatalf("unexpected author: %s", got.Author)
	}
	if got.SiteName != "News Example" {
		t.Fatalf("unexpected site name: %s", got.SiteName)
	}
	if !strings.Contains(got.Content, "https://news.example.com/images/xe.jpg") {
		t.Fatalf("relative image not resolved:\n%s", got.Content)
	}
	if strings.Contains(got.Content, "bình luận rác") {
		t.Fatalf("remove selector ignored:\n%s", got.Content)
	}
	if got.Excerpt == "" {
		t.Fatalf("expected derived excerpt")
	}
}

func TestExtractFromHTMLSelectorFallbackOrder(t *testing.T) {
	t.Parallel()

	extra := map[string]Profile{
		"news.example.com": {
			ContentSelectors: []string{".too-short", ".full-body"},
		},
	}
	e := newTestExtractor(extra)

	html := `<html><body>
		<h1>Tiêu đề</h1>
		<div class="too-short"><p>ngắn</p></div>
		<div class="full-body">` + paragraphs(8) + `</div>
	</body></html>`

	got, err := e.ExtractFromHTML("https://news.example.com/bai-viet", html)
	if err != nil {
		t.Fatalf("ExtractFromHTML error: %v", err)
	}
	if !strings.Contains(got.Content, "Đoạn 0") {
		t.Fatalf("expected second selector content:\n%s", got.Content)
	}
	if strings.Contains(got.Content, "ngắn") {
		t.Fatalf("short selector content leaked:\n%s", got.Content)
	}
}

func TestExtractFromHTMLProfileTooShortUsesGenericFallback(t *testing.T) {
	t.Parallel()

	extra := map[string]Profile{
		"news.example.com": {
			ContentSelectors: []string{".summary", ".teaser"},
		},
	}
	e := newTestExtractor(extra)

	html := `<html><head><title>Giá xe điện tăng mạnh</title></head><body>
		<div class="summary"><p>Tóm tắt ngắn.</p></div>
		<div class="teaser"><p>Cũng ngắn.</p></div>
		<article>
			<h1>Giá xe điện tăng mạnh</h1>` + paragraphs(10) + `
		</article>
	</body></html>`

	got, err := e.ExtractFromHTML("https://news.example.com/bai-viet", html)
	if err != nil {
		t.Fatalf("ExtractFromHTML error: %v", err)
	}
	if !strings.Contains(got.Content, "Đoạn 5") {
		t.Fatalf("expected readability fallback content, not the short profile match:\n%s", got.Content)
	}
}

func TestExtractFromHTMLFigureCaption(t *testing.T) {
	t.Parallel()

	extra := map[string]Profile{
		"news.example.com": {ContentSelectors: []string{".article-body"}},
	}
	e := newTestExtractor(extra)

	html := `<html><body><h1>Tiêu đề</h1><div class="article-body">` +
		paragraphs(8) +
		`<figure><img src="https://cdn.example.com/xe.jpg" alt="xe"><figcaption>Ảnh minh hoạ</figcaption></figure>` +
		`</div></body></html>`

	got, err := e.ExtractFromHTML("https://news.example.com/bai-viet", html)
	if err != nil {
		t.Fatalf("ExtractFromHTML error: %v", err)
	}
	if !strings.Contains(got.Content, `![xe](https://cdn.example.com/xe.jpg "Ảnh minh hoạ")`) {
		t.Fatalf("figcaption not carried into image title:\n%s", got.Content)
	}
}

func TestExtractFromHTMLGenericFallback(t *testing.T) {
	t.Parallel()

	e := newTestExtractor(nil)

	html := `<html><head><title>Giá xe điện tăng mạnh</title></head><body>
		<article>
			<h1>Giá xe điện tăng mạnh</h1>` + paragraphs(10) + `
		</article>
	</body></html>`

	got, err := e.ExtractFromHTML("https://unknown-site.example.com/bai-viet", html)
	if err != nil {
		t.Fatalf("ExtractFromHTML error: %v", err)
	}
	if !strings.Contains(got.Content, "Đoạn 0") {
		t.Fatalf("fallback content missing:\n%s", got.Content)
	}
	if got.Title == "" {
		t.Fatalf("expected a title from readability")
	}
}

func TestExtractFromHTMLInsufficientContent(t *testing.T) {
	t.Parallel()

	e := newTestExtractor(nil)

	_, err := e.ExtractFromHTML("https://unknown-site.example.com/x", `<html><body><p>quá ngắn</p></body></html>`)
	if !errors.Is(err, domain.ErrExtractionInsufficient) {
		t.Fatalf("expected ErrExtractionInsufficient, got %v", err)
	}
}

func TestExtractEndToEnd(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `<html><head><title>Tin thử nghiệm</title></head><body>
			<article><h1>Tin thử nghiệm</h1>%s<img src="#"></article>
		</body></html>`, paragraphs(10))
	}))
	defer server.Close()

	e := NewExtractor(NewFetcher(server.Client()), markdown.NewConverter(), nil, nil)
	got, err := e.Extract(context.Background(), server.URL+"/bai-viet")
	if err != nil {
		t.Fatalf("Extract error: %v", err)
	}
	if strings.Contains(got.Content, "(#)") {
		t.Fatalf("broken image survived end to end:\n%s", got.Content)
	}
	if !strings.Contains(got.Content, "Đoạn 0") {
		t.Fatalf("content missing:\n%s", got.Content)
	}
}

func TestExtractFetchError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	e := NewExtractor(NewFetcher(server.Client()), markdown.NewConverter(), nil, nil)
	_, err := e.Extract(context.Background(), server.URL+"/404")
	if !errors.Is(err, domain.ErrFetchFailed) {
		t.Fatalf("expected ErrFetchFailed, got %v", err)
	}
}

func TestProfileFor(t *testing.T) {
	t.Parallel()

	if _, ok := ProfileFor(Profiles, "https://www.vnexpress.net/bai-viet"); !ok {
		t.Fatalf("expected built-in profile for vnexpress.net")
	}
	if _, ok := ProfileFor(Profiles, "https://unknown.example.com/x"); ok {
		t.Fatalf("unexpected profile for unknown host")
	}
}

func TestNormalizeHost(t *testing.T) {
	t.Parallel()

	if got := NormalizeHost("WWW.VnExpress.net"); got != "vnexpress.net" {
		t.Fatalf("unexpected host: %s", got)
	}
}
