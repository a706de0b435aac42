package markdown

import (
	"strings"
	"testing"
)

func TestToMarkdownDropsBrokenImages(t *testing.T) {
	t.Parallel()

	conv := NewConverter()
	html := `<article>
		<p>Giá xe tăng mạnh trong quý ba.</p>
		<img src="#" alt="broken">
		<img src="data:image/png;base64,AAAA" alt="inline">
		<img src="https://cdn.example.com/xe.jpg" alt="xe">
	</article>`

	out, err := conv.ToMarkdown(html)
	if err != nil {
		t.Fatalf("ToMarkdown error: %v", err)
	}

	if strings.Contains(out, "(#)") || strings.Contains(out, "data:") {
		t.Fatalf("broken image survived conversion:\n%s", out)
	}
	if !strings.Contains(out, "![xe](https://cdn.example.com/xe.jpg)") {
		t.Fatalf("valid image missing:\n%s", out)
	}
}

func TestToMarkdownKeepsImageTitle(t *testing.T) {
	t.Parallel()

	conv := NewConverter()
	out, err := conv.ToMarkdown(`<img src="https://cdn.example.com/a.jpg" alt="a" title="Chú thích ảnh">`)
	if err != nil {
		t.Fatalf("ToMarkdown error: %v", err)
	}
	if !strings.Contains(out, `![a](https://cdn.example.com/a.jpg "Chú thích ảnh")`) {
		t.Fatalf("image title lost:\n%s", out)
	}
}

func TestToMarkdownRemovesScripts(t *testing.T) {
	t.Parallel()

	conv := NewConverter()
	out, err := conv.ToMarkdown(`<p>nội dung</p><script>alert(1)</script><style>p{}</style>`)
	if err != nil {
		t.Fatalf("ToMarkdown error: %v", err)
	}
	if strings.Contains(out, "alert") || strings.Contains(out, "p{}") {
		t.Fatalf("script/style leaked:\n%s", out)
	}
}

func TestCleanupIdempotent(t *testing.T) {
	t.Parallel()

	in := "# Tiêu đề\n\n\n\nĐoạn một [1] có   khoảng  trắng.\n\nXem thêm: bài liên quan\n\nTheo: VnExpress\n\n[](https://example.com)\n\n##\n\nĐoạn cuối."
	once := Cleanup(in)
	twice := Cleanup(once)
	if once != twice {
		t.Fatalf("cleanup not idempotent:\nonce:\n%s\ntwice:\n%s", once, twice)
	}
}

func TestCleanupRules(t *testing.T) {
	t.Parallel()

	in := "Đoạn một [12] nói về xe.\nXem thêm: các bài khác\nNguồn: VnExpress\n[](https://example.com/x)\n###\nĐoạn hai."
	out := Cleanup(in)

	if strings.Contains(out, "[12]") {
		t.Fatalf("citation marker survived: %q", out)
	}
	if strings.Contains(out, "Xem thêm") {
		t.Fatalf("read-more line survived: %q", out)
	}
	if strings.Contains(out, "Nguồn:") {
		t.Fatalf("attribution line survived: %q", out)
	}
	if strings.Contains(out, "[](") {
		t.Fatalf("empty link survived: %q", out)
	}
	if strings.Contains(out, "###") {
		t.Fatalf("empty heading survived: %q", out)
	}
	if !strings.Contains(out, "Đoạn hai.") {
		t.Fatalf("real content dropped: %q", out)
	}
}

func TestValidImageSrc(t *testing.T) {
	t.Parallel()

	for _, src := range []string{"", "#", "a.b", "data:image/png;base64,AA"} {
		if ValidImageSrc(src) {
			t.Fatalf("expected %q to be rejected", src)
		}
	}
	if !ValidImageSrc("https://cdn.example.com/a.jpg") {
		t.Fatalf("expected absolute URL to be accepted")
	}
}
