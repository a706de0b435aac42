package feed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

const sampleRSS = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>Tin mới</title>
    <link>https://news.example.com</link>
    <item>
      <title>Giá xe điện tăng mạnh</title>
      <link>https://news.example.com/xe-dien</link>
      <guid>https://news.example.com/xe-dien</guid>
      <description>Tóm tắt bài viết.</description>
      <category>Ô tô</category>
      <pubDate>Sat, 29 Aug 2026 08:00:00 +0700</pubDate>
      <enclosure url="https://cdn.example.com/xe.jpg" type="image/jpeg" length="1000"/>
    </item>
    <item>
      <title>Bài không có liên kết</title>
      <description>Thiếu link lẫn guid.</description>
    </item>
    <item>
      <title>Bài chỉ có guid</title>
      <guid>https://news.example.com/chi-guid</guid>
    </item>
  </channel>
</rss>`

func TestFetchNormalizesItems(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(sampleRSS))
	}))
	defer server.Close()

	source := NewSource(0, nil)
	items, err := source.Fetch(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Fetch error: %v", err)
	}

	if len(items) != 2 {
		t.Fatalf("expected 2 items (link-less item dropped), got %d", len(items))
	}

	first := items[0]
	if first.Title != "Giá xe điện tăng mạnh" {
		t.Fatalf("unexpected title: %s", first.Title)
	}
	if first.Link != "https://news.example.com/xe-dien" {
		t.Fatalf("unexpected link: %s", first.Link)
	}
	if first.Category != "Ô tô" {
		t.Fatalf("unexpected category: %s", first.Category)
	}
	if first.ImageURL != "https://cdn.example.com/xe.jpg" {
		t.Fatalf("expected enclosure image, got %s", first.ImageURL)
	}
	if first.Published.IsZero() {
		t.Fatalf("expected parsed publish time")
	}

	if items[1].Link != "https://news.example.com/chi-guid" {
		t.Fatalf("expected GUID fallback link, got %s", items[1].Link)
	}
}

func TestFetchCapsItems(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(`<?xml version="1.0"?><rss version="2.0"><channel><title>t</title>
			<item><title>a</title><link>https://e.com/a</link></item>
			<item><title>b</title><link>https://e.com/b</link></item>
			<item><title>c</title><link>https://e.com/c</link></item>
		</channel></rss>`))
	}))
	defer server.Close()

	source := NewSource(2, nil)
	items, err := source.Fetch(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Fetch error: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected cap of 2, got %d", len(items))
	}
}

func TestFetchError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	source := NewSource(0, nil)
	if _, err := source.Fetch(context.Background(), server.URL); err == nil {
		t.Fatalf("expected error for failing feed")
	}
}
