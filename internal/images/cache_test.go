package images

import (
	"fmt"
	"testing"
	"time"
)

func TestFailedURLCacheTTL(t *testing.T) {
	t.Parallel()

	cache := NewFailedURLCache(time.Minute, 10)
	current := time.Date(2026, time.January, 1, 12, 0, 0, 0, time.UTC)
	cache.now = func() time.Time { return current }

	cache.MarkFailed("https://cdn.example.com/a.jpg")
	if !cache.IsFailed("https://cdn.example.com/a.jpg") {
		t.Fatalf("expected URL to be marked failed")
	}

	current = current.Add(2 * time.Minute)
	if cache.IsFailed("https://cdn.example.com/a.jpg") {
		t.Fatalf("expected entry to expire after TTL")
	}
	if cache.Len() != 0 {
		t.Fatalf("expired entry not removed, len=%d", cache.Len())
	}
}

func TestFailedURLCacheBounded(t *testing.T) {
	t.Parallel()

	cache := NewFailedURLCache(time.Hour, 3)
	current := time.Date(2026, time.January, 1, 12, 0, 0, 0, time.UTC)
	cache.now = func() time.Time { return current }

	for i := 0; i < 5; i++ {
		cache.MarkFailed(fmt.Sprintf("https://cdn.example.com/%d.jpg", i))
		current = current.Add(time.Second)
	}

	if cache.Len() > 3 {
		t.Fatalf("cache exceeded bound, len=%d", cache.Len())
	}
	if cache.IsFailed("https://cdn.example.com/0.jpg") {
		t.Fatalf("oldest entry should have been evicted")
	}
	if !cache.IsFailed("https://cdn.example.com/4.jpg") {
		t.Fatalf("newest entry missing")
	}
}

func TestFailedURLCacheUnknown(t *testing.T) {
	t.Parallel()

	cache := NewFailedURLCache(time.Minute, 10)
	if cache.IsFailed("https://cdn.example.com/unknown.jpg") {
		t.Fatalf("unknown URL reported as failed")
	}
}
