package feed

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/ruanshan4896/tintuc24h-sub000/internal/domain"
	"github.com/ruanshan4896/tintuc24h-sub000/internal/ports"
)

// defaultMaxItems caps one feed pull. Full scraping plus rewriting runs
// 15-30s per item, so one batch stays under a few minutes.
const defaultMaxItems = 10

// Source pulls syndication feeds and normalizes their items.
type Source struct {
	parser   *gofeed.Parser
	maxItems int
	logger   *slog.Logger
}

var _ ports.FeedSource = (*Source)(nil)

// NewSource builds a gofeed-backed source; maxItems <= 0 uses the default.
func NewSource(maxItems int, logger *slog.Logger) *Source {
	if maxItems <= 0 {
		maxItems = defaultMaxItems
	}
	return &Source{parser: gofeed.NewParser(), maxItems: maxItems, logger: logger}
}

// Fetch parses the feed and returns at most maxItems normalized items.
func (s *Source) Fetch(ctx context.Context, feedURL string) ([]domain.FeedItem, error) {
	parsed, err := s.parser.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("parse feed %s: %w", feedURL, err)
	}

	items := make([]domain.FeedItem, 0, s.maxItems)
	for _, raw := range parsed.Items {
		if len(items) >= s.maxItems {
			break
		}
		item := normalizeItem(raw)
		if item.Link == "" {
			continue
		}
		items = append(items, item)
	}

	if s.logger != nil {
		s.logger.Debug("feed fetched", "url", feedURL, "items", len(items), "total", len(parsed.Items))
	}
	return items, nil
}

func normalizeItem(raw *gofeed.Item) domain.FeedItem {
	item := domain.FeedItem{
		Title:   strings.TrimSpace(raw.Title),
		Link:    strings.TrimSpace(raw.Link),
		GUID:    strings.TrimSpace(raw.GUID),
		Summary: strings.TrimSpace(raw.Description),
		Content: strings.TrimSpace(raw.Content),
	}
	if item.Link == "" {
		item.Link = item.GUID
	}
	if len(raw.Categories) > 0 {
		item.Category = strings.TrimSpace(raw.Categories[0])
	}
	if raw.PublishedParsed != nil {
		item.Published = *raw.PublishedParsed
	} else {
		item.Published = time.Time{}
	}
	item.ImageURL = itemImage(raw)
	return item
}

// itemImage prefers the feed-declared image, then the first image enclosure.
func itemImage(raw *gofeed.Item) string {
	if raw.Image != nil && raw.Image.URL != "" {
		return raw.Image.URL
	}
	for _, enc := range raw.Enclosures {
		if enc == nil {
			continue
		}
		if strings.HasPrefix(enc.Type, "image/") && enc.URL != "" {
			return enc.URL
		}
	}
	return ""
}
