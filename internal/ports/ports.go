package ports

import (
	"context"

	"github.com/ruanshan4896/tintuc24h-sub000/internal/domain"
)

// ArticleRepository persists pipeline output and serves the lookups the
// linking engine and feed dedup rely on.
type ArticleRepository interface {
	Save(ctx context.Context, article domain.Article) error
	ExistsBySourceURL(ctx context.Context, sourceURL string) (bool, error)
	EnsureUniqueSlug(ctx context.Context, slug string) (string, error)
	FindBySlug(ctx context.Context, slug string) (*domain.Article, error)
	FindByCategory(ctx context.Context, category string, limit int) ([]domain.Article, error)
	FindByTag(ctx context.Context, tag string, limit int) ([]domain.Article, error)
}

// RelatedArticleFinder locates published articles sharing tags with the
// article being linked, excluding the article itself.
type RelatedArticleFinder interface {
	FindRelatedByTags(ctx context.Context, tags []string, excludeSlug string, limit int) ([]domain.Article, error)
}

// ContentExtractor turns a URL into a ScrapedArticle, or an error the
// pipeline absorbs per URL.
type ContentExtractor interface {
	Extract(ctx context.Context, pageURL string) (*domain.ScrapedArticle, error)
}

// Rewriter produces a rewritten article body through whichever generative
// provider is configured.
type Rewriter interface {
	Rewrite(ctx context.Context, req domain.RewriteRequest) (*domain.RewriteResult, error)
}

// ImageDiscovery locates a representative image for an article.
type ImageDiscovery interface {
	FindMainImage(ctx context.Context, pageURL, html string) string
	SearchFallback(ctx context.Context, title string, count int) []domain.StockImage
}

// LinkInserter applies the internal-link insertions to a final body.
type LinkInserter interface {
	AddLinks(ctx context.Context, content, title, articleSlug, category string, tags []string) string
}

// TextGenerator is the abstract generative-text capability: one prompt in,
// one text out. Implementations must wrap domain.ErrQuotaExceeded when the
// upstream reports usage limits so callers can classify the failure.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// ImageSearcher queries a stock-image provider.
type ImageSearcher interface {
	Search(ctx context.Context, query string, count int) ([]domain.StockImage, error)
}

// FeedSource pulls and normalizes syndication feed items.
type FeedSource interface {
	Fetch(ctx context.Context, feedURL string) ([]domain.FeedItem, error)
}

// Notifier delivers batch summaries to an operator channel.
type Notifier interface {
	PublishReport(ctx context.Context, report string) error
}

// Scheduler controls when recurring feed runs execute.
type Scheduler interface {
	Start(ctx context.Context, job func()) error
	Stop(ctx context.Context) error
}
