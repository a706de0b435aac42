package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ruanshan4896/tintuc24h-sub000/internal/domain"
	"github.com/ruanshan4896/tintuc24h-sub000/internal/ports"
	"github.com/ruanshan4896/tintuc24h-sub000/internal/slug"
)

// PipelineDeps wires all driven adapters into the import pipeline, plus the
// site identity used for defaults and report links.
type PipelineDeps struct {
	Extractor  ports.ContentExtractor
	Rewriter   ports.Rewriter
	Images     ports.ImageDiscovery
	Linker     ports.LinkInserter
	Repository ports.ArticleRepository
	Feeds      ports.FeedSource
	Notifier   ports.Notifier
	Logger     *slog.Logger

	BaseURL         string
	DefaultCategory string
	DefaultAuthor   string
}

// Pipeline implements the article import workflow: extract, optionally
// rewrite, pick an image, insert internal links, persist.
type Pipeline struct {
	extractor  ports.ContentExtractor
	rewriter   ports.Rewriter
	images     ports.ImageDiscovery
	linker     ports.LinkInserter
	repository ports.ArticleRepository
	feeds      ports.FeedSource
	notifier   ports.Notifier
	logger     *slog.Logger

	baseURL         string
	defaultCategory string
	defaultAuthor   string
}

// ImportOptions carries per-run overrides for a single URL import.
type ImportOptions struct {
	Rewrite  bool
	Tone     string
	Provider string
	Category string
	Author   string
	Tags     []string
	ImageURL string
}

// FeedRef names one feed to pull plus the category its items land in.
type FeedRef struct {
	URL      string
	Category string
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	return &Pipeline{
		extractor:  deps.Extractor,
		rewriter:   deps.Rewriter,
		images:     deps.Images,
		linker:     deps.Linker,
		repository: deps.Repository,
		feeds:      deps.Feeds,
		notifier:   deps.Notifier,
		logger:     deps.Logger,

		baseURL:         strings.TrimSuffix(deps.BaseURL, "/"),
		defaultCategory: deps.DefaultCategory,
		defaultAuthor:   deps.DefaultAuthor,
	}
}

// ImportURL runs the full pipeline for one source URL. Rewrite and image
// failures degrade gracefully and are surfaced as report reasons; only
// extraction and persistence failures abort the import.
func (p *Pipeline) ImportURL(ctx context.Context, pageURL string, opts ImportOptions) (*domain.ImportReport, error) {
	report := &domain.ImportReport{
		ID:  uuid.NewString(),
		URL: pageURL,
	}

	if p.extractor == nil {
		report.Status = domain.ImportError
		return report, fmt.Errorf("no extractor configured")
	}

	scraped, err := p.extractor.Extract(ctx, pageURL)
	if err != nil {
		report.Status = domain.ImportError
		return report, fmt.Errorf("extract %s: %w", pageURL, err)
	}

	content := scraped.Content
	if opts.Rewrite && p.rewriter != nil {
		result, rErr := p.rewriter.Rewrite(ctx, domain.RewriteRequest{
			Title:    scraped.Title,
			Content:  scraped.Content,
			Tone:     opts.Tone,
			Provider: opts.Provider,
		})
		switch {
		case rErr == nil:
			content = result.RewrittenContent
			p.debug("content rewritten",
				"provider", result.ProviderUsed,
				"model", result.ModelUsed,
				"tokens", result.TokensUsed)
		case errors.Is(rErr, domain.ErrQuotaExceeded):
			report.Reasons = append(report.Reasons, "rewrite skipped: provider quota exhausted, original content kept")
		case errors.Is(rErr, domain.ErrRewriteTooShort):
			report.Reasons = append(report.Reasons, "rewrite skipped: rewritten text below minimum length, original content kept")
		case errors.Is(rErr, domain.ErrNoProvider):
			report.Reasons = append(report.Reasons, "rewrite skipped: no provider configured")
		default:
			report.Reasons = append(report.Reasons, "rewrite failed: "+rErr.Error())
		}
	}

	imageURL := opts.ImageURL
	if imageURL == "" && p.images != nil {
		imageURL = p.images.FindMainImage(ctx, pageURL, "")
		if imageURL == "" {
			if stock := p.images.SearchFallback(ctx, scraped.Title, 1); len(stock) > 0 {
				imageURL = stock[0].URL
			}
		}
		if imageURL == "" {
			report.Reasons = append(report.Reasons, "no usable image found")
		}
	}

	articleSlug := slug.GenerateWithFallback(scraped.Title, "bai-viet")
	if p.repository != nil {
		articleSlug, err = p.repository.EnsureUniqueSlug(ctx, articleSlug)
		if err != nil {
			report.Status = domain.ImportError
			return report, fmt.Errorf("ensure unique slug: %w", err)
		}
	}
	report.Slug = articleSlug

	category := opts.Category
	if category == "" {
		category = p.defaultCategory
	}
	author := opts.Author
	if author == "" {
		author = scraped.Author
	}
	if author == "" {
		author = p.defaultAuthor
	}

	if p.linker != nil {
		content = p.linker.AddLinks(ctx, content, scraped.Title, articleSlug, category, opts.Tags)
	}

	article := domain.Article{
		ID:          uuid.NewString(),
		Title:       scraped.Title,
		Slug:        articleSlug,
		Description: scraped.Excerpt,
		Content:     content,
		ImageURL:    imageURL,
		Category:    category,
		Author:      author,
		Tags:        opts.Tags,
		SourceURL:   pageURL,
		Published:   false,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}

	if p.repository != nil {
		if err := p.repository.Save(ctx, article); err != nil {
			report.Status = domain.ImportError
			return report, fmt.Errorf("save article %s: %w", articleSlug, err)
		}
	}

	report.Status = domain.ImportSuccess
	p.debug("article imported", "slug", articleSlug, "url", pageURL)
	return report, nil
}

// ProcessFeeds pulls every feed, imports items not seen before, and pushes a
// summary to the notifier. Per-item failures are counted, never fatal.
func (p *Pipeline) ProcessFeeds(ctx context.Context, feeds []FeedRef, opts ImportOptions) (*domain.BatchReport, error) {
	batch := &domain.BatchReport{}
	if p.feeds == nil {
		return batch, nil
	}

	for _, ref := range feeds {
		items, err := p.feeds.Fetch(ctx, ref.URL)
		if err != nil {
			p.warn("feed fetch failed", "feed", ref.URL, "error", err)
			batch.Errors++
			continue
		}

		for _, item := range items {
			if item.Link == "" {
				batch.Skipped++
				continue
			}

			if p.repository != nil {
				exists, eErr := p.repository.ExistsBySourceURL(ctx, item.Link)
				if eErr != nil {
					p.warn("dedup lookup failed", "url", item.Link, "error", eErr)
					batch.Errors++
					continue
				}
				if exists {
					batch.Skipped++
					continue
				}
			}

			itemOpts := opts
			if item.Category != "" && itemOpts.Category == "" {
				itemOpts.Category = item.Category
			}
			if ref.Category != "" {
				itemOpts.Category = ref.Category
			}
			if itemOpts.ImageURL == "" {
				itemOpts.ImageURL = item.ImageURL
			}

			report, iErr := p.ImportURL(ctx, item.Link, itemOpts)
			if iErr != nil {
				p.warn("feed item import failed", "url", item.Link, "error", iErr)
				batch.Errors++
				if report != nil {
					batch.Reports = append(batch.Reports, *report)
				}
				continue
			}

			batch.Imported++
			batch.Reports = append(batch.Reports, *report)
		}
	}

	if p.notifier != nil {
		if err := p.notifier.PublishReport(ctx, p.buildBatchMessage(batch)); err != nil {
			p.warn("notify failed", "error", err)
		}
	}

	return batch, nil
}

func (p *Pipeline) buildBatchMessage(batch *domain.BatchReport) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "*Kết quả nhập tin*\nĐã nhập: %d\nBỏ qua: %d\nLỗi: %d\n",
		batch.Imported, batch.Skipped, batch.Errors)
	for _, report := range batch.Reports {
		if report.Status != domain.ImportSuccess || len(report.Reasons) == 0 {
			continue
		}
		fmt.Fprintf(&sb, "- %s/articles/%s: %s\n", p.baseURL, report.Slug, strings.Join(report.Reasons, "; "))
	}
	return sb.String()
}

func (p *Pipeline) debug(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Debug(msg, args...)
	}
}

func (p *Pipeline) warn(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Warn(msg, args...)
	}
}
