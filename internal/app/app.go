package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/ruanshan4896/tintuc24h-sub000/internal/config"
	"github.com/ruanshan4896/tintuc24h-sub000/internal/feed"
	"github.com/ruanshan4896/tintuc24h-sub000/internal/images"
	"github.com/ruanshan4896/tintuc24h-sub000/internal/infrastructure/scheduler"
	"github.com/ruanshan4896/tintuc24h-sub000/internal/infrastructure/stockimage"
	"github.com/ruanshan4896/tintuc24h-sub000/internal/infrastructure/storage"
	"github.com/ruanshan4896/tintuc24h-sub000/internal/infrastructure/telegram"
	"github.com/ruanshan4896/tintuc24h-sub000/internal/linking"
	"github.com/ruanshan4896/tintuc24h-sub000/internal/logging"
	"github.com/ruanshan4896/tintuc24h-sub000/internal/markdown"
	"github.com/ruanshan4896/tintuc24h-sub000/internal/ports"
	"github.com/ruanshan4896/tintuc24h-sub000/internal/rewrite"
	"github.com/ruanshan4896/tintuc24h-sub000/internal/scrape"
	"github.com/ruanshan4896/tintuc24h-sub000/internal/usecase"
)

// Application wires configuration to use cases and lifecycle orchestration.
type Application struct {
	cfg      config.Config
	pipeline *usecase.Pipeline
	db       *sql.DB
	logger   *slog.Logger
}

// New builds a runnable application instance. Optional collaborators
// (database, rewrite providers, stock-image search, Telegram) are wired only
// when their configuration is present.
func New(cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	var db *sql.DB
	var repository ports.ArticleRepository
	var related ports.RelatedArticleFinder
	if cfg.Database.DSN != "" {
		opened, err := sql.Open("postgres", cfg.Database.DSN)
		if err != nil {
			return nil, fmt.Errorf("open database: %w", err)
		}
		db = opened
		repo := storage.NewArticleRepository(db)
		repository = repo
		related = repo
	}

	fetcher := scrape.NewFetcher(nil)
	extractor := scrape.NewExtractor(
		fetcher,
		markdown.NewConverter(),
		profilesFromConfig(cfg.Profiles),
		baseLogger.With("component", "extractor"),
	)

	gemini := rewrite.NewGeminiProvider(cfg.Rewrite.Gemini, baseLogger.With("component", "rewrite.gemini"))
	openAI := rewrite.NewOpenAIProvider(cfg.Rewrite.OpenAI)
	orchestrator := rewrite.NewOrchestrator(baseLogger.With("component", "rewrite"), gemini, openAI)

	var translator ports.TextGenerator
	if gemini != nil {
		translator = gemini
	} else if openAI != nil {
		translator = openAI
	}

	var searcher ports.ImageSearcher
	if client := stockimage.NewClient(cfg.Images); client != nil {
		searcher = client
	}

	failedTTL := time.Duration(cfg.Images.FailedTTLMinutes) * time.Minute
	discovery := images.NewDiscovery(
		fetcher,
		translator,
		searcher,
		images.NewFailedURLCache(failedTTL, 0),
		baseLogger.With("component", "images"),
	)

	var notifier ports.Notifier
	if cfg.Notifications.Telegram.BotToken != "" && cfg.Notifications.Telegram.ChatID != "" {
		notifier = telegram.NewNotifier(cfg.Notifications.Telegram.BotToken, cfg.Notifications.Telegram.ChatID)
	}

	pipeline := usecase.NewPipeline(usecase.PipelineDeps{
		Extractor:  extractor,
		Rewriter:   orchestrator,
		Images:     discovery,
		Linker:     linking.NewEngine(cfg.Site.Brand, related, baseLogger.With("component", "linking")),
		Repository: repository,
		Feeds:      feed.NewSource(0, baseLogger.With("component", "feed")),
		Notifier:   notifier,
		Logger:     baseLogger.With("component", "pipeline"),

		BaseURL:         cfg.Site.BaseURL,
		DefaultCategory: cfg.Site.DefaultCategory,
		DefaultAuthor:   cfg.Site.DefaultAuthor,
	})

	return &Application{cfg: cfg, pipeline: pipeline, db: db, logger: baseLogger}, nil
}

// Pipeline exposes the wired import pipeline.
func (a *Application) Pipeline() *usecase.Pipeline {
	return a.pipeline
}

// FeedRefs maps the configured feeds into pipeline references.
func (a *Application) FeedRefs() []usecase.FeedRef {
	refs := make([]usecase.FeedRef, 0, len(a.cfg.Feeds))
	for _, f := range a.cfg.Feeds {
		refs = append(refs, usecase.FeedRef{URL: f.URL, Category: f.Category})
	}
	return refs
}

// RunFeeds performs a single pass over all configured feeds.
func (a *Application) RunFeeds(ctx context.Context, opts usecase.ImportOptions) error {
	_, err := a.pipeline.ProcessFeeds(ctx, a.FeedRefs(), opts)
	return err
}

// Watch runs feed imports on the configured interval until the context is
// cancelled.
func (a *Application) Watch(ctx context.Context, opts usecase.ImportOptions) error {
	interval := time.Duration(a.cfg.Scheduler.IntervalMinutes) * time.Minute
	sched := usecase.NewScheduler(
		scheduler.NewIntervalScheduler(interval),
		a.pipeline,
		a.FeedRefs(),
		opts,
	)
	if err := sched.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}

	<-ctx.Done()
	return sched.Stop(context.Background())
}

// Close releases held resources.
func (a *Application) Close() error {
	if a.db == nil {
		return nil
	}
	return a.db.Close()
}

func profilesFromConfig(profiles []config.ProfileConfig) map[string]scrape.Profile {
	if len(profiles) == 0 {
		return nil
	}
	out := make(map[string]scrape.Profile, len(profiles))
	for _, p := range profiles {
		if p.Host == "" {
			continue
		}
		out[scrape.NormalizeHost(p.Host)] = scrape.Profile{
			ContentSelectors: p.ContentSelectors,
			TitleSelector:    p.TitleSelector,
			RemoveSelectors:  p.RemoveSelectors,
		}
	}
	return out
}
