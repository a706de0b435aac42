package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"github.com/ruanshan4896/tintuc24h-sub000/internal/domain"
	"github.com/ruanshan4896/tintuc24h-sub000/internal/ports"
	"github.com/ruanshan4896/tintuc24h-sub000/internal/slug"
)

// maxSlugAttempts bounds the uniqueness-suffix search.
const maxSlugAttempts = 50

var articleColumns = []string{
	"id", "title", "slug", "description", "content", "image_url",
	"category", "author", "tags", "source_url", "published", "views",
	"created_at", "updated_at",
}

// ArticleRepository persists pipeline articles into Postgres. It owns slug
// uniqueness and keeps pipeline-originated rows unpublished until review.
type ArticleRepository struct {
	db *sql.DB
	sb sq.StatementBuilderType
}

var (
	_ ports.ArticleRepository    = (*ArticleRepository)(nil)
	_ ports.RelatedArticleFinder = (*ArticleRepository)(nil)
)

// NewArticleRepository wires a sql.DB implementation.
func NewArticleRepository(db *sql.DB) *ArticleRepository {
	return &ArticleRepository{
		db: db,
		sb: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// Save inserts the article snapshot. Published defaults to false upstream;
// the slug column carries a unique index as the last line of defense.
func (r *ArticleRepository) Save(ctx context.Context, article domain.Article) error {
	if r.db == nil {
		return nil
	}

	query, args, err := r.sb.Insert("articles").
		Columns("id", "title", "slug", "description", "content", "image_url",
			"category", "author", "tags", "source_url", "published").
		Values(article.ID, article.Title, article.Slug, article.Description,
			article.Content, article.ImageURL, article.Category, article.Author,
			pq.Array(article.Tags), article.SourceURL, article.Published).
		Suffix("ON CONFLICT (slug) DO NOTHING").
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert article: %w", err)
	}
	return nil
}

// ExistsBySourceURL is the feed-import dedup check, keyed by the item's
// canonical URL.
func (r *ArticleRepository) ExistsBySourceURL(ctx context.Context, sourceURL string) (bool, error) {
	if r.db == nil || sourceURL == "" {
		return false, nil
	}

	query, args, err := r.sb.Select("1").
		From("articles").
		Where(sq.Eq{"source_url": sourceURL}).
		Limit(1).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build exists query: %w", err)
	}

	var one int
	err = r.db.QueryRowContext(ctx, query, args...).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("query exists: %w", err)
	}
	return true, nil
}

// EnsureUniqueSlug appends numeric suffixes until the slug is free.
func (r *ArticleRepository) EnsureUniqueSlug(ctx context.Context, base string) (string, error) {
	if r.db == nil {
		return base, nil
	}

	for i := 0; i < maxSlugAttempts; i++ {
		candidate := slug.WithSuffix(base, i)

		query, args, err := r.sb.Select("1").
			From("articles").
			Where(sq.Eq{"slug": candidate}).
			Limit(1).
			ToSql()
		if err != nil {
			return "", fmt.Errorf("build slug query: %w", err)
		}

		var one int
		err = r.db.QueryRowContext(ctx, query, args...).Scan(&one)
		if errors.Is(err, sql.ErrNoRows) {
			return candidate, nil
		}
		if err != nil {
			return "", fmt.Errorf("query slug: %w", err)
		}
	}
	return "", fmt.Errorf("no free slug after %d attempts for %q", maxSlugAttempts, base)
}

// FindBySlug returns the article or nil when absent.
func (r *ArticleRepository) FindBySlug(ctx context.Context, articleSlug string) (*domain.Article, error) {
	if r.db == nil {
		return nil, nil
	}

	query, args, err := r.sb.Select(articleColumns...).
		From("articles").
		Where(sq.Eq{"slug": articleSlug}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build slug lookup: %w", err)
	}

	article, err := scanArticle(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan article: %w", err)
	}
	return article, nil
}

// FindByCategory lists published articles in a category, newest first.
func (r *ArticleRepository) FindByCategory(ctx context.Context, category string, limit int) ([]domain.Article, error) {
	return r.list(ctx, sq.Eq{"category": category, "published": true}, limit)
}

// FindByTag lists published articles carrying the tag, newest first.
func (r *ArticleRepository) FindByTag(ctx context.Context, tag string, limit int) ([]domain.Article, error) {
	return r.list(ctx, sq.And{
		sq.Eq{"published": true},
		sq.Expr("? = ANY(tags)", tag),
	}, limit)
}

// FindRelatedByTags returns published articles sharing at least one tag,
// excluding the article itself. Used by the linking engine.
func (r *ArticleRepository) FindRelatedByTags(ctx context.Context, tags []string, excludeSlug string, limit int) ([]domain.Article, error) {
	if len(tags) == 0 {
		return nil, nil
	}
	return r.list(ctx, sq.And{
		sq.Eq{"published": true},
		sq.NotEq{"slug": excludeSlug},
		sq.Expr("tags && ?", pq.Array(tags)),
	}, limit)
}

func (r *ArticleRepository) list(ctx context.Context, where any, limit int) ([]domain.Article, error) {
	if r.db == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = 20
	}

	query, args, err := r.sb.Select(articleColumns...).
		From("articles").
		Where(where).
		OrderBy("created_at DESC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query articles: %w", err)
	}
	defer rows.Close()

	var out []domain.Article
	for rows.Next() {
		article, err := scanArticle(rows)
		if err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		out = append(out, *article)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanArticle(row rowScanner) (*domain.Article, error) {
	var a domain.Article
	err := row.Scan(
		&a.ID, &a.Title, &a.Slug, &a.Description, &a.Content, &a.ImageURL,
		&a.Category, &a.Author, pq.Array(&a.Tags), &a.SourceURL, &a.Published,
		&a.Views, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}
