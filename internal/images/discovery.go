package images

import (
	"context"
	"log/slog"
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/ruanshan4896/tintuc24h-sub000/internal/domain"
	"github.com/ruanshan4896/tintuc24h-sub000/internal/markdown"
	"github.com/ruanshan4896/tintuc24h-sub000/internal/ports"
	"github.com/ruanshan4896/tintuc24h-sub000/internal/scrape"
)

const (
	minLargeWidth  = 400
	minLargeHeight = 300
)

// Discovery finds representative images for an article page. Every path is
// best-effort: missing images, provider errors and absent credentials all
// yield empty results, never errors.
type Discovery struct {
	fetcher    *scrape.Fetcher
	translator ports.TextGenerator
	searcher   ports.ImageSearcher
	failed     *FailedURLCache
	logger     *slog.Logger
}

// NewDiscovery wires collaborators; translator and searcher may be nil,
// which disables the stock-search fallback.
func NewDiscovery(fetcher *scrape.Fetcher, translator ports.TextGenerator, searcher ports.ImageSearcher, failed *FailedURLCache, logger *slog.Logger) *Discovery {
	return &Discovery{
		fetcher:    fetcher,
		translator: translator,
		searcher:   searcher,
		failed:     failed,
		logger:     logger,
	}
}

// FindMainImage picks the representative image by priority: og:image,
// twitter:image, first in-article img, first large image on the page.
// Candidates that fail the reachability probe are recorded in the failed
// cache and skipped. An empty result means no image was found and is
// expected, not an error.
func (d *Discovery) FindMainImage(ctx context.Context, pageURL, html string) string {
	doc, base := d.document(ctx, pageURL, html)
	if doc == nil {
		return ""
	}

	for _, src := range d.candidates(doc, base) {
		if d.reachable(ctx, src) {
			return src
		}
	}
	return ""
}

// candidates lists usable image URLs in priority order, deduplicated.
func (d *Discovery) candidates(doc *goquery.Document, base *url.URL) []string {
	var out []string
	seen := map[string]struct{}{}
	add := func(raw string) {
		src := d.usable(raw, base)
		if src == "" {
			return
		}
		if _, dup := seen[src]; dup {
			return
		}
		seen[src] = struct{}{}
		out = append(out, src)
	}

	for _, meta := range []string{
		`meta[property="og:image"]`,
		`meta[name="twitter:image"]`,
		`meta[property="twitter:image"]`,
	} {
		add(doc.Find(meta).First().AttrOr("content", ""))
	}
	doc.Find("article img").Each(func(_ int, s *goquery.Selection) {
		add(s.AttrOr("src", ""))
	})
	doc.Find("img").Each(func(_ int, s *goquery.Selection) {
		if largeEnough(s) {
			add(s.AttrOr("src", ""))
		}
	})
	return out
}

// reachable HEAD-checks the candidate and records failures so later runs
// skip the URL inside the cache TTL. A nil fetcher disables probing.
func (d *Discovery) reachable(ctx context.Context, src string) bool {
	if d.fetcher == nil {
		return true
	}
	if err := d.fetcher.Probe(ctx, src); err != nil {
		if d.failed != nil {
			d.failed.MarkFailed(src)
		}
		d.debug("image probe failed", "url", src, "error", err)
		return false
	}
	return true
}

// FindContentImages collects up to max valid in-article images in document
// order.
func (d *Discovery) FindContentImages(ctx context.Context, pageURL, html string, max int) []string {
	doc, base := d.document(ctx, pageURL, html)
	if doc == nil || max <= 0 {
		return nil
	}

	scope := doc.Find("article")
	if scope.Length() == 0 {
		scope = doc.Selection
	}

	var out []string
	seen := map[string]struct{}{}
	scope.Find("img").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		src := d.usable(s.AttrOr("src", ""), base)
		if src == "" {
			return true
		}
		if _, dup := seen[src]; dup {
			return true
		}
		seen[src] = struct{}{}
		out = append(out, src)
		return len(out) < max
	})
	return out
}

// SearchFallback translates the article title into search keywords and
// queries the stock-image provider. Any failure returns an empty slice.
func (d *Discovery) SearchFallback(ctx context.Context, title string, count int) []domain.StockImage {
	if d.translator == nil || d.searcher == nil || strings.TrimSpace(title) == "" {
		return nil
	}

	prompt := "Translate the following Vietnamese news headline into 3-5 short English image-search keywords. Reply with the keywords only, separated by spaces:\n\n" + title
	keywords, err := d.translator.Generate(ctx, prompt)
	if err != nil {
		d.debug("keyword translation failed", "error", err)
		return nil
	}
	keywords = firstLine(keywords)
	if keywords == "" {
		return nil
	}

	results, err := d.searcher.Search(ctx, keywords, count)
	if err != nil {
		d.debug("stock image search failed", "query", keywords, "error", err)
		return nil
	}
	return results
}

// document parses provided HTML or fetches the page when html is empty.
func (d *Discovery) document(ctx context.Context, pageURL, html string) (*goquery.Document, *url.URL) {
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, nil
	}
	if html == "" {
		if d.fetcher == nil {
			return nil, nil
		}
		html, err = d.fetcher.FetchHTML(ctx, pageURL)
		if err != nil {
			d.debug("image page fetch failed", "url", pageURL, "error", err)
			return nil, nil
		}
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, nil
	}
	return doc, base
}

// usable validates and absolutizes a candidate src, consulting the
// failed-URL cache.
func (d *Discovery) usable(src string, base *url.URL) string {
	src = strings.TrimSpace(src)
	if !markdown.ValidImageSrc(src) {
		return ""
	}
	if u, err := url.Parse(src); err == nil && !u.IsAbs() && base != nil {
		src = base.ResolveReference(u).String()
	}
	if d.failed != nil && d.failed.IsFailed(src) {
		return ""
	}
	return src
}

// largeEnough applies the dimension hint filter; a missing dimension passes.
func largeEnough(s *goquery.Selection) bool {
	passes := func(attr string, min int) bool {
		raw, ok := s.Attr(attr)
		if !ok || strings.TrimSpace(raw) == "" {
			return true
		}
		v, err := strconv.Atoi(strings.TrimSuffix(strings.TrimSpace(raw), "px"))
		if err != nil {
			return true
		}
		return v > min
	}
	return passes("width", minLargeWidth) || passes("height", minLargeHeight)
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return strings.Trim(strings.TrimSpace(s), `"`)
}

func (d *Discovery) debug(msg string, args ...any) {
	if d.logger != nil {
		d.logger.Debug(msg, args...)
	}
}
