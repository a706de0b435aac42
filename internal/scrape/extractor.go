package scrape

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	readability "codeberg.org/readeck/go-readability"
	"github.com/PuerkitoBio/goquery"

	"github.com/ruanshan4896/tintuc24h-sub000/internal/domain"
	"github.com/ruanshan4896/tintuc24h-sub000/internal/markdown"
)

const (
	// selectorMinChars is the inner-HTML floor for accepting a profile
	// content selector.
	selectorMinChars = 200
	// profileMinChars is the floor for preferring the profile path over
	// the readability fallback.
	profileMinChars = 500
	// fallbackMinChars is the text floor for the readability fallback.
	fallbackMinChars = 100
	// excerptRunes caps the derived excerpt.
	excerptRunes = 500
)

// noiseSelector strips generic ad/script/embed clutter before selector
// matching, in addition to the profile's own RemoveSelectors.
const noiseSelector = "script, style, iframe, noscript, ins, .ads, .advertisement, .banner, .social-share, .related-news, [id*=google_ads]"

// Extractor produces a ScrapedArticle from a URL using per-domain selector
// profiles, degrading to generic readability extraction when profiles are
// absent or yield too little content.
type Extractor struct {
	fetcher  *Fetcher
	conv     *markdown.Converter
	profiles map[string]Profile
	logger   *slog.Logger
}

// NewExtractor wires collaborators. Extra profiles (from config) shadow the
// built-in table for the same hostname.
func NewExtractor(fetcher *Fetcher, conv *markdown.Converter, extra map[string]Profile, logger *slog.Logger) *Extractor {
	profiles := make(map[string]Profile, len(Profiles)+len(extra))
	for host, p := range Profiles {
		profiles[host] = p
	}
	for host, p := range extra {
		profiles[NormalizeHost(host)] = p
	}
	return &Extractor{fetcher: fetcher, conv: conv, profiles: profiles, logger: logger}
}

// Extract fetches the page and runs extraction. All failures come back as
// errors, never panics, so a batch import can skip one bad URL.
func (e *Extractor) Extract(ctx context.Context, pageURL string) (*domain.ScrapedArticle, error) {
	html, err := e.fetcher.FetchHTML(ctx, pageURL)
	if err != nil {
		return nil, err
	}
	return e.ExtractFromHTML(pageURL, html)
}

// ExtractFromHTML runs the two-path extraction over already-fetched HTML.
func (e *Extractor) ExtractFromHTML(pageURL, html string) (*domain.ScrapedArticle, error) {
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("parse url %s: %w", pageURL, err)
	}

	if profile, ok := e.profiles[NormalizeHost(base.Hostname())]; ok {
		if article, err := e.extractWithProfile(base, html, profile); err == nil {
			return article, nil
		} else {
			e.debug("profile extraction failed, falling back", "url", pageURL, "error", err)
		}
	}

	return e.extractGeneric(base, html)
}

// extractWithProfile tries the profile's content selectors in order and
// accepts the first that clears selectorMinChars; the whole path is only
// preferred when the winner also clears profileMinChars.
func (e *Extractor) extractWithProfile(base *url.URL, html string, profile Profile) (*domain.ScrapedArticle, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}

	for _, sel := range profile.RemoveSelectors {
		doc.Find(sel).Remove()
	}
	doc.Find(noiseSelector).Remove()

	var content *goquery.Selection
	for _, sel := range profile.ContentSelectors {
		candidate := doc.Find(sel).First()
		if candidate.Length() == 0 {
			continue
		}
		inner, err := candidate.Html()
		if err != nil || len(inner) < selectorMinChars {
			continue
		}
		content = candidate
		break
	}
	if content == nil {
		return nil, fmt.Errorf("no content selector matched: %w", domain.ErrExtractionInsufficient)
	}

	resolveURLs(content, base)
	dropInvalidImages(content)
	unwrapFigures(content)
	dropEmptyBlocks(content)

	inner, err := content.Html()
	if err != nil {
		return nil, fmt.Errorf("serialize content: %w", err)
	}
	if len(inner) < profileMinChars {
		return nil, fmt.Errorf("profile content below %d chars: %w", profileMinChars, domain.ErrExtractionInsufficient)
	}

	md, err := e.conv.ToMarkdown(inner)
	if err != nil {
		return nil, err
	}

	return &domain.ScrapedArticle{
		Title:         pageTitle(doc, profile),
		Content:       md,
		Excerpt:       firstRunes(md, excerptRunes),
		Author:        metaContent(doc, `meta[name="author"]`),
		PublishedTime: metaContent(doc, `meta[property="article:published_time"]`),
		SiteName:      metaContent(doc, `meta[property="og:site_name"]`),
	}, nil
}

// extractGeneric runs readability over the full page.
func (e *Extractor) extractGeneric(base *url.URL, html string) (*domain.ScrapedArticle, error) {
	article, err := readability.FromReader(strings.NewReader(html), base)
	if err != nil {
		return nil, fmt.Errorf("readability: %w: %v", domain.ErrExtractionInsufficient, err)
	}
	if article.Content == "" || len(article.TextContent) < fallbackMinChars {
		return nil, fmt.Errorf("readability produced %d chars: %w", len(article.TextContent), domain.ErrExtractionInsufficient)
	}

	md, err := e.conv.ToMarkdown(article.Content)
	if err != nil {
		return nil, err
	}
	if len(md) < fallbackMinChars {
		return nil, fmt.Errorf("fallback markdown below %d chars: %w", fallbackMinChars, domain.ErrExtractionInsufficient)
	}

	excerpt := strings.TrimSpace(article.Excerpt)
	if excerpt == "" {
		excerpt = firstRunes(md, excerptRunes)
	}

	return &domain.ScrapedArticle{
		Title:    strings.TrimSpace(article.Title),
		Content:  md,
		Excerpt:  excerpt,
		Author:   strings.TrimSpace(article.Byline),
		SiteName: strings.TrimSpace(article.SiteName),
	}, nil
}

// resolveURLs rewrites relative img/src and a/href values against the page
// base so converted markdown carries absolute targets.
func resolveURLs(scope *goquery.Selection, base *url.URL) {
	rewrite := func(s *goquery.Selection, attr string) {
		raw, ok := s.Attr(attr)
		if !ok || raw == "" {
			return
		}
		u, err := url.Parse(strings.TrimSpace(raw))
		if err != nil || u.IsAbs() {
			return
		}
		s.SetAttr(attr, base.ResolveReference(u).String())
	}
	scope.Find("img").Each(func(_ int, s *goquery.Selection) { rewrite(s, "src") })
	scope.Find("a").Each(func(_ int, s *goquery.Selection) { rewrite(s, "href") })
}

func dropInvalidImages(scope *goquery.Selection) {
	scope.Find("img").Each(func(_ int, s *goquery.Selection) {
		if !markdown.ValidImageSrc(strings.TrimSpace(s.AttrOr("src", ""))) {
			s.Remove()
		}
	})
}

// unwrapFigures promotes the inner img of each figure and carries the
// figcaption text into the image title attribute.
func unwrapFigures(scope *goquery.Selection) {
	scope.Find("figure").Each(func(_ int, fig *goquery.Selection) {
		img := fig.Find("img").First()
		if img.Length() == 0 {
			fig.Remove()
			return
		}
		if caption := strings.TrimSpace(fig.Find("figcaption").Text()); caption != "" {
			img.SetAttr("title", caption)
		}
		if imgHTML, err := goquery.OuterHtml(img); err == nil {
			fig.ReplaceWithHtml(imgHTML)
		} else {
			fig.Remove()
		}
	})
}

func dropEmptyBlocks(scope *goquery.Selection) {
	scope.Find("p, div, section, span").Each(func(_ int, s *goquery.Selection) {
		if strings.TrimSpace(s.Text()) == "" && s.Find("img").Length() == 0 {
			s.Remove()
		}
	})
}

func pageTitle(doc *goquery.Document, profile Profile) string {
	if profile.TitleSelector != "" {
		if t := strings.TrimSpace(doc.Find(profile.TitleSelector).First().Text()); t != "" {
			return t
		}
	}
	if t := metaContent(doc, `meta[property="og:title"]`); t != "" {
		return t
	}
	if t := strings.TrimSpace(doc.Find("h1").First().Text()); t != "" {
		return t
	}
	return strings.TrimSpace(doc.Find("title").First().Text())
}

func metaContent(doc *goquery.Document, selector string) string {
	return strings.TrimSpace(doc.Find(selector).First().AttrOr("content", ""))
}

func firstRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

func (e *Extractor) debug(msg string, args ...any) {
	if e.logger != nil {
		e.logger.Debug(msg, args...)
	}
}
