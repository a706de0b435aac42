package scrape

import (
	"net/url"
	"strings"
)

// Profile holds per-domain extraction selectors. Content selectors are tried
// in order; the first whose inner HTML clears the selector threshold wins.
type Profile struct {
	ContentSelectors []string
	TitleSelector    string
	RemoveSelectors  []string
}

// Profiles maps normalized hostnames to extraction profiles. Adding support
// for a site is a data change here (or in the config file), not new code.
var Profiles = map[string]Profile{
	"vnexpress.net": {
		ContentSelectors: []string{"article.fck_detail", ".fck_detail", ".sidebar-1"},
		TitleSelector:    "h1.title-detail",
		RemoveSelectors:  []string{".box-taitro", ".banner-top", "#banner_bottom_details", ".width_common.box-tinlienquanv2"},
	},
	"tuoitre.vn": {
		ContentSelectors: []string{"div.detail-content", "#main-detail-body", ".content.fck"},
		TitleSelector:    "h1.detail-title",
		RemoveSelectors:  []string{".VCSortableInPreviewMode[type=RelatedOneNews]", ".detail-reference", ".kbwscwl-relatedbox"},
	},
	"thanhnien.vn": {
		ContentSelectors: []string{"div.detail-content.afcbc-body", "div.detail-content", "#abody"},
		TitleSelector:    "h1.detail-title",
		RemoveSelectors:  []string{".morenews", ".related", ".zone--media"},
	},
	"dantri.com.vn": {
		ContentSelectors: []string{"div.singular-content", ".dt-news__content", "article .e-magazine__body"},
		TitleSelector:    "h1.title-page.detail",
		RemoveSelectors:  []string{".dt-ads", ".news-relate", ".article-ads"},
	},
	"vietnamnet.vn": {
		ContentSelectors: []string{"div.maincontent.main-content", "#maincontent", ".ArticleContent"},
		TitleSelector:    "h1.content-detail-title",
		RemoveSelectors:  []string{".inner-article", ".article-relate", ".box-taitro"},
	},
	"zingnews.vn": {
		ContentSelectors: []string{"div.the-article-body", ".page-wrapper article"},
		TitleSelector:    "h1.the-article-title",
		RemoveSelectors:  []string{".the-article-category", ".inner-article", ".z-widget-related"},
	},
}

// NormalizeHost lowercases a hostname and strips the www. prefix so lookups
// hit the same profile regardless of how the URL was written.
func NormalizeHost(host string) string {
	host = strings.ToLower(strings.TrimSpace(host))
	return strings.TrimPrefix(host, "www.")
}

// ProfileFor resolves the profile for a raw URL, if one exists.
func ProfileFor(profiles map[string]Profile, rawURL string) (Profile, bool) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return Profile{}, false
	}
	p, ok := profiles[NormalizeHost(u.Hostname())]
	return p, ok
}
