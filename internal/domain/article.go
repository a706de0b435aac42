package domain

import "time"

// Article is the candidate payload the pipeline hands to storage.
// Persistence, slug uniqueness and publish transitions live behind
// ports.ArticleRepository.
type Article struct {
	ID          string
	Title       string
	Slug        string
	Description string
	Content     string
	ImageURL    string
	Category    string
	Author      string
	Tags        []string
	SourceURL   string
	Published   bool
	Views       int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ScrapedArticle is the immutable result of content extraction.
// Every later stage derives a new string instead of mutating Content.
type ScrapedArticle struct {
	Title         string
	Content       string
	Excerpt       string
	Author        string
	PublishedTime string
	SiteName      string
}

// FeedItem is one syndication entry normalized from RSS/Atom.
type FeedItem struct {
	Title     string
	Link      string
	GUID      string
	Summary   string
	Content   string
	ImageURL  string
	Category  string
	Published time.Time
}

// StockImage is a single hit from an image-search provider.
type StockImage struct {
	URL         string
	AltText     string
	Attribution string
}

// RewriteRequest asks the orchestrator for a rewritten article body.
type RewriteRequest struct {
	Title    string
	Content  string
	Tone     string
	Provider string
}

// RewriteResult carries the accepted output plus usage accounting.
// RewrittenContent is guaranteed to be at least MinRewriteLength runes.
type RewriteResult struct {
	RewrittenContent string
	TokensUsed       int
	CostUSD          float64
	Free             bool
	ProviderUsed     string
	ModelUsed        string
}

// MinRewriteLength is the floor below which a provider response is treated
// as a content-filtered placeholder rather than a real rewrite.
const MinRewriteLength = 100

// ImportStatus enumerates outcomes of importing a single URL or feed item.
type ImportStatus string

const (
	ImportSuccess ImportStatus = "success"
	ImportSkipped ImportStatus = "skipped"
	ImportError   ImportStatus = "error"
)

// ImportReport describes what happened to one URL, in operator-readable terms.
type ImportReport struct {
	ID      string
	URL     string
	Slug    string
	Status  ImportStatus
	Reasons []string
}

// BatchReport aggregates a feed-processing run.
type BatchReport struct {
	Imported int
	Skipped  int
	Errors   int
	Reports  []ImportReport
}
