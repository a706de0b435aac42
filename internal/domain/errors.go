package domain

import "errors"

// Pipeline failure classes. Extraction and image errors are absorbed at
// their own layer; only ErrNoProvider is a hard configuration failure.
var (
	// ErrFetchFailed covers network errors and non-2xx responses on the
	// source URL. A batch import skips the URL and continues.
	ErrFetchFailed = errors.New("fetch failed")

	// ErrExtractionInsufficient means both the profile path and the
	// readability fallback produced too little content.
	ErrExtractionInsufficient = errors.New("extracted content insufficient")

	// ErrQuotaExceeded marks rate/usage-limit errors from a generative
	// provider. It is the only class that advances to the next credential.
	ErrQuotaExceeded = errors.New("provider quota exceeded")

	// ErrRewriteTooShort marks output below MinRewriteLength.
	ErrRewriteTooShort = errors.New("rewritten content too short")

	// ErrNoProvider means no generative provider is configured at all.
	ErrNoProvider = errors.New("no generative provider configured")
)
