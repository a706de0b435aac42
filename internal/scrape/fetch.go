package scrape

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ruanshan4896/tintuc24h-sub000/internal/domain"
)

const (
	defaultUserAgent   = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"
	defaultAcceptLang  = "vi-VN,vi;q=0.9,en-US;q=0.8,en;q=0.7"
	defaultFetchWindow = 15 * time.Second
	maxBodyBytes       = 8 << 20
)

// Fetcher downloads HTML documents with browser-like headers so ordinary
// bot-blocking does not trip on the pipeline.
type Fetcher struct {
	client     *http.Client
	userAgent  string
	acceptLang string
}

// NewFetcher wires an HTTP client; a nil client gets the default 15s timeout.
func NewFetcher(client *http.Client) *Fetcher {
	if client == nil {
		client = &http.Client{Timeout: defaultFetchWindow}
	}
	return &Fetcher{
		client:     client,
		userAgent:  defaultUserAgent,
		acceptLang: defaultAcceptLang,
	}
}

// FetchHTML returns the page body. Network failures and non-2xx statuses
// wrap domain.ErrFetchFailed so a batch can classify and skip the URL.
func (f *Fetcher) FetchHTML(ctx context.Context, pageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept-Language", f.acceptLang)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrFetchFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("%w: %s returned %s", domain.ErrFetchFailed, pageURL, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", fmt.Errorf("%w: read body: %v", domain.ErrFetchFailed, err)
	}

	return string(body), nil
}

// Probe issues a HEAD request to check a resource is reachable without
// downloading it. Failures wrap domain.ErrFetchFailed like FetchHTML.
func (f *Fetcher) Probe(ctx context.Context, rawURL string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, rawURL, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrFetchFailed, err)
	}
	resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: %s returned %s", domain.ErrFetchFailed, rawURL, resp.Status)
	}
	return nil
}
