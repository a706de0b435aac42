package stockimage

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/ruanshan4896/tintuc24h-sub000/internal/config"
	"github.com/ruanshan4896/tintuc24h-sub000/internal/domain"
	"github.com/ruanshan4896/tintuc24h-sub000/internal/ports"
)

const defaultEndpoint = "https://api.unsplash.com/search/photos"

// Client queries an Unsplash-compatible photo search API.
type Client struct {
	endpoint  string
	accessKey string
	client    *http.Client
}

var _ ports.ImageSearcher = (*Client)(nil)

// NewClient returns nil when no access key is configured, which disables
// the stock-search fallback entirely.
func NewClient(cfg config.ImagesConfig) *Client {
	if cfg.SearchAccessKey == "" {
		return nil
	}
	endpoint := cfg.SearchEndpoint
	if endpoint == "" {
		endpoint = defaultEndpoint
	}
	return &Client{
		endpoint:  endpoint,
		accessKey: cfg.SearchAccessKey,
		client:    &http.Client{Timeout: 10 * time.Second},
	}
}

type searchResponse struct {
	Results []struct {
		AltDescription string `json:"alt_description"`
		URLs           struct {
			Regular string `json:"regular"`
		} `json:"urls"`
		User struct {
			Name string `json:"name"`
		} `json:"user"`
	} `json:"results"`
}

// Search runs a photo query and maps hits to domain.StockImage.
func (c *Client) Search(ctx context.Context, query string, count int) ([]domain.StockImage, error) {
	if count <= 0 {
		count = 5
	}

	params := url.Values{}
	params.Set("query", query)
	params.Set("per_page", strconv.Itoa(count))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Authorization", "Client-ID "+c.accessKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("image search returned %s", resp.Status)
	}

	var parsed searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	out := make([]domain.StockImage, 0, len(parsed.Results))
	for _, hit := range parsed.Results {
		if hit.URLs.Regular == "" {
			continue
		}
		attribution := ""
		if hit.User.Name != "" {
			attribution = "Ảnh: " + hit.User.Name + " / Unsplash"
		}
		out = append(out, domain.StockImage{
			URL:         hit.URLs.Regular,
			AltText:     hit.AltDescription,
			Attribution: attribution,
		})
	}
	return out, nil
}
