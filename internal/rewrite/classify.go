package rewrite

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/ruanshan4896/tintuc24h-sub000/internal/domain"
)

// Provider identifiers accepted in RewriteRequest.Provider.
const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

// quotaMarkers are upstream message fragments that mean "usage limit", as
// opposed to auth or malformed-request failures.
var quotaMarkers = []string{
	"quota",
	"resource_exhausted",
	"insufficient",
	"rate limit",
	"billing",
}

// classifyHTTPError maps an upstream error response to either the quota
// class (the only class that advances to the next credential) or a plain
// error.
func classifyHTTPError(status int, body string) error {
	trimmed := strings.TrimSpace(body)
	if len(trimmed) > 300 {
		trimmed = trimmed[:300]
	}

	if status == http.StatusTooManyRequests || status == http.StatusPaymentRequired {
		return fmt.Errorf("%w: status %d: %s", domain.ErrQuotaExceeded, status, trimmed)
	}
	lower := strings.ToLower(trimmed)
	for _, marker := range quotaMarkers {
		if strings.Contains(lower, marker) {
			return fmt.Errorf("%w: status %d: %s", domain.ErrQuotaExceeded, status, trimmed)
		}
	}
	return fmt.Errorf("provider error: status %d: %s", status, trimmed)
}

func isQuotaErr(err error) bool {
	return errors.Is(err, domain.ErrQuotaExceeded)
}
