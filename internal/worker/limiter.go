package worker

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"golang.org/x/time/rate"
)

// Limiter implements per-domain rate limiting. It is safe for concurrent
// use and satisfies extract.RateLimiter.
type Limiter struct {
	limiters     map[string]*rate.Limiter
	mu           sync.RWMutex
	defaultRate  rate.Limit
	defaultBurst int
}

// NewLimiter creates a new rate limiter. A non-positive rate disables limiting.
func NewLimiter(requestsPerSecond float64, burst int) *Limiter {
	if burst <= 0 {
		burst = 5
	}
	limit := rate.Limit(requestsPerSecond)
	if requestsPerSecond <= 0 {
		limit = rate.Inf
	}

	return &Limiter{
		limiters:     make(map[string]*rate.Limiter),
		defaultRate:  limit,
		defaultBurst: burst,
	}
}

// Wait blocks until a request to rawURL's domain is allowed
func (l *Limiter) Wait(ctx context.Context, rawURL string) error {
	domain, err := extractDomain(rawURL)
	if err != nil {
		return err
	}

	return l.getLimiter(domain).Wait(ctx)
}

// getLimiter returns the rate limiter for a domain
func (l *Limiter) getLimiter(domain string) *rate.Limiter {
	l.mu.RLock()
	limiter, exists := l.limiters[domain]
	l.mu.RUnlock()

	if exists {
		return limiter
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	// Double-check after acquiring write lock
	if limiter, exists := l.limiters[domain]; exists {
		return limiter
	}

	limiter = rate.NewLimiter(l.defaultRate, l.defaultBurst)
	l.limiters[domain] = limiter

	return limiter
}

// extractDomain returns the lowercased host of a URL without a leading
// "www.", so youtube.com and www.youtube.com share a budget
func extractDomain(rawURL string) (string, error) {
	if !strings.Contains(rawURL, "://") {
		rawURL = "https://" + rawURL
	}
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	host := strings.ToLower(parsed.Hostname())
	if host == "" {
		return "", fmt.Errorf("no host in %q", rawURL)
	}
	return strings.TrimPrefix(host, "www."), nil
}
