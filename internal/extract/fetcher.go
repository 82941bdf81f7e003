package extract

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ppiankov/judolscan/internal/model"
	"github.com/ppiankov/judolscan/internal/util"
)

// ErrRobotsDisallowed marks a URL excluded by the site's robots.txt
var ErrRobotsDisallowed = errors.New("disallowed by robots.txt")

// RateLimiter throttles requests per host
type RateLimiter interface {
	Wait(ctx context.Context, rawURL string) error
}

// Fetcher fetches HTML content from URLs. Gambling sites commonly run
// broken TLS and reject non-browser clients, so certificate checks are
// skippable and a browser user agent is sent.
type Fetcher struct {
	httpClient *http.Client
	userAgent  string
	maxBytes   int64
	robots     *util.RobotsChecker
	limiter    RateLimiter
}

// NewFetcher creates a new Fetcher from HTTP configuration
func NewFetcher(cfg model.HTTPConfig, timeout time.Duration) *Fetcher {
	maxRedirects := cfg.MaxRedirects
	if maxRedirects <= 0 {
		maxRedirects = 10
	}
	maxBytes := cfg.MaxBodyBytes
	if maxBytes <= 0 {
		maxBytes = 5_000_000
	}
	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = model.DefaultUserAgent
	}

	transport := &http.Transport{
		Proxy:           util.NewProxyFunc(cfg.HTTPProxy, cfg.HTTPSProxy, cfg.NoProxy),
		TLSClientConfig: &tls.Config{InsecureSkipVerify: cfg.InsecureTLS}, //nolint:gosec // scanned sites often have invalid certificates
	}

	f := &Fetcher{
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: transport,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= maxRedirects {
					return fmt.Errorf("stopped after %d redirects", maxRedirects)
				}
				return nil
			},
		},
		userAgent: userAgent,
		maxBytes:  maxBytes,
	}
	if cfg.RespectRobots {
		f.robots = util.NewRobotsChecker(userAgent, timeout)
	}
	return f
}

// WithLimiter returns the fetcher throttled by l
func (f *Fetcher) WithLimiter(l RateLimiter) *Fetcher {
	clone := *f
	clone.limiter = l
	return &clone
}

// FetchResult contains the fetched HTML and response metadata
type FetchResult struct {
	HTML        string
	FinalURL    string
	StatusCode  int
	ContentType string
}

// Fetch retrieves HTML content from the given URL. A non-2xx response
// returns both the result (body included) and a *model.FetchError.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*FetchResult, error) {
	if f.robots != nil && !f.robots.IsAllowed(ctx, rawURL) {
		return nil, &model.FetchError{URL: rawURL, Err: ErrRobotsDisallowed}
	}
	if f.limiter != nil {
		if err := f.limiter.Wait(ctx, rawURL); err != nil {
			return nil, &model.FetchError{URL: rawURL, Err: fmt.Errorf("rate limit: %w", err)}
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, &model.FetchError{URL: rawURL, Err: fmt.Errorf("create request: %w", err)}
	}

	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "id-ID,id;q=0.9,en-US;q=0.8,en;q=0.7")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, &model.FetchError{URL: rawURL, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	// Read body with size limit
	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes))
	if err != nil {
		return nil, &model.FetchError{URL: rawURL, StatusCode: resp.StatusCode, Err: fmt.Errorf("read body: %w", err)}
	}

	result := &FetchResult{
		HTML:        string(body),
		FinalURL:    resp.Request.URL.String(),
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return result, &model.FetchError{
			URL:        rawURL,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("unexpected status: %s", resp.Status),
		}
	}
	return result, nil
}
