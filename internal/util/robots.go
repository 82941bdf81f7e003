package util

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/rs/zerolog/log"
	"github.com/temoto/robotstxt"
)

// robotsTTL is how long a host's robots.txt is trusted
const robotsTTL = time.Hour

// RobotsChecker answers robots.txt questions for the webpage fetcher.
// Hosts whose robots.txt cannot be read are treated as allowing everything.
type RobotsChecker struct {
	cache      *gocache.Cache
	httpClient *http.Client
	userAgent  string
	agentToken string
}

// NewRobotsChecker creates a new robots.txt checker
func NewRobotsChecker(userAgent string, timeout time.Duration) *RobotsChecker {
	return &RobotsChecker{
		cache:      gocache.New(robotsTTL, 2*robotsTTL),
		httpClient: &http.Client{Timeout: timeout},
		userAgent:  userAgent,
		agentToken: ProductToken(userAgent),
	}
}

// IsAllowed reports whether rawURL may be fetched
func (r *RobotsChecker) IsAllowed(ctx context.Context, rawURL string) bool {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" {
		return true
	}

	origin := parsed.Scheme + "://" + parsed.Host
	data, err := r.robots(ctx, origin)
	if err != nil {
		log.Debug().Err(err).Str("url", origin).Msg("robots.txt unavailable, allowing")
		return true
	}

	path := parsed.EscapedPath()
	if path == "" {
		path = "/"
	}
	return data.TestAgent(path, r.agentToken)
}

func (r *RobotsChecker) robots(ctx context.Context, origin string) (*robotstxt.RobotsData, error) {
	if cached, ok := r.cache.Get(origin); ok {
		return cached.(*robotstxt.RobotsData), nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, origin+"/robots.txt", nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", r.userAgent)

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch robots.txt: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	// FromResponse maps 4xx to allow-all and 5xx to disallow-all
	data, err := robotstxt.FromResponse(resp)
	if err != nil {
		return nil, fmt.Errorf("parse robots.txt: %w", err)
	}

	r.cache.SetDefault(origin, data)
	return data, nil
}

// ProductToken extracts the product name robots.txt groups are matched on,
// e.g. "Mozilla" from a browser user agent
func ProductToken(ua string) string {
	parts := strings.Fields(ua)
	if len(parts) == 0 {
		return ua
	}
	return strings.Split(parts[0], "/")[0]
}
