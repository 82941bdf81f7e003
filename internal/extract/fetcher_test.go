package extract

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ppiankov/judolscan/internal/model"
)

func testFetcher(cfg model.HTTPConfig) *Fetcher {
	if cfg.MaxBodyBytes == 0 {
		cfg.MaxBodyBytes = 1 << 20
	}
	return NewFetcher(cfg, 5*time.Second)
}

func TestFetch_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.UserAgent(), "Chrome") {
			t.Errorf("expected browser user agent, got %q", r.UserAgent())
		}
		w.Header().Set("Content-Type", "text/html")
		_, _ = fmt.Fprint(w, "<html><body>OK</body></html>")
	}))
	defer server.Close()

	result, err := testFetcher(model.HTTPConfig{}).Fetch(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if result.HTML != "<html><body>OK</body></html>" {
		t.Errorf("Unexpected HTML: %s", result.HTML)
	}
	if result.StatusCode != http.StatusOK {
		t.Errorf("StatusCode = %d", result.StatusCode)
	}
}

func TestFetch_NoRetryOnServerError(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = fmt.Fprint(w, "maintenance")
	}))
	defer server.Close()

	result, err := testFetcher(model.HTTPConfig{}).Fetch(context.Background(), server.URL)
	var fe *model.FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("Expected FetchError, got %v", err)
	}
	if fe.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("StatusCode = %d", fe.StatusCode)
	}
	if result == nil || result.HTML != "maintenance" {
		t.Errorf("expected body alongside the error, got %+v", result)
	}
	if attempts.Load() != 1 {
		t.Errorf("Expected exactly 1 attempt, got %d", attempts.Load())
	}
}

func TestFetch_SelfSignedTLS(t *testing.T) {
	server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprint(w, "<p>secure</p>")
	}))
	defer server.Close()

	if _, err := testFetcher(model.HTTPConfig{InsecureTLS: true}).Fetch(context.Background(), server.URL); err != nil {
		t.Errorf("insecure fetch failed: %v", err)
	}
	if _, err := testFetcher(model.HTTPConfig{InsecureTLS: false}).Fetch(context.Background(), server.URL); err == nil {
		t.Error("expected certificate error with verification on")
	}
}

func TestFetch_RedirectCap(t *testing.T) {
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, server.URL+r.URL.Path+"x", http.StatusFound)
	}))
	defer server.Close()

	_, err := testFetcher(model.HTTPConfig{MaxRedirects: 3}).Fetch(context.Background(), server.URL+"/")
	if err == nil || !strings.Contains(err.Error(), "stopped after 3 redirects") {
		t.Errorf("expected redirect cap error, got %v", err)
	}
}

func TestFetch_BodyLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprint(w, strings.Repeat("a", 100))
	}))
	defer server.Close()

	result, err := testFetcher(model.HTTPConfig{MaxBodyBytes: 10}).Fetch(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(result.HTML) != 10 {
		t.Errorf("len(HTML) = %d, want 10", len(result.HTML))
	}
}

type countingLimiter struct{ calls atomic.Int32 }

func (l *countingLimiter) Wait(ctx context.Context, rawURL string) error {
	l.calls.Add(1)
	return nil
}

func TestFetch_Limiter(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprint(w, "ok")
	}))
	defer server.Close()

	limiter := &countingLimiter{}
	f := testFetcher(model.HTTPConfig{}).WithLimiter(limiter)
	for i := 0; i < 3; i++ {
		if _, err := f.Fetch(context.Background(), server.URL); err != nil {
			t.Fatalf("Fetch: %v", err)
		}
	}
	if limiter.calls.Load() != 3 {
		t.Errorf("limiter consulted %d times, want 3", limiter.calls.Load())
	}
}

func TestFetch_RobotsDisallowed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			_, _ = fmt.Fprint(w, "User-agent: *\nDisallow: /\n")
			return
		}
		t.Errorf("page fetched despite robots.txt")
	}))
	defer server.Close()

	_, err := testFetcher(model.HTTPConfig{RespectRobots: true}).Fetch(context.Background(), server.URL+"/promo")
	if !errors.Is(err, ErrRobotsDisallowed) {
		t.Errorf("expected ErrRobotsDisallowed, got %v", err)
	}
}
