package util

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestNewProxyFunc(t *testing.T) {
	proxy := NewProxyFunc("http://proxy:8080", "http://secure-proxy:8443", "internal.example")

	tests := []struct {
		url  string
		want string
	}{
		{"http://example.com/", "http://proxy:8080"},
		{"https://example.com/", "http://secure-proxy:8443"},
		{"https://internal.example/", ""},
	}

	for _, tt := range tests {
		req, _ := http.NewRequest(http.MethodGet, tt.url, nil)
		got, err := proxy(req)
		if err != nil {
			t.Fatalf("proxy(%s): %v", tt.url, err)
		}
		gotStr := ""
		if got != nil {
			gotStr = got.String()
		}
		if gotStr != tt.want {
			t.Errorf("proxy(%s) = %q, want %q", tt.url, gotStr, tt.want)
		}
	}
}

func TestRobotsChecker(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/robots.txt" {
			http.NotFound(w, r)
			return
		}
		atomic.AddInt32(&hits, 1)
		fmt.Fprint(w, "User-agent: *\nDisallow: /private/\n")
	}))
	defer server.Close()

	r := NewRobotsChecker("Mozilla/5.0 (X11; Linux x86_64)", 5*time.Second)
	ctx := context.Background()

	if !r.IsAllowed(ctx, server.URL+"/promo") {
		t.Error("expected /promo to be allowed")
	}
	if r.IsAllowed(ctx, server.URL+"/private/page") {
		t.Error("expected /private/page to be disallowed")
	}
	if got := atomic.LoadInt32(&hits); got != 1 {
		t.Errorf("robots.txt fetched %d times, want 1", got)
	}
}

func TestRobotsChecker_FailOpen(t *testing.T) {
	r := NewRobotsChecker("Mozilla/5.0", 200*time.Millisecond)
	if !r.IsAllowed(context.Background(), "http://127.0.0.1:1/page") {
		t.Error("unreachable robots.txt should allow")
	}
	if !r.IsAllowed(context.Background(), "::not a url") {
		t.Error("unparseable URL should allow")
	}
}

func TestProductToken(t *testing.T) {
	tests := map[string]string{
		"Mozilla/5.0 (Windows NT 10.0)": "Mozilla",
		"judolscan/1.0":                 "judolscan",
		"":                              "",
	}
	for in, want := range tests {
		if got := ProductToken(in); got != want {
			t.Errorf("ProductToken(%q) = %q, want %q", in, got, want)
		}
	}
}
