package worker

import (
	"context"
	"testing"
	"time"
)

func TestLimiter_New(t *testing.T) {
	limiter := NewLimiter(10, 5)
	if limiter.defaultBurst != 5 {
		t.Errorf("expected burst 5, got %d", limiter.defaultBurst)
	}

	l2 := NewLimiter(10, -1)
	if l2.defaultBurst != 5 {
		t.Errorf("expected default burst 5 for negative input, got %d", l2.defaultBurst)
	}
}

func TestLimiter_Wait(t *testing.T) {
	limiter := NewLimiter(100, 1) // 100 rps, burst 1
	ctx := context.Background()

	if err := limiter.Wait(ctx, "http://example.com/foo"); err != nil {
		t.Errorf("wait failed: %v", err)
	}

	// Different domain should also work
	if err := limiter.Wait(ctx, "http://google.com"); err != nil {
		t.Errorf("wait failed: %v", err)
	}
}

func TestLimiter_RateLimit(t *testing.T) {
	// 1 rps, burst 1
	limiter := NewLimiter(1, 1)
	ctx := context.Background()

	if err := limiter.Wait(ctx, "http://example.com"); err != nil {
		t.Fatalf("first wait failed: %v", err)
	}

	// The token is spent, so a short deadline expires before the next one
	short, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
	defer cancel()
	if err := limiter.Wait(short, "https://www.example.com/other"); err == nil {
		t.Error("expected second request to the same domain to be throttled")
	}

	// Different domain is not affected
	other, cancel2 := context.WithTimeout(ctx, 50*time.Millisecond)
	defer cancel2()
	if err := limiter.Wait(other, "http://other.com"); err != nil {
		t.Errorf("expected other domain to pass, got %v", err)
	}
}

func TestLimiter_Unlimited(t *testing.T) {
	limiter := NewLimiter(0, 1)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	for i := 0; i < 100; i++ {
		if err := limiter.Wait(ctx, "http://example.com"); err != nil {
			t.Fatalf("wait %d failed: %v", i, err)
		}
	}
}

func TestExtractDomain(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"http://example.com/foo", "example.com"},
		{"https://WWW.YouTube.com/watch?v=x", "youtube.com"},
		{"youtu.be/abc", "youtu.be"},
		{"http://example.com:8080/", "example.com"},
	}
	for _, tt := range tests {
		domain, err := extractDomain(tt.url)
		if err != nil {
			t.Fatalf("extractDomain(%q) failed: %v", tt.url, err)
		}
		if domain != tt.want {
			t.Errorf("extractDomain(%q) = %s, want %s", tt.url, domain, tt.want)
		}
	}

	if _, err := extractDomain("::invalid"); err == nil {
		t.Errorf("expected error for invalid URL")
	}
}
