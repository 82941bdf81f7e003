package extract

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/ppiankov/judolscan/internal/cache"
	"github.com/ppiankov/judolscan/internal/model"
	"github.com/rs/zerolog/log"
	"golang.org/x/net/html"
)

// blockIndicators are phrases printed by bot-protection interstitials
var blockIndicators = []string{
	"enable javascript",
	"enable cookies",
	"just a moment",
	"cloudflare",
	"access denied",
	"captcha",
	"security check",
	"ddos protection",
	"please enable javascript",
	"checking your browser",
}

// PageText is the visible text of a fetched page
type PageText struct {
	URL      string `json:"url"`
	FinalURL string `json:"final_url"`
	Text     string `json:"text"`
}

// Webpage extracts visible text from web pages
type Webpage struct {
	fetcher *Fetcher
	cache   cache.Cache
	ttl     time.Duration
	minText int
}

// NewWebpage creates a webpage extractor. c may be nil.
func NewWebpage(fetcher *Fetcher, c cache.Cache, ttl time.Duration, minText int) *Webpage {
	return &Webpage{fetcher: fetcher, cache: c, ttl: ttl, minText: minText}
}

// NormalizeURL trims the input and assumes https when no scheme is given
func NormalizeURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", model.NewInputError("url", "URL is required")
	}
	if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "", model.NewInputError("url", fmt.Sprintf("malformed URL %q", raw))
	}
	return u.String(), nil
}

// Extract fetches rawURL and returns its visible text. Bot walls yield
// model.ErrBlocked and near-empty pages model.ErrInsufficientContent.
func (w *Webpage) Extract(ctx context.Context, rawURL string) (PageText, error) {
	target, err := NormalizeURL(rawURL)
	if err != nil {
		return PageText{}, err
	}

	key := cache.Key("page", target)
	if page, ok := w.cached(key); ok {
		log.Debug().Str("url", target).Msg("page text served from cache")
		return page, nil
	}

	res, fetchErr := w.fetcher.Fetch(ctx, target)
	if res == nil {
		return PageText{}, fetchErr
	}

	text := VisibleText(res.HTML)
	if indicator, blocked := DetectBlock(text); blocked {
		log.Info().Str("url", target).Str("indicator", indicator).Msg("page blocks automated access")
		return PageText{}, &model.FetchError{
			URL:        target,
			StatusCode: res.StatusCode,
			Err:        fmt.Errorf("%w (%q)", model.ErrBlocked, indicator),
		}
	}
	if fetchErr != nil {
		return PageText{}, fetchErr
	}

	if n := utf8.RuneCountInString(text); n < w.minText {
		return PageText{}, fmt.Errorf("%s: %d characters: %w", target, n, model.ErrInsufficientContent)
	}

	page := PageText{URL: target, FinalURL: res.FinalURL, Text: text}
	w.store(key, page)
	return page, nil
}

func (w *Webpage) cached(key string) (PageText, bool) {
	if w.cache == nil {
		return PageText{}, false
	}
	data, ok := w.cache.Get(key)
	if !ok {
		return PageText{}, false
	}
	var page PageText
	if err := json.Unmarshal(data, &page); err != nil {
		return PageText{}, false
	}
	return page, true
}

func (w *Webpage) store(key string, page PageText) {
	if w.cache == nil {
		return
	}
	data, err := json.Marshal(page)
	if err == nil {
		err = w.cache.Set(key, data, w.ttl)
	}
	if err != nil {
		log.Warn().Err(err).Str("url", page.URL).Msg("failed to cache page text")
	}
}

// DetectBlock reports the first bot-wall indicator found in text
func DetectBlock(text string) (string, bool) {
	lower := strings.ToLower(text)
	for _, indicator := range blockIndicators {
		if strings.Contains(lower, indicator) {
			return indicator, true
		}
	}
	return "", false
}

// VisibleText returns the text of an HTML document without script and
// style contents. Hidden elements are kept: gambling spam often hides
// its keywords from human visitors.
func VisibleText(doc string) string {
	z := html.NewTokenizer(strings.NewReader(doc))
	var b strings.Builder
	skip := 0

	for {
		switch z.Next() {
		case html.ErrorToken:
			return strings.Join(strings.Fields(b.String()), " ")
		case html.StartTagToken:
			if name, _ := z.TagName(); isSkipped(name) {
				skip++
			}
		case html.EndTagToken:
			if name, _ := z.TagName(); isSkipped(name) && skip > 0 {
				skip--
			}
		case html.TextToken:
			if skip == 0 {
				b.Write(z.Text())
				b.WriteByte(' ')
			}
		}
	}
}

func isSkipped(tag []byte) bool {
	switch string(tag) {
	case "script", "style":
		return true
	}
	return false
}

// IsBlocked reports whether err is a bot-wall failure
func IsBlocked(err error) bool {
	return errors.Is(err, model.ErrBlocked)
}
