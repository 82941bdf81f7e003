// Package classifier adapts statistical text classifiers to a single
// probability interface. A missing or broken backend degrades to a
// classifier that always answers 0 instead of failing requests.
package classifier

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ppiankov/judolscan/internal/model"
	"github.com/rs/zerolog/log"
)

// Scorer is implemented by every classifier backend
type Scorer interface {
	// Name returns the backend name
	Name() string

	// Score returns the probability that text is a gambling advertisement
	Score(ctx context.Context, text string) (float64, error)
}

// Adapter wraps a backend so inference never fails a request
type Adapter struct {
	backend Scorer
	timeout time.Duration
	reason  string // Why the adapter is degraded
}

// Degraded returns an adapter without a backend
func Degraded(reason string) *Adapter {
	return &Adapter{reason: reason}
}

// NewAdapter wraps a backend
func NewAdapter(backend Scorer, timeout time.Duration) *Adapter {
	if backend == nil {
		return Degraded("no backend")
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Adapter{backend: backend, timeout: timeout}
}

// New builds the configured backend. Load failures yield a degraded
// adapter whose Reason says why, so the service still starts.
func New(cfg model.ClassifierConfig, sequenceLength int) *Adapter {
	backend, err := newBackend(cfg, sequenceLength)
	if err != nil {
		return Degraded(err.Error())
	}
	return NewAdapter(backend, cfg.Timeout)
}

func newBackend(cfg model.ClassifierConfig, sequenceLength int) (Scorer, error) {
	switch strings.ToLower(cfg.Backend) {
	case "tfserving":
		if cfg.ModelURL == "" {
			return nil, fmt.Errorf("tfserving: model_url is required: %w", model.ErrCollaboratorUnavailable)
		}
		tok, err := LoadTokenizer(cfg.TokenizerPath)
		if err != nil {
			return nil, fmt.Errorf("tfserving: %w", err)
		}
		return NewTFServing(cfg.ModelURL, cfg.ModelName, tok, sequenceLength, cfg.Timeout), nil

	case "openai":
		return NewOpenAI(cfg)

	case "ollama":
		return NewOllama(cfg)

	case "", "none":
		return nil, fmt.Errorf("classifier disabled: %w", model.ErrCollaboratorUnavailable)

	default:
		return nil, fmt.Errorf("unknown classifier backend: %s (supported: tfserving, openai, ollama, none)", cfg.Backend)
	}
}

// Available reports whether a backend is loaded
func (a *Adapter) Available() bool {
	return a.backend != nil
}

// Reason explains why the adapter is degraded
func (a *Adapter) Reason() string {
	return a.reason
}

// Name returns the backend name or "degraded"
func (a *Adapter) Name() string {
	if a.backend == nil {
		return "degraded"
	}
	return a.backend.Name()
}

// Score returns the backend probability clamped to [0,1]. Errors and the
// degraded mode both score 0.
func (a *Adapter) Score(ctx context.Context, text string) float64 {
	if a.backend == nil || strings.TrimSpace(text) == "" {
		return 0
	}

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	prob, err := a.backend.Score(ctx, text)
	if err != nil {
		log.Warn().Err(err).Str("backend", a.backend.Name()).Msg("classifier inference failed")
		return 0
	}
	return clamp(prob)
}

func clamp(p float64) float64 {
	switch {
	case p != p: // NaN
		return 0
	case p < 0:
		return 0
	case p > 1:
		return 1
	default:
		return p
	}
}
