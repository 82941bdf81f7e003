// Package asr transcribes speech from extracted audio tracks.
package asr

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ppiankov/judolscan/internal/model"
	"github.com/sashabaranov/go-openai"
)

// Transcriber converts an audio file into text
type Transcriber interface {
	// Transcribe returns the spoken text of audioPath
	Transcribe(ctx context.Context, audioPath string) (string, error)
}

// Whisper transcribes with the OpenAI audio transcription API
type Whisper struct {
	client   *openai.Client
	model    string
	language string
	timeout  time.Duration
}

// NewWhisper creates a Whisper transcriber
func NewWhisper(cfg model.ASRConfig) (*Whisper, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("whisper: API key is required: %w", model.ErrCollaboratorUnavailable)
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	m := cfg.Model
	if m == "" {
		m = openai.Whisper1
	}

	return &Whisper{
		client:   openai.NewClientWithConfig(clientConfig),
		model:    m,
		language: cfg.Language,
		timeout:  cfg.Timeout,
	}, nil
}

// Transcribe uploads the audio file and returns the transcript
func (w *Whisper) Transcribe(ctx context.Context, audioPath string) (string, error) {
	if w.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.timeout)
		defer cancel()
	}

	resp, err := w.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    w.model,
		FilePath: audioPath,
		Language: w.language,
		Format:   openai.AudioResponseFormatJSON,
	})
	if err != nil {
		return "", fmt.Errorf("whisper: %w", err)
	}
	return strings.TrimSpace(resp.Text), nil
}

// Unavailable is the transcriber used when speech recognition is disabled
type Unavailable struct{}

// Transcribe always reports the collaborator as unavailable
func (Unavailable) Transcribe(ctx context.Context, audioPath string) (string, error) {
	return "", model.ErrCollaboratorUnavailable
}

// New builds the configured transcriber. A disabled or unconfigured
// transcriber is returned as Unavailable together with the reason.
func New(cfg model.ASRConfig) (Transcriber, error) {
	if !cfg.Enabled {
		return Unavailable{}, fmt.Errorf("asr disabled: %w", model.ErrCollaboratorUnavailable)
	}
	w, err := NewWhisper(cfg)
	if err != nil {
		return Unavailable{}, err
	}
	return w, nil
}

// IsUnavailable reports whether err means no transcriber is configured
func IsUnavailable(err error) bool {
	return errors.Is(err, model.ErrCollaboratorUnavailable)
}
