package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ppiankov/judolscan/internal/model"
)

// Ollama scores text with a local model served by Ollama
type Ollama struct {
	baseURL    string
	model      string
	httpClient *http.Client
}

type ollamaRequest struct {
	Model   string        `json:"model"`
	Prompt  string        `json:"prompt"`
	Stream  bool          `json:"stream"`
	System  string        `json:"system,omitempty"`
	Options ollamaOptions `json:"options,omitempty"`
}

type ollamaOptions struct {
	Temperature float64 `json:"temperature"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

type ollamaResponse struct {
	Model    string `json:"model"`
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

type ollamaError struct {
	Error string `json:"error"`
}

// NewOllama creates an Ollama backend
func NewOllama(cfg model.ClassifierConfig) (*Ollama, error) {
	if cfg.Model == "" {
		return nil, fmt.Errorf("ollama model must be specified (e.g., llama3.1:8b): %w", model.ErrCollaboratorUnavailable)
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 60 * time.Second // Local models can be slow
	}

	return &Ollama{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		model:      cfg.Model,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

// Name returns the backend name
func (o *Ollama) Name() string {
	return "ollama"
}

// Score asks the local model for a probability
func (o *Ollama) Score(ctx context.Context, text string) (float64, error) {
	body, err := json.Marshal(ollamaRequest{
		Model:   o.model,
		Prompt:  truncate(text, maxPromptChars),
		System:  systemPrompt,
		Options: ollamaOptions{Temperature: 0, NumPredict: 8},
	})
	if err != nil {
		return 0, fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/api/generate", o.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("ollama request failed (is Ollama running at %s?): %w", o.baseURL, err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr ollamaError
		if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Error != "" {
			return 0, fmt.Errorf("ollama API error (HTTP %d): %s", resp.StatusCode, apiErr.Error)
		}
		return 0, fmt.Errorf("ollama API error (HTTP %d): %s", resp.StatusCode, string(respBody))
	}

	var or ollamaResponse
	if err := json.Unmarshal(respBody, &or); err != nil {
		return 0, fmt.Errorf("parse response: %w", err)
	}
	return parseProbability(or.Response)
}
