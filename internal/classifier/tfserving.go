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
)

// TFServing scores text with a sequence model served over the TensorFlow Serving REST API
type TFServing struct {
	baseURL        string
	modelName      string
	tokenizer      *Tokenizer
	sequenceLength int
	httpClient     *http.Client
}

type predictRequest struct {
	Instances [][]int `json:"instances"`
}

type predictResponse struct {
	Predictions []json.RawMessage `json:"predictions"`
	Error       string            `json:"error,omitempty"`
}

// NewTFServing creates a TensorFlow Serving backend
func NewTFServing(baseURL, modelName string, tok *Tokenizer, sequenceLength int, timeout time.Duration) *TFServing {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &TFServing{
		baseURL:        strings.TrimSuffix(baseURL, "/"),
		modelName:      modelName,
		tokenizer:      tok,
		sequenceLength: sequenceLength,
		httpClient:     &http.Client{Timeout: timeout},
	}
}

// Name returns the backend name
func (s *TFServing) Name() string {
	return "tfserving"
}

// Score tokenizes, pads and predicts
func (s *TFServing) Score(ctx context.Context, text string) (float64, error) {
	seq := Pad(s.tokenizer.Sequence(text), s.sequenceLength)

	body, err := json.Marshal(predictRequest{Instances: [][]int{seq}})
	if err != nil {
		return 0, fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/v1/models/%s:predict", s.baseURL, s.modelName)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("predict: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return 0, fmt.Errorf("read response: %w", err)
	}

	var pr predictResponse
	if err := json.Unmarshal(respBody, &pr); err != nil {
		return 0, fmt.Errorf("parse response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("predict: HTTP %d: %s", resp.StatusCode, pr.Error)
	}
	if len(pr.Predictions) == 0 {
		return 0, fmt.Errorf("predict: empty predictions")
	}

	return firstScalar(pr.Predictions[0])
}

// firstScalar accepts both [p] and p prediction shapes
func firstScalar(raw json.RawMessage) (float64, error) {
	var p float64
	if err := json.Unmarshal(raw, &p); err == nil {
		return p, nil
	}
	var row []float64
	if err := json.Unmarshal(raw, &row); err != nil {
		return 0, fmt.Errorf("parse prediction: %w", err)
	}
	if len(row) == 0 {
		return 0, fmt.Errorf("parse prediction: empty row")
	}
	return row[0], nil
}
