package classifier

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/ppiankov/judolscan/internal/model"
	"github.com/sashabaranov/go-openai"
)

// maxPromptChars bounds the text sent to chat backends
const maxPromptChars = 4000

const systemPrompt = "You classify Indonesian and English advertisements. " +
	"Reply with a single number between 0 and 1: the probability that the text " +
	"promotes online gambling (judi online, slot, togel, casino, sports betting). " +
	"Reply with the number only."

// OpenAI scores text with an OpenAI-compatible chat model
type OpenAI struct {
	client *openai.Client
	model  string
}

// NewOpenAI creates a chat-completion backend
func NewOpenAI(cfg model.ClassifierConfig) (*OpenAI, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai: API key is required: %w", model.ErrCollaboratorUnavailable)
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	m := cfg.Model
	if m == "" {
		m = openai.GPT4oMini
	}

	return &OpenAI{
		client: openai.NewClientWithConfig(clientConfig),
		model:  m,
	}, nil
}

// Name returns the backend name
func (o *OpenAI) Name() string {
	return "openai"
}

// Score asks the model for a probability
func (o *OpenAI) Score(ctx context.Context, text string) (float64, error) {
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: truncate(text, maxPromptChars)},
		},
		MaxTokens:   8,
		Temperature: 0,
	})
	if err != nil {
		return 0, fmt.Errorf("OpenAI API error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return 0, fmt.Errorf("no response from OpenAI")
	}
	return parseProbability(resp.Choices[0].Message.Content)
}

// parseProbability reads the first number in a model reply
func parseProbability(reply string) (float64, error) {
	for _, field := range strings.Fields(reply) {
		field = strings.Trim(field, ".,;:%\"'`")
		if p, err := strconv.ParseFloat(field, 64); err == nil {
			return clamp(p), nil
		}
	}
	return 0, fmt.Errorf("no probability in reply %q", truncate(reply, 80))
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
