package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"git.home.luguber.info/inful/codetutor/internal/config"
)

// OpenAIClient generates text through an OpenAI compatible chat completions endpoint.
type OpenAIClient struct {
	client      *openai.Client
	model       string
	temperature float32
	maxTokens   int
}

// NewOpenAIClient builds a client from the llm config section. httpClient may be nil.
func NewOpenAIClient(cfg config.LLMConfig, httpClient *http.Client) (*OpenAIClient, error) {
	if strings.TrimSpace(cfg.Model) == "" {
		return nil, fmt.Errorf("llm model is required")
	}
	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	if httpClient != nil {
		oc.HTTPClient = httpClient
	}
	return &OpenAIClient{
		client:      openai.NewClientWithConfig(oc),
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
	}, nil
}

// Model returns the configured model name.
func (c *OpenAIClient) Model() string { return c.model }

// Generate sends prompt as a single user message and returns the first choice.
// Errors are classified (see Classify).
func (c *OpenAIClient) Generate(ctx context.Context, prompt string) (string, error) {
	req := openai.ChatCompletionRequest{
		Model:       c.model,
		Temperature: c.temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	}
	if c.maxTokens > 0 {
		req.MaxTokens = c.maxTokens
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", Classify(err)
	}
	if len(resp.Choices) == 0 {
		return "", Classify(ErrNoChoices)
	}
	content := resp.Choices[0].Message.Content
	if strings.TrimSpace(content) == "" {
		return "", Classify(ErrBlankResponse)
	}
	return content, nil
}
