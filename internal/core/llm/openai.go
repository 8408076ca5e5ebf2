package llm

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

// chatCompat is the shared core for providers speaking the OpenAI chat
// completions protocol, natively or via a compatible endpoint.
type chatCompat struct {
	name        string
	client      *openai.Client
	model       string
	temperature float32
	maxTokens   int
}

func (c *chatCompat) GetProviderName() string { return c.name }

func (c *chatCompat) GenerateResponse(ctx context.Context, systemPrompt, userMessage string) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userMessage},
		},
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("%s error: %w", c.name, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response from %s", c.name)
	}
	return resp.Choices[0].Message.Content, nil
}

type OpenAIProvider struct {
	chatCompat
}

func NewOpenAIProvider(apiKey string, model string, temperature float32, maxTokens int) *OpenAIProvider {
	if model == "" {
		model = "gpt-4o-mini"
	}
	if temperature == 0 {
		temperature = 0.7
	}
	if maxTokens == 0 {
		maxTokens = 2048
	}

	return &OpenAIProvider{chatCompat{
		name:        "OpenAI",
		client:      openai.NewClient(apiKey),
		model:       model,
		temperature: temperature,
		maxTokens:   maxTokens,
	}}
}
