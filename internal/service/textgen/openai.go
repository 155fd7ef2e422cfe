package textgen

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"

	"canopy/internal/domain/services"
)

// OpenAIProvider generates text through the OpenAI chat-completions API.
type OpenAIProvider struct {
	client    *openai.Client
	model     string
	maxTokens int
}

// NewOpenAIProvider creates a provider bound to one model.
func NewOpenAIProvider(apiKey, model string, maxTokens int) *OpenAIProvider {
	return &OpenAIProvider{
		client:    openai.NewClient(apiKey),
		model:     model,
		maxTokens: maxTokens,
	}
}

// Name returns the provider name.
func (p *OpenAIProvider) Name() string {
	return "openai"
}

// Generate runs one chat completion. This is the long blocking call of the
// whole system; the caller's context bounds it.
func (p *OpenAIProvider) Generate(ctx context.Context, req *services.GenerateRequest) (string, error) {
	resp, err := p.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model: p.model,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleSystem,
					Content: req.System,
				},
				{
					Role:    openai.ChatMessageRoleUser,
					Content: req.Prompt,
				},
			},
			MaxTokens: p.maxTokens,
		},
	)
	if err != nil {
		return "", fmt.Errorf("openai chat completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai returned no choices")
	}

	return resp.Choices[0].Message.Content, nil
}
