package review

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// OpenAIOracle reviews requests through an OpenAI-compatible chat
// completions API. A custom base URL lets it talk to any compatible
// provider.
type OpenAIOracle struct {
	client openai.Client
	model  string
}

// NewOpenAIOracle builds an oracle for the given key, endpoint, and
// model. Empty values fall back to the SDK environment lookup and a
// small default model.
func NewOpenAIOracle(apiKey, baseURL, model string) *OpenAIOracle {
	if model == "" {
		model = "gpt-4o-mini"
	}
	var opts []option.RequestOption
	if apiKey != "" {
		opts = append(opts, option.WithAPIKey(apiKey))
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &OpenAIOracle{
		client: openai.NewClient(opts...),
		model:  model,
	}
}

func (o *OpenAIOracle) Name() string { return "openai" }

func (o *OpenAIOracle) Review(ctx context.Context, prompt string) (string, error) {
	resp, err := o.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:               openai.ChatModel(o.model),
		MaxCompletionTokens: openai.Int(512),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(prompt),
		},
	})
	if err != nil {
		return "", fmt.Errorf("openai review: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai review: empty response")
	}
	return resp.Choices[0].Message.Content, nil
}
