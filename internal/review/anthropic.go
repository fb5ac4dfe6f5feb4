package review

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	anthropicoption "github.com/anthropics/anthropic-sdk-go/option"
)

// AnthropicOracle reviews requests through the Anthropic Messages API.
type AnthropicOracle struct {
	client anthropic.Client
	model  string
}

// NewAnthropicOracle builds an oracle for the given key and model. An
// empty key falls back to the SDK's environment lookup; an empty model
// selects a small default.
func NewAnthropicOracle(apiKey, model string) *AnthropicOracle {
	if model == "" {
		model = "claude-haiku-4-5"
	}
	var opts []anthropicoption.RequestOption
	if apiKey != "" {
		opts = append(opts, anthropicoption.WithAPIKey(apiKey))
	}
	return &AnthropicOracle{
		client: anthropic.NewClient(opts...),
		model:  model,
	}
}

func (o *AnthropicOracle) Name() string { return "anthropic" }

func (o *AnthropicOracle) Review(ctx context.Context, prompt string) (string, error) {
	msg, err := o.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(o.model),
		MaxTokens: 512,
		System:    []anthropic.TextBlockParam{{Text: systemPrompt}},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("anthropic review: %w", err)
	}

	var b strings.Builder
	for _, block := range msg.Content {
		if t, ok := block.AsAny().(anthropic.TextBlock); ok {
			b.WriteString(t.Text)
		}
	}
	return b.String(), nil
}
