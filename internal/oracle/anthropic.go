package oracle

import (
	"context"
	"errors"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"clipline/internal/pipeline"
)

// AnthropicOracle runs selection and metadata through the Messages API.
type AnthropicOracle struct {
	client anthropic.Client
	model  anthropic.Model
}

// NewAnthropic builds the Claude-backed oracle.
func NewAnthropic(apiKey, model string) (*AnthropicOracle, error) {
	if apiKey == "" {
		return nil, errors.New("ANTHROPIC_API_KEY is not set")
	}
	m := anthropic.Model(model)
	if model == "" {
		m = anthropic.ModelClaudeHaiku4_5
	}
	return &AnthropicOracle{
		client: anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:  m,
	}, nil
}

func (o *AnthropicOracle) complete(ctx context.Context, prompt string) (string, error) {
	message, err := o.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     o.model,
		MaxTokens: 4096,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", classifyAnthropicError(fmt.Errorf("completion failed: %w", err))
	}

	var text string
	for _, block := range message.Content {
		if block.Type == "text" {
			text += block.Text
		}
	}
	if text == "" {
		return "", errors.New("empty response from Anthropic")
	}
	return text, nil
}

// ScoreCandidates asks the model for viral clip windows.
func (o *AnthropicOracle) ScoreCandidates(ctx context.Context, req SelectionRequest) ([]Candidate, error) {
	text, err := o.complete(ctx, buildSelectionPrompt(req))
	if err != nil {
		return nil, err
	}
	return parseSelection(text)
}

// GenerateMetadata asks the model for clip title, hashtags and
// description.
func (o *AnthropicOracle) GenerateMetadata(ctx context.Context, req MetadataRequest) (*Metadata, error) {
	text, err := o.complete(ctx, buildMetadataPrompt(req))
	if err != nil {
		return nil, err
	}
	return parseMetadata(text)
}

func classifyAnthropicError(err error) error {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		if apiErr.StatusCode == 429 || apiErr.StatusCode == 529 || apiErr.StatusCode >= 500 {
			return pipeline.Transient(err)
		}
		return err
	}
	return pipeline.Transient(err)
}
