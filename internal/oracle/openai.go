package oracle

import (
	"context"
	"errors"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"

	"clipline/internal/pipeline"
)

const defaultOpenAIModel = "gpt-4o-mini"

// OpenAIOracle runs selection and metadata through chat completions
// with JSON-object responses.
type OpenAIOracle struct {
	client openai.Client
	model  string
}

// NewOpenAI builds the OpenAI-backed oracle.
func NewOpenAI(apiKey, model string) (*OpenAIOracle, error) {
	if apiKey == "" {
		return nil, errors.New("OPENAI_API_KEY is not set")
	}
	if model == "" {
		model = defaultOpenAIModel
	}
	return &OpenAIOracle{
		client: openai.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
	}, nil
}

func (o *OpenAIOracle) complete(ctx context.Context, prompt string) (string, error) {
	completion, err := o.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
		Model: o.model,
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		},
	})
	if err != nil {
		return "", classifyOpenAIError(fmt.Errorf("completion failed: %w", err))
	}
	if len(completion.Choices) == 0 || completion.Choices[0].Message.Content == "" {
		return "", errors.New("empty response from OpenAI")
	}
	return completion.Choices[0].Message.Content, nil
}

// ScoreCandidates asks the model for viral clip windows.
func (o *OpenAIOracle) ScoreCandidates(ctx context.Context, req SelectionRequest) ([]Candidate, error) {
	text, err := o.complete(ctx, buildSelectionPrompt(req))
	if err != nil {
		return nil, err
	}
	return parseSelection(text)
}

// GenerateMetadata asks the model for clip title, hashtags and
// description.
func (o *OpenAIOracle) GenerateMetadata(ctx context.Context, req MetadataRequest) (*Metadata, error) {
	text, err := o.complete(ctx, buildMetadataPrompt(req))
	if err != nil {
		return nil, err
	}
	return parseMetadata(text)
}

func classifyOpenAIError(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		if apiErr.StatusCode == 429 || apiErr.StatusCode >= 500 {
			return pipeline.Transient(err)
		}
		return err
	}
	return pipeline.Transient(err)
}
