package oracle

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/genai"

	"clipline/internal/pipeline"
)

const defaultGeminiModel = "gemini-2.5-flash"

// GeminiOracle runs selection and metadata through the Gemini API with
// JSON response mime type.
type GeminiOracle struct {
	client *genai.Client
	model  string
}

// NewGemini builds the Gemini-backed oracle.
func NewGemini(ctx context.Context, apiKey, model string) (*GeminiOracle, error) {
	if apiKey == "" {
		return nil, errors.New("GEMINI_API_KEY is not set")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	if model == "" {
		model = defaultGeminiModel
	}
	return &GeminiOracle{client: client, model: model}, nil
}

func (o *GeminiOracle) complete(ctx context.Context, prompt string) (string, error) {
	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{genai.NewPartFromText(prompt)}, genai.RoleUser),
	}
	result, err := o.client.Models.GenerateContent(ctx, o.model, contents, &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
	})
	if err != nil {
		return "", classifyGeminiError(fmt.Errorf("completion failed: %w", err))
	}
	if result == nil || len(result.Candidates) == 0 {
		return "", errors.New("empty response from Gemini")
	}

	var text string
	for _, candidate := range result.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			text += part.Text
		}
		if text != "" {
			break
		}
	}
	if text == "" {
		return "", errors.New("no text in Gemini response")
	}
	return text, nil
}

// ScoreCandidates asks the model for viral clip windows.
func (o *GeminiOracle) ScoreCandidates(ctx context.Context, req SelectionRequest) ([]Candidate, error) {
	text, err := o.complete(ctx, buildSelectionPrompt(req))
	if err != nil {
		return nil, err
	}
	return parseSelection(text)
}

// GenerateMetadata asks the model for clip title, hashtags and
// description.
func (o *GeminiOracle) GenerateMetadata(ctx context.Context, req MetadataRequest) (*Metadata, error) {
	text, err := o.complete(ctx, buildMetadataPrompt(req))
	if err != nil {
		return nil, err
	}
	return parseMetadata(text)
}

func classifyGeminiError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.Code == 429 || apiErr.Code >= 500 {
			return pipeline.Transient(err)
		}
		return err
	}
	return pipeline.Transient(err)
}
