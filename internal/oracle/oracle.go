// Package oracle is the text-generation backend used for clip selection
// and clip metadata. Three providers are supported behind one
// interface; the active one is picked by config.
package oracle

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"

	"clipline/internal/config"
	"clipline/internal/store"
)

// Candidate is one proposed clip window from the selection oracle.
// Times are absolute seconds within the source video.
type Candidate struct {
	Start      float64 `json:"start"`
	End        float64 `json:"end"`
	Hook       string  `json:"hook"`
	Confidence float64 `json:"confidence"`
}

// SelectionRequest carries everything the selection prompt needs.
type SelectionRequest struct {
	Segments    []store.TranscriptSegment
	Intent      string
	Duration    float64
	MinDuration float64
	MaxDuration float64
	MaxClips    int
}

// Metadata is generated title/hashtag/description copy for one clip.
type Metadata struct {
	Title       string
	Hashtags    []string
	Description string
}

// MetadataRequest carries the clip content the metadata prompt works
// from.
type MetadataRequest struct {
	ClipText       string
	Hook           string
	MinHashtags    int
	MaxHashtags    int
	MaxTitleLength int
}

// Oracle scores clip candidates and writes clip metadata.
type Oracle interface {
	ScoreCandidates(ctx context.Context, req SelectionRequest) ([]Candidate, error)
	GenerateMetadata(ctx context.Context, req MetadataRequest) (*Metadata, error)
}

// New builds the configured provider. API keys come from the
// provider's conventional environment variable.
func New(ctx context.Context, cfg *config.Config) (Oracle, error) {
	model := cfg.Oracle.Model
	switch config.Provider(cfg.Oracle.Provider) {
	case config.ProviderOpenAI:
		return NewOpenAI(os.Getenv("OPENAI_API_KEY"), model)
	case config.ProviderAnthropic:
		return NewAnthropic(os.Getenv("ANTHROPIC_API_KEY"), model)
	case config.ProviderGemini:
		return NewGemini(ctx, os.Getenv("GEMINI_API_KEY"), model)
	default:
		return nil, fmt.Errorf("unknown oracle provider %q", cfg.Oracle.Provider)
	}
}

type selectionResponse struct {
	Segments []Candidate `json:"segments"`
}

// parseSelection decodes the oracle's JSON candidate list, tolerating
// markdown code fences around the payload.
func parseSelection(text string) ([]Candidate, error) {
	text = cleanJSONResponse(text)
	if text == "" {
		return nil, errors.New("empty selection response")
	}
	var resp selectionResponse
	if err := json.Unmarshal([]byte(text), &resp); err != nil {
		return nil, fmt.Errorf("parse selection response: %w (response: %s)", err, truncateString(text, 200))
	}
	if len(resp.Segments) == 0 {
		return nil, errors.New("selection response contains no segments")
	}
	return resp.Segments, nil
}

type metadataResponse struct {
	Title       string          `json:"title"`
	Hashtags    json.RawMessage `json:"hashtags"`
	Description string          `json:"description"`
}

// parseMetadata decodes generated metadata. Hashtags arrive either as a
// JSON array or as one comma-separated string depending on the model's
// mood; both are accepted.
func parseMetadata(text string) (*Metadata, error) {
	text = cleanJSONResponse(text)
	if text == "" {
		return nil, errors.New("empty metadata response")
	}
	var resp metadataResponse
	if err := json.Unmarshal([]byte(text), &resp); err != nil {
		return nil, fmt.Errorf("parse metadata response: %w (response: %s)", err, truncateString(text, 200))
	}

	meta := &Metadata{
		Title:       strings.TrimSpace(resp.Title),
		Description: strings.TrimSpace(resp.Description),
	}
	if len(resp.Hashtags) > 0 {
		var asList []string
		if err := json.Unmarshal(resp.Hashtags, &asList); err == nil {
			meta.Hashtags = asList
		} else {
			var asString string
			if err := json.Unmarshal(resp.Hashtags, &asString); err != nil {
				return nil, fmt.Errorf("parse hashtags: %w", err)
			}
			for _, tag := range strings.Split(asString, ",") {
				if trimmed := strings.TrimSpace(tag); trimmed != "" {
					meta.Hashtags = append(meta.Hashtags, trimmed)
				}
			}
		}
	}
	if meta.Title == "" {
		return nil, errors.New("metadata response missing title")
	}
	return meta, nil
}

var jsonBlockRegex = regexp.MustCompile("```(?:json)?\\s*")

func cleanJSONResponse(s string) string {
	s = strings.TrimSpace(s)
	s = jsonBlockRegex.ReplaceAllString(s, "")
	s = strings.ReplaceAll(s, "```", "")
	return strings.TrimSpace(s)
}

func truncateString(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
