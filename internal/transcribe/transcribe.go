// Package transcribe produces timestamped transcripts via the OpenAI
// audio API and normalizes them into ordered, sentence-level segments.
package transcribe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"clipline/internal/config"
	"clipline/internal/logging"
	"clipline/internal/pipeline"
	"clipline/internal/store"
)

// Transcriber calls Whisper with verbose_json segment timestamps.
type Transcriber struct {
	client openai.Client
	model  string
	log    *logging.Logger
}

// whisper verbose_json response shapes.
type whisperSegment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

type whisperVerboseResponse struct {
	Text     string           `json:"text"`
	Segments []whisperSegment `json:"segments"`
	Duration float64          `json:"duration"`
}

// New builds a Transcriber from config. The API key comes from
// OPENAI_API_KEY.
func New(cfg *config.Config, logger *logging.Logger) (*Transcriber, error) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return nil, errors.New("OPENAI_API_KEY is not set")
	}
	return &Transcriber{
		client: openai.NewClient(option.WithAPIKey(apiKey)),
		model:  cfg.Transcribe.Model,
		log:    logging.WithComponent(logger, "transcribe"),
	}, nil
}

// Transcribe runs Whisper over the video's extracted audio and returns
// normalized segments. An empty transcript for audio longer than a few
// seconds is an error: downstream selection is meaningless without
// speech.
func (t *Transcriber) Transcribe(ctx context.Context, video *store.Video) ([]store.TranscriptSegment, error) {
	file, err := os.Open(video.AudioPath)
	if err != nil {
		return nil, fmt.Errorf("open audio: %w", err)
	}
	defer file.Close()

	params := openai.AudioTranscriptionNewParams{
		File:                   file,
		Model:                  openai.AudioModel(t.model),
		ResponseFormat:         openai.AudioResponseFormatVerboseJSON,
		TimestampGranularities: []string{"segment"},
	}

	resp, err := t.client.Audio.Transcriptions.New(ctx, params)
	if err != nil {
		return nil, classifyAPIError(fmt.Errorf("whisper request: %w", err))
	}

	raw, err := parseVerboseJSON(resp.RawJSON(), resp.Text, video.DurationSeconds)
	if err != nil {
		return nil, err
	}

	segments := Normalize(raw, video.DurationSeconds)
	if len(segments) == 0 && video.DurationSeconds > minSpeechSeconds {
		return nil, errors.New("no speech detected in audio")
	}
	t.log.Debugw("transcription complete",
		"video_id", video.ID,
		"raw_segments", len(raw),
		"segments", len(segments),
	)
	return segments, nil
}

func parseVerboseJSON(rawJSON, fallbackText string, duration float64) ([]store.TranscriptSegment, error) {
	var resp whisperVerboseResponse
	if rawJSON != "" {
		if err := json.Unmarshal([]byte(rawJSON), &resp); err != nil {
			return nil, fmt.Errorf("parse verbose_json response: %w", err)
		}
	}
	if len(resp.Segments) == 0 {
		text := strings.TrimSpace(resp.Text)
		if text == "" {
			text = strings.TrimSpace(fallbackText)
		}
		if text == "" {
			return nil, nil
		}
		end := resp.Duration
		if end <= 0 {
			end = duration
		}
		return []store.TranscriptSegment{{Start: 0, End: end, Text: text}}, nil
	}

	segments := make([]store.TranscriptSegment, 0, len(resp.Segments))
	for _, seg := range resp.Segments {
		segments = append(segments, store.TranscriptSegment{
			Start: seg.Start,
			End:   seg.End,
			Text:  seg.Text,
		})
	}
	return segments, nil
}

// classifyAPIError marks rate limits and upstream errors as transient.
func classifyAPIError(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		if apiErr.StatusCode == 429 || apiErr.StatusCode >= 500 {
			return pipeline.Transient(err)
		}
		return err
	}
	// Anything below the HTTP layer (DNS, reset connections) retries.
	return pipeline.Transient(err)
}
