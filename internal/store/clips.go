package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

const clipColumns = `id, video_id, ordinal, start_seconds, end_seconds, score, rationale,
	aspect_ratio, crop_json, output_path, title, hashtags_json, description,
	captions_json, rendered, error_message, created_at`

func scanClip(row interface{ Scan(...any) error }) (*Clip, error) {
	var c Clip
	var cropJSON, hashtagsJSON, captionsJSON, createdAt string
	var rendered int
	err := row.Scan(
		&c.ID,
		&c.VideoID,
		&c.Ordinal,
		&c.Start,
		&c.End,
		&c.Score,
		&c.Rationale,
		&c.AspectRatio,
		&cropJSON,
		&c.OutputPath,
		&c.Title,
		&hashtagsJSON,
		&c.Description,
		&captionsJSON,
		&rendered,
		&c.ErrorMessage,
		&createdAt,
	)
	if err != nil {
		return nil, err
	}
	c.Rendered = rendered != 0
	c.CreatedAt = parseTime(createdAt)
	if cropJSON != "" {
		if err := json.Unmarshal([]byte(cropJSON), &c.Crop); err != nil {
			return nil, fmt.Errorf("decode crop: %w", err)
		}
	}
	if err := json.Unmarshal([]byte(hashtagsJSON), &c.Hashtags); err != nil {
		return nil, fmt.Errorf("decode hashtags: %w", err)
	}
	if err := json.Unmarshal([]byte(captionsJSON), &c.Captions); err != nil {
		return nil, fmt.Errorf("decode captions: %w", err)
	}
	return &c, nil
}

// SaveClip inserts or replaces one clip record keyed by (video, ordinal).
func (s *Store) SaveClip(ctx context.Context, c *Clip) error {
	if c == nil {
		return errors.New("clip is nil")
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}

	cropJSON, err := json.Marshal(c.Crop)
	if err != nil {
		return fmt.Errorf("marshal crop: %w", err)
	}
	hashtags := c.Hashtags
	if hashtags == nil {
		hashtags = []string{}
	}
	hashtagsJSON, err := json.Marshal(hashtags)
	if err != nil {
		return fmt.Errorf("marshal hashtags: %w", err)
	}
	captions := c.Captions
	if captions == nil {
		captions = []CaptionCue{}
	}
	captionsJSON, err := json.Marshal(captions)
	if err != nil {
		return fmt.Errorf("marshal captions: %w", err)
	}

	rendered := 0
	if c.Rendered {
		rendered = 1
	}

	_, err = s.execWithRetry(
		ctx,
		`INSERT OR REPLACE INTO clips (
            id, video_id, ordinal, start_seconds, end_seconds, score, rationale,
            aspect_ratio, crop_json, output_path, title, hashtags_json, description,
            captions_json, rendered, error_message, created_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.VideoID, c.Ordinal, c.Start, c.End, c.Score, c.Rationale,
		c.AspectRatio, string(cropJSON), c.OutputPath, c.Title, string(hashtagsJSON),
		c.Description, string(captionsJSON), rendered, c.ErrorMessage,
		formatTime(c.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("save clip: %w", err)
	}
	return nil
}

// ListClips returns a video's clips ordered by ordinal.
func (s *Store) ListClips(ctx context.Context, videoID string) ([]*Clip, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+clipColumns+` FROM clips WHERE video_id = ? ORDER BY ordinal`,
		videoID,
	)
	if err != nil {
		return nil, fmt.Errorf("list clips: %w", err)
	}
	defer rows.Close()

	var clips []*Clip
	for rows.Next() {
		c, err := scanClip(rows)
		if err != nil {
			return nil, fmt.Errorf("scan clip: %w", err)
		}
		clips = append(clips, c)
	}
	return clips, rows.Err()
}

// DeleteClips removes every clip record for a video. Called when the
// selection stage restarts so a crashed run's partial clip set cannot
// overlap a freshly selected one.
func (s *Store) DeleteClips(ctx context.Context, videoID string) error {
	_, err := s.execWithRetry(ctx, `DELETE FROM clips WHERE video_id = ?`, videoID)
	if err != nil {
		return fmt.Errorf("delete clips: %w", err)
	}
	return nil
}
