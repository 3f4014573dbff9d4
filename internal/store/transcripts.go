package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// SaveTranscript stores the full transcript for a video, replacing any
// previous record. The transcript is immutable once the transcribed
// stage completes; replacement only happens on stage re-run after crash.
func (s *Store) SaveTranscript(ctx context.Context, videoID string, segments []TranscriptSegment) error {
	data, err := json.Marshal(segments)
	if err != nil {
		return fmt.Errorf("marshal transcript: %w", err)
	}
	_, err = s.execWithRetry(
		ctx,
		`INSERT INTO transcripts (video_id, segments_json, created_at) VALUES (?, ?, ?)
         ON CONFLICT(video_id) DO UPDATE SET segments_json = excluded.segments_json,
             created_at = excluded.created_at`,
		videoID, string(data), formatTime(time.Now()),
	)
	if err != nil {
		return fmt.Errorf("save transcript: %w", err)
	}
	return nil
}

// GetTranscript loads the stored transcript, nil when none exists.
func (s *Store) GetTranscript(ctx context.Context, videoID string) ([]TranscriptSegment, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT segments_json FROM transcripts WHERE video_id = ?`,
		videoID,
	)
	var data string
	err := row.Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get transcript: %w", err)
	}

	var segments []TranscriptSegment
	if err := json.Unmarshal([]byte(data), &segments); err != nil {
		return nil, fmt.Errorf("decode transcript: %w", err)
	}
	return segments, nil
}
