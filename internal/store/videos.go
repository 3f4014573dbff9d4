package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const videoColumns = `id, source_url, intent_prompt, media_path, audio_path,
	duration_seconds, status, failed_stage, error_message, created_at, updated_at`

func scanVideo(row interface{ Scan(...any) error }) (*Video, error) {
	var v Video
	var createdAt, updatedAt string
	err := row.Scan(
		&v.ID,
		&v.SourceURL,
		&v.IntentPrompt,
		&v.MediaPath,
		&v.AudioPath,
		&v.DurationSeconds,
		&v.Status,
		&v.FailedStage,
		&v.ErrorMessage,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}
	v.CreatedAt = parseTime(createdAt)
	v.UpdatedAt = parseTime(updatedAt)
	return &v, nil
}

// CreateVideo inserts a new queued video. If a video with the same ID
// already exists the existing record is returned unchanged, making
// repeated imports of one URL idempotent.
func (s *Store) CreateVideo(ctx context.Context, id, sourceURL, intentPrompt string) (*Video, bool, error) {
	existing, err := s.GetVideo(ctx, id)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		return existing, false, nil
	}

	now := formatTime(time.Now())
	_, err = s.execWithRetry(
		ctx,
		`INSERT INTO videos (id, source_url, intent_prompt, status, created_at, updated_at)
         VALUES (?, ?, ?, ?, ?, ?)`,
		id, sourceURL, intentPrompt, StatusQueued, now, now,
	)
	if err != nil {
		return nil, false, fmt.Errorf("insert video: %w", err)
	}

	created, err := s.GetVideo(ctx, id)
	if err != nil {
		return nil, false, err
	}
	return created, true, nil
}

// GetVideo fetches one video by identifier, nil when absent.
func (s *Store) GetVideo(ctx context.Context, id string) (*Video, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+videoColumns+` FROM videos WHERE id = ?`, id)
	v, err := scanVideo(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get video: %w", err)
	}
	return v, nil
}

// ListVideos returns all videos ordered by creation time.
func (s *Store) ListVideos(ctx context.Context) ([]*Video, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+videoColumns+` FROM videos ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list videos: %w", err)
	}
	defer rows.Close()

	var videos []*Video
	for rows.Next() {
		v, err := scanVideo(rows)
		if err != nil {
			return nil, fmt.Errorf("scan video: %w", err)
		}
		videos = append(videos, v)
	}
	return videos, rows.Err()
}

// UpdateVideo persists all mutable fields of an existing video.
func (s *Store) UpdateVideo(ctx context.Context, v *Video) error {
	if v == nil {
		return errors.New("video is nil")
	}
	v.UpdatedAt = time.Now().UTC()
	_, err := s.execWithRetry(
		ctx,
		`UPDATE videos
         SET source_url = ?, intent_prompt = ?, media_path = ?, audio_path = ?,
             duration_seconds = ?, status = ?, failed_stage = ?, error_message = ?,
             updated_at = ?
         WHERE id = ?`,
		v.SourceURL, v.IntentPrompt, v.MediaPath, v.AudioPath,
		v.DurationSeconds, v.Status, v.FailedStage, v.ErrorMessage,
		formatTime(v.UpdatedAt), v.ID,
	)
	if err != nil {
		return fmt.Errorf("update video: %w", err)
	}
	return nil
}

// Transition moves a video from one status to another. The update is
// guarded on the current status so only one caller can win, which is
// what enforces per-video stage exclusivity.
func (s *Store) Transition(ctx context.Context, id string, from, to Status) error {
	res, err := s.execWithRetry(
		ctx,
		`UPDATE videos SET status = ?, updated_at = ? WHERE id = ? AND status = ?`,
		to, formatTime(time.Now()), id, from,
	)
	if err != nil {
		return fmt.Errorf("transition %s -> %s: %w", from, to, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("transition rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("transition %s -> %s for %s: %w", from, to, id, ErrWrongState)
	}
	return nil
}

// ClaimNext atomically claims the oldest video in status from, moving it
// to status to, and returns it. Returns nil when nothing is claimable.
func (s *Store) ClaimNext(ctx context.Context, from, to Status) (*Video, error) {
	for {
		row := s.db.QueryRowContext(
			ctx,
			`SELECT id FROM videos WHERE status = ? ORDER BY created_at LIMIT 1`,
			from,
		)
		var id string
		err := row.Scan(&id)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		if err != nil {
			return nil, fmt.Errorf("peek next video: %w", err)
		}

		err = s.Transition(ctx, id, from, to)
		if errors.Is(err, ErrWrongState) {
			// Lost the race to another worker; look again.
			continue
		}
		if err != nil {
			return nil, err
		}
		return s.GetVideo(ctx, id)
	}
}

// MarkFailed records a terminal failure with the stage and reason.
func (s *Store) MarkFailed(ctx context.Context, id, stage, reason string) error {
	_, err := s.execWithRetry(
		ctx,
		`UPDATE videos SET status = ?, failed_stage = ?, error_message = ?, updated_at = ?
         WHERE id = ? AND status NOT IN (?, ?)`,
		StatusFailed, stage, reason, formatTime(time.Now()), id, StatusDone, StatusFailed,
	)
	if err != nil {
		return fmt.Errorf("mark failed: %w", err)
	}
	return nil
}

// RollbackInFlight resets every in-flight status to its last completed
// predecessor. Called once on startup so interrupted stages re-run.
func (s *Store) RollbackInFlight(ctx context.Context) (int64, error) {
	var total int64
	for from, to := range rollbackTransitions {
		res, err := s.execWithRetry(
			ctx,
			`UPDATE videos SET status = ?, updated_at = ? WHERE status = ?`,
			to, formatTime(time.Now()), from,
		)
		if err != nil {
			return total, fmt.Errorf("rollback %s: %w", from, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}
