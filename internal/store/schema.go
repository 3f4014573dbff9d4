package store

import "context"

const schemaSQL = `
CREATE TABLE IF NOT EXISTS videos (
    id               TEXT PRIMARY KEY,
    source_url       TEXT NOT NULL,
    intent_prompt    TEXT NOT NULL DEFAULT '',
    media_path       TEXT NOT NULL DEFAULT '',
    audio_path       TEXT NOT NULL DEFAULT '',
    duration_seconds REAL NOT NULL DEFAULT 0,
    status           TEXT NOT NULL,
    failed_stage     TEXT NOT NULL DEFAULT '',
    error_message    TEXT NOT NULL DEFAULT '',
    created_at       TEXT NOT NULL,
    updated_at       TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_videos_status ON videos(status);

CREATE TABLE IF NOT EXISTS transcripts (
    video_id      TEXT PRIMARY KEY REFERENCES videos(id),
    segments_json TEXT NOT NULL,
    created_at    TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS clips (
    id            TEXT NOT NULL,
    video_id      TEXT NOT NULL REFERENCES videos(id),
    ordinal       INTEGER NOT NULL,
    start_seconds REAL NOT NULL,
    end_seconds   REAL NOT NULL,
    score         REAL NOT NULL DEFAULT 0,
    rationale     TEXT NOT NULL DEFAULT '',
    aspect_ratio  TEXT NOT NULL DEFAULT '',
    crop_json     TEXT NOT NULL DEFAULT '',
    output_path   TEXT NOT NULL DEFAULT '',
    title         TEXT NOT NULL DEFAULT '',
    hashtags_json TEXT NOT NULL DEFAULT '[]',
    description   TEXT NOT NULL DEFAULT '',
    captions_json TEXT NOT NULL DEFAULT '[]',
    rendered      INTEGER NOT NULL DEFAULT 0,
    error_message TEXT NOT NULL DEFAULT '',
    created_at    TEXT NOT NULL,
    PRIMARY KEY (video_id, ordinal)
);
`

func (s *Store) initSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, schemaSQL)
	return err
}
