// Package ingest downloads source media with yt-dlp and prepares the
// speech audio track the transcriber consumes.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	ffmpeg "github.com/u2takey/ffmpeg-go"

	"clipline/internal/config"
	"clipline/internal/execx"
	"clipline/internal/logging"
	"clipline/internal/pipeline"
	"clipline/internal/store"
)

// Ingestor implements the fetch stage over the yt-dlp and ffmpeg
// binaries.
type Ingestor struct {
	cfg *config.Config
	log *logging.Logger
}

// New returns an Ingestor bound to the configured binaries and paths.
func New(cfg *config.Config, logger *logging.Logger) *Ingestor {
	return &Ingestor{cfg: cfg, log: logging.WithComponent(logger, "ingest")}
}

// Fetch downloads the video's source URL, extracts a mono 16 kHz WAV
// for transcription, and probes the media duration. Download targets
// are derived from the video ID, so a re-run overwrites rather than
// duplicates.
func (i *Ingestor) Fetch(ctx context.Context, video *store.Video) (*pipeline.MediaInfo, error) {
	mediaDir := i.cfg.MediaDir()
	if err := os.MkdirAll(mediaDir, 0o755); err != nil {
		return nil, fmt.Errorf("create media dir: %w", err)
	}

	if err := i.download(ctx, video, mediaDir); err != nil {
		return nil, err
	}

	mediaPath, err := findDownloaded(mediaDir, video.ID)
	if err != nil {
		return nil, err
	}

	audioPath := filepath.Join(mediaDir, video.ID+".wav")
	if err := i.extractAudio(ctx, mediaPath, audioPath); err != nil {
		return nil, err
	}

	duration, err := ProbeDuration(ctx, i.cfg.Render.FFprobeBinary, mediaPath)
	if err != nil {
		return nil, err
	}

	return &pipeline.MediaInfo{
		MediaPath:       mediaPath,
		AudioPath:       audioPath,
		DurationSeconds: duration,
	}, nil
}

// download runs yt-dlp with the primary format profile and falls back
// to the lower-quality profile with an alternate player client when the
// first attempt looks retryable. Permanent refusals (private, removed,
// age-walled) surface immediately.
func (i *Ingestor) download(ctx context.Context, video *store.Video, mediaDir string) error {
	template := filepath.Join(mediaDir, video.ID+".%(ext)s")

	primaryArgs := []string{
		"-f", i.cfg.Ingest.FormatPrimary,
		"-o", template,
		"--no-playlist",
		"--no-progress",
		video.SourceURL,
	}
	_, err := execx.Run(ctx, i.cfg.Ingest.YtDlpBinary, primaryArgs...)
	if err == nil {
		return nil
	}
	if perm := classifyDownloadError(err); perm != nil {
		return perm
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	i.log.Warnw("primary download failed, trying fallback profile",
		"video_id", video.ID, "error", err)

	fallbackArgs := []string{
		"-f", i.cfg.Ingest.FormatFallback,
		"-o", template,
		"--no-playlist",
		"--no-progress",
		"--extractor-args", "youtube:player_client=android",
		video.SourceURL,
	}
	_, err = execx.Run(ctx, i.cfg.Ingest.YtDlpBinary, fallbackArgs...)
	if err == nil {
		return nil
	}
	if perm := classifyDownloadError(err); perm != nil {
		return perm
	}
	return pipeline.Transient(fmt.Errorf("download %s: %w", video.SourceURL, err))
}

// permanentMarkers are yt-dlp messages that no amount of retrying will
// fix.
var permanentMarkers = []string{
	"private video",
	"video unavailable",
	"this video is not available",
	"has been removed",
	"account associated with this video has been terminated",
	"sign in to confirm your age",
	"age-restricted",
	"unsupported url",
	"http error 404",
	"http error 410",
}

// classifyDownloadError returns a permanent error for unrecoverable
// yt-dlp failures and nil for anything worth retrying.
func classifyDownloadError(err error) error {
	if err == nil {
		return nil
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range permanentMarkers {
		if strings.Contains(msg, marker) {
			return fmt.Errorf("source rejected: %w", err)
		}
	}
	return nil
}

// findDownloaded locates the file yt-dlp produced for a video ID. The
// output template fixes the stem but the extension depends on the
// selected format.
func findDownloaded(mediaDir, videoID string) (string, error) {
	matches, err := filepath.Glob(filepath.Join(mediaDir, videoID+".*"))
	if err != nil {
		return "", fmt.Errorf("scan media dir: %w", err)
	}
	for _, match := range matches {
		switch filepath.Ext(match) {
		case ".wav", ".part", ".ytdl":
			continue
		}
		return match, nil
	}
	return "", errors.New("downloaded media file not found for " + videoID)
}

// extractAudio produces the mono 16 kHz WAV the transcription API
// expects.
func (i *Ingestor) extractAudio(ctx context.Context, mediaPath, audioPath string) error {
	cmd := ffmpeg.Input(mediaPath).
		Output(audioPath, ffmpeg.KwArgs{
			"vn":     "",
			"acodec": "pcm_s16le",
			"ar":     16000,
			"ac":     1,
		}).
		OverWriteOutput().
		SetFfmpegPath(i.cfg.Render.FFmpegBinary).
		Compile()

	if _, err := execx.RunCmd(ctx, cmd); err != nil {
		_ = os.Remove(audioPath)
		return fmt.Errorf("extract audio: %w", err)
	}
	return nil
}
