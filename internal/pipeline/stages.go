package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"clipline/internal/config"
	"clipline/internal/logging"
	"clipline/internal/store"
)

// MediaInfo is what a fetch produces: the downloaded media file, the
// extracted speech audio, and the probed duration.
type MediaInfo struct {
	MediaPath       string
	AudioPath       string
	DurationSeconds float64
}

// Fetcher downloads source media and prepares its audio track.
type Fetcher interface {
	Fetch(ctx context.Context, video *store.Video) (*MediaInfo, error)
}

// Transcriber produces the normalized, timestamped transcript for a
// downloaded video.
type Transcriber interface {
	Transcribe(ctx context.Context, video *store.Video) ([]store.TranscriptSegment, error)
}

// Planner turns a transcript into a validated, non-overlapping clip
// plan ordered by score.
type Planner interface {
	Plan(ctx context.Context, video *store.Video, segments []store.TranscriptSegment) ([]*store.Clip, error)
}

// Renderer cuts, crops and burns captions for one planned clip. On
// success it fills the clip's crop, captions, output path and rendered
// flag.
type Renderer interface {
	Render(ctx context.Context, video *store.Video, clip *store.Clip, segments []store.TranscriptSegment) error
}

// Captioner generates title, hashtags and description for a rendered
// clip, filling the clip in place.
type Captioner interface {
	Compose(ctx context.Context, video *store.Video, clip *store.Clip) error
}

// IngestStage builds the queued -> downloaded handler.
func IngestStage(st *store.Store, cfg *config.Config, logger *logging.Logger, fetcher Fetcher) StageFunc {
	policy := RetryPolicyFromConfig(cfg)
	log := logging.WithComponent(logger, "ingest")
	return func(ctx context.Context, video *store.Video) error {
		var info *MediaInfo
		err := Retry(ctx, policy, log, "fetch", func(ctx context.Context) error {
			// Per-attempt deadline, so a timed-out download is retried
			// rather than killing the whole stage.
			fetchCtx, cancel := context.WithTimeout(ctx, cfg.DownloadTimeout())
			defer cancel()
			fetched, fetchErr := fetcher.Fetch(fetchCtx, video)
			if fetchErr != nil {
				return fetchErr
			}
			info = fetched
			return nil
		})
		if err != nil {
			return stageError(ErrIngest, err)
		}

		video.MediaPath = info.MediaPath
		video.AudioPath = info.AudioPath
		video.DurationSeconds = info.DurationSeconds
		if err := st.UpdateVideo(ctx, video); err != nil {
			return stageError(ErrIngest, err)
		}
		log.Infow("media ready",
			"video_id", video.ID,
			"media", info.MediaPath,
			"duration_seconds", info.DurationSeconds,
		)
		return nil
	}
}

// TranscribeStage builds the downloaded -> transcribed handler.
func TranscribeStage(st *store.Store, cfg *config.Config, logger *logging.Logger, transcriber Transcriber) StageFunc {
	policy := RetryPolicyFromConfig(cfg)
	log := logging.WithComponent(logger, "transcribe")
	return func(ctx context.Context, video *store.Video) error {
		var segments []store.TranscriptSegment
		err := Retry(ctx, policy, log, "transcribe", func(ctx context.Context) error {
			trCtx, cancel := context.WithTimeout(ctx, cfg.TranscribeTimeout())
			defer cancel()
			got, trErr := transcriber.Transcribe(trCtx, video)
			if trErr != nil {
				return trErr
			}
			segments = got
			return nil
		})
		if err != nil {
			return stageError(ErrTranscription, err)
		}
		if err := st.SaveTranscript(ctx, video.ID, segments); err != nil {
			return stageError(ErrTranscription, err)
		}
		log.Infow("transcript ready", "video_id", video.ID, "segments", len(segments))
		return nil
	}
}

// ProcessStage builds the transcribed -> done handler: clip selection,
// parallel rendering and caption generation. It performs the internal
// selecting -> extracting transition once the clip plan is persisted.
func ProcessStage(st *store.Store, cfg *config.Config, logger *logging.Logger, planner Planner, renderer Renderer, captioner Captioner) StageFunc {
	policy := RetryPolicyFromConfig(cfg)
	log := logging.WithComponent(logger, "process")
	return func(ctx context.Context, video *store.Video) error {
		segments, err := st.GetTranscript(ctx, video.ID)
		if err != nil {
			return stageError(ErrSelection, err)
		}
		if len(segments) == 0 {
			return stageError(ErrSelection, errors.New("no transcript stored"))
		}

		// A crashed earlier attempt may have left a partial clip set;
		// remove it so the fresh plan is the only one on record.
		if err := st.DeleteClips(ctx, video.ID); err != nil {
			return stageError(ErrSelection, err)
		}

		var clips []*store.Clip
		err = Retry(ctx, policy, log, "select", func(ctx context.Context) error {
			oracleCtx, cancel := context.WithTimeout(ctx, cfg.OracleTimeout())
			defer cancel()
			planned, planErr := planner.Plan(oracleCtx, video, segments)
			if planErr != nil {
				return planErr
			}
			clips = planned
			return nil
		})
		if err != nil {
			return stageError(ErrSelection, err)
		}
		if len(clips) == 0 {
			return stageError(ErrSelection, errors.New("no usable clip candidates"))
		}

		for i, clip := range clips {
			clip.ID = uuid.NewString()
			clip.VideoID = video.ID
			clip.Ordinal = i + 1
			if err := st.SaveClip(ctx, clip); err != nil {
				return stageError(ErrSelection, err)
			}
		}
		log.Infow("clip plan ready", "video_id", video.ID, "clips", len(clips))

		if err := st.Transition(ctx, video.ID, store.StatusSelecting, store.StatusExtracting); err != nil {
			return stageError(ErrSelection, err)
		}

		if err := renderAll(ctx, st, cfg, log, renderer, captioner, video, clips, segments); err != nil {
			return err
		}
		return nil
	}
}

// renderAll fans clip renders out under the shared worker bound. A clip
// that fails to render keeps its row with the error recorded; the stage
// fails only when every clip does.
func renderAll(ctx context.Context, st *store.Store, cfg *config.Config, log *logging.Logger, renderer Renderer, captioner Captioner, video *store.Video, clips []*store.Clip, segments []store.TranscriptSegment) error {
	parallel := cfg.Workflow.Workers
	if parallel < 1 {
		parallel = 1
	}
	sem := make(chan struct{}, parallel)

	var wg sync.WaitGroup
	for _, clip := range clips {
		wg.Add(1)
		go func(clip *store.Clip) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			renderOne(ctx, st, cfg, log, renderer, captioner, video, clip, segments)
		}(clip)
	}
	wg.Wait()

	if ctx.Err() != nil {
		return ctx.Err()
	}

	rendered := 0
	for _, clip := range clips {
		if clip.Rendered {
			rendered++
		}
	}
	if rendered == 0 {
		return stageError(ErrExtraction, errors.New("every clip render failed"))
	}
	log.Infow("clips rendered", "video_id", video.ID, "rendered", rendered, "planned", len(clips))
	return nil
}

func renderOne(ctx context.Context, st *store.Store, cfg *config.Config, log *logging.Logger, renderer Renderer, captioner Captioner, video *store.Video, clip *store.Clip, segments []store.TranscriptSegment) {
	encodeCtx, cancel := context.WithTimeout(ctx, cfg.EncodeTimeout())
	defer cancel()

	if err := renderer.Render(encodeCtx, video, clip, segments); err != nil {
		clip.Rendered = false
		clip.ErrorMessage = err.Error()
		log.Errorw("clip render failed", "video_id", video.ID, "ordinal", clip.Ordinal, "error", err)
	} else if capErr := composeCaptions(ctx, cfg, captioner, video, clip); capErr != nil {
		// The rendered file is kept; the clip just ships without
		// generated metadata.
		clip.ErrorMessage = capErr.Error()
		log.Warnw("caption generation failed", "video_id", video.ID, "ordinal", clip.Ordinal, "error", capErr)
	}

	if err := st.SaveClip(context.Background(), clip); err != nil {
		log.Errorw("persist clip failed", "video_id", video.ID, "ordinal", clip.Ordinal, "error", err)
	}
}

func composeCaptions(ctx context.Context, cfg *config.Config, captioner Captioner, video *store.Video, clip *store.Clip) error {
	oracleCtx, cancel := context.WithTimeout(ctx, cfg.OracleTimeout())
	defer cancel()
	if err := captioner.Compose(oracleCtx, video, clip); err != nil {
		return stageError(ErrCaption, err)
	}
	return nil
}

// stageError tags err with the stage sentinel unless it already carries
// one of the taxonomy sentinels.
func stageError(sentinel, err error) error {
	for _, known := range []error{ErrIngest, ErrTranscription, ErrSelection, ErrExtraction, ErrCaption} {
		if errors.Is(err, known) {
			return err
		}
	}
	return fmt.Errorf("%w: %w", sentinel, err)
}
