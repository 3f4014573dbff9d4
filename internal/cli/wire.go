package cli

import (
	"context"
	"fmt"

	"clipline/internal/caption"
	"clipline/internal/config"
	"clipline/internal/execx"
	"clipline/internal/extract"
	"clipline/internal/ingest"
	"clipline/internal/logging"
	"clipline/internal/oracle"
	"clipline/internal/pipeline"
	"clipline/internal/selector"
	"clipline/internal/store"
	"clipline/internal/transcribe"
)

// binaryRequirements lists the external tools the pipeline shells out
// to.
func binaryRequirements(cfg *config.Config) []execx.Requirement {
	return []execx.Requirement{
		{Name: "yt-dlp", Command: cfg.Ingest.YtDlpBinary},
		{Name: "ffmpeg", Command: cfg.Render.FFmpegBinary},
		{Name: "ffprobe", Command: cfg.Render.FFprobeBinary},
	}
}

// buildHandlers assembles the stage implementations behind the manager.
func buildHandlers(ctx context.Context, cfg *config.Config, logger *logging.Logger, st *store.Store) (pipeline.Handlers, error) {
	o, err := oracle.New(ctx, cfg)
	if err != nil {
		return pipeline.Handlers{}, fmt.Errorf("oracle: %w", err)
	}
	transcriber, err := transcribe.New(cfg, logger)
	if err != nil {
		return pipeline.Handlers{}, fmt.Errorf("transcriber: %w", err)
	}

	return pipeline.Handlers{
		Ingest:     pipeline.IngestStage(st, cfg, logger, ingest.New(cfg, logger)),
		Transcribe: pipeline.TranscribeStage(st, cfg, logger, transcriber),
		Process: pipeline.ProcessStage(st, cfg, logger,
			selector.New(o, cfg, logger),
			extract.New(cfg, logger),
			caption.New(o, cfg, logger),
		),
	}, nil
}
