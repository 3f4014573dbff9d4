// Package extract renders planned clips: crop to the target aspect,
// scale, burn captions, and encode for short-form platforms.
package extract

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	ffmpeg "github.com/u2takey/ffmpeg-go"

	"clipline/internal/config"
	"clipline/internal/execx"
	"clipline/internal/ingest"
	"clipline/internal/logging"
	"clipline/internal/store"
	"clipline/internal/subtitle"
)

// Extractor renders clips with ffmpeg.
type Extractor struct {
	cfg *config.Config
	log *logging.Logger

	// runCmd is swappable so tests can intercept the encoder call.
	runCmd func(ctx context.Context, cmd *exec.Cmd) (*execx.Result, error)
}

// New returns an Extractor.
func New(cfg *config.Config, logger *logging.Logger) *Extractor {
	return &Extractor{
		cfg:    cfg,
		log:    logging.WithComponent(logger, "extract"),
		runCmd: execx.RunCmd,
	}
}

// Render cuts the clip window out of the source, crops and scales it to
// the configured output geometry, burns the clip captions, and encodes.
// On success the clip's crop, captions, output path and rendered flag
// are filled in; on failure any partial output file is removed.
func (e *Extractor) Render(ctx context.Context, video *store.Video, clip *store.Clip, segments []store.TranscriptSegment) error {
	outDir := e.cfg.ClipsDir(video.ID)
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("create clips dir: %w", err)
	}

	srcW, srcH, err := ingest.ProbeDimensions(ctx, e.cfg.Render.FFprobeBinary, video.MediaPath)
	if err != nil {
		return err
	}

	clip.Crop = CalculateCrop(srcW, srcH, e.cfg.Render.Width, e.cfg.Render.Height)

	clip.Captions = BuildCaptionCues(segments, clip.Start, clip.End)

	stem := fmt.Sprintf("%s_clip_%02d", video.ID, clip.Ordinal)
	outputPath := filepath.Join(outDir, stem+".mp4")
	srtPath := filepath.Join(outDir, stem+".srt")

	haveSubtitles := false
	if len(clip.Captions) > 0 {
		if err := subtitle.WriteSRT(cueTrack(clip.Captions), srtPath); err != nil {
			// Captions degrade, they do not block the render.
			e.log.Warnw("srt write failed, rendering without captions",
				"video_id", video.ID, "ordinal", clip.Ordinal, "error", err)
		} else {
			haveSubtitles = true
		}
	}

	cmd := e.buildCommand(video.MediaPath, outputPath, srtPath, clip, haveSubtitles)
	if _, err := e.runCmd(ctx, cmd); err != nil {
		_ = os.Remove(outputPath)
		return fmt.Errorf("render clip %d: %w", clip.Ordinal, err)
	}

	clip.OutputPath = outputPath
	clip.Rendered = true
	clip.ErrorMessage = ""
	e.log.Infow("clip rendered",
		"video_id", video.ID,
		"ordinal", clip.Ordinal,
		"output", outputPath,
		"duration_seconds", clip.Duration(),
	)
	return nil
}

func (e *Extractor) buildCommand(mediaPath, outputPath, srtPath string, clip *store.Clip, haveSubtitles bool) *exec.Cmd {
	render := e.cfg.Render

	filters := []string{
		fmt.Sprintf("crop=%d:%d:%d:%d", clip.Crop.Width, clip.Crop.Height, clip.Crop.X, clip.Crop.Y),
		fmt.Sprintf("scale=%d:%d", render.Width, render.Height),
	}
	if haveSubtitles {
		style := fmt.Sprintf(
			"FontName=%s,FontSize=%d,PrimaryColour=&HFFFFFF,OutlineColour=&H000000,Outline=2,Shadow=1,MarginV=%d,Alignment=2",
			render.FontName, render.FontSize, render.MarginV,
		)
		filters = append(filters, fmt.Sprintf("subtitles=%s:force_style='%s'", escapeFilterPath(srtPath), style))
	}

	// ss and t as output options: slower seek, frame-accurate cut.
	return ffmpeg.Input(mediaPath).
		Output(outputPath, ffmpeg.KwArgs{
			"ss":        clip.Start,
			"t":         clip.Duration(),
			"vf":        strings.Join(filters, ","),
			"c:v":       "libx264",
			"preset":    render.VideoPreset,
			"crf":       render.VideoCRF,
			"profile:v": "high",
			"pix_fmt":   "yuv420p",
			"c:a":       "aac",
			"b:a":       render.AudioBitrate,
			"movflags":  "+faststart",
		}).
		OverWriteOutput().
		SetFfmpegPath(render.FFmpegBinary).
		Compile()
}

// escapeFilterPath quotes characters the ffmpeg filter parser treats
// specially inside a filter argument.
func escapeFilterPath(path string) string {
	path = strings.ReplaceAll(path, `\`, `/`)
	path = strings.ReplaceAll(path, `:`, `\:`)
	path = strings.ReplaceAll(path, `'`, `\'`)
	return path
}
