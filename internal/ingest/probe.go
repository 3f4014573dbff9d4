package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"clipline/internal/execx"
)

type ffprobeOutput struct {
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
	Streams []struct {
		CodecType string `json:"codec_type"`
		Width     int    `json:"width"`
		Height    int    `json:"height"`
	} `json:"streams"`
}

func probe(ctx context.Context, ffprobeBin, mediaPath string) (*ffprobeOutput, error) {
	res, err := execx.Run(ctx, ffprobeBin,
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		mediaPath,
	)
	if err != nil {
		return nil, fmt.Errorf("ffprobe %s: %w", mediaPath, err)
	}
	var out ffprobeOutput
	if err := json.Unmarshal([]byte(res.Stdout), &out); err != nil {
		return nil, fmt.Errorf("parse ffprobe output: %w", err)
	}
	return &out, nil
}

// ProbeDuration returns the media duration in seconds.
func ProbeDuration(ctx context.Context, ffprobeBin, mediaPath string) (float64, error) {
	out, err := probe(ctx, ffprobeBin, mediaPath)
	if err != nil {
		return 0, err
	}
	seconds, err := strconv.ParseFloat(out.Format.Duration, 64)
	if err != nil {
		return 0, fmt.Errorf("parse duration %q: %w", out.Format.Duration, err)
	}
	return seconds, nil
}

// ProbeDimensions returns the width and height of the first video
// stream.
func ProbeDimensions(ctx context.Context, ffprobeBin, mediaPath string) (width, height int, err error) {
	out, err := probe(ctx, ffprobeBin, mediaPath)
	if err != nil {
		return 0, 0, err
	}
	for _, stream := range out.Streams {
		if stream.CodecType == "video" && stream.Width > 0 && stream.Height > 0 {
			return stream.Width, stream.Height, nil
		}
	}
	return 0, 0, fmt.Errorf("no video stream in %s", mediaPath)
}
