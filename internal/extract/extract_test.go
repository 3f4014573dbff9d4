package extract

import (
	"testing"

	"clipline/internal/store"
)

func TestCalculateCropLandscapeCentered(t *testing.T) {
	// 1920x1080 source to 4:5 target: keep height, center horizontally.
	got := CalculateCrop(1920, 1080, 1080, 1350)
	want := store.CropRect{X: 528, Y: 0, Width: 864, Height: 1080}
	if got != want {
		t.Fatalf("expected %+v, got %+v", want, got)
	}
}

func TestCalculateCropPortraitSource(t *testing.T) {
	// 1080x1920 source to 4:5 target: keep width, crop vertically.
	got := CalculateCrop(1080, 1920, 1080, 1350)
	want := store.CropRect{X: 0, Y: 285, Width: 1080, Height: 1350}
	if got != want {
		t.Fatalf("expected %+v, got %+v", want, got)
	}
}

func TestBuildCaptionCues(t *testing.T) {
	segments := []store.TranscriptSegment{
		{Start: 5, End: 12, Text: "Before the clip."},
		{Start: 20, End: 28, Text: "First line inside."},
		{Start: 28, End: 45, Text: "Runs past the clip end."},
		{Start: 40, End: 50, Text: "Starts at the boundary check."},
	}

	cues := BuildCaptionCues(segments, 20, 40)
	if len(cues) != 2 {
		t.Fatalf("expected 2 cues, got %d: %+v", len(cues), cues)
	}
	if cues[0].Start != 0 || cues[0].End != 8 {
		t.Fatalf("first cue not rebased: %+v", cues[0])
	}
	if cues[1].Start != 8 || cues[1].End != 20 {
		t.Fatalf("second cue should clamp to the clip end: %+v", cues[1])
	}
}

func TestBuildCaptionCuesHalfOpenWindow(t *testing.T) {
	segments := []store.TranscriptSegment{
		{Start: 40, End: 50, Text: "Starts exactly at end."},
	}
	if cues := BuildCaptionCues(segments, 20, 40); len(cues) != 0 {
		t.Fatalf("segment starting at the window end must be excluded, got %+v", cues)
	}
	if cues := BuildCaptionCues(segments, 40, 60); len(cues) != 1 {
		t.Fatalf("segment starting at the window start must be included")
	}
}

func TestEscapeFilterPath(t *testing.T) {
	got := escapeFilterPath(`/data/clips/it's:here.srt`)
	want := `/data/clips/it\'s\:here.srt`
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}
