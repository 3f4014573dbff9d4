package transcribe

import (
	"testing"

	"clipline/internal/store"
)

func seg(start, end float64, text string) store.TranscriptSegment {
	return store.TranscriptSegment{Start: start, End: end, Text: text}
}

func assertOrderedNonOverlapping(t *testing.T, segments []store.TranscriptSegment) {
	t.Helper()
	for i := 1; i < len(segments); i++ {
		if segments[i].Start < segments[i-1].End {
			t.Errorf("segments %d and %d overlap: %+v %+v", i-1, i, segments[i-1], segments[i])
		}
	}
	for i, s := range segments {
		if s.Text == "" {
			t.Errorf("segment %d has empty text", i)
		}
		if s.End <= s.Start {
			t.Errorf("segment %d has non-positive span: %+v", i, s)
		}
	}
}

func TestNormalizeSentenceGrouping(t *testing.T) {
	raw := []store.TranscriptSegment{
		seg(0, 2, "So today we are"),
		seg(2, 4, "going to try something new."),
		seg(4, 7, "Watch this!"),
	}
	got := Normalize(raw, 10)
	if len(got) != 2 {
		t.Fatalf("expected 2 sentence segments, got %d: %+v", len(got), got)
	}
	if got[0].Text != "So today we are going to try something new." {
		t.Fatalf("unexpected grouped text: %q", got[0].Text)
	}
	if got[0].Start != 0 || got[0].End != 4 {
		t.Fatalf("grouped segment has wrong span: %+v", got[0])
	}
	assertOrderedNonOverlapping(t, got)
}

func TestNormalizeDropsEmptyAndClamps(t *testing.T) {
	raw := []store.TranscriptSegment{
		seg(-1, 2, "Starts early."),
		seg(2, 4, "   "),
		seg(4, 20, "Runs past the end."),
		seg(25, 30, "Entirely past the end."),
	}
	got := Normalize(raw, 10)
	if len(got) != 2 {
		t.Fatalf("expected 2 segments, got %d: %+v", len(got), got)
	}
	if got[0].Start != 0 {
		t.Fatalf("expected clamp to 0, got %f", got[0].Start)
	}
	if got[len(got)-1].End != 10 {
		t.Fatalf("expected clamp to duration, got %f", got[len(got)-1].End)
	}
	assertOrderedNonOverlapping(t, got)
}

func TestNormalizeResolvesOverlaps(t *testing.T) {
	raw := []store.TranscriptSegment{
		seg(0, 5, "First sentence here."),
		seg(3, 8, "Second one overlapping."),
	}
	got := Normalize(raw, 10)
	if len(got) != 2 {
		t.Fatalf("expected 2 segments, got %d: %+v", len(got), got)
	}
	if got[1].Start != got[0].End {
		t.Fatalf("overlap not resolved: %+v", got)
	}
	assertOrderedNonOverlapping(t, got)
}

func TestNormalizeAbsorbsLongSilence(t *testing.T) {
	raw := []store.TranscriptSegment{
		seg(0, 2, "Before the pause."),
		seg(6, 8, "After the pause."),
	}
	got := Normalize(raw, 10)
	if len(got) != 2 {
		t.Fatalf("expected 2 segments, got %d", len(got))
	}
	if got[0].End != got[1].Start {
		t.Fatalf("long silence not absorbed: %+v", got)
	}

	// Small gaps are genuine pacing, not silence; they stay.
	raw = []store.TranscriptSegment{
		seg(0, 2, "Quick beat."),
		seg(2.5, 4, "Right after."),
	}
	got = Normalize(raw, 10)
	if got[0].End != 2 {
		t.Fatalf("short gap should be preserved: %+v", got)
	}
}

func TestNormalizeCoversLeadingAndTrailingSilence(t *testing.T) {
	raw := []store.TranscriptSegment{
		seg(10, 14, "Speech starts late."),
		seg(14, 20, "And stops well before the end."),
	}
	got := Normalize(raw, 60)
	if len(got) != 2 {
		t.Fatalf("expected 2 segments, got %d: %+v", len(got), got)
	}
	if got[0].Start != 0 {
		t.Fatalf("leading silence uncovered: first segment starts at %f, want 0", got[0].Start)
	}
	if got[len(got)-1].End != 60 {
		t.Fatalf("trailing silence uncovered: last segment ends at %f, want 60", got[len(got)-1].End)
	}
	assertOrderedNonOverlapping(t, got)

	// A sub-tolerance lead-in is pacing, not a coverage gap.
	got = Normalize([]store.TranscriptSegment{seg(0.5, 4, "Almost immediate.")}, 4)
	if got[0].Start != 0.5 {
		t.Fatalf("short lead-in should be preserved: %+v", got)
	}
}

func TestNormalizeUnsortedInput(t *testing.T) {
	raw := []store.TranscriptSegment{
		seg(6, 9, "Comes second."),
		seg(0, 3, "Comes first."),
	}
	got := Normalize(raw, 10)
	if len(got) != 2 || got[0].Text != "Comes first." {
		t.Fatalf("expected sorted output, got %+v", got)
	}
	assertOrderedNonOverlapping(t, got)
}

func TestNormalizeEmpty(t *testing.T) {
	if got := Normalize(nil, 10); len(got) != 0 {
		t.Fatalf("expected empty output, got %+v", got)
	}
}
