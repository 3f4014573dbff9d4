package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "state.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestVideoIDFromURL(t *testing.T) {
	a := VideoIDFromURL("https://example.com/watch?v=abc")
	b := VideoIDFromURL("  https://example.com/watch?v=abc  ")
	if a != b {
		t.Fatalf("expected whitespace-insensitive ID, got %q vs %q", a, b)
	}
	if len(a) != 12 {
		t.Fatalf("expected 12-char ID, got %q", a)
	}
	if a == VideoIDFromURL("https://example.com/watch?v=other") {
		t.Fatal("distinct URLs produced the same ID")
	}
}

func TestCreateVideoIdempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	url := "https://example.com/watch?v=abc"
	id := VideoIDFromURL(url)

	v, created, err := s.CreateVideo(ctx, id, url, "funny moments")
	if err != nil {
		t.Fatalf("create video: %v", err)
	}
	if !created {
		t.Fatal("expected first create to insert")
	}
	if v.Status != StatusQueued {
		t.Fatalf("expected queued, got %s", v.Status)
	}

	if err := s.Transition(ctx, id, StatusQueued, StatusDownloading); err != nil {
		t.Fatalf("transition: %v", err)
	}

	again, created, err := s.CreateVideo(ctx, id, url, "different prompt")
	if err != nil {
		t.Fatalf("re-create video: %v", err)
	}
	if created {
		t.Fatal("expected re-import to be a no-op")
	}
	if again.Status != StatusDownloading {
		t.Fatalf("re-import must not reset status, got %s", again.Status)
	}
	if again.IntentPrompt != "funny moments" {
		t.Fatalf("re-import must not overwrite prompt, got %q", again.IntentPrompt)
	}
}

func TestTransitionGuard(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id := VideoIDFromURL("https://example.com/a")
	if _, _, err := s.CreateVideo(ctx, id, "https://example.com/a", ""); err != nil {
		t.Fatalf("create video: %v", err)
	}

	if err := s.Transition(ctx, id, StatusQueued, StatusDownloading); err != nil {
		t.Fatalf("first transition: %v", err)
	}
	err := s.Transition(ctx, id, StatusQueued, StatusDownloading)
	if !errors.Is(err, ErrWrongState) {
		t.Fatalf("expected ErrWrongState on stale transition, got %v", err)
	}
}

func TestClaimNext(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first := VideoIDFromURL("https://example.com/first")
	second := VideoIDFromURL("https://example.com/second")
	for _, pair := range [][2]string{
		{first, "https://example.com/first"},
		{second, "https://example.com/second"},
	} {
		if _, _, err := s.CreateVideo(ctx, pair[0], pair[1], ""); err != nil {
			t.Fatalf("create video: %v", err)
		}
	}

	claimed, err := s.ClaimNext(ctx, StatusQueued, StatusDownloading)
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if claimed == nil || claimed.ID != first {
		t.Fatalf("expected oldest video %s, got %+v", first, claimed)
	}
	if claimed.Status != StatusDownloading {
		t.Fatalf("expected claimed status downloading, got %s", claimed.Status)
	}

	claimed, err = s.ClaimNext(ctx, StatusQueued, StatusDownloading)
	if err != nil {
		t.Fatalf("second claim: %v", err)
	}
	if claimed == nil || claimed.ID != second {
		t.Fatalf("expected second video, got %+v", claimed)
	}

	claimed, err = s.ClaimNext(ctx, StatusQueued, StatusDownloading)
	if err != nil {
		t.Fatalf("empty claim: %v", err)
	}
	if claimed != nil {
		t.Fatalf("expected nil on empty queue, got %+v", claimed)
	}
}

func TestRollbackInFlight(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	cases := []struct {
		url  string
		set  Status
		want Status
	}{
		{"https://example.com/1", StatusDownloading, StatusQueued},
		{"https://example.com/2", StatusTranscribing, StatusDownloaded},
		{"https://example.com/3", StatusSelecting, StatusTranscribed},
		{"https://example.com/4", StatusExtracting, StatusTranscribed},
		{"https://example.com/5", StatusDone, StatusDone},
		{"https://example.com/6", StatusFailed, StatusFailed},
	}
	for _, tc := range cases {
		id := VideoIDFromURL(tc.url)
		v, _, err := s.CreateVideo(ctx, id, tc.url, "")
		if err != nil {
			t.Fatalf("create video: %v", err)
		}
		v.Status = tc.set
		if err := s.UpdateVideo(ctx, v); err != nil {
			t.Fatalf("seed status: %v", err)
		}
	}

	n, err := s.RollbackInFlight(ctx)
	if err != nil {
		t.Fatalf("rollback: %v", err)
	}
	if n != 4 {
		t.Fatalf("expected 4 rollbacks, got %d", n)
	}

	for _, tc := range cases {
		v, err := s.GetVideo(ctx, VideoIDFromURL(tc.url))
		if err != nil {
			t.Fatalf("get video: %v", err)
		}
		if v.Status != tc.want {
			t.Errorf("%s: expected %s after rollback, got %s", tc.url, tc.want, v.Status)
		}
	}
}

func TestMarkFailedSkipsTerminal(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id := VideoIDFromURL("https://example.com/done")
	v, _, err := s.CreateVideo(ctx, id, "https://example.com/done", "")
	if err != nil {
		t.Fatalf("create video: %v", err)
	}
	v.Status = StatusDone
	if err := s.UpdateVideo(ctx, v); err != nil {
		t.Fatalf("seed done: %v", err)
	}

	if err := s.MarkFailed(ctx, id, "transcribe", "boom"); err != nil {
		t.Fatalf("mark failed: %v", err)
	}
	got, err := s.GetVideo(ctx, id)
	if err != nil {
		t.Fatalf("get video: %v", err)
	}
	if got.Status != StatusDone {
		t.Fatalf("done video must not regress to failed, got %s", got.Status)
	}
}

func TestTranscriptRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id := VideoIDFromURL("https://example.com/t")
	if _, _, err := s.CreateVideo(ctx, id, "https://example.com/t", ""); err != nil {
		t.Fatalf("create video: %v", err)
	}

	none, err := s.GetTranscript(ctx, id)
	if err != nil {
		t.Fatalf("get absent transcript: %v", err)
	}
	if none != nil {
		t.Fatalf("expected nil transcript, got %v", none)
	}

	segments := []TranscriptSegment{
		{Start: 0, End: 4.2, Text: "Welcome back to the channel."},
		{Start: 4.2, End: 9.8, Text: "Today we try something new."},
	}
	if err := s.SaveTranscript(ctx, id, segments); err != nil {
		t.Fatalf("save transcript: %v", err)
	}

	got, err := s.GetTranscript(ctx, id)
	if err != nil {
		t.Fatalf("get transcript: %v", err)
	}
	if len(got) != 2 || got[1].Text != segments[1].Text || got[0].End != segments[0].End {
		t.Fatalf("transcript mismatch: %+v", got)
	}
}

func TestClipPersistence(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id := VideoIDFromURL("https://example.com/c")
	if _, _, err := s.CreateVideo(ctx, id, "https://example.com/c", ""); err != nil {
		t.Fatalf("create video: %v", err)
	}

	clips := []*Clip{
		{
			ID:          uuid.NewString(),
			VideoID:     id,
			Ordinal:     1,
			Start:       10,
			End:         40,
			Score:       0.92,
			Rationale:   "strong hook",
			AspectRatio: "4:5",
			Crop:        CropRect{X: 240, Y: 0, Width: 864, Height: 1080},
			Hashtags:    []string{"#shorts", "#viral"},
			Captions:    []CaptionCue{{Start: 0, End: 3.5, Text: "check this out"}},
		},
		{
			ID:      uuid.NewString(),
			VideoID: id,
			Ordinal: 2,
			Start:   60,
			End:     90,
			Score:   0.81,
		},
	}
	for _, c := range clips {
		if err := s.SaveClip(ctx, c); err != nil {
			t.Fatalf("save clip %d: %v", c.Ordinal, err)
		}
	}

	got, err := s.ListClips(ctx, id)
	if err != nil {
		t.Fatalf("list clips: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 clips, got %d", len(got))
	}
	if got[0].Ordinal != 1 || got[1].Ordinal != 2 {
		t.Fatalf("clips out of order: %d, %d", got[0].Ordinal, got[1].Ordinal)
	}
	if got[0].Crop.Width != 864 {
		t.Fatalf("crop not persisted: %+v", got[0].Crop)
	}
	if len(got[0].Hashtags) != 2 || got[0].Hashtags[0] != "#shorts" {
		t.Fatalf("hashtags not persisted: %v", got[0].Hashtags)
	}
	if len(got[0].Captions) != 1 || got[0].Captions[0].Text != "check this out" {
		t.Fatalf("captions not persisted: %v", got[0].Captions)
	}

	// Re-saving an ordinal replaces, not duplicates.
	clips[0].Rendered = true
	clips[0].OutputPath = "/tmp/clip_1.mp4"
	if err := s.SaveClip(ctx, clips[0]); err != nil {
		t.Fatalf("re-save clip: %v", err)
	}
	got, err = s.ListClips(ctx, id)
	if err != nil {
		t.Fatalf("list clips: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected replace, got %d clips", len(got))
	}
	if !got[0].Rendered || got[0].OutputPath != "/tmp/clip_1.mp4" {
		t.Fatalf("clip update lost: %+v", got[0])
	}

	if err := s.DeleteClips(ctx, id); err != nil {
		t.Fatalf("delete clips: %v", err)
	}
	got, err = s.ListClips(ctx, id)
	if err != nil {
		t.Fatalf("list after delete: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected no clips after delete, got %d", len(got))
	}
}
