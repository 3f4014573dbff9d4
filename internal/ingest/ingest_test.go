package ingest

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestClassifyDownloadError(t *testing.T) {
	cases := []struct {
		name      string
		err       error
		permanent bool
	}{
		{"nil", nil, false},
		{"private", errors.New("ERROR: [youtube] abc: Private video. Sign in if you've been granted access"), true},
		{"unavailable", errors.New("ERROR: [youtube] abc: Video unavailable"), true},
		{"removed", errors.New("this video has been removed by the uploader"), true},
		{"age wall", errors.New("Sign in to confirm your age. This video may be inappropriate"), true},
		{"not found", errors.New("HTTP Error 404: Not Found"), true},
		{"network", errors.New("Unable to download webpage: <urlopen error timed out>"), false},
		{"rate limited", errors.New("HTTP Error 429: Too Many Requests"), false},
		{"server error", errors.New("HTTP Error 503: Service Unavailable"), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := classifyDownloadError(tc.err)
			if tc.permanent && got == nil {
				t.Fatalf("expected permanent classification for %v", tc.err)
			}
			if !tc.permanent && got != nil {
				t.Fatalf("expected retryable classification for %v, got %v", tc.err, got)
			}
		})
	}
}

func TestFindDownloaded(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"abc123def456.wav", "abc123def456.mp4.part", "other000000.mp4"} {
		if err := os.WriteFile(filepath.Join(dir, name), nil, 0o644); err != nil {
			t.Fatal(err)
		}
	}

	if _, err := findDownloaded(dir, "abc123def456"); err == nil {
		t.Fatal("expected no match when only wav and partials exist")
	}

	want := filepath.Join(dir, "abc123def456.mp4")
	if err := os.WriteFile(want, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	got, err := findDownloaded(dir, "abc123def456")
	if err != nil {
		t.Fatalf("find downloaded: %v", err)
	}
	if got != want {
		t.Fatalf("expected %s, got %s", want, got)
	}
}
