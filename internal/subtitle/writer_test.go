package subtitle

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestFormatSRTTime(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{0, "00:00:00,000"},
		{1500 * time.Millisecond, "00:00:01,500"},
		{61 * time.Second, "00:01:01,000"},
		{3723*time.Second + 45*time.Millisecond, "01:02:03,045"},
		{-time.Second, "00:00:00,000"},
	}

	for _, tt := range tests {
		if got := formatSRTTime(tt.d); got != tt.want {
			t.Errorf("formatSRTTime(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}

func TestWrapForVertical(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		maxWords int
		maxChars int
		want     string
	}{
		{
			name: "empty",
			text: "   ",
			want: "",
		},
		{
			name:     "short line stays intact",
			text:     "hello world",
			maxWords: 4,
			maxChars: 30,
			want:     "hello world",
		},
		{
			name:     "breaks after max words",
			text:     "one two three four five six seven eight",
			maxWords: 4,
			maxChars: 30,
			want:     "one two three four\nfive six seven eight",
		},
		{
			name:     "breaks on char limit before word limit",
			text:     "supercalifragilistic expialidocious words here",
			maxWords: 4,
			maxChars: 30,
			want:     "supercalifragilistic expialidocious\nwords here",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := WrapForVertical(tt.text, tt.maxWords, tt.maxChars); got != tt.want {
				t.Errorf("WrapForVertical() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestWriteSRT(t *testing.T) {
	track := &Track{Entries: []Entry{
		{StartTime: 0, EndTime: 2 * time.Second, Text: "first cue"},
		{StartTime: 2 * time.Second, EndTime: 5 * time.Second, Text: "second\ncue"},
	}}

	path := filepath.Join(t.TempDir(), "out", "clip.srt")
	if err := WriteSRT(track, path); err != nil {
		t.Fatalf("WriteSRT: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read SRT: %v", err)
	}

	got := string(data)
	want := "1\n00:00:00,000 --> 00:00:02,000\nfirst cue\n\n" +
		"2\n00:00:02,000 --> 00:00:05,000\nsecond\ncue\n\n"
	if got != want {
		t.Errorf("SRT content = %q, want %q", got, want)
	}

	if !strings.HasSuffix(got, "\n\n") {
		t.Error("SRT file should end with a blank line")
	}
}
