package oracle

import (
	"strings"
	"testing"

	"clipline/internal/store"
)

func TestParseSelection(t *testing.T) {
	raw := "```json\n" + `{
  "segments": [
    {"start": 120.5, "end": 155.0, "hook": "Unexpected revelation", "confidence": 0.92},
    {"start": 200.0, "end": 235.0, "hook": "Shocking moment", "confidence": 0.88}
  ]
}` + "\n```"

	got, err := parseSelection(raw)
	if err != nil {
		t.Fatalf("parse selection: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(got))
	}
	if got[0].Start != 120.5 || got[0].End != 155.0 {
		t.Fatalf("wrong window: %+v", got[0])
	}
	if got[1].Confidence != 0.88 || got[1].Hook != "Shocking moment" {
		t.Fatalf("wrong candidate fields: %+v", got[1])
	}
}

func TestParseSelectionRejectsGarbage(t *testing.T) {
	for _, raw := range []string{"", "not json at all", `{"segments": []}`} {
		if _, err := parseSelection(raw); err == nil {
			t.Errorf("expected error for %q", raw)
		}
	}
}

func TestParseMetadataHashtagList(t *testing.T) {
	raw := `{
  "title": "You won't believe what happens next",
  "hashtags": ["#shorts", "viral", "#fyp"],
  "description": "A wild moment."
}`
	got, err := parseMetadata(raw)
	if err != nil {
		t.Fatalf("parse metadata: %v", err)
	}
	if got.Title != "You won't believe what happens next" {
		t.Fatalf("wrong title: %q", got.Title)
	}
	if len(got.Hashtags) != 3 || got.Hashtags[1] != "viral" {
		t.Fatalf("wrong hashtags: %v", got.Hashtags)
	}
}

func TestParseMetadataHashtagString(t *testing.T) {
	raw := `{"title": "A title", "hashtags": "#one, #two , three", "description": ""}`
	got, err := parseMetadata(raw)
	if err != nil {
		t.Fatalf("parse metadata: %v", err)
	}
	want := []string{"#one", "#two", "three"}
	if len(got.Hashtags) != len(want) {
		t.Fatalf("wrong hashtags: %v", got.Hashtags)
	}
	for i := range want {
		if got.Hashtags[i] != want[i] {
			t.Fatalf("hashtag %d: expected %q, got %q", i, want[i], got.Hashtags[i])
		}
	}
}

func TestParseMetadataMissingTitle(t *testing.T) {
	if _, err := parseMetadata(`{"hashtags": ["#a"]}`); err == nil {
		t.Fatal("expected error for missing title")
	}
}

func TestBuildSelectionPrompt(t *testing.T) {
	req := SelectionRequest{
		Segments: []store.TranscriptSegment{
			{Start: 0, End: 4.5, Text: "Welcome back."},
			{Start: 4.5, End: 9, Text: "Big news today."},
		},
		Intent:      "find funny moments",
		Duration:    9,
		MinDuration: 15,
		MaxDuration: 45,
		MaxClips:    3,
	}
	prompt := buildSelectionPrompt(req)
	for _, want := range []string{
		"[0.0s - 4.5s] Welcome back.",
		"find funny moments",
		"up to 3 non-overlapping segments (15-45 seconds each)",
		`"segments"`,
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestBuildSelectionPromptDefaultIntent(t *testing.T) {
	prompt := buildSelectionPrompt(SelectionRequest{MaxClips: 3, MinDuration: 15, MaxDuration: 45})
	if !strings.Contains(prompt, defaultIntent) {
		t.Error("expected default intent in prompt")
	}
}

func TestCleanJSONResponse(t *testing.T) {
	cases := map[string]string{
		"```json\n{\"a\":1}\n```": `{"a":1}`,
		"```\n{\"a\":1}\n```":     `{"a":1}`,
		`  {"a":1}  `:             `{"a":1}`,
	}
	for in, want := range cases {
		if got := cleanJSONResponse(in); got != want {
			t.Errorf("cleanJSONResponse(%q) = %q, want %q", in, got, want)
		}
	}
}
