package store

import (
	"crypto/sha1"
	"encoding/hex"
	"strings"
	"time"
)

// Status represents the lifecycle of an ingested video.
type Status string

const (
	StatusQueued       Status = "queued"
	StatusDownloading  Status = "downloading"
	StatusDownloaded   Status = "downloaded"
	StatusTranscribing Status = "transcribing"
	StatusTranscribed  Status = "transcribed"
	StatusSelecting    Status = "selecting"
	StatusExtracting   Status = "extracting"
	StatusDone         Status = "done"
	StatusFailed       Status = "failed"
)

// CancelledReason is the failure reason recorded for user-requested cancels.
const CancelledReason = "cancelled"

var allStatuses = []Status{
	StatusQueued,
	StatusDownloading,
	StatusDownloaded,
	StatusTranscribing,
	StatusTranscribed,
	StatusSelecting,
	StatusExtracting,
	StatusDone,
	StatusFailed,
}

var processingStatuses = map[Status]struct{}{
	StatusDownloading:  {},
	StatusTranscribing: {},
	StatusSelecting:    {},
	StatusExtracting:   {},
}

// rollbackTransitions map an in-flight status back to the last durably
// completed one. Applied on daemon start so an interrupted stage re-runs
// instead of stranding the video.
var rollbackTransitions = map[Status]Status{
	StatusDownloading:  StatusQueued,
	StatusTranscribing: StatusDownloaded,
	StatusSelecting:    StatusTranscribed,
	StatusExtracting:   StatusTranscribed,
}

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	for _, s := range allStatuses {
		if s == normalized {
			return s, true
		}
	}
	return "", false
}

// IsProcessing reports whether the status reflects an in-flight stage.
func (s Status) IsProcessing() bool {
	_, ok := processingStatuses[s]
	return ok
}

// IsTerminal reports whether no further stage may run.
func (s Status) IsTerminal() bool {
	return s == StatusDone || s == StatusFailed
}

// Video is one ingested source, the unit the pipeline advances.
type Video struct {
	ID              string
	SourceURL       string
	IntentPrompt    string
	MediaPath       string
	AudioPath       string
	DurationSeconds float64
	Status          Status
	FailedStage     string
	ErrorMessage    string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// SetFailed marks the video failed at the given stage.
func (v *Video) SetFailed(stage, reason string) {
	v.Status = StatusFailed
	v.FailedStage = stage
	v.ErrorMessage = reason
}

// TranscriptSegment is one timed span of transcript text. Times are
// absolute seconds within the source video.
type TranscriptSegment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// CropRect is the source-pixel window extracted before scaling.
type CropRect struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// CaptionCue is a clip-relative caption span persisted with the clip.
type CaptionCue struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// Clip is one finalized output of the pipeline.
type Clip struct {
	ID           string
	VideoID      string
	Ordinal      int
	Start        float64
	End          float64
	Score        float64
	Rationale    string
	AspectRatio  string
	Crop         CropRect
	OutputPath   string
	Title        string
	Hashtags     []string
	Description  string
	Captions     []CaptionCue
	Rendered     bool
	ErrorMessage string
	CreatedAt    time.Time
}

// Duration of the clip in seconds.
func (c *Clip) Duration() float64 { return c.End - c.Start }

// VideoIDFromURL derives the stable video identifier from a source URL.
// The identifier is content-addressed so re-importing the same URL lands
// on the same record and asset paths.
func VideoIDFromURL(url string) string {
	sum := sha1.Sum([]byte(strings.TrimSpace(url)))
	return hex.EncodeToString(sum[:])[:12]
}
