package subtitle

import (
	"strings"
	"time"
)

// Entry is a single caption cue, timed relative to the clip start.
type Entry struct {
	Index     int
	StartTime time.Duration
	EndTime   time.Duration
	Text      string
}

// Track is an ordered caption sequence for one clip.
type Track struct {
	Entries []Entry
}

// Duration of the whole track, i.e. the end of the last cue.
func (t *Track) Duration() time.Duration {
	if len(t.Entries) == 0 {
		return 0
	}
	return t.Entries[len(t.Entries)-1].EndTime
}

// Text joins all cue text with spaces. Used as oracle context when
// composing titles and hashtags.
func (t *Track) Text() string {
	parts := make([]string, 0, len(t.Entries))
	for _, e := range t.Entries {
		if trimmed := strings.TrimSpace(e.Text); trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return strings.Join(parts, " ")
}
