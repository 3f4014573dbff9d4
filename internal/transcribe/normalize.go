package transcribe

import (
	"sort"
	"strings"

	"clipline/internal/store"
)

const (
	// Gaps longer than this are silence worth absorbing into the
	// preceding segment so clip boundaries never land mid-silence.
	maxGapSeconds = 0.75

	// Audio shorter than this may legitimately contain no speech.
	minSpeechSeconds = 3.0
)

// Normalize turns raw recognizer segments into the transcript contract
// the selector relies on: sentence-level grouping, ascending start
// order, bounds clamped to [0, duration], no empty text, no overlaps.
func Normalize(raw []store.TranscriptSegment, duration float64) []store.TranscriptSegment {
	segments := make([]store.TranscriptSegment, 0, len(raw))
	for _, seg := range raw {
		seg.Text = strings.Join(strings.Fields(seg.Text), " ")
		if seg.Text == "" {
			continue
		}
		if duration > 0 {
			if seg.Start >= duration {
				continue
			}
			if seg.End > duration {
				seg.End = duration
			}
		}
		if seg.Start < 0 {
			seg.Start = 0
		}
		if seg.End <= seg.Start {
			continue
		}
		segments = append(segments, seg)
	}

	sort.SliceStable(segments, func(i, j int) bool {
		return segments[i].Start < segments[j].Start
	})

	segments = groupSentences(segments)

	// Resolve overlaps in favor of the earlier segment, then absorb
	// long silences so consecutive segments stay adjacent.
	out := segments[:0]
	for _, seg := range segments {
		if len(out) > 0 {
			prev := &out[len(out)-1]
			if seg.Start < prev.End {
				seg.Start = prev.End
				if seg.End <= seg.Start {
					prev.Text += " " + seg.Text
					continue
				}
			}
			if gap := seg.Start - prev.End; gap > maxGapSeconds {
				prev.End = seg.Start
			}
		}
		out = append(out, seg)
	}

	// Leading and trailing silence belongs to the nearest speech, the
	// same way interior silences do, so the transcript covers the full
	// duration.
	if len(out) > 0 {
		if out[0].Start > maxGapSeconds {
			out[0].Start = 0
		}
		if duration > 0 && duration-out[len(out)-1].End > maxGapSeconds {
			out[len(out)-1].End = duration
		}
	}
	return out
}

// groupSentences merges consecutive segments until one ends with
// sentence-final punctuation, so each segment reads as a complete
// thought.
func groupSentences(segments []store.TranscriptSegment) []store.TranscriptSegment {
	var out []store.TranscriptSegment
	var current *store.TranscriptSegment
	for _, seg := range segments {
		if current == nil {
			copied := seg
			current = &copied
		} else {
			current.Text += " " + seg.Text
			if seg.End > current.End {
				current.End = seg.End
			}
		}
		if endsSentence(current.Text) {
			out = append(out, *current)
			current = nil
		}
	}
	if current != nil {
		out = append(out, *current)
	}
	return out
}

func endsSentence(text string) bool {
	trimmed := strings.TrimRight(text, `"')]`+" ")
	if trimmed == "" {
		return false
	}
	switch trimmed[len(trimmed)-1] {
	case '.', '!', '?':
		return true
	}
	return false
}
