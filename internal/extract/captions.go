package extract

import (
	"time"

	"clipline/internal/store"
	"clipline/internal/subtitle"
)

// BuildCaptionCues picks the transcript segments belonging to the clip
// window [start, end) and rebases them to clip-relative time. A segment
// belongs to the clip when it begins inside the window, matching how
// the clip boundaries were chosen.
func BuildCaptionCues(segments []store.TranscriptSegment, start, end float64) []store.CaptionCue {
	var cues []store.CaptionCue
	for _, seg := range segments {
		if seg.Start < start || seg.Start >= end {
			continue
		}
		cueEnd := seg.End
		if cueEnd > end {
			cueEnd = end
		}
		cues = append(cues, store.CaptionCue{
			Start: seg.Start - start,
			End:   cueEnd - start,
			Text:  seg.Text,
		})
	}
	return cues
}

// cueTrack converts clip cues into an SRT track with line wrapping
// suited for portrait output.
func cueTrack(cues []store.CaptionCue) *subtitle.Track {
	track := &subtitle.Track{Entries: make([]subtitle.Entry, 0, len(cues))}
	for i, cue := range cues {
		track.Entries = append(track.Entries, subtitle.Entry{
			Index:     i + 1,
			StartTime: time.Duration(cue.Start * float64(time.Second)),
			EndTime:   time.Duration(cue.End * float64(time.Second)),
			Text:      subtitle.WrapForVertical(cue.Text, 4, 30),
		})
	}
	return track
}
