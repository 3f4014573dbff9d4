// Package selector turns oracle clip candidates into a validated,
// non-overlapping clip plan.
package selector

import (
	"context"
	"fmt"
	"math"
	"sort"

	"clipline/internal/config"
	"clipline/internal/logging"
	"clipline/internal/oracle"
	"clipline/internal/store"
)

// Selector implements the planning stage over an oracle.
type Selector struct {
	oracle oracle.Oracle
	cfg    *config.Config
	log    *logging.Logger
}

// New returns a Selector using the given oracle backend.
func New(o oracle.Oracle, cfg *config.Config, logger *logging.Logger) *Selector {
	return &Selector{oracle: o, cfg: cfg, log: logging.WithComponent(logger, "selector")}
}

// Plan asks the oracle for candidates and resolves them into the final
// clip plan: validated windows, snapped to transcript boundaries, no
// overlaps, best scores first.
func (s *Selector) Plan(ctx context.Context, video *store.Video, segments []store.TranscriptSegment) ([]*store.Clip, error) {
	duration := video.DurationSeconds
	if duration <= 0 && len(segments) > 0 {
		duration = segments[len(segments)-1].End
	}

	candidates, err := s.oracle.ScoreCandidates(ctx, oracle.SelectionRequest{
		Segments:    segments,
		Intent:      video.IntentPrompt,
		Duration:    duration,
		MinDuration: s.cfg.Selection.MinDurationSeconds,
		MaxDuration: s.cfg.Selection.MaxDurationSeconds,
		MaxClips:    s.cfg.Selection.MaxClipCount,
	})
	if err != nil {
		return nil, err
	}

	clips := Resolve(candidates, segments, Constraints{
		Duration:    duration,
		MinDuration: s.cfg.Selection.MinDurationSeconds,
		MaxDuration: s.cfg.Selection.MaxDurationSeconds,
		MaxClips:    s.cfg.Selection.MaxClipCount,
	})
	if len(clips) == 0 {
		return nil, fmt.Errorf("oracle returned %d candidates, none valid", len(candidates))
	}
	for _, clip := range clips {
		clip.AspectRatio = s.cfg.Render.AspectRatio
	}
	s.log.Infow("clip plan resolved",
		"video_id", video.ID,
		"candidates", len(candidates),
		"accepted", len(clips),
	)
	return clips, nil
}

// Constraints bound what Resolve accepts.
type Constraints struct {
	Duration    float64
	MinDuration float64
	MaxDuration float64
	MaxClips    int
}

// Resolve validates candidates, snaps their windows to transcript
// segment boundaries, discards overlaps in favor of higher scores, and
// caps the result. Windows are half-open [start, end): clips that merely
// touch are adjacent, not overlapping. The result is ordered by score
// descending, earliest start breaking ties.
func Resolve(candidates []oracle.Candidate, segments []store.TranscriptSegment, c Constraints) []*store.Clip {
	valid := make([]oracle.Candidate, 0, len(candidates))
	for _, cand := range candidates {
		cand = snapToSegments(cand, segments)
		if !acceptable(cand, c) {
			continue
		}
		valid = append(valid, cand)
	}

	sort.SliceStable(valid, func(i, j int) bool {
		if valid[i].Confidence != valid[j].Confidence {
			return valid[i].Confidence > valid[j].Confidence
		}
		return valid[i].Start < valid[j].Start
	})

	var accepted []oracle.Candidate
	for _, cand := range valid {
		if c.MaxClips > 0 && len(accepted) >= c.MaxClips {
			break
		}
		if overlapsAny(cand, accepted) {
			continue
		}
		accepted = append(accepted, cand)
	}

	clips := make([]*store.Clip, 0, len(accepted))
	for _, cand := range accepted {
		clips = append(clips, &store.Clip{
			Start:     cand.Start,
			End:       cand.End,
			Score:     cand.Confidence,
			Rationale: cand.Hook,
		})
	}
	return clips
}

func acceptable(cand oracle.Candidate, c Constraints) bool {
	if math.IsNaN(cand.Start) || math.IsNaN(cand.End) ||
		math.IsInf(cand.Start, 0) || math.IsInf(cand.End, 0) {
		return false
	}
	if cand.Start < 0 || cand.End <= cand.Start {
		return false
	}
	if c.Duration > 0 && cand.End > c.Duration+boundaryTolerance {
		return false
	}
	span := cand.End - cand.Start
	if span < c.MinDuration-boundaryTolerance || span > c.MaxDuration+boundaryTolerance {
		return false
	}
	return true
}

// boundaryTolerance absorbs float noise from snapping and oracle
// rounding when checking the duration bounds.
const boundaryTolerance = 0.05

// snapToSegments aligns a candidate window with the transcript: the
// start moves to the nearest segment start, the end to the nearest
// segment end, so clips never cut into the middle of a sentence. The
// original window is kept when snapping would collapse it.
func snapToSegments(cand oracle.Candidate, segments []store.TranscriptSegment) oracle.Candidate {
	if len(segments) == 0 {
		return cand
	}
	starts := make([]float64, len(segments))
	ends := make([]float64, len(segments))
	for i, seg := range segments {
		starts[i] = seg.Start
		ends[i] = seg.End
	}

	snapped := cand
	snapped.Start = nearest(cand.Start, starts)
	snapped.End = nearest(cand.End, ends)
	if snapped.End <= snapped.Start {
		return cand
	}
	return snapped
}

func nearest(value float64, boundaries []float64) float64 {
	best := boundaries[0]
	for _, b := range boundaries[1:] {
		if math.Abs(b-value) < math.Abs(best-value) {
			best = b
		}
	}
	return best
}

// overlapsAny reports whether cand intersects any accepted window under
// half-open interval semantics.
func overlapsAny(cand oracle.Candidate, accepted []oracle.Candidate) bool {
	for _, other := range accepted {
		if cand.Start < other.End && other.Start < cand.End {
			return true
		}
	}
	return false
}
