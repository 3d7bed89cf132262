// Package planning turns a transcript and a B-roll catalog into an Edit
// Decision List.
package planning

import (
	"context"
	"math"
	"sort"

	"github.com/rs/zerolog"

	"github.com/forPelevin/brollplan/internal/types"
)

const (
	// brollFraction reserves visible return-to-A-roll framing at the tail
	// of each spoken segment.
	brollFraction = 0.8
	// minBrollSeconds is the floor under which a cutaway is not useful.
	minBrollSeconds = 2.0
	excerptLen      = 100
)

// Matcher is the segment-to-clip selection the planner consults per eligible
// segment.
type Matcher interface {
	FindBestMatch(ctx context.Context, segmentText string, clips []types.BrollClip, threshold float64) types.MatchResult
}

type Params struct {
	SimilarityThreshold float64
	MinGapSeconds       float64
}

type Planner struct {
	matcher Matcher
	log     zerolog.Logger
}

func New(matcher Matcher, log zerolog.Logger) *Planner {
	return &Planner{matcher: matcher, log: log}
}

// Plan runs a single greedy pass over the transcript, in order. Per segment:
//
//  1. gap gate: too soon after the previous overlay ended -> skip, no match
//     attempt (cheap numeric check first, saves collaborator calls)
//  2. match gate: best clip below threshold -> skip
//  3. duration policy: 80% of the segment, skipped under 2 s
//  4. commit and advance the gap clock to the end of the overlay
//
// Skips are policy, not errors: they are silent by design and observable only
// through metadata counts. A zero-edit EDL is a valid outcome.
func (p *Planner) Plan(ctx context.Context, segments []types.TranscriptSegment, clips []types.BrollClip, params Params) types.EDL {
	ordered := sortedByStart(segments)

	edits := make([]types.EditDecision, 0, len(ordered))
	// Initialized so the gap rule can never block the first eligible segment.
	lastEditEnd := -params.MinGapSeconds

	for _, seg := range ordered {
		if seg.Start-lastEditEnd < params.MinGapSeconds {
			p.log.Debug().Float64("start", seg.Start).Msg("segment skipped: gap rule")
			continue
		}

		match := p.matcher.FindBestMatch(ctx, seg.Text, clips, params.SimilarityThreshold)
		if match.Clip == nil {
			p.log.Debug().Float64("start", seg.Start).Float64("score", match.Score).
				Str("reason", match.Reason).Msg("segment skipped: no match")
			continue
		}

		brollDur := math.Min(seg.Duration()*brollFraction, seg.Duration())
		if brollDur < minBrollSeconds {
			p.log.Debug().Float64("start", seg.Start).Float64("broll_duration", brollDur).
				Msg("segment skipped: cutaway too short")
			continue
		}

		edits = append(edits, types.EditDecision{
			StartTime:       seg.Start,
			Duration:        round(brollDur, 2),
			BrollClip:       match.Clip.ClipName,
			Reason:          match.Reason,
			TranscriptText:  excerpt(seg.Text),
			SimilarityScore: round(match.Score, 3),
		})
		// The gap clock advances to the end of the overlay, not the end of
		// the spoken segment: a long overlay pushes the next eligible start
		// further out.
		lastEditEnd = seg.Start + brollDur
	}

	return types.EDL{
		Metadata: types.EDLMetadata{
			TotalSegments:       len(segments),
			TotalBrollClips:     len(clips),
			EditsApplied:        len(edits),
			SimilarityThreshold: params.SimilarityThreshold,
			MinGapSeconds:       params.MinGapSeconds,
		},
		Edits: edits,
	}
}

// sortedByStart returns the segments ordered by start time. Transcribers are
// expected to emit them ordered already; sorting a copy makes the planner
// deterministic even when one doesn't.
func sortedByStart(segments []types.TranscriptSegment) []types.TranscriptSegment {
	if sort.SliceIsSorted(segments, func(i, j int) bool { return segments[i].Start < segments[j].Start }) {
		return segments
	}
	out := make([]types.TranscriptSegment, len(segments))
	copy(out, segments)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Start < out[j].Start })
	return out
}

func round(x float64, decimals int) float64 {
	pow := math.Pow(10, float64(decimals))
	return math.Round(x*pow) / pow
}

func excerpt(s string) string {
	r := []rune(s)
	if len(r) <= excerptLen {
		return s
	}
	return string(r[:excerptLen])
}
