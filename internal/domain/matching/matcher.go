// Package matching selects the best B-roll clip for a transcript segment.
package matching

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/forPelevin/brollplan/internal/domain/similarity"
	"github.com/forPelevin/brollplan/internal/ports"
	"github.com/forPelevin/brollplan/internal/types"
)

const (
	// NoCandidatesReason is returned verbatim when the catalog is empty.
	NoCandidatesReason = "no candidates available"

	defaultParallelism = 4
	snippetLen         = 50
)

type Matcher struct {
	embedder    ports.Embedder
	reasoner    ports.Reasoner // optional
	parallelism int
	log         zerolog.Logger
}

type Config struct {
	Embedder ports.Embedder
	Reasoner ports.Reasoner
	// Parallelism bounds concurrent candidate scoring. <=0 uses a default.
	Parallelism int
	Log         zerolog.Logger
}

func New(cfg Config) *Matcher {
	p := cfg.Parallelism
	if p <= 0 {
		p = defaultParallelism
	}
	return &Matcher{
		embedder:    cfg.Embedder,
		reasoner:    cfg.Reasoner,
		parallelism: p,
		log:         cfg.Log,
	}
}

// FindBestMatch scores every catalog clip against segmentText and returns the
// winner, or a clip-less result when nothing clears threshold. It never fails
// the caller: collaborator errors degrade to skipped candidates or a
// templated reason.
func (m *Matcher) FindBestMatch(ctx context.Context, segmentText string, clips []types.BrollClip, threshold float64) types.MatchResult {
	if len(clips) == 0 {
		return types.MatchResult{Score: 0, Reason: NoCandidatesReason}
	}

	segEmb, err := m.embedder.Embed(ctx, segmentText)
	if err != nil {
		m.log.Warn().Err(err).Str("segment", snippet(segmentText)).
			Msg("segment embedding failed, skipping segment")
		return types.MatchResult{Score: 0, Reason: "segment embedding unavailable"}
	}

	scores := m.scoreCandidates(ctx, segEmb, clips)

	// Deterministic max: strictly-greater wins, so ties keep the
	// first-seen clip in catalog order regardless of scoring order.
	bestIdx := -1
	bestScore := -1.0
	for i, s := range scores {
		if s.ok && s.score > bestScore {
			bestIdx = i
			bestScore = s.score
		}
	}
	if bestIdx < 0 {
		return types.MatchResult{Score: 0, Reason: "no candidate could be scored"}
	}

	if bestScore < threshold {
		return types.MatchResult{
			Score:  bestScore,
			Reason: fmt.Sprintf("best score %.3f below threshold %.2f", bestScore, threshold),
		}
	}

	best := clips[bestIdx].Descriptor
	return types.MatchResult{
		Clip:   &best,
		Score:  bestScore,
		Reason: m.explain(ctx, segmentText, best.Description, bestScore),
	}
}

type candidateScore struct {
	score float64
	ok    bool
}

// scoreCandidates is embarrassingly parallel: each candidate compares a
// read-only segment embedding against its own clip embedding. Results land
// at the candidate's catalog index so completion order cannot affect
// selection. A failed clip embedding excludes that clip for this segment
// only (log and continue).
func (m *Matcher) scoreCandidates(ctx context.Context, segEmb []float64, clips []types.BrollClip) []candidateScore {
	scores := make([]candidateScore, len(clips))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(m.parallelism)
	for i, clip := range clips {
		i, clip := i, clip
		g.Go(func() error {
			emb := clip.Embedding
			if len(emb) == 0 {
				var err error
				emb, err = m.embedder.Embed(ctx, clip.Descriptor.Description)
				if err != nil {
					m.log.Warn().Err(err).Str("clip", clip.Descriptor.ClipName).
						Msg("clip embedding failed, excluding candidate")
					return nil
				}
			}
			scores[i] = candidateScore{score: similarity.Score(segEmb, emb), ok: true}
			return nil
		})
	}
	_ = g.Wait() // goroutines never return errors; fail-soft inside the loop
	return scores
}

// explain asks the reasoner for a justification and falls back to a
// deterministic template so a reasoning-text failure can never sink the plan.
func (m *Matcher) explain(ctx context.Context, segmentText, clipDescription string, score float64) string {
	if m.reasoner != nil {
		text, err := m.reasoner.Explain(ctx, segmentText, clipDescription, score)
		if err == nil && strings.TrimSpace(text) != "" {
			return fmt.Sprintf("%s (Similarity: %.3f)", strings.TrimSpace(text), score)
		}
		if err != nil {
			m.log.Warn().Err(err).Msg("reasoning failed, using templated reason")
		}
	}
	return fmt.Sprintf(
		"Semantic match with similarity score %.3f. The B-roll '%s' aligns with the spoken content about '%s...'",
		score, clipDescription, snippet(segmentText),
	)
}

func snippet(s string) string {
	r := []rune(s)
	if len(r) <= snippetLen {
		return s
	}
	return string(r[:snippetLen])
}
