package ports

import (
	"context"
	"fmt"
	"time"

	"github.com/forPelevin/brollplan/internal/types"
)

type VideoTool interface {
	ExtractAudioMono16k(ctx context.Context, inMP4, outWav string) error
	ProbeDuration(ctx context.Context, inMP4 string) (time.Duration, error)
	RenderOverlays(ctx context.Context, arollMP4, brollDir string, edl types.EDL, outMP4 string) error
}

type Transcriber interface {
	Transcribe(ctx context.Context, wavPath string) ([]types.TranscriptSegment, error)
}

type ClipAnalyzer interface {
	Describe(ctx context.Context, clipPath string) (types.ClipDescriptor, error)
}

type Embedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)
}

// Reasoner produces a natural-language justification for a chosen match.
// Purely cosmetic; its absence or failure never changes which edits are made.
type Reasoner interface {
	Explain(ctx context.Context, segmentText, clipDescription string, score float64) (string, error)
}

// CollaboratorError marks a failure inside an external provider so callers
// can branch to their documented fallback instead of aborting the plan.
type CollaboratorError struct {
	Provider string
	Op       string
	Err      error
}

func (e *CollaboratorError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Provider, e.Op, e.Err)
}

func (e *CollaboratorError) Unwrap() error { return e.Err }
