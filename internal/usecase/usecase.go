package usecase

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/forPelevin/brollplan/internal/catalog"
	"github.com/forPelevin/brollplan/internal/domain/matching"
	"github.com/forPelevin/brollplan/internal/domain/planning"
	"github.com/forPelevin/brollplan/internal/ports"
	"github.com/forPelevin/brollplan/internal/types"
)

type Deps struct {
	Video       ports.VideoTool
	Transcriber ports.Transcriber
	Analyzer    ports.ClipAnalyzer
	Embedder    ports.Embedder
	Reasoner    ports.Reasoner
	Log         zerolog.Logger
}

type Usecase struct{ d Deps }

func New(d Deps) Usecase { return Usecase{d: d} }

type Input struct {
	ARollMP4 string
	BrollDir string

	SimilarityThreshold float64
	MinGapSeconds       float64

	// Render composes out/final.mp4 from the EDL. The EDL itself is always
	// the primary artifact.
	Render bool

	CacheDir string
	OutDir   string
}

type Result struct {
	EDL       types.EDL
	RenderMP4 string
}

func (u Usecase) Run(ctx context.Context, in Input) (Result, error) {
	wav := filepath.Join(in.CacheDir, "audio.wav")
	if err := u.d.Video.ExtractAudioMono16k(ctx, in.ARollMP4, wav); err != nil {
		return Result{}, err
	}

	segments, err := u.d.Transcriber.Transcribe(ctx, wav)
	if err != nil {
		return Result{}, err
	}
	u.d.Log.Info().Int("segments", len(segments)).Msg("transcription complete")

	clips, err := catalog.Loader{
		Analyzer: u.d.Analyzer,
		Embedder: u.d.Embedder,
		Log:      u.d.Log,
	}.Load(ctx, in.BrollDir)
	if err != nil {
		return Result{}, err
	}
	u.d.Log.Info().Int("clips", len(clips)).Msg("b-roll catalog loaded")

	matcher := matching.New(matching.Config{
		Embedder: u.d.Embedder,
		Reasoner: u.d.Reasoner,
		Log:      u.d.Log,
	})
	planner := planning.New(matcher, u.d.Log)
	edl := planner.Plan(ctx, segments, clips, planning.Params{
		SimilarityThreshold: in.SimilarityThreshold,
		MinGapSeconds:       in.MinGapSeconds,
	})
	u.d.Log.Info().Int("edits", edl.Metadata.EditsApplied).Msg("edit plan generated")

	if err := planning.Validate(edl); err != nil {
		return Result{}, fmt.Errorf("validate edl: %w", err)
	}

	res := Result{EDL: edl}
	if in.Render && len(edl.Edits) > 0 {
		out := filepath.Join(in.OutDir, "final.mp4")
		if err := u.d.Video.RenderOverlays(ctx, in.ARollMP4, in.BrollDir, edl, out); err != nil {
			return Result{}, err
		}
		res.RenderMP4 = out
	}
	return res, nil
}
