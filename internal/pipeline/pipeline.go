package pipeline

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/rs/zerolog"

	"github.com/forPelevin/brollplan/internal/ports"
	"github.com/forPelevin/brollplan/internal/ports/adapters/ffmpeg"
	"github.com/forPelevin/brollplan/internal/ports/adapters/gemini"
	"github.com/forPelevin/brollplan/internal/usecase"
)

type Config struct {
	ARollMP4 string
	BrollDir string
	OutDir   string

	SimilarityThreshold float64
	MinGapSeconds       float64
	Render              bool

	// CacheDir is the base directory for local artifacts (extracted audio
	// etc.). If empty, defaults to ".cache".
	CacheDir string

	FFmpegPath  string
	FFprobePath string

	GeminiAPIKey           string
	GeminiBaseURL          string
	GeminiAllowedHosts     []string
	GeminiEmbedModel       string
	GeminiGenModels        []string
	GeminiTranscribeModels []string

	LogLevel string
	LogOut   io.Writer
}

func (c Config) Validate() error {
	if c.ARollMP4 == "" {
		return errors.New("a-roll input is empty")
	}
	if _, err := os.Stat(c.ARollMP4); err != nil {
		return fmt.Errorf("stat a-roll: %w", err)
	}
	if c.BrollDir == "" {
		return errors.New("b-roll directory is required")
	}
	if st, err := os.Stat(c.BrollDir); err != nil {
		return fmt.Errorf("stat b-roll dir: %w", err)
	} else if !st.IsDir() {
		return fmt.Errorf("b-roll path %q is not a directory", c.BrollDir)
	}
	if c.SimilarityThreshold < 0 || c.SimilarityThreshold > 1 {
		return fmt.Errorf("similarity threshold must be in [0,1]")
	}
	if c.MinGapSeconds < 0 {
		return fmt.Errorf("min gap must be >= 0")
	}
	if c.GeminiAPIKey == "" {
		return errors.New("gemini api key is required")
	}
	return gemini.ValidateBaseURL(c.GeminiBaseURL, c.GeminiAllowedHosts)
}

func Run(ctx context.Context, cfg Config) error {
	log := newLogger(cfg)

	// adapters
	video := ffmpeg.New(cfg.FFmpegPath, cfg.FFprobePath)
	ai := gemini.New(gemini.Config{
		APIKey:           cfg.GeminiAPIKey,
		BaseURL:          cfg.GeminiBaseURL,
		EmbedModel:       cfg.GeminiEmbedModel,
		GenModels:        cfg.GeminiGenModels,
		TranscribeModels: cfg.GeminiTranscribeModels,
		Log:              log,
	})

	uc := usecase.New(usecase.Deps{
		Video:       video,
		Transcriber: ai,
		Analyzer:    ai,
		Embedder:    ai,
		Reasoner:    ai,
		Log:         log,
	})

	jobID := hash(cfg.ARollMP4)
	baseCache := cfg.CacheDir
	if baseCache == "" {
		baseCache = ".cache"
	}
	cacheDir := filepath.Join(baseCache, "runs", jobID)
	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		return err
	}
	log.Debug().Str("cache", cacheDir).Msg("workspace prepared")

	outDir := cfg.OutDir
	if outDir == "" {
		outDir = "out"
	}
	runOutDir := buildRunOutDir(outDir, cfg.ARollMP4, time.Now().UTC())
	if err := os.MkdirAll(runOutDir, 0o755); err != nil {
		return err
	}
	log.Info().Str("out", runOutDir).Msg("output run dir")

	res, err := uc.Run(ctx, usecase.Input{
		ARollMP4:            cfg.ARollMP4,
		BrollDir:            cfg.BrollDir,
		SimilarityThreshold: cfg.SimilarityThreshold,
		MinGapSeconds:       cfg.MinGapSeconds,
		Render:              cfg.Render,
		CacheDir:            cacheDir,
		OutDir:              runOutDir,
	})
	if err != nil {
		return err
	}

	b, err := json.MarshalIndent(res.EDL, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal edl: %w", err)
	}
	edlPath := filepath.Join(runOutDir, "edl.json")
	if err := os.WriteFile(edlPath, b, 0o644); err != nil {
		return err
	}
	log.Info().Int("edits", res.EDL.Metadata.EditsApplied).Str("path", edlPath).Msg("edl written")
	if res.RenderMP4 != "" {
		log.Info().Str("path", res.RenderMP4).Msg("rendered video written")
	}
	return nil
}

func newLogger(cfg Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || cfg.LogLevel == "" {
		level = zerolog.InfoLevel
	}
	out := cfg.LogOut
	if out == nil {
		out = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}
	}
	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}

func buildRunOutDir(outRoot, arollMP4 string, now time.Time) string {
	name := strings.TrimSuffix(filepath.Base(arollMP4), filepath.Ext(arollMP4))
	name = normalizePathSegment(name)
	if name == "" {
		name = "input"
	}
	ts := now.UTC().Format("20060102-150405Z")
	runSeed := fmt.Sprintf("%s|%d", arollMP4, now.UTC().UnixNano())
	suffix := hash(runSeed)[:6]
	return filepath.Join(outRoot, fmt.Sprintf("%s-%s-%s", name, ts, suffix))
}

func normalizePathSegment(s string) string {
	var b strings.Builder
	prevDash := false
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
			b.WriteRune(r)
			prevDash = false
		default:
			if !prevDash {
				b.WriteByte('-')
				prevDash = true
			}
		}
	}
	return strings.Trim(b.String(), "-")
}

func hash(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])[:12]
}

// ensure adapters implement ports
var _ ports.VideoTool = (*ffmpeg.Adapter)(nil)
var _ ports.Transcriber = (*gemini.Adapter)(nil)
var _ ports.ClipAnalyzer = (*gemini.Adapter)(nil)
var _ ports.Embedder = (*gemini.Adapter)(nil)
var _ ports.Reasoner = (*gemini.Adapter)(nil)
