package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/forPelevin/brollplan/internal/pipeline"
)

func run(cmd *cobra.Command, input string) error {
	brollDir, _ := cmd.Flags().GetString("broll")
	outDir, _ := cmd.Flags().GetString("out")
	threshold, _ := cmd.Flags().GetFloat64("threshold")
	minGap, _ := cmd.Flags().GetFloat64("min-gap")
	render, _ := cmd.Flags().GetBool("render")
	cacheDir, _ := cmd.Flags().GetString("cache-dir")
	logLevel, _ := cmd.Flags().GetString("log-level")

	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		return errors.New("GEMINI_API_KEY is required (set it in .env)")
	}

	absIn, err := filepath.Abs(input)
	if err != nil {
		return err
	}
	absBroll, err := filepath.Abs(brollDir)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Hour)
	defer cancel()

	cfg := pipeline.Config{
		ARollMP4: absIn,
		BrollDir: absBroll,
		OutDir:   outDir,

		SimilarityThreshold: threshold,
		MinGapSeconds:       minGap,
		Render:              render,
		CacheDir:            cacheDir,

		FFmpegPath:  "ffmpeg",
		FFprobePath: "ffprobe",

		GeminiAPIKey:       apiKey,
		GeminiBaseURL:      os.Getenv("GEMINI_BASE_URL"),
		GeminiAllowedHosts: splitList(os.Getenv("GEMINI_ALLOWED_HOSTS")),
		GeminiEmbedModel:   os.Getenv("GEMINI_EMBED_MODEL"),
		GeminiGenModels:    splitList(os.Getenv("GEMINI_MODELS")),

		LogLevel: logLevel,
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return pipeline.Run(ctx, cfg)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if v := strings.TrimSpace(part); v != "" {
			out = append(out, v)
		}
	}
	return out
}
