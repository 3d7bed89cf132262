package ffmpeg

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/forPelevin/brollplan/internal/types"
)

type Adapter struct {
	ffmpeg  string
	ffprobe string
}

func New(ffmpegPath, ffprobePath string) *Adapter {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}
	return &Adapter{ffmpeg: ffmpegPath, ffprobe: ffprobePath}
}

func (a *Adapter) ExtractAudioMono16k(ctx context.Context, inMP4, outWav string) error {
	cmd := exec.CommandContext(ctx, a.ffmpeg,
		"-y",
		"-i", inMP4,
		"-vn",
		"-ac", "1",
		"-ar", "16000",
		"-f", "wav",
		outWav,
	)
	b, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("ffmpeg extract audio: %w\n%s", err, string(b))
	}
	return nil
}

func (a *Adapter) ProbeDuration(ctx context.Context, inMP4 string) (time.Duration, error) {
	cmd := exec.CommandContext(ctx, a.ffprobe,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		inMP4,
	)
	b, err := cmd.CombinedOutput()
	if err != nil {
		return 0, fmt.Errorf("ffprobe duration: %w\n%s", err, string(b))
	}
	s := strings.TrimSpace(string(b))
	sec, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("parse duration %q: %w", s, err)
	}
	return time.Duration(sec * float64(time.Second)), nil
}

// RenderOverlays composes the final video: each EDL edit becomes a muted,
// scaled B-roll overlay on top of the A-roll picture, with the A-roll audio
// kept throughout. Edits whose clip file is missing from brollDir are dropped
// from the render, not failed.
func (a *Adapter) RenderOverlays(ctx context.Context, arollMP4, brollDir string, edl types.EDL, outMP4 string) error {
	type overlay struct {
		path string
		edit types.EditDecision
	}
	var overlays []overlay
	for _, e := range edl.Edits {
		p := filepath.Join(brollDir, e.BrollClip)
		if _, err := os.Stat(p); err != nil {
			continue
		}
		overlays = append(overlays, overlay{path: p, edit: e})
	}
	if len(overlays) == 0 {
		return fmt.Errorf("render: no b-roll clips found for %d edits", len(edl.Edits))
	}

	args := []string{"-y", "-i", arollMP4}
	for _, ov := range overlays {
		args = append(args, "-i", ov.path)
	}

	// Each b-roll stream is scaled, shifted to its start time, and enabled
	// only inside its [start, start+duration) window.
	var filter strings.Builder
	prev := "[0:v]"
	for i, ov := range overlays {
		start := ov.edit.StartTime
		end := start + ov.edit.Duration
		cur := fmt.Sprintf("[v%d]", i+1)
		fmt.Fprintf(&filter,
			"[%d:v]scale=1920:1080,setpts=PTS-STARTPTS+%s/TB[ovr%d];%s[ovr%d]overlay=enable='between(t,%s,%s)'%s;",
			i+1, fmtSeconds(start), i+1, prev, i+1, fmtSeconds(start), fmtSeconds(end), cur,
		)
		prev = cur
	}

	args = append(args,
		"-filter_complex", strings.TrimSuffix(filter.String(), ";"),
		"-map", prev,
		"-map", "0:a",
		"-c:v", "libx264",
		"-preset", "veryfast",
		"-crf", "18",
		"-c:a", "aac",
		"-b:a", "192k",
		outMP4,
	)
	cmd := exec.CommandContext(ctx, a.ffmpeg, args...)
	b, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("ffmpeg render overlays: %w\n%s", err, string(b))
	}
	return nil
}

func fmtSeconds(sec float64) string {
	return strconv.FormatFloat(sec, 'f', 3, 64)
}
