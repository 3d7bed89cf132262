// Package catalog builds the B-roll clip catalog for a planning run.
package catalog

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/forPelevin/brollplan/internal/ports"
	"github.com/forPelevin/brollplan/internal/types"
)

// OverridesFile holds curated clip descriptions inside the B-roll directory.
// When a clip is listed there, the analyzer is not consulted for it.
const OverridesFile = "catalog.yaml"

var videoExts = map[string]struct{}{
	".mp4":  {},
	".mov":  {},
	".mkv":  {},
	".webm": {},
	".avi":  {},
}

type overrides struct {
	Clips []struct {
		ClipName    string `yaml:"clip_name"`
		Description string `yaml:"description"`
	} `yaml:"clips"`
}

type Loader struct {
	Analyzer ports.ClipAnalyzer // optional
	Embedder ports.Embedder
	Log      zerolog.Logger
}

// Load scans dir for video files (sorted by name, so catalog order and
// therefore match tie-breaks are stable across runs), describes each clip and
// precomputes its description embedding.
//
// Description sources, in priority order: catalog.yaml override, analyzer,
// filename. Analyzer and embedder failures degrade (filename description,
// nil embedding) rather than failing the load.
func (l Loader) Load(ctx context.Context, dir string) ([]types.BrollClip, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read b-roll dir: %w", err)
	}

	curated, err := l.loadOverrides(dir)
	if err != nil {
		return nil, err
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if _, ok := videoExts[strings.ToLower(filepath.Ext(e.Name()))]; !ok {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	clips := make([]types.BrollClip, 0, len(names))
	for _, name := range names {
		desc := l.describe(ctx, filepath.Join(dir, name), curated)

		var emb []float64
		if l.Embedder != nil {
			emb, err = l.Embedder.Embed(ctx, desc.Description)
			if err != nil {
				// The matcher re-tries clips without embeddings on demand.
				l.Log.Warn().Err(err).Str("clip", name).Msg("clip embedding failed at load")
				emb = nil
			}
		}
		clips = append(clips, types.BrollClip{Descriptor: desc, Embedding: emb})
	}
	return clips, nil
}

func (l Loader) describe(ctx context.Context, clipPath string, curated map[string]string) types.ClipDescriptor {
	name := filepath.Base(clipPath)
	if d, ok := curated[name]; ok {
		return types.ClipDescriptor{ClipName: name, Description: d}
	}
	if l.Analyzer != nil {
		desc, err := l.Analyzer.Describe(ctx, clipPath)
		if err == nil {
			return desc
		}
		l.Log.Warn().Err(err).Str("clip", name).Msg("clip analysis failed, using filename description")
	}
	return types.ClipDescriptor{ClipName: name, Description: BaseDescription(clipPath)}
}

func (l Loader) loadOverrides(dir string) (map[string]string, error) {
	b, err := os.ReadFile(filepath.Join(dir, OverridesFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read %s: %w", OverridesFile, err)
	}
	var ov overrides
	if err := yaml.Unmarshal(b, &ov); err != nil {
		return nil, fmt.Errorf("parse %s: %w", OverridesFile, err)
	}
	out := make(map[string]string, len(ov.Clips))
	for _, c := range ov.Clips {
		if c.ClipName == "" || strings.TrimSpace(c.Description) == "" {
			continue
		}
		out[c.ClipName] = strings.TrimSpace(c.Description)
	}
	return out, nil
}

// BaseDescription derives a plain description from the clip filename:
// "drone_city-night.mp4" -> "drone city night".
func BaseDescription(clipPath string) string {
	stem := strings.TrimSuffix(filepath.Base(clipPath), filepath.Ext(clipPath))
	stem = strings.ReplaceAll(stem, "_", " ")
	stem = strings.ReplaceAll(stem, "-", " ")
	return strings.Join(strings.Fields(stem), " ")
}
