package pipeline

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestBuildRunOutDir(t *testing.T) {
	now := time.Date(2026, 2, 12, 10, 30, 45, 1234, time.UTC)
	got := buildRunOutDir("out", "/tmp/My Cool.Video.mp4", now)
	base := filepath.Base(got)
	if filepath.Dir(got) != "out" {
		t.Fatalf("unexpected parent dir: %s", got)
	}
	if !strings.HasPrefix(base, "my-cool-video-20260212-103045Z-") {
		t.Fatalf("unexpected run dir format: %s", base)
	}
	if len(base) != len("my-cool-video-20260212-103045Z-")+6 {
		t.Fatalf("unexpected run dir suffix length: %s", base)
	}
}

func TestNormalizePathSegment(t *testing.T) {
	tests := map[string]string{
		"  My Cool.Video  ": "my-cool-video",
		"___":               "",
		"abc123":            "abc123",
		"Name (v2)!":        "name-v2",
	}
	for in, want := range tests {
		t.Run(in, func(t *testing.T) {
			if got := normalizePathSegment(in); got != want {
				t.Fatalf("normalizePathSegment(%q) = %q, want %q", in, got, want)
			}
		})
	}
}

func validConfig(t *testing.T) Config {
	t.Helper()
	tmp := t.TempDir()
	aroll := filepath.Join(tmp, "aroll.mp4")
	if err := os.WriteFile(aroll, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	broll := filepath.Join(tmp, "broll")
	if err := os.MkdirAll(broll, 0o755); err != nil {
		t.Fatal(err)
	}
	return Config{
		ARollMP4:            aroll,
		BrollDir:            broll,
		SimilarityThreshold: 0.4,
		MinGapSeconds:       8,
		GeminiAPIKey:        "test-key",
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"ok", func(c *Config) {}, ""},
		{"missing a-roll", func(c *Config) { c.ARollMP4 = "" }, "a-roll input is empty"},
		{"a-roll not found", func(c *Config) { c.ARollMP4 = c.ARollMP4 + ".missing" }, "stat a-roll"},
		{"missing b-roll dir", func(c *Config) { c.BrollDir = "" }, "b-roll directory is required"},
		{"b-roll not a dir", func(c *Config) { c.BrollDir = c.ARollMP4 }, "not a directory"},
		{"threshold too high", func(c *Config) { c.SimilarityThreshold = 1.5 }, "similarity threshold"},
		{"threshold negative", func(c *Config) { c.SimilarityThreshold = -0.1 }, "similarity threshold"},
		{"negative gap", func(c *Config) { c.MinGapSeconds = -1 }, "min gap"},
		{"missing api key", func(c *Config) { c.GeminiAPIKey = "" }, "gemini api key is required"},
		{"bad base url host", func(c *Config) { c.GeminiBaseURL = "https://evil.example.com" }, "GEMINI_ALLOWED_HOSTS"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig(t)
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("got %v, want substring %q", err, tt.wantErr)
			}
		})
	}
}
