//go:build integration

package itest

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const cliTimeout = 60 * time.Second

type robustCase struct {
	name         string
	args         func(t *testing.T, tmp string) []string
	env          map[string]string
	wantContains []string
}

func TestRobustness_ArgsValidation(t *testing.T) {
	repoRoot := mustRepoRoot(t)

	cases := []robustCase{
		{
			name: "no args",
			args: func(t *testing.T, _ string) []string { return nil },
			wantContains: []string{
				"accepts 1 arg(s), received 0",
			},
		},
		{
			name: "too many args",
			args: func(t *testing.T, tmp string) []string {
				return []string{sampleARoll(t, tmp), "extra", "--broll", sampleBrollDir(t, tmp)}
			},
			wantContains: []string{
				"accepts 1 arg(s), received 2",
			},
		},
		{
			name: "unknown flag",
			args: func(t *testing.T, tmp string) []string {
				return []string{sampleARoll(t, tmp), "--broll", sampleBrollDir(t, tmp), "--wat"}
			},
			wantContains: []string{
				"unknown flag: --wat",
			},
		},
		{
			name: "broll required",
			args: func(t *testing.T, tmp string) []string {
				return []string{sampleARoll(t, tmp)}
			},
			wantContains: []string{
				`required flag(s) "broll" not set`,
			},
		},
		{
			name: "threshold non float",
			args: func(t *testing.T, tmp string) []string {
				return []string{sampleARoll(t, tmp), "--broll", sampleBrollDir(t, tmp), "--threshold", "nope"}
			},
			wantContains: []string{
				`invalid argument "nope" for "--threshold"`,
			},
		},
		{
			name: "threshold out of range",
			args: func(t *testing.T, tmp string) []string {
				return []string{sampleARoll(t, tmp), "--broll", sampleBrollDir(t, tmp), "--threshold", "1.5"}
			},
			env: map[string]string{"GEMINI_API_KEY": "dummy"},
			wantContains: []string{
				"config: similarity threshold must be in [0,1]",
			},
		},
		{
			name: "negative gap",
			args: func(t *testing.T, tmp string) []string {
				return []string{sampleARoll(t, tmp), "--broll", sampleBrollDir(t, tmp), "--min-gap", "-1"}
			},
			env: map[string]string{"GEMINI_API_KEY": "dummy"},
			wantContains: []string{
				"config: min gap must be >= 0",
			},
		},
		{
			name: "missing api key",
			args: func(t *testing.T, tmp string) []string {
				return []string{sampleARoll(t, tmp), "--broll", sampleBrollDir(t, tmp)}
			},
			env: map[string]string{"GEMINI_API_KEY": ""},
			wantContains: []string{
				"GEMINI_API_KEY is required",
			},
		},
		{
			name: "missing a-roll file",
			args: func(t *testing.T, tmp string) []string {
				return []string{filepath.Join(tmp, "nope.mp4"), "--broll", sampleBrollDir(t, tmp)}
			},
			env: map[string]string{"GEMINI_API_KEY": "dummy"},
			wantContains: []string{
				"config: stat a-roll",
			},
		},
		{
			name: "disallowed base url",
			args: func(t *testing.T, tmp string) []string {
				return []string{sampleARoll(t, tmp), "--broll", sampleBrollDir(t, tmp)}
			},
			env: map[string]string{
				"GEMINI_API_KEY":  "dummy",
				"GEMINI_BASE_URL": "https://evil.example.com",
			},
			wantContains: []string{
				"GEMINI_ALLOWED_HOSTS",
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tmp := t.TempDir()
			res := runCLI(t, repoRoot, tc.args(t, tmp), tc.env)
			if res.exitCode == 0 {
				t.Fatalf("expected non-zero exit, output:\n%s", res.output)
			}
			for _, want := range tc.wantContains {
				if !strings.Contains(res.output, want) {
					t.Fatalf("output missing %q:\n%s", want, res.output)
				}
			}
		})
	}
}

type cliRunResult struct {
	exitCode int
	output   string
}

func runCLI(t *testing.T, repoRoot string, args []string, env map[string]string) cliRunResult {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), cliTimeout)
	defer cancel()

	full := append([]string{"run", "./cmd/brollplan", "--"}, args...)
	cmd := exec.CommandContext(ctx, "go", full...)
	cmd.Dir = repoRoot
	cmd.Env = append(os.Environ(), "GEMINI_API_KEY=")
	for k, v := range env {
		cmd.Env = append(cmd.Env, k+"="+v)
	}

	out, err := cmd.CombinedOutput()
	res := cliRunResult{output: string(out)}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			res.exitCode = exitErr.ExitCode()
		} else {
			t.Fatalf("run cli: %v\n%s", err, out)
		}
	}
	return res
}

func sampleARoll(t *testing.T, tmp string) string {
	t.Helper()
	p := filepath.Join(tmp, "aroll.mp4")
	if err := os.WriteFile(p, []byte("not a real mp4"), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func sampleBrollDir(t *testing.T, tmp string) string {
	t.Helper()
	d := filepath.Join(tmp, "broll")
	if err := os.MkdirAll(d, 0o755); err != nil {
		t.Fatal(err)
	}
	return d
}
