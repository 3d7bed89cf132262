package cli

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func Main() {
	_ = godotenv.Load() // best-effort: load .env if present

	root := &cobra.Command{
		Use:          "brollplan <a-roll.mp4>",
		Short:        "Plan B-roll cutaways for a talking-head video",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, args[0])
		},
	}

	root.SetOut(os.Stdout)
	root.SetErr(os.Stderr)
	root.SilenceErrors = true

	// Visible flags
	root.Flags().String("broll", "", "Directory of B-roll clips (required)")
	root.Flags().String("out", "out", "Output directory")
	root.Flags().Float64("threshold", 0.4, "Minimum similarity score for a match")
	root.Flags().Float64("min-gap", 8.0, "Minimum seconds between B-roll insertions")
	root.Flags().Bool("render", false, "Render the composed video alongside the EDL")
	_ = root.MarkFlagRequired("broll")

	// Hidden tuning flags (internal)
	root.Flags().String("cache-dir", ".cache", "Cache directory")
	_ = root.Flags().MarkHidden("cache-dir")
	root.Flags().String("log-level", "info", "Log level")
	_ = root.Flags().MarkHidden("log-level")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
