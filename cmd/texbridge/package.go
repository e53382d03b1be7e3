package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/NicabarNimble/go-texbridge/internal/packager"
)

type packageOptions struct {
	file     string
	settings packager.Settings
}

func newPackageCmd(a *app) *cobra.Command {
	opts := &packageOptions{settings: packager.DefaultSettings()}

	cmd := &cobra.Command{
		Use:   "package",
		Short: "Turn a chat transcript into a portable prompt package",
		Long: `Summarize a chat transcript with Gemini and print a JSON prompt package
(summary, context, examples, final_prompt, usage_notes).
Requires GEMINI_API_KEY. The transcript is read from --file or stdin.`,
		Example: `  texbridge package --file chat.txt
  pbpaste | texbridge package --detail-level short --target-use system_prompt`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPackage(cmd, a, opts)
		},
	}

	s := &opts.settings
	cmd.Flags().StringVarP(&opts.file, "file", "f", "", "Read the transcript from file (default: stdin)")
	cmd.Flags().StringVar(&s.DetailLevel, "detail-level", s.DetailLevel, "short, medium or long")
	cmd.Flags().IntVar(&s.MaxExamples, "max-examples", s.MaxExamples, "Maximum example pairs (0-10)")
	cmd.Flags().StringVar(&s.Tone, "tone", s.Tone, "neutral, friendly or formal")
	cmd.Flags().StringVar(&s.TargetUse, "target-use", s.TargetUse, "system_prompt or single_prompt")
	cmd.Flags().StringVar(&s.Language, "language", s.Language, "Output language")

	return cmd
}

func runPackage(cmd *cobra.Command, a *app, opts *packageOptions) error {
	chat, err := a.readInput(cmd, opts.file)
	if err != nil {
		return err
	}
	pkg, err := a.packager(cmd.Context())
	if err != nil {
		return err
	}

	out := pkg.Package(cmd.Context(), chat, opts.settings)
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))

	if msg, failed := out["error"]; failed && len(out) == 1 {
		return fmt.Errorf("%v", msg)
	}
	return nil
}
