package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/NicabarNimble/go-texbridge/internal/bridge"
)

type writeOptions struct {
	file    string
	message string
	dryRun  bool
}

func newWriteCmd(a *app) *cobra.Command {
	opts := &writeOptions{}

	cmd := &cobra.Command{
		Use:   "write <path>",
		Short: "Replace a document and publish it",
		Long: `Overwrite a document with new content, creating parent directories as needed,
then commit and push. Content is read from --file or stdin.`,
		Example: `  texbridge write resume.tex --file resume.tex
  cat notes.tex | texbridge write chapters/notes.tex -m "Add notes"
  texbridge write resume.tex --file draft.tex --dry-run`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWrite(cmd, a, args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.file, "file", "f", "", "Read content from file (default: stdin)")
	cmd.Flags().StringVarP(&opts.message, "message", "m", "", "Commit message (default: \"Update <path>\")")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "Show the diff without publishing")

	return cmd
}

func runWrite(cmd *cobra.Command, a *app, path string, opts *writeOptions) error {
	content, err := a.readInput(cmd, opts.file)
	if err != nil {
		return err
	}

	report, err := a.service().WriteFile(cmd.Context(), bridge.WriteRequest{
		Path:    path,
		Content: content,
		Message: opts.message,
		DryRun:  opts.dryRun,
	})
	if err != nil {
		return outcome(cmd.OutOrStdout(), err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), report)
	return nil
}
