package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/NicabarNimble/go-texbridge/internal/bridge"
	"github.com/NicabarNimble/go-texbridge/internal/latex"
)

type replaceOptions struct {
	title   string
	body    string
	file    string
	command string
	message string
	dryRun  bool
}

func newReplaceSectionCmd(a *app) *cobra.Command {
	opts := &replaceOptions{}

	cmd := &cobra.Command{
		Use:   "replace-section <path>",
		Short: "Replace the body of one section and publish it",
		Long: `Replace the body of the first section whose heading matches --command and
--title exactly. The heading and the rest of the document are left untouched.
The new body comes from --body, --file or stdin. Nothing is committed when
the section does not exist.`,
		Example: `  texbridge replace-section resume.tex --title Experience --body "New job at Initech."
  texbridge replace-section thesis.tex --command subsection --title Results --file results.tex
  texbridge replace-section resume.tex --title Education --file edu.tex --dry-run`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplaceSection(cmd, a, args[0], opts)
		},
	}

	cmd.Flags().StringVar(&opts.title, "title", "", "Exact section title")
	cmd.Flags().StringVar(&opts.body, "body", "", "New section body")
	cmd.Flags().StringVarP(&opts.file, "file", "f", "", "Read the new body from file (default: stdin)")
	cmd.Flags().StringVar(&opts.command, "command", latex.DefaultHeadingCommand, "Heading command, e.g. section or subsection")
	cmd.Flags().StringVarP(&opts.message, "message", "m", "", "Commit message")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "Show the diff without publishing")
	cmd.MarkFlagRequired("title")
	cmd.MarkFlagsMutuallyExclusive("body", "file")

	return cmd
}

func runReplaceSection(cmd *cobra.Command, a *app, path string, opts *replaceOptions) error {
	body := opts.body
	if !cmd.Flags().Changed("body") {
		var err error
		if body, err = a.readInput(cmd, opts.file); err != nil {
			return err
		}
	}

	report, err := a.service().ReplaceSection(cmd.Context(), bridge.ReplaceRequest{
		Path:    path,
		Title:   opts.title,
		Body:    body,
		Command: opts.command,
		Message: opts.message,
		DryRun:  opts.dryRun,
	})
	if err != nil {
		return outcome(cmd.OutOrStdout(), err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), report)
	return nil
}
