package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

type readOptions struct {
	raw bool
}

func newReadCmd(a *app) *cobra.Command {
	opts := &readOptions{}

	cmd := &cobra.Command{
		Use:   "read <path>",
		Short: "Print a document",
		Long: `Print a document from the repository. By default LaTeX is rendered as a
plain-text preview; use --raw for the source.`,
		Example: `  texbridge read resume.tex
  texbridge read chapters/intro.tex --raw`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := a.service().ReadFile(cmd.Context(), args[0], opts.raw)
			if err != nil {
				return outcome(cmd.OutOrStdout(), err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), strings.TrimRight(text, "\n"))
			return nil
		},
	}

	cmd.Flags().BoolVar(&opts.raw, "raw", false, "Print the LaTeX source instead of the preview")

	return cmd
}

func newListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List repository files",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			files, err := a.service().ListFiles(cmd.Context())
			if err != nil {
				return outcome(cmd.OutOrStdout(), err)
			}
			for _, f := range files {
				fmt.Fprintln(cmd.OutOrStdout(), f)
			}
			return nil
		},
	}
}
