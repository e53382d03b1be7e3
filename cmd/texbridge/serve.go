package main

import (
	"github.com/spf13/cobra"

	"github.com/NicabarNimble/go-texbridge/internal/tools"
)

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the document tools over MCP stdio",
		Long: `Serve read_file, write_file, list_files, replace_section and build_prompt_package
as MCP tools on stdin/stdout. Logs go to stderr.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			pkg, err := a.packager(cmd.Context())
			if err != nil {
				return err
			}
			s := tools.NewServer(a.service(), pkg, version, a.logger)
			return s.Serve(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
}
