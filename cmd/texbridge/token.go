package main

import (
	stderrors "errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/NicabarNimble/go-texbridge/internal/token"
)

func newTokenCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Inspect the repository access token",
		Long: `Inspect how the access token is resolved. The token is taken from
TEXBRIDGE_TOKEN (or the token key of the config file) and otherwise from
GIT_TOKEN_<KEY>, where KEY defaults to TEXBRIDGE. The value is never printed.`,
	}

	cmd.AddCommand(newTokenCheckCmd(a), newTokenListCmd(a))
	return cmd
}

func newTokenCheckCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Verify that credentials are configured",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			creds, err := a.cfg.Credentials()
			if err != nil {
				return describe(err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Repository: %s\n", creds.RepoURL)

			varName := token.VarName(a.cfg.TokenKey)
			stored, err := a.tokenSource().Lookup(cmd.Context(), a.cfg.TokenKey)
			switch {
			case err == nil && stored.Value == creds.Token:
				fmt.Fprintf(out, "Token: set (%s)\n", varName)
				if !stored.ExpiresAt.IsZero() {
					fmt.Fprintf(out, "Expires: %s (in %s)\n",
						stored.ExpiresAt.Format(time.RFC3339), time.Until(stored.ExpiresAt).Round(time.Minute))
				}
			case err == nil, stderrors.Is(err, token.ErrTokenNotFound):
				fmt.Fprintln(out, "Token: set (configuration)")
			default:
				fmt.Fprintf(out, "Token: set (configuration); %s unusable: %v\n", varName, err)
			}

			fmt.Fprintf(out, "Commit identity: %s <%s>\n", a.cfg.CommitName, creds.CommitEmail)
			fmt.Fprintf(out, "Branches: %s, fallback %s\n", a.cfg.PrimaryBranch, a.cfg.FallbackBranch)
			return nil
		},
	}
}

func newTokenListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List keys with a GIT_TOKEN_<KEY> token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			keys, err := a.tokenSource().Keys(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to list tokens: %w", err)
			}
			for _, k := range keys {
				if k == a.cfg.TokenKey {
					fmt.Fprintf(cmd.OutOrStdout(), "%s (active)\n", k)
					continue
				}
				fmt.Fprintln(cmd.OutOrStdout(), k)
			}
			return nil
		},
	}
}
