package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"nvup/internal/adapter/proxy"
	"nvup/internal/domain"
)

func newInstallCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "install <version>",
		Short: "Install a version without activating it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tok, err := domain.ParseToken(args[0])
			if err != nil {
				return err
			}
			installed, err := e.svc.Install(tok)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Installed %s\n", installed.DirName())
			return nil
		},
	}
}

func newRunCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "run <version> [args...]",
		Short: "Run a specific version without switching the active one",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tok, err := domain.ParseToken(args[0])
			if err != nil {
				return err
			}
			bin, err := e.svc.RunBinPath(tok)
			if err != nil {
				return err
			}
			return proxy.Exec(bin, args[1:])
		},
	}
}
