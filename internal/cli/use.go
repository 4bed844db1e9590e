package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"nvup/internal/adapter/proxy"
	"nvup/internal/domain"
)

func newUseCmd(e *env) *cobra.Command {
	var noInstall bool

	cmd := &cobra.Command{
		Use:   "use <version>",
		Short: "Switch the active version, installing it when missing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tok, err := domain.ParseToken(args[0])
			if err != nil {
				return err
			}
			used, err := e.svc.Use(tok, noInstall)
			if err != nil {
				return err
			}
			if err := proxy.EnsureLinks(e.cfg.ProxyBinDir); err != nil {
				return fmt.Errorf("update proxy links: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Now using %s\n", used.DirName())
			return nil
		},
	}
	cmd.Flags().BoolVar(&noInstall, "no-install", false, "fail instead of installing a missing version")
	return cmd
}

func newSyncCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Switch to the version named in the sync file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			used, err := e.svc.Sync()
			if err != nil {
				return err
			}
			if err := proxy.EnsureLinks(e.cfg.ProxyBinDir); err != nil {
				return fmt.Errorf("update proxy links: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Synced to %s\n", used.DirName())
			return nil
		},
	}
}
