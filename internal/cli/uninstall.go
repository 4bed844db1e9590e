package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/huh"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"nvup/internal/adapter/proxy"
	"nvup/internal/domain"
)

func newUninstallCmd(e *env) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "uninstall [version...]",
		Short: "Remove installed versions",
		Long:  "Remove installed versions. Without arguments on a terminal, pick them interactively.",
		RunE: func(cmd *cobra.Command, args []string) error {
			names := args
			if len(names) == 0 {
				picked, err := pickVersions(e)
				if err != nil {
					return err
				}
				if len(picked) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "Nothing selected.")
					return nil
				}
				names = picked
			}

			for _, name := range names {
				tok, err := domain.ParseToken(name)
				if err != nil {
					return err
				}
				if err := e.svc.Uninstall(tok, force); err != nil {
					if errors.Is(err, domain.ErrActiveVersionInUse) {
						return fmt.Errorf("%s is the active version; switch away first or pass --force", tok.DirName())
					}
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Uninstalled %s\n", tok.DirName())
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "allow removing the active version")
	return cmd
}

// pickVersions runs the interactive multi-select. Off a terminal there is
// nothing to ask; the caller must name versions explicitly.
func pickVersions(e *env) ([]string, error) {
	if !isatty.IsTerminal(os.Stdin.Fd()) {
		return nil, errors.New("no versions given; pass them as arguments when not on a terminal")
	}

	versions, activeTok, err := e.svc.List()
	if err != nil {
		return nil, err
	}
	if len(versions) == 0 {
		return nil, errors.New("nothing is installed")
	}

	var options []huh.Option[string]
	for _, v := range versions {
		label := v.Token.DirName()
		if activeTok != nil && v.Token.Equal(*activeTok) {
			label += " (active)"
		}
		options = append(options, huh.NewOption(label, v.Token.DirName()))
	}

	var picked []string
	form := huh.NewForm(huh.NewGroup(
		huh.NewMultiSelect[string]().
			Title("Select versions to uninstall").
			Options(options...).
			Value(&picked),
	))
	if err := form.Run(); err != nil {
		return nil, err
	}
	return picked, nil
}

func newEraseCmd(e *env) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "erase",
		Short: "Remove all installed versions, caches, and state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				if !isatty.IsTerminal(os.Stdin.Fd()) {
					return errors.New("refusing to erase without --yes off a terminal")
				}
				var confirmed bool
				form := huh.NewForm(huh.NewGroup(
					huh.NewConfirm().
						Title(fmt.Sprintf("Erase everything under %s?", e.cfg.InstallDir)).
						Value(&confirmed),
				))
				if err := form.Run(); err != nil {
					return err
				}
				if !confirmed {
					fmt.Fprintln(cmd.OutOrStdout(), "Aborted.")
					return nil
				}
			}
			if err := e.svc.Erase(); err != nil {
				return err
			}
			if err := proxy.RemoveLinks(e.cfg.ProxyBinDir); err != nil {
				return fmt.Errorf("remove proxy links: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "All managed state removed.")
			return nil
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "skip the confirmation prompt")
	return cmd
}
