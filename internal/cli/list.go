package cli

import (
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/mod/semver"

	"nvup/internal/domain"
)

func newListCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List installed versions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			versions, active, err := e.svc.List()
			if err != nil {
				return err
			}
			if len(versions) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No versions installed.")
				return nil
			}

			out := cmd.OutOrStdout()
			for _, v := range versions {
				line := styleVersion.Render(v.Token.DirName())
				if active != nil && v.Token.Equal(*active) {
					line = styleActive.Render(v.Token.DirName() + " *")
				}
				detail := ""
				if v.FullCommitHash != "" {
					hash := v.FullCommitHash
					if len(hash) > 7 {
						hash = hash[:7]
					}
					detail = styleDetail.Render("  " + hash)
					if v.BuiltFromSource {
						detail += styleDetail.Render(" (source build)")
					}
				}
				if !v.InstalledAt.IsZero() {
					detail += styleDetail.Render("  " + v.InstalledAt.Format(time.DateOnly))
				}
				fmt.Fprintln(out, line+detail)
			}
			return nil
		},
	}
}

func newListRemoteCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "list-remote",
		Short: "List versions published upstream",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			releases, err := e.svc.ListRemote()
			if err != nil {
				return err
			}
			installed, _, err := e.svc.List()
			if err != nil {
				return err
			}
			have := make(map[string]bool, len(installed))
			for _, v := range installed {
				have[v.Token.DirName()] = true
			}

			sortReleases(releases)
			out := cmd.OutOrStdout()
			for _, rel := range releases {
				tok, err := domain.ParseToken(rel.TagName)
				if err != nil {
					continue
				}
				switch {
				case have[tok.DirName()]:
					fmt.Fprintln(out, styleActive.Render(rel.TagName+" (installed)"))
				default:
					fmt.Fprintln(out, styleVersion.Render(rel.TagName))
				}
			}
			return nil
		},
	}
}

// sortReleases orders semver tags descending with the nightly on top.
func sortReleases(releases []domain.Release) {
	sort.SliceStable(releases, func(i, j int) bool {
		vi, vj := releases[i].TagName, releases[j].TagName
		switch {
		case vi == "nightly":
			return true
		case vj == "nightly":
			return false
		default:
			return semver.Compare(vi, vj) > 0
		}
	})
}
