package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newRollbackCmd(e *env) *cobra.Command {
	var list bool

	cmd := &cobra.Command{
		Use:   "rollback [commit]",
		Short: "Restore a previously archived nightly build",
		Long:  "Restore a previously archived nightly build. Without an argument the most recent one is restored; a commit hash prefix selects an older slot.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			if list {
				slots, err := e.svc.RollbackSlots()
				if err != nil {
					return err
				}
				if len(slots) == 0 {
					fmt.Fprintln(out, "No rollback history.")
					return nil
				}
				for _, slot := range slots {
					fmt.Fprintf(out, "%s  %s\n",
						styleVersion.Render(slot.Commit),
						styleDetail.Render(slot.ArchivedAt.Format(time.DateTime)))
				}
				return nil
			}

			selector := ""
			if len(args) == 1 {
				selector = args[0]
			}
			slot, err := e.svc.Rollback(selector)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Rolled back to nightly %s\n", slot.Commit)
			return nil
		},
	}
	cmd.Flags().BoolVar(&list, "list", false, "list the rollback history instead of restoring")
	return cmd
}
