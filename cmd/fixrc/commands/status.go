package commands

import (
	"github.com/spf13/cobra"
	"github.com/walteh/fixrc/cmd/fixrc/opts"
	"github.com/walteh/fixrc/pkg/remedy"
)

// NewStatusCmd creates a new status command
func NewStatusCmd(ro *opts.RootOpts) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Report which fixes the tree still needs",
		Long: `Status evaluates every fix precondition against the working tree
without changing anything, and lists the fixes that would apply. Exits 1
when fixes are pending so scripts can branch on it.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			engine, err := ro.NewEngine()
			if err != nil {
				return err
			}

			pending, err := engine.Pending(ctx, remedy.DefaultCatalogue())
			if err != nil {
				return err
			}

			if len(pending) == 0 {
				ro.Reporter.Success("tree is fully remediated")
				return nil
			}

			ro.Reporter.Warningf("%d fixes pending:", len(pending))
			for _, name := range pending {
				ro.Reporter.Info("  " + name)
			}
			ro.ExitCode = 1
			return nil
		},
	}

	return cmd
}
