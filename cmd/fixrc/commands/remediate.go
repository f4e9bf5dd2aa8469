package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/walteh/fixrc/cmd/fixrc/opts"
	"github.com/walteh/fixrc/pkg/fixlog"
	"github.com/walteh/fixrc/pkg/remedy"
	"gitlab.com/tozd/go/errors"
)

// NewRemediateCmd creates a new remediate command
func NewRemediateCmd(ro *opts.RootOpts) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "remediate",
		Short: "Apply the fix catalogue in place, without installing",
		Long: `Remediate snapshots every file the fix catalogue targets, applies the
ordered catalogue to the working tree, and validates the syntax of every
touched file. No installation step runs; use install for the full plan.

Remediation is idempotent: rerunning on a fixed tree changes nothing. The
backup directory is preserved for manual recovery.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			engine, err := ro.NewEngine()
			if err != nil {
				return err
			}

			ro.Reporter.Header(fmt.Sprintf("remediating %s", ro.Config.WorkingTree))

			catalogue := remedy.DefaultCatalogue()

			// No file is mutated before its snapshot is durable on disk
			set, err := ro.NewStore().Snapshot(ctx, engine.TargetFiles(catalogue))
			if err != nil {
				return errors.Errorf("creating backup: %w", err)
			}
			ro.Reporter.Infof("backup created at %s (%d files)", set.Dir, len(set.SourceFiles))
			for _, missing := range set.Warnings {
				ro.Reporter.Warningf("not backed up (missing): %s", missing)
			}

			report, err := engine.Run(ctx, catalogue)
			if err != nil {
				return err
			}

			for _, outcome := range report.Outcomes {
				result := outcome.Result.String()
				if outcome.Result == remedy.ResultFailed {
					result = "failed: " + outcome.Reason
				}
				ro.Reporter.LogFixOperation(ctx, fixlog.FixOperation{
					Name:         outcome.Transformation,
					File:         outcome.File,
					Result:       result,
					IsApplied:    outcome.Result == remedy.ResultApplied,
					IsSkipped:    outcome.Result == remedy.ResultSkippedNoFile || outcome.Result == remedy.ResultSkippedPrecondition,
					IsFailed:     outcome.Result == remedy.ResultFailed,
					Replacements: outcome.Edits,
				})
			}
			for _, v := range report.Validation {
				if !v.OK {
					ro.Reporter.Warningf("syntax validation failed for %s: %s", v.File, v.Detail)
				}
			}

			applied, skipped, failed := report.Counts()
			ro.Reporter.Summary([][]string{
				{"applied", fmt.Sprintf("%d", applied)},
				{"skipped", fmt.Sprintf("%d", skipped)},
				{"failed", fmt.Sprintf("%d", failed)},
				{"backup", set.Dir},
			})

			if report.HasFailures() {
				ro.Reporter.Errorf("some fixes failed; backup preserved at %s", set.Dir)
				ro.ExitCode = 1
			} else {
				ro.Reporter.Success("remediation complete")
			}
			return nil
		},
	}

	return cmd
}
