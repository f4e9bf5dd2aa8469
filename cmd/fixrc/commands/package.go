package commands

import (
	"github.com/spf13/cobra"
	"github.com/walteh/fixrc/cmd/fixrc/opts"
)

// NewPackageCmd creates a new package command
func NewPackageCmd(ro *opts.RootOpts) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "package",
		Short: "Build distribution artifacts from the current tree",
		Long: `Package assembles a version-named distribution directory with a
manifest, README and installer script, then archives it in the configured
formats. The tree is packaged as-is; run remediate or install first.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			p, err := ro.NewPackager()
			if err != nil {
				return err
			}

			ro.Reporter.Header("packaging " + p.StageName())

			artifacts, err := p.Build(ctx)
			if err != nil {
				return err
			}

			for _, a := range artifacts {
				ro.Reporter.Successf("artifact: %s", a)
			}
			return nil
		},
	}

	return cmd
}
