package main

import (
	"context"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/walteh/fixrc/cmd/fixrc/commands"
	"github.com/walteh/fixrc/cmd/fixrc/opts"
)

func main() {
	// Setup logging
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	ctx := logger.WithContext(context.Background())

	ro := &opts.RootOpts{}

	// Create root command
	rootCmd := &cobra.Command{
		Use:   "fixrc",
		Short: "A tool for remediating and installing source trees",
		Long: `fixrc applies an ordered catalogue of idempotent fixes to a source
tree, with pre-flight backups, post-fix syntax validation, and installation
strategies ranging from in-place remediation to shareable distributions.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initRootOpts(cmd.Context(), ro)
		},
	}

	// Add shared flags
	addRootFlags(rootCmd)

	// Add commands
	rootCmd.AddCommand(
		commands.NewInstallCmd(ro),
		commands.NewRemediateCmd(ro),
		commands.NewPackageCmd(ro),
		commands.NewStatusCmd(ro),
	)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		logger.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}

	os.Exit(ro.ExitCode)
}
