// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package commands implements the fixrc subcommands
package commands

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/walteh/fixrc/cmd/fixrc/opts"
	"github.com/walteh/fixrc/pkg/install"
	"github.com/walteh/fixrc/pkg/remedy"
	"gitlab.com/tozd/go/errors"
)

// NewInstallCmd creates a new install command
func NewInstallCmd(ro *opts.RootOpts) *cobra.Command {
	var (
		strategyFlag string
		force        bool
		skipTests    bool
		destination  string
	)

	cmd := &cobra.Command{
		Use:   "install",
		Short: "Remediate the tree and install it with the chosen strategy",
		Long: `Install runs the full plan for one strategy:
1. Check dependencies
2. Back up every file the fix catalogue targets
3. Apply the fix catalogue
4. Materialize artifacts (copy tree or build packages)
5. Run the smoke test
6. Write the install receipt

A failed plan rolls the tree back from the run's backup. Exit status is 0
on success, 2 on partial success, 1 on failure.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			if strategyFlag == "" {
				strategyFlag = ro.Config.Strategy
			}
			strategy, err := install.ParseStrategy(strategyFlag)
			if err != nil {
				return err
			}

			if force {
				ro.Config.Force = true
			}
			if skipTests {
				ro.Config.SkipTests = true
			}
			if destination != "" {
				ro.Config.Destination = destination
			}

			engine, err := ro.NewEngine()
			if err != nil {
				return err
			}

			var packager install.Packager
			if strategy.NeedsPackaging() {
				p, err := ro.NewPackager()
				if err != nil {
					return errors.Errorf("strategy %s: %w", strategy, err)
				}
				packager = p
			}

			orch, err := install.New(install.Options{
				Config:    ro.Config,
				Store:     ro.NewStore(),
				Engine:    engine,
				Catalogue: remedy.DefaultCatalogue(),
				Packager:  packager,
				Smoke:     ro.NewSmokeRunner(),
				Reporter:  ro.Reporter,
			})
			if err != nil {
				return err
			}

			plan, err := orch.BuildPlan(strategy)
			if err != nil {
				return err
			}

			ro.Reporter.Header(fmt.Sprintf("installing %s with %s strategy", ro.Config.WorkingTree, strategy))

			result, err := orch.Execute(ctx, plan)
			if err != nil {
				return err
			}

			rows := [][]string{
				{"state", result.State.String()},
				{"steps passed", fmt.Sprintf("%d/%d", result.Passed, result.Total)},
			}
			if result.BackupDir != "" {
				rows = append(rows, []string{"backup", result.BackupDir})
			}
			if result.Remediation != nil {
				applied, skipped, failed := result.Remediation.Counts()
				rows = append(rows, []string{"fixes", fmt.Sprintf("%d applied, %d skipped, %d failed", applied, skipped, failed)})
			}
			if len(result.Artifacts) > 0 {
				rows = append(rows, []string{"artifacts", strings.Join(result.Artifacts, ", ")})
			}
			rows = append(rows, []string{"rolled back", strconv.FormatBool(result.RolledBack)})
			ro.Reporter.Summary(rows)

			switch result.State {
			case install.StateSucceeded:
				ro.Reporter.Success("installation succeeded")
			case install.StatePartiallySucceeded:
				ro.Reporter.Warning("installation partially succeeded")
			default:
				ro.Reporter.Error("installation failed")
			}

			ro.ExitCode = result.ExitCode()
			return nil
		},
	}

	cmd.Flags().StringVarP(&strategyFlag, "strategy", "s", "", "installation strategy (local, user, system, packaged, distributable)")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "continue past required step failures")
	cmd.Flags().BoolVar(&skipTests, "skip-tests", false, "skip the smoke test step")
	cmd.Flags().StringVar(&destination, "destination", "", "override the install destination")

	return cmd
}
