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

// Package install builds and executes installation plans: an ordered step
// list per strategy, sequential execution with per-step accounting, and
// automatic rollback from the run's backup set when a plan fails.
package install

import (
	"context"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog"
	"github.com/walteh/fixrc/pkg/backup"
	"github.com/walteh/fixrc/pkg/config"
	"github.com/walteh/fixrc/pkg/fixlog"
	"github.com/walteh/fixrc/pkg/remedy"
	"gitlab.com/tozd/go/errors"
	"gopkg.in/yaml.v3"
)

// 🚦 State tracks the orchestrator lifecycle
type State int

const (
	StateNotStarted State = iota
	StateRunning
	StateSucceeded
	StatePartiallySucceeded
	StateFailed
)

// String returns a string representation of State
func (s State) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StateSucceeded:
		return "succeeded"
	case StatePartiallySucceeded:
		return "partially succeeded"
	case StateFailed:
		return "failed"
	default:
		return "not started"
	}
}

// Classification thresholds on the step success rate
const (
	successThreshold = 0.75
	partialThreshold = 0.50
)

// 🗄️ BackupStore is the snapshot/restore contract the orchestrator needs
type BackupStore interface {
	Snapshot(ctx context.Context, files []string) (*backup.BackupSet, error)
	Restore(ctx context.Context, set *backup.BackupSet) error
}

// 🔧 Remediator is the remediation contract the orchestrator needs
type Remediator interface {
	TargetFiles(catalogue []remedy.Transformation) []string
	Run(ctx context.Context, catalogue []remedy.Transformation) (*remedy.Report, error)
}

// 📦 Packager builds distribution artifacts for packaging strategies
type Packager interface {
	Build(ctx context.Context) ([]string, error)
}

// 📊 StepResult records the outcome of one executed step
type StepResult struct {
	Name     string
	Required bool
	Outcome  StepOutcome
	Err      string
}

// 🏁 Result is the final outcome of one orchestrator run
type Result struct {
	State       State
	Strategy    Strategy
	Passed      int
	Total       int
	Rate        float64
	Steps       []StepResult
	BackupDir   string
	RolledBack  bool
	Artifacts   []string
	Remediation *remedy.Report
}

// ExitCode maps the classification to a process exit status
func (r Result) ExitCode() int {
	switch r.State {
	case StateSucceeded:
		return 0
	case StatePartiallySucceeded:
		return 2
	default:
		return 1
	}
}

// 🔧 Options contains configuration for the orchestrator
type Options struct {
	// Config is the run configuration
	Config *config.Config
	// Store creates and restores backup sets
	Store BackupStore
	// Engine applies the remediation catalogue
	Engine Remediator
	// Catalogue is the fixed transformation table for this run
	Catalogue []remedy.Transformation
	// Packager builds artifacts; required for packaging strategies
	Packager Packager
	// Smoke runs the post-install smoke test; nil marks the step skipped
	Smoke SmokeRunner
	// Reporter writes the staged console report; optional
	Reporter *fixlog.Logger
}

// 🎮 Orchestrator executes installation plans
type Orchestrator struct {
	cfg       *config.Config
	store     BackupStore
	engine    Remediator
	catalogue []remedy.Transformation
	packager  Packager
	smoke     SmokeRunner
	reporter  *fixlog.Logger

	state     State
	strategy  Strategy
	set       *backup.BackupSet
	report    *remedy.Report
	artifacts []string
}

// 🏭 New creates a new orchestrator with the given options
func New(opts Options) (*Orchestrator, error) {
	if opts.Config == nil {
		return nil, errors.Errorf("config is required")
	}
	if opts.Store == nil {
		return nil, errors.Errorf("backup store is required")
	}
	if opts.Engine == nil {
		return nil, errors.Errorf("remediation engine is required")
	}
	return &Orchestrator{
		cfg:       opts.Config,
		store:     opts.Store,
		engine:    opts.Engine,
		catalogue: opts.Catalogue,
		packager:  opts.Packager,
		smoke:     opts.Smoke,
		reporter:  opts.Reporter,
		state:     StateNotStarted,
	}, nil
}

// State returns the current lifecycle state
func (o *Orchestrator) State() State {
	return o.state
}

// 🏗️ BuildPlan builds the ordered step list for a strategy. The step order
// is fixed: dependency check, backup, remediate, materialize artifacts,
// smoke test, finalize. Packaging strategies route the materialize step
// through the packager; the others copy or verify the tree in place.
func (o *Orchestrator) BuildPlan(strategy Strategy) (*Plan, error) {
	if strategy.NeedsPackaging() && o.packager == nil {
		return nil, errors.Errorf("strategy %s requires a packager", strategy)
	}
	o.strategy = strategy

	steps := []Step{
		{Name: "dependency check", Required: false, Run: o.checkDependencies},
		{Name: "backup", Required: true, Fatal: true, Run: o.takeBackup},
		{Name: "remediate", Required: true, Run: o.remediate},
		o.materializeStep(strategy),
		{Name: "smoke test", Required: false, Skip: o.cfg.SkipTests || o.smoke == nil, Run: o.runSmokeTest},
		{Name: "finalize", Required: true, Run: o.finalize},
	}

	return NewPlan(strategy, steps), nil
}

// 🏃 Execute runs the plan's steps strictly in declared order, accumulates
// the success rate, classifies the outcome against the thresholds, and
// rolls back from the run's backup set when the plan fails.
func (o *Orchestrator) Execute(ctx context.Context, plan *Plan) (Result, error) {
	logger := zerolog.Ctx(ctx)

	if plan == nil {
		return Result{}, errors.Errorf("plan is required")
	}
	if plan.Len() == 0 {
		return Result{}, errors.Errorf("plan has no steps")
	}

	o.state = StateRunning
	steps := plan.Steps()
	result := Result{
		Strategy: plan.Strategy(),
		Total:    len(steps),
		Steps:    make([]StepResult, 0, len(steps)),
	}

	aborted := false
	for _, step := range steps {
		if aborted {
			result.Steps = append(result.Steps, StepResult{Name: step.Name, Required: step.Required, Outcome: OutcomePending})
			continue
		}

		outcome, err := o.runStep(ctx, step)
		sr := StepResult{Name: step.Name, Required: step.Required, Outcome: outcome}
		if err != nil {
			sr.Err = err.Error()
		}
		result.Steps = append(result.Steps, sr)
		o.reportStep(ctx, step, outcome, err)

		if outcome == OutcomeFailure && step.Required && (!o.cfg.Force || step.Fatal) {
			logger.Error().Str("step", step.Name).Err(err).Msg("required step failed, aborting plan")
			aborted = true
		}
	}

	for _, sr := range result.Steps {
		if sr.Outcome == OutcomeSuccess || sr.Outcome == OutcomeSkipped {
			result.Passed++
		}
	}
	result.Rate = float64(result.Passed) / float64(result.Total)

	switch {
	case aborted:
		o.state = StateFailed
	case result.Rate >= successThreshold:
		o.state = StateSucceeded
	case result.Rate >= partialThreshold:
		o.state = StatePartiallySucceeded
	default:
		o.state = StateFailed
	}
	result.State = o.state
	result.Artifacts = o.artifacts
	result.Remediation = o.report
	if o.set != nil {
		result.BackupDir = o.set.Dir
	}

	if o.state == StateFailed && o.set != nil {
		if err := o.store.Restore(ctx, o.set); err != nil {
			logger.Error().Err(err).Msg("rollback incomplete")
			if o.reporter != nil {
				o.reporter.Errorf("rollback incomplete: %v", err)
				o.reporter.Warningf("backup preserved at %s for manual recovery", o.set.Dir)
			}
		} else {
			result.RolledBack = true
			if o.reporter != nil {
				o.reporter.Warningf("rolled back from backup %s", o.set.Dir)
			}
		}
	}

	logger.Info().
		Str("state", o.state.String()).
		Int("passed", result.Passed).
		Int("total", result.Total).
		Float64("rate", result.Rate).
		Msg("plan execution complete")

	return result, nil
}

// runStep executes a single step
func (o *Orchestrator) runStep(ctx context.Context, step Step) (StepOutcome, error) {
	if step.Skip {
		return OutcomeSkipped, nil
	}
	if step.Run == nil {
		return OutcomeSuccess, nil
	}
	if err := step.Run(ctx); err != nil {
		return OutcomeFailure, err
	}
	return OutcomeSuccess, nil
}

// reportStep writes the per-step console line
func (o *Orchestrator) reportStep(ctx context.Context, step Step, outcome StepOutcome, err error) {
	if o.reporter == nil {
		return
	}
	result := outcome.String()
	if err != nil {
		result = "failure: " + err.Error()
	}
	o.reporter.LogStepOperation(ctx, fixlog.StepOperation{
		Name:     step.Name,
		Required: step.Required,
		Result:   result,
		IsFailed: outcome == OutcomeFailure,
	})
}

// checkDependencies verifies the working tree exists and the syntax
// checker binary is reachable. A missing checker degrades validation but
// does not block installation, so this step is optional.
func (o *Orchestrator) checkDependencies(ctx context.Context) error {
	info, err := os.Stat(o.cfg.WorkingTree)
	if err != nil {
		return errors.Errorf("working tree %s: %w", o.cfg.WorkingTree, err)
	}
	if !info.IsDir() {
		return errors.Errorf("working tree %s is not a directory", o.cfg.WorkingTree)
	}

	if len(o.cfg.SyntaxChecker) > 0 {
		if _, err := exec.LookPath(o.cfg.SyntaxChecker[0]); err != nil {
			return errors.Errorf("syntax checker %s not found: %w", o.cfg.SyntaxChecker[0], err)
		}
	}
	return nil
}

// takeBackup snapshots every catalogue target before the first
// destructive step. The snapshot must be durable on disk before
// remediation begins; failure here is fatal to the plan.
func (o *Orchestrator) takeBackup(ctx context.Context) error {
	set, err := o.store.Snapshot(ctx, o.engine.TargetFiles(o.catalogue))
	if err != nil {
		return errors.Errorf("creating backup: %w", err)
	}
	o.set = set

	if o.reporter != nil {
		o.reporter.Infof("backup created at %s (%d files)", set.Dir, len(set.SourceFiles))
		for _, missing := range set.Warnings {
			o.reporter.Warningf("not backed up (missing): %s", missing)
		}
	}
	return nil
}

// remediate drives the engine once. Transformation-level failures are
// isolated per file and reported; they never escalate to a step failure.
func (o *Orchestrator) remediate(ctx context.Context) error {
	report, err := o.engine.Run(ctx, o.catalogue)
	if err != nil {
		return errors.Errorf("running remediation: %w", err)
	}
	o.report = report

	if o.reporter != nil {
		for _, outcome := range report.Outcomes {
			result := outcome.Result.String()
			if outcome.Result == remedy.ResultFailed {
				result = "failed: " + outcome.Reason
			}
			o.reporter.LogFixOperation(ctx, fixlog.FixOperation{
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
				o.reporter.Warningf("syntax validation failed for %s: %s", v.File, v.Detail)
			}
		}
	}
	return nil
}

// materializeStep builds the strategy-specific artifact step
func (o *Orchestrator) materializeStep(strategy Strategy) Step {
	if strategy.NeedsPackaging() {
		// Packaging failures degrade the classification but never corrupt
		// already-installed files, so the step is optional.
		return Step{Name: "package artifacts", Required: false, Run: o.buildArtifacts}
	}
	if strategy == StrategyLocal {
		// Local strategy remediates in place; nothing to materialize.
		return Step{Name: "materialize artifacts", Required: true, Run: nil}
	}
	return Step{Name: "materialize artifacts", Required: true, Run: func(ctx context.Context) error {
		return o.installTree(ctx, strategy)
	}}
}

// buildArtifacts drives the distribution packager
func (o *Orchestrator) buildArtifacts(ctx context.Context) error {
	artifacts, err := o.packager.Build(ctx)
	if err != nil {
		return errors.Errorf("building distribution: %w", err)
	}
	o.artifacts = artifacts

	if o.reporter != nil {
		for _, a := range artifacts {
			o.reporter.Successf("artifact: %s", a)
		}
	}
	return nil
}

// installTree copies the remediated tree to the strategy's destination
func (o *Orchestrator) installTree(ctx context.Context, strategy Strategy) error {
	dst, err := o.installDir(strategy)
	if err != nil {
		return err
	}
	if err := copyTree(o.cfg.WorkingTree, dst); err != nil {
		return errors.Errorf("installing to %s: %w", dst, err)
	}
	if o.reporter != nil {
		o.reporter.Successf("installed to %s", dst)
	}
	o.artifacts = append(o.artifacts, dst)
	return nil
}

// installDir resolves the destination for a non-packaging strategy
func (o *Orchestrator) installDir(strategy Strategy) (string, error) {
	if o.cfg.Destination != "" {
		return o.cfg.Destination, nil
	}
	base := filepath.Base(o.cfg.WorkingTree)
	switch strategy {
	case StrategyUser:
		home, err := os.UserHomeDir()
		if err != nil {
			return "", errors.Errorf("resolving home directory: %w", err)
		}
		return filepath.Join(home, ".local", "share", "fixrc", base), nil
	case StrategySystem:
		return filepath.Join("/usr/local/share/fixrc", base), nil
	default:
		return o.cfg.WorkingTree, nil
	}
}

// runSmokeTest executes the bounded smoke test
func (o *Orchestrator) runSmokeTest(ctx context.Context) error {
	return o.smoke.Run(ctx)
}

// 🧾 receipt is the durable record written by the finalize step
type receipt struct {
	Strategy    string    `yaml:"strategy"`
	CompletedAt time.Time `yaml:"completed_at"`
	BackupDir   string    `yaml:"backup_dir,omitempty"`
	Applied     int       `yaml:"applied"`
	Skipped     int       `yaml:"skipped"`
	Failed      int       `yaml:"failed"`
	Artifacts   []string  `yaml:"artifacts,omitempty"`
}

// finalize writes the install receipt into the working tree
func (o *Orchestrator) finalize(ctx context.Context) error {
	r := receipt{
		Strategy:    o.strategy.String(),
		CompletedAt: time.Now().UTC(),
		Artifacts:   o.artifacts,
	}
	if o.set != nil {
		r.BackupDir = o.set.Dir
	}
	if o.report != nil {
		r.Applied, r.Skipped, r.Failed = o.report.Counts()
	}

	data, err := yaml.Marshal(&r)
	if err != nil {
		return errors.Errorf("marshaling receipt: %w", err)
	}
	path := filepath.Join(o.cfg.WorkingTree, ".fixrc_receipt.yaml")
	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.Errorf("writing receipt: %w", err)
	}
	return nil
}

// treeCopyExcludes keeps transient artifacts out of installed trees
var treeCopyExcludes = []string{
	"fixrc_backup_*/**",
	"fixrc_backup_*",
	"__pycache__/**",
	"**/*.pyc",
	".git/**",
	"*.tmp",
}

// copyTree copies src into dst, skipping excluded paths
func copyTree(src, dst string) error {
	return filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return errors.Errorf("resolving relative path: %w", err)
		}
		if rel == "." {
			return os.MkdirAll(dst, 0755)
		}

		for _, pattern := range treeCopyExcludes {
			matched, matchErr := doublestar.Match(pattern, filepath.ToSlash(rel))
			if matchErr == nil && matched {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
		}

		target := filepath.Join(dst, rel)
		if d.IsDir() {
			return os.MkdirAll(target, 0755)
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return errors.Errorf("reading %s: %w", path, err)
		}
		if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
			return errors.Errorf("creating parent directories: %w", err)
		}
		if err := os.WriteFile(target, data, 0644); err != nil {
			return errors.Errorf("writing %s: %w", target, err)
		}
		return nil
	})
}
