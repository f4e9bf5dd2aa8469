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

// Package remedy applies a fixed, ordered catalogue of textual
// transformations to named files in a working tree. Transformations are
// idempotent: a second run over an already-remediated tree skips every
// entry on its precondition. Failures are isolated per file and never
// abort the run.
package remedy

import (
	"context"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// 📊 Result classifies a transformation outcome
type Result int

const (
	ResultApplied Result = iota
	ResultSkippedNoFile
	ResultSkippedPrecondition
	ResultFailed
)

// String returns a string representation of Result
func (r Result) String() string {
	switch r {
	case ResultApplied:
		return "applied"
	case ResultSkippedNoFile:
		return "skipped (no file)"
	case ResultSkippedPrecondition:
		return "skipped (precondition false)"
	case ResultFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// 📋 Outcome records what happened to one transformation
type Outcome struct {
	Transformation string
	File           string
	Result         Result
	Reason         string // populated for ResultFailed
	Edits          int    // lines/blocks changed for ResultApplied
}

// 📈 Report is the full result of one engine run, handed to callers by value
type Report struct {
	Outcomes   []Outcome
	Validation []ValidationResult
}

// Counts returns the number of applied, skipped and failed outcomes
func (r *Report) Counts() (applied, skipped, failed int) {
	for _, o := range r.Outcomes {
		switch o.Result {
		case ResultApplied:
			applied++
		case ResultFailed:
			failed++
		default:
			skipped++
		}
	}
	return applied, skipped, failed
}

// HasFailures reports whether any transformation failed
func (r *Report) HasFailures() bool {
	_, _, failed := r.Counts()
	return failed > 0
}

// 🔧 Engine applies a catalogue against one working tree
type Engine struct {
	root      string
	validator Validator
}

// 🔧 Options contains configuration for the engine
type Options struct {
	// Root is the working tree directory
	Root string
	// Validator runs the post-remediation syntax check; defaults to NoopValidator
	Validator Validator
}

// 🏭 New creates a new remediation engine
func New(opts Options) (*Engine, error) {
	if opts.Root == "" {
		return nil, errors.Errorf("root is required")
	}
	if opts.Validator == nil {
		opts.Validator = NoopValidator{}
	}
	return &Engine{
		root:      filepath.Clean(opts.Root),
		validator: opts.Validator,
	}, nil
}

// 📂 TargetFiles returns the unique target files of a catalogue, in
// catalogue order, as absolute paths under the engine root. The backup
// step snapshots exactly this set before the first destructive action.
func (e *Engine) TargetFiles(catalogue []Transformation) []string {
	seen := make(map[string]bool)
	var files []string
	for _, tr := range catalogue {
		if seen[tr.TargetFile] {
			continue
		}
		seen[tr.TargetFile] = true
		files = append(files, filepath.Join(e.root, tr.TargetFile))
	}
	return files
}

// 🔍 Pending reports which transformations would apply to the tree right
// now, without mutating anything. An empty result means the tree is fully
// remediated.
func (e *Engine) Pending(ctx context.Context, catalogue []Transformation) ([]string, error) {
	var pending []string
	for _, tr := range catalogue {
		data, err := os.ReadFile(filepath.Join(e.root, tr.TargetFile))
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, errors.Errorf("reading %s: %w", tr.TargetFile, err)
		}
		if tr.Precondition.Holds(string(data)) {
			pending = append(pending, tr.Name)
		}
	}
	return pending, nil
}

// 🏃 Run applies the catalogue in its fixed order, one transformation at a
// time, then runs a final syntax-validation pass over every touched file.
// The catalogue order is a contract: later entries may assume earlier ones
// already applied, so it is never reordered or parallelized.
func (e *Engine) Run(ctx context.Context, catalogue []Transformation) (*Report, error) {
	logger := zerolog.Ctx(ctx)
	logger.Debug().Int("transformations", len(catalogue)).Str("root", e.root).Msg("starting remediation run")

	report := &Report{}
	var touched []string
	touchedSet := make(map[string]bool)

	for _, tr := range catalogue {
		outcome := e.apply(ctx, tr)
		report.Outcomes = append(report.Outcomes, outcome)

		if outcome.Result == ResultApplied && !touchedSet[tr.TargetFile] {
			touchedSet[tr.TargetFile] = true
			touched = append(touched, tr.TargetFile)
		}
	}

	// Final syntax pass. A failed file is surfaced and does not stop the
	// validation of the remaining files.
	for _, file := range touched {
		res := e.validator.Validate(ctx, filepath.Join(e.root, file))
		res.File = file
		report.Validation = append(report.Validation, res)
		if !res.OK {
			logger.Warn().Str("file", file).Str("detail", res.Detail).Msg("syntax validation failed")
		}
	}

	applied, skipped, failed := report.Counts()
	logger.Info().
		Int("applied", applied).
		Int("skipped", skipped).
		Int("failed", failed).
		Msg("remediation run complete")

	return report, nil
}

// apply evaluates and executes one transformation. On any action error the
// file is left in its pre-action state: content is rewritten only after the
// action succeeds, and the write itself is temp+rename atomic.
func (e *Engine) apply(ctx context.Context, tr Transformation) Outcome {
	logger := zerolog.Ctx(ctx)
	path := filepath.Join(e.root, tr.TargetFile)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Debug().Str("file", tr.TargetFile).Msg("target file absent, skipping")
			return Outcome{Transformation: tr.Name, File: tr.TargetFile, Result: ResultSkippedNoFile}
		}
		return Outcome{
			Transformation: tr.Name,
			File:           tr.TargetFile,
			Result:         ResultFailed,
			Reason:         errors.Errorf("reading target file: %w", err).Error(),
		}
	}

	content := string(data)
	if !tr.Precondition.Holds(content) {
		return Outcome{Transformation: tr.Name, File: tr.TargetFile, Result: ResultSkippedPrecondition}
	}

	rewritten, edits, err := tr.Action.Apply(content)
	if err != nil {
		logger.Debug().Str("transformation", tr.Name).Err(err).Msg("action failed, file untouched")
		return Outcome{
			Transformation: tr.Name,
			File:           tr.TargetFile,
			Result:         ResultFailed,
			Reason:         err.Error(),
		}
	}

	if err := writeFileAtomic(path, []byte(rewritten)); err != nil {
		return Outcome{
			Transformation: tr.Name,
			File:           tr.TargetFile,
			Result:         ResultFailed,
			Reason:         err.Error(),
		}
	}

	logger.Debug().
		Str("transformation", tr.Name).
		Str("kind", tr.Action.Kind()).
		Int("edits", edits).
		Msg("transformation applied")

	return Outcome{Transformation: tr.Name, File: tr.TargetFile, Result: ResultApplied, Edits: edits}
}

// writeFileAtomic writes content via a temp file and rename, so a partial
// write is never visible to later steps
func writeFileAtomic(path string, content []byte) error {
	tempPath := path + ".tmp"

	if err := os.WriteFile(tempPath, content, 0644); err != nil {
		return errors.Errorf("writing temp file: %w", err)
	}

	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath) // Clean up temp file
		return errors.Errorf("renaming temp file: %w", err)
	}

	return nil
}
