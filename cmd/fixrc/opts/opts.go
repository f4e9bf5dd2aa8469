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

// Package opts wires shared dependencies for the fixrc commands
package opts

import (
	"time"

	"github.com/walteh/fixrc/pkg/backup"
	"github.com/walteh/fixrc/pkg/config"
	"github.com/walteh/fixrc/pkg/dist"
	"github.com/walteh/fixrc/pkg/fixlog"
	"github.com/walteh/fixrc/pkg/install"
	"github.com/walteh/fixrc/pkg/remedy"
	"gitlab.com/tozd/go/errors"
)

// 🎛️ RootOpts carries the dependencies shared by every subcommand
type RootOpts struct {
	Config   *config.Config
	Reporter *fixlog.Logger

	// ExitCode is set by commands that map a degraded-but-not-failed
	// outcome to a distinct process exit status
	ExitCode int
}

// NewEngine builds the remediation engine for the configured tree
func (o *RootOpts) NewEngine() (*remedy.Engine, error) {
	var validator remedy.Validator = remedy.NoopValidator{}
	if len(o.Config.SyntaxChecker) > 0 {
		validator = remedy.NewExecValidator(o.Config.SyntaxChecker, 30*time.Second)
	}

	engine, err := remedy.New(remedy.Options{
		Root:      o.Config.WorkingTree,
		Validator: validator,
	})
	if err != nil {
		return nil, errors.Errorf("creating remediation engine: %w", err)
	}
	return engine, nil
}

// NewStore builds the backup store rooted at the configured backup dir
func (o *RootOpts) NewStore() *backup.Store {
	return backup.New(o.Config.BackupDir)
}

// NewPackager builds the distribution packager from the package block
func (o *RootOpts) NewPackager() (*dist.Packager, error) {
	if o.Config.Package == nil {
		return nil, errors.Errorf("config has no package block")
	}

	p, err := dist.New(dist.Options{
		SourceDir:    o.Config.WorkingTree,
		Name:         o.Config.Package.Name,
		Version:      o.Config.Package.Version,
		Formats:      o.Config.Package.Formats,
		Exclude:      o.Config.Package.Exclude,
		WheelCommand: o.Config.Package.WheelCommand,
	})
	if err != nil {
		return nil, errors.Errorf("creating packager: %w", err)
	}
	return p, nil
}

// NewSmokeRunner builds the smoke runner, or nil when none is configured
func (o *RootOpts) NewSmokeRunner() install.SmokeRunner {
	if o.Config.SmokeTest == nil {
		return nil
	}
	return install.NewExecSmokeRunner(
		o.Config.WorkingTree,
		o.Config.SmokeTest.Command,
		time.Duration(o.Config.SmokeTest.TimeoutSeconds)*time.Second,
	)
}
