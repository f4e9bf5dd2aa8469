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

package config

import (
	"fmt"
	"path/filepath"

	"gitlab.com/tozd/go/errors"
)

// 📦 PackageArgs configures the distribution packager
type PackageArgs struct {
	Name         string   `json:"name" yaml:"name" hcl:"name"`
	Version      string   `json:"version" yaml:"version" hcl:"version"`
	Formats      []string `json:"formats,omitempty" yaml:"formats,omitempty" hcl:"formats,optional"`             // archive formats: tar.gz, zip
	Exclude      []string `json:"exclude,omitempty" yaml:"exclude,omitempty" hcl:"exclude,optional"`             // extra exclusion globs
	WheelCommand []string `json:"wheel_command,omitempty" yaml:"wheel_command,omitempty" hcl:"wheel_command,optional"` // optional wheel builder
}

// 🧪 SmokeTestArgs configures the post-install smoke test
type SmokeTestArgs struct {
	Command        []string `json:"command" yaml:"command" hcl:"command"`
	TimeoutSeconds int      `json:"timeout_seconds,omitempty" yaml:"timeout_seconds,omitempty" hcl:"timeout_seconds,optional"`
}

// 📚 Config represents the complete run configuration
type Config struct {
	WorkingTree   string         `json:"working_tree" yaml:"working_tree" hcl:"working_tree"`
	Strategy      string         `json:"strategy,omitempty" yaml:"strategy,omitempty" hcl:"strategy,optional"`
	Destination   string         `json:"destination,omitempty" yaml:"destination,omitempty" hcl:"destination,optional"`
	BackupDir     string         `json:"backup_dir,omitempty" yaml:"backup_dir,omitempty" hcl:"backup_dir,optional"`
	SyntaxChecker []string       `json:"syntax_checker,omitempty" yaml:"syntax_checker,omitempty" hcl:"syntax_checker,optional"`
	Package       *PackageArgs   `json:"package,omitempty" yaml:"package,omitempty" hcl:"package,block"`
	SmokeTest     *SmokeTestArgs `json:"smoke_test,omitempty" yaml:"smoke_test,omitempty" hcl:"smoke_test,block"`
	Force         bool           `json:"force,omitempty" yaml:"force,omitempty" hcl:"force,optional"`
	SkipTests     bool           `json:"skip_tests,omitempty" yaml:"skip_tests,omitempty" hcl:"skip_tests,optional"`
	Debug         bool           `json:"debug,omitempty" yaml:"debug,omitempty" hcl:"debug,optional"`
}

// 🔍 Validate checks if the configuration is valid and fills defaults
func (cfg *Config) Validate() error {
	// Check required fields
	if cfg.WorkingTree == "" {
		return errors.Errorf("working_tree is required")
	}

	// Clean up paths
	cfg.WorkingTree = filepath.Clean(cfg.WorkingTree)
	if cfg.Destination != "" {
		cfg.Destination = filepath.Clean(cfg.Destination)
	}

	// Set defaults
	if cfg.Strategy == "" {
		cfg.Strategy = "local"
	}
	if cfg.BackupDir == "" {
		cfg.BackupDir = cfg.WorkingTree
	}
	if len(cfg.SyntaxChecker) == 0 {
		cfg.SyntaxChecker = []string{"python3", "-m", "py_compile"}
	}
	if cfg.Package != nil {
		if cfg.Package.Name == "" {
			return errors.Errorf("package.name is required")
		}
		if cfg.Package.Version == "" {
			return errors.Errorf("package.version is required")
		}
		if len(cfg.Package.Formats) == 0 {
			cfg.Package.Formats = []string{"tar.gz", "zip"}
		}
	}
	if cfg.SmokeTest != nil {
		if len(cfg.SmokeTest.Command) == 0 {
			return errors.Errorf("smoke_test.command is required")
		}
		if cfg.SmokeTest.TimeoutSeconds <= 0 {
			cfg.SmokeTest.TimeoutSeconds = 60
		}
	}

	return nil
}

// 📝 String returns a string representation of the config
func (cfg *Config) String() string {
	return fmt.Sprintf("%s (%s)", cfg.WorkingTree, cfg.Strategy)
}
