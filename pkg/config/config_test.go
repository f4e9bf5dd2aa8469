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
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name          string
		filename      string
		content       string
		check         func(t *testing.T, cfg *Config)
		expectedError string
	}{
		{
			name:     "yaml_full",
			filename: "fixrc.yaml",
			content: `working_tree: ./tree
strategy: packaged
syntax_checker: [python3, -m, py_compile]
package:
  name: smart-patch
  version: 3.0.0
  formats: [tar.gz]
smoke_test:
  command: [python3, main.py, --help]
  timeout_seconds: 5
`,
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "tree", cfg.WorkingTree)
				assert.Equal(t, "packaged", cfg.Strategy)
				require.NotNil(t, cfg.Package)
				assert.Equal(t, "smart-patch", cfg.Package.Name)
				assert.Equal(t, []string{"tar.gz"}, cfg.Package.Formats)
				require.NotNil(t, cfg.SmokeTest)
				assert.Equal(t, 5, cfg.SmokeTest.TimeoutSeconds)
			},
		},
		{
			name:     "json_minimal_defaults",
			filename: "fixrc.json",
			content:  `{"working_tree": "./tree"}`,
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "local", cfg.Strategy, "strategy should default to local")
				assert.Equal(t, "tree", cfg.BackupDir, "backup dir should default to working tree")
				assert.Equal(t, []string{"python3", "-m", "py_compile"}, cfg.SyntaxChecker)
			},
		},
		{
			name:     "hcl_with_package_block",
			filename: "fixrc.hcl",
			content: `working_tree = "./tree"
strategy     = "distributable"

package {
  name    = "smart-patch"
  version = "3.0.0"
}
`,
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "distributable", cfg.Strategy)
				require.NotNil(t, cfg.Package)
				assert.Equal(t, []string{"tar.gz", "zip"}, cfg.Package.Formats, "formats should default to both")
			},
		},
		{
			name:     "dot_fixrc_yaml",
			filename: ".fixrc",
			content:  "working_tree: ./tree\n",
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "tree", cfg.WorkingTree)
			},
		},
		{
			name:          "missing_working_tree",
			filename:      "fixrc.yaml",
			content:       "strategy: local\n",
			expectedError: "working_tree is required",
		},
		{
			name:          "package_without_version",
			filename:      "fixrc.yaml",
			content:       "working_tree: ./tree\npackage:\n  name: smart-patch\n",
			expectedError: "package.version is required",
		},
		{
			name:          "unknown_yaml_field",
			filename:      "fixrc.yaml",
			content:       "working_tree: ./tree\nnot_a_field: true\n",
			expectedError: "parsing YAML",
		},
		{
			name:          "unsupported_extension",
			filename:      "fixrc.toml",
			content:       "working_tree = './tree'\n",
			expectedError: "unsupported file extension",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := zerolog.New(zerolog.NewTestWriter(t)).WithContext(context.Background())

			path := filepath.Join(t.TempDir(), tt.filename)
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0644))

			cfg, err := Load(ctx, path)
			if tt.expectedError != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.expectedError)
				return
			}

			require.NoError(t, err)
			tt.check(t, cfg)
		})
	}
}

func TestValidateSmokeTestDefaults(t *testing.T) {
	cfg := &Config{
		WorkingTree: "./tree",
		SmokeTest:   &SmokeTestArgs{Command: []string{"true"}},
	}
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 60, cfg.SmokeTest.TimeoutSeconds, "timeout should default to 60s")

	cfg = &Config{
		WorkingTree: "./tree",
		SmokeTest:   &SmokeTestArgs{},
	}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "smoke_test.command is required")
}
