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

package commands

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/walteh/fixrc/cmd/fixrc/opts"
	"github.com/walteh/fixrc/pkg/config"
	"github.com/walteh/fixrc/pkg/fixlog"
)

func TestRemediateSnapshotsBeforeMutating(t *testing.T) {
	tree := t.TempDir()
	target := filepath.Join(tree, "patch_applicator.py")
	original := "import re\nimport pdb\n"
	require.NoError(t, os.WriteFile(target, []byte(original), 0644))

	cfg := &config.Config{WorkingTree: tree}
	require.NoError(t, cfg.Validate())
	cfg.SyntaxChecker = nil // no checker binary in the test environment

	ro := &opts.RootOpts{
		Config:   cfg,
		Reporter: fixlog.New(io.Discard, zerolog.InfoLevel),
	}

	cmd := NewRemediateCmd(ro)
	ctx := zerolog.New(zerolog.NewTestWriter(t)).WithContext(context.Background())
	require.NoError(t, cmd.ExecuteContext(ctx))

	// The fix really ran
	content, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.NotContains(t, string(content), "import pdb")

	// And the pre-fix bytes are durable in a snapshot under the backup dir
	entries, err := os.ReadDir(tree)
	require.NoError(t, err)
	var backupDir string
	for _, e := range entries {
		if e.IsDir() && strings.HasPrefix(e.Name(), "fixrc_backup_") {
			backupDir = filepath.Join(tree, e.Name())
		}
	}
	require.NotEmpty(t, backupDir, "remediate must snapshot before mutating")

	saved, err := os.ReadFile(filepath.Join(backupDir, "patch_applicator.py"))
	require.NoError(t, err)
	assert.Equal(t, original, string(saved))
	assert.Zero(t, ro.ExitCode)
}
