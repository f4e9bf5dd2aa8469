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

package fixlog

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogger(t *testing.T) {
	// Disable color for testing
	color.NoColor = true
	defer func() { color.NoColor = false }()

	tests := []struct {
		name     string
		op       func(t *testing.T, logger *Logger)
		wantLogs []string
	}{
		{
			name: "log_messages",
			op: func(t *testing.T, logger *Logger) {
				logger.Info("info message")
				logger.Warning("warning message")
				logger.Error("error message")
				logger.Success("success message")
			},
			wantLogs: []string{
				"ℹ️  info message",
				"⚠️  warning message",
				"❌ error message",
				"✅ success message",
			},
		},
		{
			name: "log_formatted_messages",
			op: func(t *testing.T, logger *Logger) {
				logger.Infof("info %s", "test")
				logger.Warningf("warning %s", "test")
				logger.Errorf("error %s", "test")
				logger.Successf("success %s", "test")
			},
			wantLogs: []string{
				"ℹ️  info test",
				"⚠️  warning test",
				"❌ error test",
				"✅ success test",
			},
		},
		{
			name: "log_header",
			op: func(t *testing.T, logger *Logger) {
				logger.Header("remediating working tree")
			},
			wantLogs: []string{
				"fixrc • remediating working tree",
			},
		},
		{
			name: "log_phase",
			op: func(t *testing.T, logger *Logger) {
				logger.Phase("Phase 2: critical fixes")
			},
			wantLogs: []string{
				"◆ Phase 2: critical fixes",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Create buffer for console output
			buf := &bytes.Buffer{}
			logger := New(buf, zerolog.InfoLevel)

			// Perform operation
			tt.op(t, logger)

			// Check output
			output := strings.TrimSpace(buf.String())
			lines := strings.Split(output, "\n")

			require.Equal(t, len(tt.wantLogs), len(lines), "number of log lines should match")
			for i, want := range tt.wantLogs {
				assert.Equal(t, want, strings.TrimSpace(lines[i]), "log line %d should match", i)
			}
		})
	}
}

func TestLoggerContext(t *testing.T) {
	// Create logger
	logger := New(io.Discard, zerolog.InfoLevel)

	// Add to context
	ctx := context.Background()
	ctx = NewContext(ctx, logger)

	// Get from context
	got := FromContext(ctx)
	assert.Same(t, logger, got, "logger from context should be the same instance")

	// Check panic on missing logger
	assert.Panics(t, func() {
		FromContext(context.Background())
	}, "FromContext should panic when logger is missing")
}

func TestSummaryRendersOnlyGivenRows(t *testing.T) {
	// Disable color for testing
	color.NoColor = true
	defer func() { color.NoColor = false }()

	buf := &bytes.Buffer{}
	logger := New(buf, zerolog.InfoLevel)

	logger.Summary([][]string{
		{"state", "succeeded"},
		{"steps passed", "6/6"},
	})

	output := buf.String()
	assert.Contains(t, output, "state")
	assert.Contains(t, output, "succeeded")
	assert.Contains(t, output, "steps passed")
	assert.Contains(t, output, "6/6")
	assert.NotContains(t, output, "Step", "no header row beyond the caller's rows")
	assert.NotContains(t, output, "Required")
}

func TestFixOperationFormatting(t *testing.T) {
	// Disable color for testing
	color.NoColor = true
	defer func() { color.NoColor = false }()

	tests := []struct {
		name       string
		op         FixOperation
		wantSymbol string
	}{
		{
			name: "applied_fix",
			op: FixOperation{
				Name:         "validation-original-filename",
				File:         "validation.py",
				Result:       "applied",
				IsApplied:    true,
				Replacements: 1,
			},
			wantSymbol: "✓",
		},
		{
			name: "skipped_fix",
			op: FixOperation{
				Name:      "wizard-circular-import",
				File:      "wizard_mode.py",
				Result:    "skipped (precondition false)",
				IsSkipped: true,
			},
			wantSymbol: "-",
		},
		{
			name: "failed_fix",
			op: FixOperation{
				Name:     "config-yaml-recursion",
				File:     "patch_processor_config.py",
				Result:   "failed: region not found",
				IsFailed: true,
			},
			wantSymbol: "✗",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			logger := New(buf, zerolog.InfoLevel)

			logger.LogFixOperation(context.Background(), tt.op)

			output := strings.TrimSpace(buf.String())
			assert.True(t, strings.HasPrefix(output, tt.wantSymbol), "line should start with outcome symbol: %q", output)
			assert.Contains(t, output, tt.op.Name)
			assert.Contains(t, output, tt.op.File)
			assert.Contains(t, output, tt.op.Result)
		})
	}
}
