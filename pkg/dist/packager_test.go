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

package dist

import (
	"archive/tar"
	"archive/zip"
	"compress/gzip"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func testContext(t *testing.T) context.Context {
	return zerolog.New(zerolog.NewTestWriter(t)).WithContext(context.Background())
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func seedSourceTree(t *testing.T) string {
	t.Helper()
	src := t.TempDir()
	writeFile(t, filepath.Join(src, "patch_applicator.py"), "import re\n")
	writeFile(t, filepath.Join(src, "validation.py"), "import os\n")
	writeFile(t, filepath.Join(src, "utils", "helpers.py"), "def noop():\n    pass\n")
	writeFile(t, filepath.Join(src, "__pycache__", "validation.cpython-312.pyc"), "\x00\x01")
	writeFile(t, filepath.Join(src, "fixrc_backup_20260823_120000", "validation.py"), "old\n")
	writeFile(t, filepath.Join(src, "scratch.tmp"), "x\n")
	return src
}

func TestNewValidatesOptions(t *testing.T) {
	tests := []struct {
		name    string
		opts    Options
		wantErr string
	}{
		{
			name:    "missing_source",
			opts:    Options{Name: "smart-patch", Version: "3.0.0"},
			wantErr: "source directory is required",
		},
		{
			name:    "missing_name",
			opts:    Options{SourceDir: "/tmp/x", Version: "3.0.0"},
			wantErr: "distribution name is required",
		},
		{
			name:    "missing_version",
			opts:    Options{SourceDir: "/tmp/x", Name: "smart-patch"},
			wantErr: "distribution version is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.opts)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestBuildAssemblesCompleteDistribution(t *testing.T) {
	ctx := testContext(t)
	src := seedSourceTree(t)
	out := t.TempDir()

	p, err := New(Options{
		SourceDir: src,
		OutputDir: out,
		Name:      "smart-patch",
		Version:   "3.0.0",
	})
	require.NoError(t, err)

	artifacts, err := p.Build(ctx)
	require.NoError(t, err)
	require.Len(t, artifacts, 3, "stage dir + tar.gz + zip")

	stageDir := filepath.Join(out, "smart-patch-3.0.0")
	assert.Equal(t, stageDir, artifacts[0])

	// Source files present, transient artifacts excluded
	assert.FileExists(t, filepath.Join(stageDir, "patch_applicator.py"))
	assert.FileExists(t, filepath.Join(stageDir, "validation.py"))
	assert.FileExists(t, filepath.Join(stageDir, "utils", "helpers.py"))
	assert.NoDirExists(t, filepath.Join(stageDir, "__pycache__"))
	assert.NoDirExists(t, filepath.Join(stageDir, "fixrc_backup_20260823_120000"))
	assert.NoFileExists(t, filepath.Join(stageDir, "scratch.tmp"))

	// Generated collateral
	assert.FileExists(t, filepath.Join(stageDir, "README.md"))
	assert.FileExists(t, filepath.Join(stageDir, "install.sh"))

	// Manifest covers exactly the staged source files
	data, err := os.ReadFile(filepath.Join(stageDir, "manifest.yaml"))
	require.NoError(t, err)
	var m Manifest
	require.NoError(t, yaml.Unmarshal(data, &m))
	assert.Equal(t, "smart-patch", m.Name)
	assert.Equal(t, "3.0.0", m.Version)
	assert.Equal(t, 3, m.FileCount)
	paths := make([]string, 0, len(m.Files))
	for _, f := range m.Files {
		paths = append(paths, f.Path)
		assert.Positive(t, f.Size)
	}
	assert.Equal(t, []string{"patch_applicator.py", "utils/helpers.py", "validation.py"}, paths)

	// Both archives exist and are non-empty
	for _, a := range artifacts[1:] {
		info, err := os.Stat(a)
		require.NoError(t, err)
		assert.Positive(t, info.Size())
	}
}

func TestBuildTarGzRoundTrip(t *testing.T) {
	ctx := testContext(t)
	src := seedSourceTree(t)
	out := t.TempDir()

	p, err := New(Options{
		SourceDir: src,
		OutputDir: out,
		Name:      "smart-patch",
		Version:   "3.0.0",
		Formats:   []string{"tar.gz"},
	})
	require.NoError(t, err)

	artifacts, err := p.Build(ctx)
	require.NoError(t, err)
	require.Len(t, artifacts, 2)

	f, err := os.Open(artifacts[1])
	require.NoError(t, err)
	defer f.Close()
	gz, err := gzip.NewReader(f)
	require.NoError(t, err)
	defer gz.Close()

	names := map[string]string{}
	tr := tar.NewReader(gz)
	for {
		header, err := tr.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		if header.Typeflag == tar.TypeDir {
			continue
		}
		content, err := io.ReadAll(tr)
		require.NoError(t, err)
		names[header.Name] = string(content)
	}

	// Entries are rooted under the version-named directory
	assert.Equal(t, "import re\n", names["smart-patch-3.0.0/patch_applicator.py"])
	assert.Contains(t, names, "smart-patch-3.0.0/manifest.yaml")
	assert.Contains(t, names, "smart-patch-3.0.0/install.sh")
}

func TestBuildZipRoundTrip(t *testing.T) {
	ctx := testContext(t)
	src := seedSourceTree(t)
	out := t.TempDir()

	p, err := New(Options{
		SourceDir: src,
		OutputDir: out,
		Name:      "smart-patch",
		Version:   "3.0.0",
		Formats:   []string{"zip"},
	})
	require.NoError(t, err)

	artifacts, err := p.Build(ctx)
	require.NoError(t, err)
	require.Len(t, artifacts, 2)

	zr, err := zip.OpenReader(artifacts[1])
	require.NoError(t, err)
	defer zr.Close()

	names := make([]string, 0, len(zr.File))
	for _, zf := range zr.File {
		names = append(names, zf.Name)
	}
	assert.Contains(t, names, "smart-patch-3.0.0/validation.py")
	assert.Contains(t, names, "smart-patch-3.0.0/manifest.yaml")
}

func TestBuildUnsupportedFormatIsSkipped(t *testing.T) {
	ctx := testContext(t)
	src := seedSourceTree(t)
	out := t.TempDir()

	p, err := New(Options{
		SourceDir: src,
		OutputDir: out,
		Name:      "smart-patch",
		Version:   "3.0.0",
		Formats:   []string{"rar", "tar.gz"},
	})
	require.NoError(t, err)

	// A failed archive format is skipped; the rest still build
	artifacts, err := p.Build(ctx)
	require.NoError(t, err)
	require.Len(t, artifacts, 2)
	assert.Equal(t, filepath.Join(out, "smart-patch-3.0.0.tar.gz"), artifacts[1])
}

func TestBuildExtraExcludePatterns(t *testing.T) {
	ctx := testContext(t)
	src := seedSourceTree(t)
	writeFile(t, filepath.Join(src, "notes.md"), "private\n")
	out := t.TempDir()

	p, err := New(Options{
		SourceDir: src,
		OutputDir: out,
		Name:      "smart-patch",
		Version:   "3.0.0",
		Formats:   []string{"zip"},
		Exclude:   []string{"*.md"},
	})
	require.NoError(t, err)

	_, err = p.Build(ctx)
	require.NoError(t, err)
	assert.NoFileExists(t, filepath.Join(out, "smart-patch-3.0.0", "notes.md"))
}

func TestBuildWheelHookFailureIsNonFatal(t *testing.T) {
	ctx := testContext(t)
	src := seedSourceTree(t)
	out := t.TempDir()

	p, err := New(Options{
		SourceDir:    src,
		OutputDir:    out,
		Name:         "smart-patch",
		Version:      "3.0.0",
		Formats:      []string{"tar.gz"},
		WheelCommand: []string{"false"},
	})
	require.NoError(t, err)

	artifacts, err := p.Build(ctx)
	require.NoError(t, err)
	assert.Len(t, artifacts, 2, "distribution is complete without the wheel")
}

func TestBuildIsRepeatable(t *testing.T) {
	ctx := testContext(t)
	src := seedSourceTree(t)
	out := t.TempDir()

	p, err := New(Options{
		SourceDir: src,
		OutputDir: out,
		Name:      "smart-patch",
		Version:   "3.0.0",
		Formats:   []string{"zip"},
	})
	require.NoError(t, err)

	_, err = p.Build(ctx)
	require.NoError(t, err)
	artifacts, err := p.Build(ctx)
	require.NoError(t, err)
	require.Len(t, artifacts, 2, "rebuild replaces the stale staging directory")
}
