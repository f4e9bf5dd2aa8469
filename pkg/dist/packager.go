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

// Package dist assembles shareable distributions of a remediated tree: a
// version-named staging directory with a manifest and generated install
// collateral, plus tar.gz and zip archives of it.
package dist

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
	"gopkg.in/yaml.v3"
)

// defaultExcludes keeps transient and tooling artifacts out of every
// distribution, on top of any caller-supplied patterns.
var defaultExcludes = []string{
	"fixrc_backup_*",
	"fixrc_backup_*/**",
	"__pycache__",
	"__pycache__/**",
	"**/__pycache__/**",
	"**/*.pyc",
	".git",
	".git/**",
	"*.tmp",
	"dist",
	"dist/**",
	".fixrc_receipt.yaml",
}

// 🔧 Options contains configuration for the packager
type Options struct {
	// SourceDir is the remediated tree to package
	SourceDir string
	// OutputDir receives the staging directory and archives.
	// Defaults to <SourceDir>/dist.
	OutputDir string
	// Name is the distribution name
	Name string
	// Version is the distribution version
	Version string
	// Formats lists archive formats to build ("tar.gz", "zip")
	Formats []string
	// Exclude holds extra glob patterns to leave out of the distribution
	Exclude []string
	// WheelCommand, when set, runs as an extra build hook inside the
	// staging directory. Hook failures are reported, not fatal.
	WheelCommand []string
}

// 📦 Packager builds distribution artifacts
type Packager struct {
	opts Options
}

// 🏭 New creates a new packager with the given options
func New(opts Options) (*Packager, error) {
	if opts.SourceDir == "" {
		return nil, errors.Errorf("source directory is required")
	}
	if opts.Name == "" {
		return nil, errors.Errorf("distribution name is required")
	}
	if opts.Version == "" {
		return nil, errors.Errorf("distribution version is required")
	}
	if opts.OutputDir == "" {
		opts.OutputDir = filepath.Join(opts.SourceDir, "dist")
	}
	if len(opts.Formats) == 0 {
		opts.Formats = []string{"tar.gz", "zip"}
	}
	return &Packager{opts: opts}, nil
}

// StageName returns the version-named directory name, e.g. "smart-patch-3.0.0"
func (p *Packager) StageName() string {
	return fmt.Sprintf("%s-%s", p.opts.Name, p.opts.Version)
}

// 🏗️ Build assembles the staging directory and archives it. The staging
// directory must succeed; individual archive formats are best-effort and a
// failed format is logged and skipped. Returns the paths of everything
// produced, staging directory first.
func (p *Packager) Build(ctx context.Context) ([]string, error) {
	logger := zerolog.Ctx(ctx)

	stageDir := filepath.Join(p.opts.OutputDir, p.StageName())
	if err := os.RemoveAll(stageDir); err != nil {
		return nil, errors.Errorf("clearing stale staging directory: %w", err)
	}

	files, err := p.stage(stageDir)
	if err != nil {
		return nil, errors.Errorf("staging distribution: %w", err)
	}

	if err := p.writeManifest(stageDir, files); err != nil {
		return nil, errors.Errorf("writing manifest: %w", err)
	}
	if err := p.writeReadme(stageDir); err != nil {
		return nil, errors.Errorf("writing README: %w", err)
	}
	if err := p.writeInstaller(stageDir); err != nil {
		return nil, errors.Errorf("writing installer: %w", err)
	}

	p.runWheelHook(ctx, stageDir)

	artifacts := []string{stageDir}
	for _, format := range p.opts.Formats {
		path, archiveErr := p.archive(stageDir, format)
		if archiveErr != nil {
			logger.Warn().Str("format", format).Err(archiveErr).Msg("archive format failed, skipping")
			continue
		}
		artifacts = append(artifacts, path)
	}

	logger.Info().
		Str("stage", stageDir).
		Int("files", len(files)).
		Int("artifacts", len(artifacts)).
		Msg("distribution built")

	return artifacts, nil
}

// stage copies the source tree into the staging directory and returns the
// relative paths of every copied file, sorted.
func (p *Packager) stage(stageDir string) ([]string, error) {
	excludes := append([]string{}, defaultExcludes...)
	excludes = append(excludes, p.opts.Exclude...)

	var files []string
	err := filepath.WalkDir(p.opts.SourceDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(p.opts.SourceDir, path)
		if err != nil {
			return errors.Errorf("resolving relative path: %w", err)
		}
		if rel == "." {
			return os.MkdirAll(stageDir, 0755)
		}

		for _, pattern := range excludes {
			matched, matchErr := doublestar.Match(pattern, filepath.ToSlash(rel))
			if matchErr == nil && matched {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
		}

		target := filepath.Join(stageDir, rel)
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
		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(files)
	return files, nil
}

// 🧾 Manifest describes one assembled distribution
type Manifest struct {
	Name      string         `yaml:"name"`
	Version   string         `yaml:"version"`
	CreatedAt time.Time      `yaml:"created_at"`
	FileCount int            `yaml:"file_count"`
	TotalSize int64          `yaml:"total_size"`
	Files     []ManifestFile `yaml:"files"`
}

// ManifestFile is one entry in the manifest file list
type ManifestFile struct {
	Path string `yaml:"path"`
	Size int64  `yaml:"size"`
}

func (p *Packager) writeManifest(stageDir string, files []string) error {
	m := Manifest{
		Name:      p.opts.Name,
		Version:   p.opts.Version,
		CreatedAt: time.Now().UTC(),
		FileCount: len(files),
	}
	for _, rel := range files {
		info, err := os.Stat(filepath.Join(stageDir, filepath.FromSlash(rel)))
		if err != nil {
			return errors.Errorf("stating %s: %w", rel, err)
		}
		m.Files = append(m.Files, ManifestFile{Path: rel, Size: info.Size()})
		m.TotalSize += info.Size()
	}

	data, err := yaml.Marshal(&m)
	if err != nil {
		return errors.Errorf("marshaling manifest: %w", err)
	}
	return os.WriteFile(filepath.Join(stageDir, "manifest.yaml"), data, 0644)
}

func (p *Packager) writeReadme(stageDir string) error {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s %s\n\n", p.opts.Name, p.opts.Version)
	fmt.Fprintf(&b, "Packaged on %s.\n\n", time.Now().UTC().Format("2006-01-02"))
	b.WriteString("## Install\n\n")
	b.WriteString("```sh\n./install.sh [destination]\n```\n\n")
	b.WriteString("The default destination is `~/.local/share/" + p.opts.Name + "`.\n")
	b.WriteString("See `manifest.yaml` for the full file inventory.\n")
	return os.WriteFile(filepath.Join(stageDir, "README.md"), []byte(b.String()), 0644)
}

func (p *Packager) writeInstaller(stageDir string) error {
	var b strings.Builder
	b.WriteString("#!/bin/sh\nset -e\n\n")
	fmt.Fprintf(&b, "DEST=\"${1:-$HOME/.local/share/%s}\"\n\n", p.opts.Name)
	b.WriteString("mkdir -p \"$DEST\"\n")
	b.WriteString("cp -R \"$(dirname \"$0\")\"/. \"$DEST\"\n")
	b.WriteString("rm -f \"$DEST/install.sh\"\n")
	fmt.Fprintf(&b, "echo \"%s %s installed to $DEST\"\n", p.opts.Name, p.opts.Version)
	return os.WriteFile(filepath.Join(stageDir, "install.sh"), []byte(b.String()), 0755)
}

// runWheelHook runs the optional wheel build command inside the staging
// directory. The distribution is complete without it.
func (p *Packager) runWheelHook(ctx context.Context, stageDir string) {
	if len(p.opts.WheelCommand) == 0 {
		return
	}
	logger := zerolog.Ctx(ctx)

	cmd := exec.CommandContext(ctx, p.opts.WheelCommand[0], p.opts.WheelCommand[1:]...)
	cmd.Dir = stageDir
	if out, err := cmd.CombinedOutput(); err != nil {
		logger.Warn().
			Strs("command", p.opts.WheelCommand).
			Str("output", strings.TrimSpace(string(out))).
			Err(err).
			Msg("wheel hook failed, continuing without wheel")
		return
	}
	logger.Debug().Strs("command", p.opts.WheelCommand).Msg("wheel hook succeeded")
}

// archive builds one archive format next to the staging directory
func (p *Packager) archive(stageDir, format string) (string, error) {
	switch format {
	case "tar.gz", "tgz":
		path := stageDir + ".tar.gz"
		if err := writeTarGz(stageDir, p.StageName(), path); err != nil {
			return "", err
		}
		return path, nil
	case "zip":
		path := stageDir + ".zip"
		if err := writeZip(stageDir, p.StageName(), path); err != nil {
			return "", err
		}
		return path, nil
	default:
		return "", errors.Errorf("unsupported archive format %q", format)
	}
}
