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

// Package backup snapshots working-tree files into timestamped directories
// and restores them on demand. A BackupSet is the sole recovery path for a
// failed installation run and is never deleted on success.
package backup

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// 📸 BackupSet is a durable snapshot of files taken before mutation.
// The directory is write-once: nothing appends to it after Snapshot returns.
type BackupSet struct {
	ID          string            // timestamp identifier
	Dir         string            // snapshot directory
	SourceFiles []string          // original absolute paths, in snapshot order
	Names       map[string]string // source path -> file name inside Dir
	Warnings    []string          // files that were listed but missing at snapshot time
}

// 🗄️ Store creates and restores BackupSets under a parent directory
type Store struct {
	parentDir string
	now       func() time.Time
}

// 🏭 New creates a new backup store rooted at parentDir
func New(parentDir string) *Store {
	return &Store{
		parentDir: filepath.Clean(parentDir),
		now:       time.Now,
	}
}

// 📸 Snapshot copies each existing file in files into a freshly created,
// uniquely named directory. Missing files are recorded as warnings, not
// errors. If the backup directory cannot be created, Snapshot fails and no
// destructive step may proceed.
func (s *Store) Snapshot(ctx context.Context, files []string) (*BackupSet, error) {
	logger := zerolog.Ctx(ctx)

	id := s.now().Format("20060102_150405")
	dir := filepath.Join(s.parentDir, "fixrc_backup_"+id)

	// Uniquify when two runs land on the same second
	for n := 1; ; n++ {
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			break
		}
		dir = filepath.Join(s.parentDir, fmt.Sprintf("fixrc_backup_%s_%d", id, n))
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, errors.Errorf("creating backup directory %s: %w", dir, err)
	}

	set := &BackupSet{
		ID:    id,
		Dir:   dir,
		Names: make(map[string]string),
	}

	// Targets in different subdirectories may share a basename; suffix
	// collisions so no snapshot copy overwrites another.
	used := make(map[string]int)
	for _, file := range files {
		if _, err := os.Stat(file); os.IsNotExist(err) {
			logger.Warn().Str("file", file).Msg("file missing at snapshot time")
			set.Warnings = append(set.Warnings, file)
			continue
		}

		name := filepath.Base(file)
		if n := used[name]; n > 0 {
			used[name] = n + 1
			name = fmt.Sprintf("%s.%d", name, n)
		} else {
			used[name] = 1
		}
		set.Names[file] = name

		if err := copyFile(file, filepath.Join(dir, name)); err != nil {
			return nil, errors.Errorf("backing up %s: %w", file, err)
		}
		set.SourceFiles = append(set.SourceFiles, file)
	}

	logger.Info().
		Str("dir", dir).
		Int("files", len(set.SourceFiles)).
		Int("missing", len(set.Warnings)).
		Msg("snapshot complete")

	return set, nil
}

// 🔄 Restore copies every snapshotted file back to its original location,
// overwriting current contents. A failure to restore one file is reported
// but does not abort restoring the rest.
func (s *Store) Restore(ctx context.Context, set *BackupSet) error {
	logger := zerolog.Ctx(ctx)

	if set == nil {
		return errors.Errorf("no backup set to restore")
	}

	var failed []string
	for _, file := range set.SourceFiles {
		name, ok := set.Names[file]
		if !ok {
			name = filepath.Base(file)
		}
		src := filepath.Join(set.Dir, name)
		if err := copyFile(src, file); err != nil {
			logger.Error().Str("file", file).Err(err).Msg("restoring file")
			failed = append(failed, file)
			continue
		}
		logger.Debug().Str("file", file).Msg("restored")
	}

	if len(failed) > 0 {
		return errors.Errorf("restored %d/%d files, failed: %v",
			len(set.SourceFiles)-len(failed), len(set.SourceFiles), failed)
	}

	logger.Info().Str("dir", set.Dir).Int("files", len(set.SourceFiles)).Msg("restore complete")
	return nil
}

// 🧹 Cleanup removes a BackupSet directory. Only explicit cleanup deletes a
// snapshot; successful runs leave it on disk as an audit trail.
func (s *Store) Cleanup(ctx context.Context, set *BackupSet) error {
	if set == nil {
		return nil
	}
	if err := os.RemoveAll(set.Dir); err != nil {
		return errors.Errorf("removing backup directory: %w", err)
	}
	return nil
}

// copyFile copies a file from src to dst, creating parent directories if needed
func copyFile(src, dst string) error {
	srcFile, err := os.Open(src)
	if err != nil {
		return errors.Errorf("opening source file: %w", err)
	}
	defer srcFile.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return errors.Errorf("creating parent directories: %w", err)
	}

	dstFile, err := os.Create(dst)
	if err != nil {
		return errors.Errorf("creating destination file: %w", err)
	}
	defer dstFile.Close()

	if _, err := io.Copy(dstFile, srcFile); err != nil {
		return errors.Errorf("copying file content: %w", err)
	}

	return nil
}
