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

package remedy

import (
	"strings"

	"gitlab.com/tozd/go/errors"
)

// 🔍 Presence describes what a precondition expects of its pattern
type Presence int

const (
	// PatternPresent holds when the pattern occurs at least once
	PatternPresent Presence = iota
	// PatternAbsent holds when the pattern does not occur
	PatternAbsent
	// PatternDuplicated holds when the pattern occurs more than once.
	// Dedup transformations use this so that a deduplicated file no longer
	// satisfies the precondition on a second run.
	PatternDuplicated
)

// 🎯 Precondition gates a transformation on current file content
type Precondition struct {
	Pattern string
	Want    Presence
}

// Holds reports whether the precondition is satisfied by content
func (p Precondition) Holds(content string) bool {
	switch p.Want {
	case PatternAbsent:
		return !strings.Contains(content, p.Pattern)
	case PatternDuplicated:
		return strings.Count(content, p.Pattern) > 1
	default:
		return strings.Contains(content, p.Pattern)
	}
}

// ✂️ Action is a single edit rule variant. Apply returns the rewritten
// content and the number of edits made. Actions never touch the disk; the
// engine owns reading and (atomic) writing.
type Action interface {
	Kind() string
	Apply(content string) (string, int, error)
}

// 🗑️ DeleteMatching removes every line containing Pattern
type DeleteMatching struct {
	Pattern string
}

func (a DeleteMatching) Kind() string { return "delete_matching" }

func (a DeleteMatching) Apply(content string) (string, int, error) {
	if a.Pattern == "" {
		return "", 0, errors.Errorf("delete_matching: pattern is required")
	}

	lines := strings.Split(content, "\n")
	kept := make([]string, 0, len(lines))
	removed := 0
	for _, line := range lines {
		if strings.Contains(line, a.Pattern) {
			removed++
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n"), removed, nil
}

// scanState drives the duplicate-block scanner
type scanState int

const (
	scanOutside  scanState = iota // copying lines through
	scanSkipping                  // inside a duplicate block, dropping lines
)

// 🧹 DeleteDuplicateBlocks removes repeated occurrences of a block bounded
// by StartPattern and EndPattern. The first occurrence (in file order) is
// preserved; occurrences 2..n are deleted from their start line through the
// terminator line, inclusive.
type DeleteDuplicateBlocks struct {
	StartPattern string
	EndPattern   string
}

func (a DeleteDuplicateBlocks) Kind() string { return "delete_duplicates" }

func (a DeleteDuplicateBlocks) Apply(content string) (string, int, error) {
	if a.StartPattern == "" || a.EndPattern == "" {
		return "", 0, errors.Errorf("delete_duplicates: start and end patterns are required")
	}

	lines := strings.Split(content, "\n")
	kept := make([]string, 0, len(lines))

	state := scanOutside
	occurrences := 0
	removedBlocks := 0

	for _, line := range lines {
		switch state {
		case scanOutside:
			if strings.Contains(line, a.StartPattern) {
				occurrences++
				if occurrences > 1 {
					removedBlocks++
					// Degenerate single-line block: start and end on one line
					if strings.Contains(line, a.EndPattern) && a.EndPattern != a.StartPattern {
						continue
					}
					state = scanSkipping
					continue
				}
			}
			kept = append(kept, line)
		case scanSkipping:
			if strings.Contains(line, a.EndPattern) {
				state = scanOutside
			}
			// terminator line is dropped along with the block
		}
	}

	if state == scanSkipping {
		return "", 0, errors.Errorf("delete_duplicates: unterminated block, %q never followed by %q",
			a.StartPattern, a.EndPattern)
	}

	return strings.Join(kept, "\n"), removedBlocks, nil
}

// 📥 InsertAfterAnchor inserts a literal block immediately after the first
// line matching Anchor
type InsertAfterAnchor struct {
	Anchor string
	Block  string
}

func (a InsertAfterAnchor) Kind() string { return "insert_after_anchor" }

func (a InsertAfterAnchor) Apply(content string) (string, int, error) {
	if a.Anchor == "" {
		return "", 0, errors.Errorf("insert_after_anchor: anchor is required")
	}

	lines := strings.Split(content, "\n")
	for i, line := range lines {
		if strings.Contains(line, a.Anchor) {
			block := strings.Split(a.Block, "\n")
			out := make([]string, 0, len(lines)+len(block))
			out = append(out, lines[:i+1]...)
			out = append(out, block...)
			out = append(out, lines[i+1:]...)
			return strings.Join(out, "\n"), 1, nil
		}
	}

	return "", 0, errors.Errorf("insert_after_anchor: anchor %q not found", a.Anchor)
}

// 🔁 ReplaceBlock replaces the contiguous region bounded inclusively by the
// first StartPattern line and the next EndPattern line with Replacement
type ReplaceBlock struct {
	StartPattern string
	EndPattern   string
	Replacement  string
}

func (a ReplaceBlock) Kind() string { return "replace_block" }

func (a ReplaceBlock) Apply(content string) (string, int, error) {
	if a.StartPattern == "" || a.EndPattern == "" {
		return "", 0, errors.Errorf("replace_block: start and end patterns are required")
	}

	lines := strings.Split(content, "\n")
	start := -1
	for i, line := range lines {
		if strings.Contains(line, a.StartPattern) {
			start = i
			break
		}
	}
	if start < 0 {
		return "", 0, errors.Errorf("replace_block: start pattern %q not found", a.StartPattern)
	}

	end := -1
	for i := start + 1; i < len(lines); i++ {
		if strings.Contains(lines[i], a.EndPattern) {
			end = i
			break
		}
	}
	if end < 0 {
		return "", 0, errors.Errorf("replace_block: end pattern %q not found after start", a.EndPattern)
	}

	replacement := strings.Split(a.Replacement, "\n")
	out := make([]string, 0, len(lines)-(end-start+1)+len(replacement))
	out = append(out, lines[:start]...)
	out = append(out, replacement...)
	out = append(out, lines[end+1:]...)
	return strings.Join(out, "\n"), 1, nil
}

// 🪄 StructuredRewrite locates the unique line containing a known-malformed
// Fragment and substitutes the corrected literal (which may span lines)
type StructuredRewrite struct {
	Fragment    string
	Replacement string
}

func (a StructuredRewrite) Kind() string { return "structured_rewrite" }

func (a StructuredRewrite) Apply(content string) (string, int, error) {
	if a.Fragment == "" {
		return "", 0, errors.Errorf("structured_rewrite: fragment is required")
	}

	lines := strings.Split(content, "\n")
	match := -1
	for i, line := range lines {
		if strings.Contains(line, a.Fragment) {
			if match >= 0 {
				return "", 0, errors.Errorf("structured_rewrite: fragment %q is not unique", a.Fragment)
			}
			match = i
		}
	}
	if match < 0 {
		return "", 0, errors.Errorf("structured_rewrite: fragment %q not found", a.Fragment)
	}

	replacement := strings.Split(a.Replacement, "\n")
	out := make([]string, 0, len(lines)-1+len(replacement))
	out = append(out, lines[:match]...)
	out = append(out, replacement...)
	out = append(out, lines[match+1:]...)
	return strings.Join(out, "\n"), 1, nil
}

// 🔧 Transformation is a single named, idempotent edit rule bound to one
// target file. Reapplying a transformation whose precondition is already
// false is a no-op.
type Transformation struct {
	Name         string
	TargetFile   string // relative to the working tree root
	Precondition Precondition
	Action       Action
}
