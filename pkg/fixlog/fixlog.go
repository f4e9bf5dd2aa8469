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
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/fatih/color"
	"github.com/pterm/pterm"
	"github.com/rs/zerolog"
)

// 🎨 Display configuration
const (
	itemIndent  = 4  // spaces to indent per-item entries
	nameWidth   = 38 // base width for transformation/step names
	fileWidth   = 28 // width for target file names
	resultWidth = 26 // width for result text
)

// 🔧 FixOperation represents a single remediation outcome for display
type FixOperation struct {
	Name         string // Transformation name
	File         string // Target file
	Result       string // Outcome text (applied/skipped/failed)
	IsApplied    bool   // Whether the fix was applied
	IsSkipped    bool   // Whether the fix was skipped
	IsFailed     bool   // Whether the fix failed
	Replacements int    // Number of edits made
}

// 📋 StepOperation represents an installation step outcome for display
type StepOperation struct {
	Name     string // Step name
	Required bool   // Whether the step was required
	Result   string // Outcome text (success/failure/skipped)
	IsFailed bool   // Whether the step failed
}

// 🎯 Logger handles structured logging with console output
type Logger struct {
	zlog    zerolog.Logger
	console io.Writer
	mu      sync.Mutex
}

// 🏭 New creates a new logger
func New(console io.Writer, level zerolog.Level) *Logger {
	zlog := zerolog.New(zerolog.NewConsoleWriter()).With().Timestamp().Logger().Level(level)
	return &Logger{
		zlog:    zlog,
		console: console,
		mu:      sync.Mutex{},
	}
}

// 🔑 contextKey is the type for context values
type contextKey struct{}

// 🎯 FromContext gets the logger from context
func FromContext(ctx context.Context) *Logger {
	logger, ok := ctx.Value(contextKey{}).(*Logger)
	if !ok {
		panic("logger not found in context")
	}
	return logger
}

// 🎯 NewContext adds the logger to context
func NewContext(ctx context.Context, l *Logger) context.Context {
	return context.WithValue(ctx, contextKey{}, l)
}

// 📝 formatFixOperation formats a remediation outcome for display
func (l *Logger) formatFixOperation(op FixOperation) string {
	var symbol rune
	var symbolColor color.Attribute
	switch {
	case op.IsFailed:
		symbol = '✗'
		symbolColor = color.FgRed
	case op.IsApplied:
		symbol = '✓'
		symbolColor = color.FgGreen
	case op.IsSkipped:
		symbol = '-'
		symbolColor = color.FgYellow
	default:
		symbol = '•'
		symbolColor = color.FgCyan
	}

	return fmt.Sprintf("%s%s %s %s %s",
		fmt.Sprintf("%*s", itemIndent, ""),
		color.New(symbolColor).Sprint(string(symbol)),
		fmt.Sprintf("%-*s", nameWidth, op.Name),
		color.New(color.FgCyan).Sprint(fmt.Sprintf("%-*s", fileWidth, op.File)),
		fmt.Sprintf("%-*s", resultWidth, op.Result))
}

// 📝 LogFixOperation logs a remediation outcome
func (l *Logger) LogFixOperation(ctx context.Context, op FixOperation) {
	l.mu.Lock()
	defer l.mu.Unlock()

	fmt.Fprintln(l.console, l.formatFixOperation(op))

	l.zlog.Info().
		Str("transformation", op.Name).
		Str("file", op.File).
		Str("result", op.Result).
		Bool("applied", op.IsApplied).
		Bool("skipped", op.IsSkipped).
		Bool("failed", op.IsFailed).
		Int("replacements", op.Replacements).
		Msg("remediation outcome")
}

// 📝 LogStepOperation logs an installation step outcome
func (l *Logger) LogStepOperation(ctx context.Context, op StepOperation) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var printer *pterm.PrefixPrinter
	switch {
	case op.IsFailed && op.Required:
		printer = pterm.Error.WithPrefix(pterm.Prefix{Text: "✗"})
	case op.IsFailed:
		printer = pterm.Warning.WithPrefix(pterm.Prefix{Text: "!"})
	case op.Result == "skipped":
		printer = pterm.Debug.WithPrefix(pterm.Prefix{Text: "⏭"})
	default:
		printer = pterm.Success.WithPrefix(pterm.Prefix{Text: "✓"})
	}
	printer.WithWriter(l.console).Printfln("%s (%s)", op.Name, op.Result)

	l.zlog.Info().
		Str("step", op.Name).
		Str("result", op.Result).
		Bool("required", op.Required).
		Bool("failed", op.IsFailed).
		Msg("step outcome")
}

// 📝 Phase logs a phase header for the staged report
func (l *Logger) Phase(name string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	fmt.Fprintf(l.console, "\n%s %s\n",
		color.New(color.FgMagenta).Sprint("◆"),
		color.New(color.Bold).Sprint(name))
	l.zlog.Info().Str("phase", name).Msg("starting phase")
}

// 📊 Summary prints the end-of-run summary as a key/value table
func (l *Logger) Summary(rows [][]string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	table, err := pterm.DefaultTable.WithData(pterm.TableData(rows)).Srender()
	if err != nil {
		// Table rendering is cosmetic; fall back to plain rows.
		for _, row := range rows {
			fmt.Fprintln(l.console, row)
		}
		return
	}
	fmt.Fprintln(l.console, table)
}

// 📝 Header logs a header
func (l *Logger) Header(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fixrcText := color.New(color.Bold, color.FgCyan).Sprint("fixrc")
	fmt.Fprintf(l.console, "\n%s %s\n\n", fixrcText, color.New(color.Faint).Sprint("• "+msg))
	l.zlog.Info().Msg(msg)
}

// 📝 Success logs a success message
func (l *Logger) Success(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.console, "✅ %s\n", color.New(color.FgGreen).Sprint(msg))
	l.zlog.Info().Msg(msg)
}

// 📝 Warning logs a warning message
func (l *Logger) Warning(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.console, "⚠️  %s\n", color.New(color.FgYellow).Sprint(msg))
	l.zlog.Warn().Msg(msg)
}

// 📝 Error logs an error message
func (l *Logger) Error(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.console, "❌ %s\n", color.New(color.FgRed).Sprint(msg))
	l.zlog.Error().Msg(msg)
}

// 📝 Info logs an info message
func (l *Logger) Info(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.console, "ℹ️  %s\n", color.New(color.FgCyan).Sprint(msg))
	l.zlog.Info().Msg(msg)
}

// 📝 Infof logs a formatted info message
func (l *Logger) Infof(format string, args ...interface{}) {
	l.Info(fmt.Sprintf(format, args...))
}

// 📝 Warningf logs a formatted warning message
func (l *Logger) Warningf(format string, args ...interface{}) {
	l.Warning(fmt.Sprintf(format, args...))
}

// 📝 Errorf logs a formatted error message
func (l *Logger) Errorf(format string, args ...interface{}) {
	l.Error(fmt.Sprintf(format, args...))
}

// 📝 Successf logs a formatted success message
func (l *Logger) Successf(format string, args ...interface{}) {
	l.Success(fmt.Sprintf(format, args...))
}
