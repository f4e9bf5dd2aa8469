package remedy

import (
	"context"
	"os/exec"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// ✅ ValidationResult is the outcome of a syntax check for one file
type ValidationResult struct {
	File   string
	OK     bool
	Detail string
}

// 🔎 Validator checks that a file still parses under the target language's
// syntax checker. Validation failures are surfaced as warnings, never as
// run-aborting errors.
type Validator interface {
	Validate(ctx context.Context, path string) ValidationResult
}

// 🖥️ ExecValidator shells out to a checker command (e.g.
// "python3 -m py_compile") with a bounded wait
type ExecValidator struct {
	Command []string
	Timeout time.Duration
}

// 🏭 NewExecValidator creates a validator for the given checker command
func NewExecValidator(command []string, timeout time.Duration) *ExecValidator {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &ExecValidator{Command: command, Timeout: timeout}
}

func (v *ExecValidator) Validate(ctx context.Context, path string) ValidationResult {
	logger := zerolog.Ctx(ctx)

	if len(v.Command) == 0 {
		return ValidationResult{File: path, OK: true, Detail: "no syntax checker configured"}
	}

	ctx, cancel := context.WithTimeout(ctx, v.Timeout)
	defer cancel()

	args := append(append([]string{}, v.Command[1:]...), path)
	cmd := exec.CommandContext(ctx, v.Command[0], args...)
	out, err := cmd.CombinedOutput()

	if ctx.Err() == context.DeadlineExceeded {
		return ValidationResult{File: path, OK: false, Detail: "syntax checker timed out"}
	}
	if err != nil {
		detail := strings.TrimSpace(string(out))
		if detail == "" {
			detail = err.Error()
		}
		logger.Debug().Str("file", path).Str("detail", detail).Msg("syntax validation failed")
		return ValidationResult{File: path, OK: false, Detail: detail}
	}

	return ValidationResult{File: path, OK: true}
}

// 💤 NoopValidator accepts every file. Used when no checker is available.
type NoopValidator struct{}

func (NoopValidator) Validate(ctx context.Context, path string) ValidationResult {
	return ValidationResult{File: path, OK: true, Detail: "validation skipped"}
}
