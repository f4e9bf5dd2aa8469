package install

import (
	"context"
	"os/exec"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// 🧪 SmokeRunner executes the post-install smoke test
type SmokeRunner interface {
	Run(ctx context.Context) error
}

// 🖥️ ExecSmokeRunner runs an external command with a bounded wait. A
// process that outlives the timeout is treated as hung and the step fails;
// it never blocks the plan indefinitely.
type ExecSmokeRunner struct {
	Dir     string
	Command []string
	Timeout time.Duration
}

// 🏭 NewExecSmokeRunner creates a smoke runner for the given command
func NewExecSmokeRunner(dir string, command []string, timeout time.Duration) *ExecSmokeRunner {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &ExecSmokeRunner{Dir: dir, Command: command, Timeout: timeout}
}

func (r *ExecSmokeRunner) Run(ctx context.Context) error {
	logger := zerolog.Ctx(ctx)

	if len(r.Command) == 0 {
		return errors.Errorf("no smoke test command configured")
	}

	ctx, cancel := context.WithTimeout(ctx, r.Timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, r.Command[0], r.Command[1:]...)
	cmd.Dir = r.Dir
	out, err := cmd.CombinedOutput()

	if ctx.Err() == context.DeadlineExceeded {
		return errors.Errorf("smoke test timed out after %s", r.Timeout)
	}
	if err != nil {
		detail := strings.TrimSpace(string(out))
		if detail == "" {
			detail = err.Error()
		}
		return errors.Errorf("smoke test failed: %s", detail)
	}

	logger.Debug().Strs("command", r.Command).Msg("smoke test passed")
	return nil
}
