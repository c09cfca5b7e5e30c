package repos

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"strings"
)

// runGit executes the git binary with -C dir and returns stdout. Stderr is
// scrubbed of credential material before it can appear in an error message.
// A context deadline surfaces as a Timeout kind; everything else unclassified
// becomes GitExecution.
func (e *Engine) runGit(ctx context.Context, dir string, args ...string) (string, error) {
	return e.runGitAllowExit1(ctx, dir, false, args...)
}

// runGitAllowExit1 additionally tolerates exit code 1 with empty stderr,
// which is how git diff signals "changes present" under --exit-code-style
// invocations.
func (e *Engine) runGitAllowExit1(ctx context.Context, dir string, allowExit1 bool, args ...string) (string, error) {
	cmdArgs := append([]string{"-C", dir}, args...)
	cmd := exec.CommandContext(ctx, "git", cmdArgs...)
	// Callers classify failures by matching git's stderr; keep the messages
	// unlocalized.
	cmd.Env = append(os.Environ(), "LC_ALL=C")
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	if err != nil {
		var exitErr *exec.ExitError
		if allowExit1 && errors.As(err, &exitErr) && exitErr.ExitCode() == 1 && stderr.Len() == 0 {
			return stdout.String(), nil
		}
		if ctx.Err() == context.DeadlineExceeded {
			return "", newError(KindTimeout, "git %s timed out", commandName(args))
		}
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = strings.TrimSpace(stdout.String())
		}
		if msg == "" {
			msg = err.Error()
		}
		return "", newError(KindGitExecution, "git %s: %s", commandName(args), msg)
	}
	return stdout.String(), nil
}

// commandName returns the subcommand token for error messages, never
// arguments, so paths and URLs stay out of the message prefix.
func commandName(args []string) string {
	for i := 0; i < len(args); i++ {
		a := args[i]
		if a == "-c" {
			i++ // skip the key=value that follows
			continue
		}
		if !strings.HasPrefix(a, "-") {
			return a
		}
	}
	return "<none>"
}
