package repos

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	gitlib "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

// CommandResult is the uniform outcome of every mutating operation.
type CommandResult struct {
	Path          string   `json:"path"`
	Created       bool     `json:"created"`
	Updated       bool     `json:"updated"`
	DefaultBranch string   `json:"default_branch"`
	Warnings      []string `json:"warnings,omitempty"`
}

// CloneOrUpdate brings the working copy for name in sync with remoteURL.
//
// A missing (or empty) path is cloned. An existing working copy is verified
// against remoteURL, fetched, and fast-forwarded only when that is safe: a
// dirty tree, a detached HEAD, a missing upstream or divergent local commits
// all downgrade to a warning no-op instead of an error, so a stateless caller
// can retry the operation at any time. Only a true fast-forward reports
// updated=true; calling twice against an unchanged remote is a no-op on the
// second call.
func (e *Engine) CloneOrUpdate(ctx context.Context, name, remoteURL string, creds Credentials) (CommandResult, error) {
	path, err := e.Resolve(name)
	if err != nil {
		return CommandResult{}, err
	}
	unlock := e.locks.lock(path)
	defer unlock()

	ctx, cancel := context.WithTimeout(ctx, e.gitTimeout)
	defer cancel()

	exists, err := workingCopyExists(path)
	if err != nil {
		return CommandResult{}, wrapError(KindGitExecution, err, "stat working copy %q", name)
	}
	if !exists {
		return e.cloneLocked(ctx, path, name, remoteURL, creds)
	}
	return e.updateLocked(ctx, path, name, remoteURL, creds)
}

func (e *Engine) cloneLocked(ctx context.Context, path, name, remoteURL string, creds Credentials) (CommandResult, error) {
	if strings.TrimSpace(remoteURL) == "" {
		return CommandResult{}, newError(KindInvalidArgument, "remote URL is required for an initial clone of %q", name)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return CommandResult{}, wrapError(KindGitExecution, err, "create parent directory for %q", name)
	}
	// A leftover empty directory is treated as absent; git refuses to clone
	// into it only when it holds entries, which workingCopyExists rules out.
	if emptyDir(path) {
		if err := os.Remove(path); err != nil {
			return CommandResult{}, wrapError(KindGitExecution, err, "remove empty directory for %q", name)
		}
	}
	e.log.Info("cloning repository", slog.String("name", name))
	repo, err := gitlib.PlainCloneContext(ctx, path, false, &gitlib.CloneOptions{
		URL:  remoteURL,
		Auth: creds.authMethod(),
	})
	if err != nil {
		return CommandResult{}, classifyTransportErr(ctx, err, "clone repository %q", name)
	}
	return CommandResult{
		Path:          path,
		Created:       true,
		DefaultBranch: defaultBranchName(repo),
	}, nil
}

func (e *Engine) updateLocked(ctx context.Context, path, name, remoteURL string, creds Credentials) (CommandResult, error) {
	repo, err := e.openRepo(path, name)
	if err != nil {
		return CommandResult{}, err
	}
	configured := originURL(repo)
	if configured == "" {
		return CommandResult{}, newError(KindRemoteMismatch, "repository %q has no origin remote configured", name)
	}
	if remoteURL != "" && !sameRemote(configured, remoteURL) {
		// Never silently repoint origin.
		return CommandResult{}, newError(KindRemoteMismatch,
			"repository %q origin does not match the requested remote URL", name)
	}

	result := CommandResult{Path: path}

	remote, err := repo.Remote(gitlib.DefaultRemoteName)
	if err != nil {
		return CommandResult{}, wrapError(KindGitExecution, err, "resolve origin of %q", name)
	}
	err = remote.FetchContext(ctx, &gitlib.FetchOptions{Auth: creds.authMethod()})
	switch {
	case err == nil, errors.Is(err, gitlib.NoErrAlreadyUpToDate):
	default:
		return CommandResult{}, classifyTransportErr(ctx, err, "fetch %q", name)
	}

	status, err := e.worktreeStatus(ctx, path)
	if err != nil {
		return CommandResult{}, err
	}
	if status.Dirty() {
		result.Warnings = append(result.Warnings,
			"working copy has uncommitted changes; fetched remote refs without fast-forwarding")
		result.DefaultBranch = defaultBranchName(repo)
		return result, nil
	}

	branch, ok := headBranch(repo)
	if !ok {
		result.Warnings = append(result.Warnings,
			"HEAD is detached; fetched remote refs without fast-forwarding")
		result.DefaultBranch = defaultBranchName(repo)
		return result, nil
	}
	result.DefaultBranch = branch

	remoteRef, err := repo.Reference(plumbing.NewRemoteReferenceName(gitlib.DefaultRemoteName, branch), true)
	if err != nil {
		result.Warnings = append(result.Warnings,
			"no remote tracking branch found; fetched remote refs without fast-forwarding")
		return result, nil
	}
	head, err := repo.Head()
	if err != nil {
		return CommandResult{}, wrapError(KindGitExecution, err, "resolve HEAD of %q", name)
	}
	if head.Hash() == remoteRef.Hash() {
		// Already in sync; the idempotent no-op path.
		return result, nil
	}

	worktree, err := repo.Worktree()
	if err != nil {
		return CommandResult{}, wrapError(KindGitExecution, err, "open worktree of %q", name)
	}
	err = worktree.PullContext(ctx, &gitlib.PullOptions{
		RemoteName:    gitlib.DefaultRemoteName,
		ReferenceName: plumbing.NewBranchReferenceName(branch),
		Auth:          creds.authMethod(),
	})
	switch {
	case err == nil:
		result.Updated = true
		e.log.Info("fast-forwarded repository",
			slog.String("name", name), slog.String("branch", branch))
	case errors.Is(err, gitlib.NoErrAlreadyUpToDate):
	case errors.Is(err, gitlib.ErrNonFastForwardUpdate):
		result.Warnings = append(result.Warnings,
			"local branch "+branch+" has commits not on the remote; not fast-forwarding")
	default:
		return CommandResult{}, classifyTransportErr(ctx, err, "fast-forward %q", name)
	}
	return result, nil
}

// classifyTransportErr maps context deadlines to Timeout and everything else
// to GitExecution, keeping credential material out of the message.
func classifyTransportErr(ctx context.Context, err error, format string, args ...any) error {
	if ctx.Err() == context.DeadlineExceeded || errors.Is(err, context.DeadlineExceeded) {
		return newError(KindTimeout, format+": timed out", args...)
	}
	return wrapError(KindGitExecution, err, format, args...)
}
