package repos

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	gitlib "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
)

// StashAction selects the stash verb.
type StashAction string

const (
	StashCreate StashAction = "create"
	StashApply  StashAction = "apply"
	StashDrop   StashAction = "drop"
)

// CommitOptions parameterizes Commit.
type CommitOptions struct {
	Message     string
	AuthorName  string
	AuthorEmail string
	StageAll    bool
}

// ResetMode selects the reset semantics.
type ResetMode string

const (
	ResetSoft  ResetMode = "soft"
	ResetMixed ResetMode = "mixed"
	ResetHard  ResetMode = "hard"
)

// Stash runs the requested stash action. create refuses a clean tree,
// apply and drop refuse an empty stash list.
func (e *Engine) Stash(ctx context.Context, name string, action StashAction) (CommandResult, error) {
	return e.mutate(ctx, name, func(ctx context.Context, path string, repo *gitlib.Repository) ([]string, error) {
		switch action {
		case StashCreate:
			status, err := e.worktreeStatus(ctx, path)
			if err != nil {
				return nil, err
			}
			if !status.Dirty() {
				return nil, newError(KindNothingToStash, "working copy %q is already clean", name)
			}
			_, err = e.runGit(ctx, path, "stash", "push", "--include-untracked")
			return nil, err
		case StashApply, StashDrop:
			list, err := e.runGit(ctx, path, "stash", "list")
			if err != nil {
				return nil, err
			}
			if strings.TrimSpace(list) == "" {
				return nil, newError(KindNoStash, "repository %q has no stash entries", name)
			}
			_, err = e.runGit(ctx, path, "stash", string(action))
			return nil, err
		default:
			return nil, newError(KindInvalidArgument, "unknown stash action %q", action)
		}
	})
}

// Commit stages (optionally) and commits the index. The index must be
// non-empty after staging and the message non-empty after trimming.
func (e *Engine) Commit(ctx context.Context, name string, opts CommitOptions) (CommandResult, error) {
	message := strings.TrimSpace(opts.Message)
	if message == "" {
		return CommandResult{}, newError(KindInvalidArgument, "commit message must not be empty")
	}
	return e.mutate(ctx, name, func(ctx context.Context, path string, repo *gitlib.Repository) ([]string, error) {
		if opts.StageAll {
			if _, err := e.runGit(ctx, path, "add", "-u"); err != nil {
				return nil, err
			}
		}
		status, err := e.worktreeStatus(ctx, path)
		if err != nil {
			return nil, err
		}
		if !status.Staged {
			return nil, newError(KindNothingToCommit, "repository %q has no staged changes to commit", name)
		}

		before := headHash(repo)
		args := []string{}
		if opts.AuthorName != "" {
			args = append(args, "-c", "user.name="+opts.AuthorName)
		}
		if opts.AuthorEmail != "" {
			args = append(args, "-c", "user.email="+opts.AuthorEmail)
		}
		args = append(args, "commit", "-m", message)
		if opts.AuthorName != "" && opts.AuthorEmail != "" {
			args = append(args, "--author", fmt.Sprintf("%s <%s>", opts.AuthorName, opts.AuthorEmail))
		}
		if _, err := e.runGit(ctx, path, args...); err != nil {
			return nil, err
		}
		if headHash(repo) == before {
			return nil, newError(KindGitExecution, "commit in %q did not advance HEAD", name)
		}
		return nil, nil
	})
}

// Checkout switches branches. With create set a missing branch is created
// from the current HEAD; without it a missing branch is an error. Local
// modifications that the switch would overwrite abort the operation.
func (e *Engine) Checkout(ctx context.Context, name, branch string, create bool) (CommandResult, error) {
	branch = strings.TrimSpace(branch)
	if branch == "" {
		return CommandResult{}, newError(KindInvalidArgument, "branch not specified")
	}
	return e.mutate(ctx, name, func(ctx context.Context, path string, repo *gitlib.Repository) ([]string, error) {
		_, err := repo.Reference(plumbing.NewBranchReferenceName(branch), false)
		exists := err == nil
		if !exists && !errors.Is(err, plumbing.ErrReferenceNotFound) {
			return nil, wrapError(KindGitExecution, err, "look up branch %q", branch)
		}
		if !exists && !create {
			return nil, newError(KindBranchNotFound, "branch %q does not exist in %q", branch, name)
		}

		args := []string{"checkout", branch}
		if !exists {
			args = []string{"checkout", "-b", branch}
		}
		if _, err := e.runGit(ctx, path, args...); err != nil {
			if strings.Contains(err.Error(), "would be overwritten") {
				return nil, newError(KindUncommittedChanges,
					"checkout of %q would overwrite local modifications in %q", branch, name)
			}
			return nil, err
		}
		if current, ok := headBranch(repo); !ok || current != branch {
			return nil, newError(KindGitExecution, "checkout of %q in %q did not switch HEAD", branch, name)
		}
		return nil, nil
	})
}

// Reset moves HEAD (and, per mode, index and worktree) to ref. The ref is
// resolved before anything mutates, so an unknown ref never leaves partial
// state. Hard resets carry a destructive warning in the result.
func (e *Engine) Reset(ctx context.Context, name string, mode ResetMode, ref string) (CommandResult, error) {
	switch mode {
	case ResetSoft, ResetMixed, ResetHard:
	default:
		return CommandResult{}, newError(KindInvalidArgument, "unknown reset mode %q", mode)
	}
	if strings.TrimSpace(ref) == "" {
		return CommandResult{}, newError(KindInvalidArgument, "reset ref not specified")
	}
	return e.mutate(ctx, name, func(ctx context.Context, path string, repo *gitlib.Repository) ([]string, error) {
		hash, err := repo.ResolveRevision(plumbing.Revision(ref))
		if err != nil {
			return nil, newError(KindRefNotFound, "ref %q not found in %q", ref, name)
		}
		if _, err := e.runGit(ctx, path, "reset", "--"+string(mode), hash.String()); err != nil {
			return nil, err
		}
		var warnings []string
		if mode == ResetHard {
			warnings = append(warnings, "hard reset discarded uncommitted changes")
			e.log.Warn("hard reset executed",
				slog.String("name", name), slog.String("ref", ref))
		}
		return warnings, nil
	})
}

// CherryPick applies the given commits in order onto the current branch. Any
// failure aborts the in-progress pick and rolls the branch back to its state
// before this call; partial application is never left on disk.
func (e *Engine) CherryPick(ctx context.Context, name string, shas []string) (CommandResult, error) {
	if len(shas) == 0 {
		return CommandResult{}, newError(KindInvalidArgument, "no commits given to cherry-pick")
	}
	return e.mutate(ctx, name, func(ctx context.Context, path string, repo *gitlib.Repository) ([]string, error) {
		status, err := e.worktreeStatus(ctx, path)
		if err != nil {
			return nil, err
		}
		if status.Staged || status.Unstaged {
			return nil, newError(KindUncommittedChanges,
				"repository %q has uncommitted changes; cherry-pick requires a clean tree", name)
		}
		for _, sha := range shas {
			if _, err := repo.ResolveRevision(plumbing.Revision(sha)); err != nil {
				return nil, newError(KindRefNotFound, "commit %q not found in %q", sha, name)
			}
		}

		before := headHash(repo)
		for _, sha := range shas {
			if _, err := e.runGit(ctx, path, "cherry-pick", sha); err != nil {
				e.rollbackCherryPick(ctx, path, before)
				if strings.Contains(strings.ToLower(err.Error()), "conflict") {
					return nil, newError(KindCherryPickConflict,
						"cherry-pick of %q conflicts in %q; no commits were applied", sha, name)
				}
				return nil, err
			}
		}
		return nil, nil
	})
}

// rollbackCherryPick restores the pre-call state after a failed pick. The
// tree was verified clean before the first pick, so a hard reset to the
// recorded head cannot lose user work.
func (e *Engine) rollbackCherryPick(ctx context.Context, path, head string) {
	if _, err := e.runGit(ctx, path, "cherry-pick", "--abort"); err != nil {
		e.log.Debug("cherry-pick abort", slog.Any("error", err))
	}
	if head == "" {
		return
	}
	if _, err := e.runGit(ctx, path, "reset", "--hard", head); err != nil {
		e.log.Error("cherry-pick rollback failed",
			slog.String("path", path), slog.Any("error", err))
	}
}

// Push sends the current (or named) branch to origin. A diverged remote
// fails with NonFastForward; the engine never force-pushes.
func (e *Engine) Push(ctx context.Context, name, branch string, creds Credentials) (CommandResult, error) {
	return e.mutate(ctx, name, func(ctx context.Context, path string, repo *gitlib.Repository) ([]string, error) {
		branch = strings.TrimSpace(branch)
		if branch == "" {
			current, ok := headBranch(repo)
			if !ok {
				return nil, newError(KindInvalidArgument, "cannot push from a detached HEAD in %q", name)
			}
			branch = current
		}
		if _, err := repo.Reference(plumbing.NewBranchReferenceName(branch), false); err != nil {
			return nil, newError(KindBranchNotFound, "branch %q does not exist in %q", branch, name)
		}

		ctx, cancel := context.WithTimeout(ctx, e.gitTimeout)
		defer cancel()
		refSpec := config.RefSpec(fmt.Sprintf("refs/heads/%s:refs/heads/%s", branch, branch))
		err := repo.PushContext(ctx, &gitlib.PushOptions{
			RemoteName: gitlib.DefaultRemoteName,
			RefSpecs:   []config.RefSpec{refSpec},
			Auth:       creds.authMethod(),
		})
		switch {
		case err == nil:
		case errors.Is(err, gitlib.NoErrAlreadyUpToDate):
			return []string{"branch " + branch + " is already up to date on origin"}, nil
		case errors.Is(err, gitlib.ErrNonFastForwardUpdate),
			strings.Contains(err.Error(), "non-fast-forward"):
			return nil, newError(KindNonFastForward,
				"origin has commits not present on %q; push rejected without force", branch)
		default:
			return nil, classifyTransportErr(ctx, err, "push %q", name)
		}
		return nil, nil
	})
}

// mutate is the shared shell of every mutating verb: resolve, take the write
// lock, open the repository, run fn, and assemble the CommandResult. fn runs
// entirely under the path lock, so its own dirty checks cannot go stale.
func (e *Engine) mutate(ctx context.Context, name string, fn func(ctx context.Context, path string, repo *gitlib.Repository) ([]string, error)) (CommandResult, error) {
	path, err := e.Resolve(name)
	if err != nil {
		return CommandResult{}, err
	}
	unlock := e.locks.lock(path)
	defer unlock()

	repo, err := e.openRepo(path, name)
	if err != nil {
		return CommandResult{}, err
	}
	warnings, err := fn(ctx, path, repo)
	if err != nil {
		return CommandResult{}, err
	}
	result := CommandResult{Path: path, Updated: true, Warnings: warnings}
	if branch, ok := headBranch(repo); ok {
		result.DefaultBranch = branch
	}
	return result, nil
}

func headHash(repo *gitlib.Repository) string {
	ref, err := repo.Head()
	if err != nil {
		return ""
	}
	return ref.Hash().String()
}
