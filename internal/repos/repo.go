package repos

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	gitlib "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

// workingCopyExists reports whether path holds a git working copy. A missing
// or empty directory counts as absent; a directory without .git does not
// count as a working copy.
func workingCopyExists(path string) (bool, error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if !info.IsDir() {
		return false, nil
	}
	_, err = os.Stat(filepath.Join(path, ".git"))
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// emptyDir reports whether path exists and holds no entries.
func emptyDir(path string) bool {
	entries, err := os.ReadDir(path)
	return err == nil && len(entries) == 0
}

func (e *Engine) openRepo(path, name string) (*gitlib.Repository, error) {
	exists, err := workingCopyExists(path)
	if err != nil {
		return nil, wrapError(KindGitExecution, err, "stat working copy %q", name)
	}
	if !exists {
		return nil, newError(KindNotFound, "repository %q is not cloned locally", name)
	}
	repo, err := gitlib.PlainOpen(path)
	if err != nil {
		if errors.Is(err, gitlib.ErrRepositoryNotExists) {
			return nil, newError(KindNotFound, "repository %q is not cloned locally", name)
		}
		return nil, wrapError(KindGitExecution, err, "open repository %q", name)
	}
	return repo, nil
}

// headBranch returns the current branch short name, or ok=false when HEAD is
// detached or unborn.
func headBranch(repo *gitlib.Repository) (string, bool) {
	ref, err := repo.Head()
	if err != nil {
		return "", false
	}
	if !ref.Name().IsBranch() {
		return "", false
	}
	return ref.Name().Short(), true
}

// originURL returns the first configured URL of the origin remote.
func originURL(repo *gitlib.Repository) string {
	remote, err := repo.Remote(gitlib.DefaultRemoteName)
	if err != nil {
		return ""
	}
	urls := remote.Config().URLs
	if len(urls) == 0 {
		return ""
	}
	return urls[0]
}

// defaultBranchName discovers the repository's default branch: the current
// branch when HEAD is attached, otherwise the target of origin/HEAD.
func defaultBranchName(repo *gitlib.Repository) string {
	if branch, ok := headBranch(repo); ok {
		return branch
	}
	ref, err := repo.Reference(plumbing.ReferenceName("refs/remotes/origin/HEAD"), false)
	if err != nil {
		return ""
	}
	target := ref.Target().String()
	return strings.TrimPrefix(target, "refs/remotes/origin/")
}
