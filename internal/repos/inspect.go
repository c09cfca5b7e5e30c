package repos

import (
	"context"
	"os"
	"path/filepath"
	"time"

	gitlib "github.com/go-git/go-git/v5"
)

// RepoSummary identifies one working copy beneath the root.
type RepoSummary struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

// RepoState is the full inspection result for one working copy.
type RepoState struct {
	Name       string         `json:"name"`
	Path       string         `json:"path"`
	Branch     string         `json:"branch"`
	Detached   bool           `json:"detached"`
	Dirty      bool           `json:"dirty"`
	Status     WorktreeStatus `json:"status"`
	OriginURL  string         `json:"origin_url"`
	LastCommit *CommitRecord  `json:"last_commit,omitempty"`
}

// CommitRecord is one commit as surfaced to the dashboard.
type CommitRecord struct {
	SHA     string    `json:"sha"`
	Author  string    `json:"author"`
	Email   string    `json:"email"`
	Message string    `json:"message"`
	Date    time.Time `json:"date"`
}

// List enumerates the working copies directly beneath the root. Directories
// without a .git entry are skipped, not errors; the host user may keep other
// files next to the managed copies.
func (e *Engine) List(ctx context.Context) ([]RepoSummary, error) {
	entries, err := os.ReadDir(e.root)
	if err != nil {
		return nil, wrapError(KindGitExecution, err, "read repository root")
	}
	var repos []RepoSummary
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		path := filepath.Join(e.root, entry.Name())
		if ok, err := workingCopyExists(path); err == nil && ok {
			repos = append(repos, RepoSummary{Name: entry.Name(), Path: path})
		}
	}
	return repos, nil
}

// Inspect reads the current state of one working copy. It performs no
// network access and updates no refs.
func (e *Engine) Inspect(ctx context.Context, name string) (RepoState, error) {
	path, err := e.Resolve(name)
	if err != nil {
		return RepoState{}, err
	}
	unlock := e.locks.rlock(path)
	defer unlock()
	return e.inspectLocked(ctx, path, name)
}

func (e *Engine) inspectLocked(ctx context.Context, path, name string) (RepoState, error) {
	repo, err := e.openRepo(path, name)
	if err != nil {
		return RepoState{}, err
	}
	status, err := e.worktreeStatus(ctx, path)
	if err != nil {
		return RepoState{}, err
	}
	state := RepoState{
		Name:      name,
		Path:      path,
		Status:    status,
		Dirty:     status.Dirty(),
		OriginURL: originURL(repo),
	}
	if branch, ok := headBranch(repo); ok {
		state.Branch = branch
	} else {
		state.Branch = "HEAD"
		state.Detached = true
	}
	state.LastCommit = lastCommit(repo)
	return state, nil
}

func lastCommit(repo *gitlib.Repository) *CommitRecord {
	ref, err := repo.Head()
	if err != nil {
		return nil
	}
	commit, err := repo.CommitObject(ref.Hash())
	if err != nil {
		return nil
	}
	rec := newCommitRecord(commit)
	return &rec
}
