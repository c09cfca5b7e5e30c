package repos

import (
	"context"
	"sort"
	"strings"

	gitlib "github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
)

// BranchStatus is one local branch with its upstream tracking state.
type BranchStatus struct {
	Name     string `json:"name"`
	Active   bool   `json:"is_active"`
	Upstream string `json:"tracking,omitempty"`
	Ahead    int    `json:"ahead"`
	Behind   int    `json:"behind"`
}

// Branches lists local branches with per-branch ahead/behind counts against
// their upstream, active branch first.
func (e *Engine) Branches(ctx context.Context, name string) ([]BranchStatus, error) {
	path, err := e.Resolve(name)
	if err != nil {
		return nil, err
	}
	unlock := e.locks.rlock(path)
	defer unlock()

	repo, err := e.openRepo(path, name)
	if err != nil {
		return nil, err
	}
	active, _ := headBranch(repo)

	cfg, err := repo.Config()
	if err != nil {
		return nil, wrapError(KindGitExecution, err, "read config of %q", name)
	}
	iter, err := repo.Branches()
	if err != nil {
		return nil, wrapError(KindGitExecution, err, "list branches of %q", name)
	}
	defer iter.Close()

	var branches []BranchStatus
	err = iter.ForEach(func(ref *plumbing.Reference) error {
		status := BranchStatus{
			Name:   ref.Name().Short(),
			Active: ref.Name().Short() == active,
		}
		if upstream, upstreamHash, ok := upstreamOf(repo, cfg, ref); ok {
			status.Upstream = upstream
			// Counting failures (e.g. shallow history) degrade to zeros, as
			// the dashboard treats unknown as in-sync rather than erroring.
			if ahead, behind, _, err := countAheadBehind(repo, ref.Hash(), upstreamHash); err == nil {
				status.Ahead = ahead
				status.Behind = behind
			}
		}
		branches = append(branches, status)
		return nil
	})
	if err != nil {
		return nil, wrapError(KindGitExecution, err, "list branches of %q", name)
	}
	sort.Slice(branches, func(i, j int) bool {
		if branches[i].Active != branches[j].Active {
			return branches[i].Active
		}
		return strings.ToLower(branches[i].Name) < strings.ToLower(branches[j].Name)
	})
	return branches, nil
}

// upstreamOf resolves the remote tracking ref of a local branch from the
// repository config, falling back to origin/<branch> when the branch has a
// remote ref of that name but no explicit tracking entry.
func upstreamOf(repo *gitlib.Repository, cfg *gitconfig.Config, ref *plumbing.Reference) (string, plumbing.Hash, bool) {
	branch := ref.Name().Short()
	remoteName := gitlib.DefaultRemoteName
	mergeRef := plumbing.NewBranchReferenceName(branch)
	if bc, ok := cfg.Branches[branch]; ok && bc.Remote != "" {
		remoteName = bc.Remote
		if bc.Merge != "" {
			mergeRef = bc.Merge
		}
	}
	trackingName := plumbing.NewRemoteReferenceName(remoteName, strings.TrimPrefix(mergeRef.String(), "refs/heads/"))
	tracking, err := repo.Reference(trackingName, true)
	if err != nil {
		return "", plumbing.ZeroHash, false
	}
	return trackingName.Short(), tracking.Hash(), true
}
