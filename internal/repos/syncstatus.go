package repos

import (
	"context"
	"io"

	gitlib "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// SyncState classifies a local branch against its remote counterpart.
type SyncState string

const (
	StateSynced   SyncState = "synced"
	StateAhead    SyncState = "ahead"
	StateBehind   SyncState = "behind"
	StateDiverged SyncState = "diverged"
)

// SyncStatusRecord is the derived ahead/behind classification. It is
// recomputed on every request and never persisted.
type SyncStatusRecord struct {
	Ahead  int       `json:"ahead"`
	Behind int       `json:"behind"`
	Status SyncState `json:"status"`
}

// Compare classifies local against remote given their merge base and the
// reachability counts. Pure and deterministic; identical tips are synced
// regardless of the supplied counts.
func Compare(localTip, remoteTip, mergeBase string, ahead, behind int) SyncStatusRecord {
	if localTip == remoteTip {
		return SyncStatusRecord{Status: StateSynced}
	}
	if mergeBase == remoteTip {
		behind = 0
	}
	if mergeBase == localTip {
		ahead = 0
	}
	rec := SyncStatusRecord{Ahead: ahead, Behind: behind}
	switch {
	case ahead == 0 && behind == 0:
		rec.Status = StateSynced
	case ahead > 0 && behind > 0:
		rec.Status = StateDiverged
	case ahead > 0:
		rec.Status = StateAhead
	default:
		rec.Status = StateBehind
	}
	return rec
}

// SyncStatus compares the tip of branch (or HEAD when empty) against
// remoteTip, a commit identifier supplied by the GitHub-facing collaborator.
// The commit must already be present locally (via fetch); the engine itself
// never talks to the remote here.
func (e *Engine) SyncStatus(ctx context.Context, name, branch, remoteTip string) (SyncStatusRecord, error) {
	path, err := e.Resolve(name)
	if err != nil {
		return SyncStatusRecord{}, err
	}
	unlock := e.locks.rlock(path)
	defer unlock()

	repo, err := e.openRepo(path, name)
	if err != nil {
		return SyncStatusRecord{}, err
	}
	var localHash plumbing.Hash
	if branch == "" {
		head, err := repo.Head()
		if err != nil {
			return SyncStatusRecord{}, wrapError(KindGitExecution, err, "resolve HEAD of %q", name)
		}
		localHash = head.Hash()
	} else {
		ref, err := repo.Reference(plumbing.NewBranchReferenceName(branch), true)
		if err != nil {
			return SyncStatusRecord{}, newError(KindBranchNotFound, "branch %q does not exist in %q", branch, name)
		}
		localHash = ref.Hash()
	}
	remoteHash, err := repo.ResolveRevision(plumbing.Revision(remoteTip))
	if err != nil {
		return SyncStatusRecord{}, newError(KindRefNotFound,
			"remote tip %q is not present locally in %q; fetch first", remoteTip, name)
	}
	if localHash == *remoteHash {
		return Compare(localHash.String(), remoteHash.String(), localHash.String(), 0, 0), nil
	}
	ahead, behind, base, err := countAheadBehind(repo, localHash, *remoteHash)
	if err != nil {
		return SyncStatusRecord{}, wrapError(KindGitExecution, err, "compare %q against remote tip", name)
	}
	return Compare(localHash.String(), remoteHash.String(), base, ahead, behind), nil
}

// countAheadBehind walks the object graph: ahead is the number of commits
// reachable from local but not remote, behind the reverse. The returned base
// is the first merge base, or empty for unrelated histories.
func countAheadBehind(repo *gitlib.Repository, local, remote plumbing.Hash) (ahead, behind int, base string, err error) {
	localCommit, err := repo.CommitObject(local)
	if err != nil {
		return 0, 0, "", err
	}
	remoteCommit, err := repo.CommitObject(remote)
	if err != nil {
		return 0, 0, "", err
	}
	bases, err := localCommit.MergeBase(remoteCommit)
	if err != nil {
		return 0, 0, "", err
	}
	ignore := make([]plumbing.Hash, 0, len(bases))
	for _, b := range bases {
		ignore = append(ignore, b.Hash)
	}
	if len(bases) > 0 {
		base = bases[0].Hash.String()
	}
	if ahead, err = countExclusive(localCommit, ignore); err != nil {
		return 0, 0, "", err
	}
	if behind, err = countExclusive(remoteCommit, ignore); err != nil {
		return 0, 0, "", err
	}
	return ahead, behind, base, nil
}

// countExclusive counts commits reachable from c, pruning at the ignore set.
func countExclusive(c *object.Commit, ignore []plumbing.Hash) (int, error) {
	for _, h := range ignore {
		if h == c.Hash {
			return 0, nil
		}
	}
	iter := object.NewCommitPreorderIter(c, nil, ignore)
	defer iter.Close()
	count := 0
	for {
		_, err := iter.Next()
		if err == io.EOF {
			return count, nil
		}
		if err != nil {
			return 0, err
		}
		count++
	}
}
