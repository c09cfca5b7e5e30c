package repos

import (
	"context"
	"fmt"
	"strings"

	"github.com/bluekeyes/go-gitdiff/gitdiff"
	"github.com/go-git/go-git/v5/plumbing"
)

// DiffMode selects between a per-file summary and the literal patch text.
type DiffMode string

const (
	DiffSummary DiffMode = "summary"
	DiffPatch   DiffMode = "patch"
)

// maxPatchBytes caps the patch payload returned to the caller; anything
// larger is cut at the limit and flagged truncated.
const maxPatchBytes = 512 << 10

// DiffResult is the outcome of Diff and Staged.
type DiffResult struct {
	Mode      DiffMode   `json:"mode"`
	Files     []FileDiff `json:"files,omitempty"`
	Additions int        `json:"additions"`
	Deletions int        `json:"deletions"`
	Patch     string     `json:"patch,omitempty"`
	Truncated bool       `json:"truncated,omitempty"`
}

// FileDiff is the per-file summary entry.
type FileDiff struct {
	Path      string `json:"path"`
	Status    string `json:"status"` // added, modified, deleted, renamed
	Additions int    `json:"additions"`
	Deletions int    `json:"deletions"`
}

// Diff compares the working tree against target (default HEAD). Summary mode
// returns per-file counts and a status tag; patch mode the unified diff text,
// capped at maxPatchBytes.
func (e *Engine) Diff(ctx context.Context, name, target string, mode DiffMode) (DiffResult, error) {
	if target == "" {
		target = "HEAD"
	}
	if mode == "" {
		mode = DiffSummary
	}
	if mode != DiffSummary && mode != DiffPatch {
		return DiffResult{}, newError(KindInvalidArgument, "unknown diff mode %q", mode)
	}
	path, err := e.Resolve(name)
	if err != nil {
		return DiffResult{}, err
	}
	unlock := e.locks.rlock(path)
	defer unlock()

	repo, err := e.openRepo(path, name)
	if err != nil {
		return DiffResult{}, err
	}
	if _, err := repo.ResolveRevision(plumbing.Revision(target)); err != nil {
		return DiffResult{}, newError(KindRefNotFound, "ref %q not found in %q", target, name)
	}
	patch, err := e.runGitAllowExit1(ctx, path, true, "diff", "--no-color", target)
	if err != nil {
		return DiffResult{}, err
	}
	return buildDiffResult(patch, mode)
}

// Staged summarizes the changes checked into the index but not committed.
func (e *Engine) Staged(ctx context.Context, name string) (DiffResult, error) {
	path, err := e.Resolve(name)
	if err != nil {
		return DiffResult{}, err
	}
	unlock := e.locks.rlock(path)
	defer unlock()

	if _, err := e.openRepo(path, name); err != nil {
		return DiffResult{}, err
	}
	patch, err := e.runGitAllowExit1(ctx, path, true, "diff", "--no-color", "--cached")
	if err != nil {
		return DiffResult{}, err
	}
	return buildDiffResult(patch, DiffSummary)
}

func buildDiffResult(patch string, mode DiffMode) (DiffResult, error) {
	result := DiffResult{Mode: mode}
	if strings.TrimSpace(patch) == "" {
		return result, nil
	}
	if mode == DiffPatch {
		result.Patch = patch
		if len(patch) > maxPatchBytes {
			cut := patch[:maxPatchBytes]
			// Cut back to a line boundary so the cap never splits a rune or
			// leaves half a diff line.
			if i := strings.LastIndexByte(cut, '\n'); i >= 0 {
				cut = cut[:i+1]
			}
			result.Patch = cut
			result.Truncated = true
		}
		return result, nil
	}
	files, err := summarizePatch(patch)
	if err != nil {
		return DiffResult{}, fmt.Errorf("parse diff: %w", err)
	}
	result.Files = files
	for _, f := range files {
		result.Additions += f.Additions
		result.Deletions += f.Deletions
	}
	return result, nil
}

// summarizePatch reduces unified diff text to per-file counts and a status
// tag.
func summarizePatch(patch string) ([]FileDiff, error) {
	parsed, _, err := gitdiff.Parse(strings.NewReader(patch))
	if err != nil {
		return nil, err
	}
	files := make([]FileDiff, 0, len(parsed))
	for _, f := range parsed {
		entry := FileDiff{Path: f.NewName, Status: "modified"}
		switch {
		case f.IsNew:
			entry.Status = "added"
		case f.IsDelete:
			entry.Status = "deleted"
			entry.Path = f.OldName
		case f.IsRename:
			entry.Status = "renamed"
		}
		if entry.Path == "" {
			entry.Path = f.OldName
		}
		for _, frag := range f.TextFragments {
			entry.Additions += int(frag.LinesAdded)
			entry.Deletions += int(frag.LinesDeleted)
		}
		files = append(files, entry)
	}
	return files, nil
}
