package repos

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/pmezard/go-difflib/difflib"
)

// WorktreeFileDiff renders a unified diff of one file's uncommitted edits
// against its HEAD version. Unlike Diff this never shells out; it reads the
// HEAD blob from the object store and the edited copy from disk.
func (e *Engine) WorktreeFileDiff(ctx context.Context, name, filePath string) (string, error) {
	path, err := e.Resolve(name)
	if err != nil {
		return "", err
	}
	rel := filepath.Clean(filepath.FromSlash(filePath))
	if filepath.IsAbs(rel) || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", newError(KindPathTraversal, "file path %q escapes the working copy", filePath)
	}
	unlock := e.locks.rlock(path)
	defer unlock()

	repo, err := e.openRepo(path, name)
	if err != nil {
		return "", err
	}

	var fromLines []string
	head, err := repo.Head()
	if err == nil {
		commit, err := repo.CommitObject(head.Hash())
		if err != nil {
			return "", wrapError(KindGitExecution, err, "resolve HEAD of %q", name)
		}
		file, err := commit.File(filePath)
		switch {
		case err == nil:
			content, err := file.Contents()
			if err != nil {
				return "", wrapError(KindGitExecution, err, "read %q at HEAD in %q", filePath, name)
			}
			fromLines = difflib.SplitLines(content)
		case errors.Is(err, object.ErrFileNotFound):
			// New file: diff against nothing.
		default:
			return "", wrapError(KindGitExecution, err, "read %q at HEAD in %q", filePath, name)
		}
	}

	var toLines []string
	data, err := os.ReadFile(filepath.Join(path, rel))
	switch {
	case err == nil:
		toLines = difflib.SplitLines(string(data))
	case os.IsNotExist(err):
		if fromLines == nil {
			return "", newError(KindNotFound, "file %q not found in %q", filePath, name)
		}
	default:
		return "", wrapError(KindGitExecution, err, "read %q from worktree of %q", filePath, name)
	}

	text, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        fromLines,
		B:        toLines,
		FromFile: fmt.Sprintf("a/%s", filePath),
		ToFile:   fmt.Sprintf("b/%s", filePath),
		Context:  3,
	})
	if err != nil {
		return "", wrapError(KindGitExecution, err, "diff %q in %q", filePath, name)
	}
	return text, nil
}
