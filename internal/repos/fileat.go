package repos

import (
	"context"
	"errors"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// FileContent is a file's content at a given ref.
type FileContent struct {
	Path    string `json:"path"`
	Ref     string `json:"ref"`
	Content string `json:"content"`
}

// FileAt reads filePath from the tree of ref (default HEAD) without touching
// the working tree.
func (e *Engine) FileAt(ctx context.Context, name, filePath, ref string) (FileContent, error) {
	if ref == "" {
		ref = "HEAD"
	}
	path, err := e.Resolve(name)
	if err != nil {
		return FileContent{}, err
	}
	unlock := e.locks.rlock(path)
	defer unlock()

	repo, err := e.openRepo(path, name)
	if err != nil {
		return FileContent{}, err
	}
	hash, err := repo.ResolveRevision(plumbing.Revision(ref))
	if err != nil {
		return FileContent{}, newError(KindRefNotFound, "ref %q not found in %q", ref, name)
	}
	commit, err := repo.CommitObject(*hash)
	if err != nil {
		return FileContent{}, newError(KindRefNotFound, "ref %q does not name a commit in %q", ref, name)
	}
	file, err := commit.File(filePath)
	if err != nil {
		if errors.Is(err, object.ErrFileNotFound) {
			return FileContent{}, newError(KindNotFound, "file %q not found at %q in %q", filePath, ref, name)
		}
		return FileContent{}, wrapError(KindGitExecution, err, "read %q at %q in %q", filePath, ref, name)
	}
	content, err := file.Contents()
	if err != nil {
		return FileContent{}, wrapError(KindGitExecution, err, "read %q at %q in %q", filePath, ref, name)
	}
	return FileContent{Path: filePath, Ref: ref, Content: content}, nil
}
