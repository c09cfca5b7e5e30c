package repos

import (
	"context"
	"io"
	"strings"

	gitlib "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
)

const (
	defaultLogLimit = 50
	maxLogLimit     = 500
)

// Log returns up to limit commits newest-first from HEAD. authorFilter, when
// set, is a case-insensitive substring match against "Name <email>".
func (e *Engine) Log(ctx context.Context, name string, limit int, authorFilter string) ([]CommitRecord, error) {
	if limit <= 0 {
		limit = defaultLogLimit
	}
	if limit > maxLogLimit {
		limit = maxLogLimit
	}
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
	head, err := repo.Head()
	if err != nil {
		// Unborn branch: an empty log, not an error.
		return []CommitRecord{}, nil
	}
	iter, err := repo.Log(&gitlib.LogOptions{From: head.Hash(), Order: gitlib.LogOrderCommitterTime})
	if err != nil {
		return nil, wrapError(KindGitExecution, err, "read commits of %q", name)
	}
	defer iter.Close()

	filter := strings.ToLower(strings.TrimSpace(authorFilter))
	records := make([]CommitRecord, 0, limit)
	for len(records) < limit {
		commit, err := iter.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, wrapError(KindGitExecution, err, "iterate commits of %q", name)
		}
		if filter != "" && !authorMatches(commit, filter) {
			continue
		}
		records = append(records, newCommitRecord(commit))
	}
	return records, nil
}

func authorMatches(c *object.Commit, filter string) bool {
	ident := strings.ToLower(c.Author.Name + " <" + c.Author.Email + ">")
	return strings.Contains(ident, filter)
}

func newCommitRecord(c *object.Commit) CommitRecord {
	return CommitRecord{
		SHA:     c.Hash.String(),
		Author:  c.Author.Name,
		Email:   c.Author.Email,
		Message: strings.TrimRight(c.Message, "\n"),
		Date:    c.Committer.When.UTC(),
	}
}
