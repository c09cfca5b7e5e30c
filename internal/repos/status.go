package repos

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
)

// WorktreeStatus classifies the uncommitted state of a working copy. It is
// recomputed fresh on every call; external tools can mutate the tree between
// requests, so nothing here is ever cached.
type WorktreeStatus struct {
	Staged    bool
	Unstaged  bool
	Untracked bool

	Entries []StatusEntry
}

// StatusEntry is one changed path with its two-letter porcelain code.
type StatusEntry struct {
	Path string
	Code string
}

// Dirty reports whether any staged, unstaged or untracked change exists.
func (s WorktreeStatus) Dirty() bool {
	return s.Staged || s.Unstaged || s.Untracked
}

// worktreeStatus reads `git status --porcelain=v2` for the working copy at
// path. Callers must hold the path lock.
func (e *Engine) worktreeStatus(ctx context.Context, path string) (WorktreeStatus, error) {
	out, err := e.runGit(ctx, path, "status", "--porcelain=v2")
	if err != nil {
		return WorktreeStatus{}, err
	}
	status, err := parseStatusPorcelainV2(strings.NewReader(out))
	if err != nil {
		return WorktreeStatus{}, fmt.Errorf("parse git status: %w", err)
	}
	return status, nil
}

func parseStatusPorcelainV2(r io.Reader) (WorktreeStatus, error) {
	var res WorktreeStatus
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		if len(line) < 2 {
			continue
		}
		switch line[0] {
		case '1', '2', 'u':
			if len(line) < 4 {
				continue
			}
			stagedState := line[2]
			worktreeState := line[3]
			if stagedState != '.' {
				res.Staged = true
			}
			if worktreeState != '.' && worktreeState != '?' {
				res.Unstaged = true
			}
			if path := porcelainEntryPath(line); path != "" {
				res.Entries = append(res.Entries, StatusEntry{
					Path: path,
					Code: string(stagedState) + string(worktreeState),
				})
			}
		case '?':
			res.Untracked = true
			if len(line) > 2 {
				res.Entries = append(res.Entries, StatusEntry{Path: line[2:], Code: "??"})
			}
		default:
			// '!' ignored entries and headers are irrelevant here.
		}
	}
	return res, scanner.Err()
}

// porcelainEntryPath extracts the path field from a v2 changed/renamed/
// unmerged entry. Renames carry "path<TAB>origPath"; the new path wins.
func porcelainEntryPath(line string) string {
	// Fixed field counts before the path per entry type; the path itself may
	// contain spaces, so split a bounded number of times.
	var fixed int
	switch line[0] {
	case '1':
		fixed = 8
	case '2':
		fixed = 9
	case 'u':
		fixed = 10
	default:
		return ""
	}
	parts := strings.SplitN(line, " ", fixed+1)
	if len(parts) != fixed+1 {
		return ""
	}
	path := parts[fixed]
	// Renamed entries carry "path<TAB>origPath"; report the new path.
	if i := strings.IndexByte(path, '\t'); i >= 0 {
		path = path[:i]
	}
	return path
}
