package repos

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// Repository names are a conservative allowlist: letters, digits, '-', '_'
// and '.', with no leading dot. Path separators never pass.
var repoNameRe = regexp.MustCompile(`^[A-Za-z0-9_-][A-Za-z0-9._-]*$`)

// Resolve validates name and returns the absolute path of its working copy
// directly beneath the root. Every other entry point goes through here; no
// component concatenates its own filesystem paths.
func (e *Engine) Resolve(name string) (string, error) {
	if strings.TrimSpace(name) == "" || !repoNameRe.MatchString(name) {
		return "", newError(KindInvalidName, "repository name %q contains illegal characters", name)
	}
	path := filepath.Join(e.root, name)

	// The allowlist already rules out separators and "..", but verify the
	// joined path anyway so a regexp slip can never widen the blast radius.
	rel, err := filepath.Rel(e.root, path)
	if err != nil || rel != name {
		return "", newError(KindPathTraversal, "repository name %q escapes the root directory", name)
	}

	// When the entry already exists, follow symlinks and require the
	// canonical form to still be a direct child of the canonical root.
	if resolved, err := filepath.EvalSymlinks(path); err == nil {
		if filepath.Dir(resolved) != e.root {
			return "", newError(KindPathTraversal, "repository %q resolves outside the root directory", name)
		}
		return resolved, nil
	} else if !os.IsNotExist(err) {
		return "", wrapError(KindGitExecution, err, "resolve repository path %q", name)
	}
	return path, nil
}
