package repos

import (
	"errors"
	"fmt"
	"regexp"
)

// Kind is a stable machine-readable error classification. The transport
// layer maps kinds to status codes; the engine never maps them itself.
type Kind string

const (
	KindInvalidName        Kind = "invalid_repo_name"
	KindPathTraversal      Kind = "path_traversal"
	KindNotFound           Kind = "repo_not_found"
	KindRemoteMismatch     Kind = "remote_mismatch"
	KindUncommittedChanges Kind = "uncommitted_changes"
	KindNonFastForward     Kind = "non_fast_forward"
	KindRefNotFound        Kind = "ref_not_found"
	KindBranchNotFound     Kind = "branch_not_found"
	KindNothingToCommit    Kind = "nothing_to_commit"
	KindNothingToStash     Kind = "nothing_to_stash"
	KindNoStash            Kind = "no_stash"
	KindCherryPickConflict Kind = "cherry_pick_conflict"
	KindTimeout            Kind = "timeout"
	KindInvalidArgument    Kind = "invalid_argument"
	KindGitExecution       Kind = "git_execution"
)

// Error carries a Kind alongside the human-readable message. Messages are
// scrubbed of credential material before they reach the caller.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil && e.Msg != "" {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

func newError(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: redactSecrets(fmt.Sprintf(format, args...))}
}

func wrapError(kind Kind, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: redactSecrets(fmt.Sprintf(format, args...)), Err: errors.New(redactSecrets(err.Error()))}
}

// KindOf returns the Kind carried by err, or KindGitExecution for anything
// not produced by this package.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindGitExecution
}

var (
	credentialURLRe = regexp.MustCompile(`(?i)(https?|ssh)://[^\s/@]+@`)
	tokenRe         = regexp.MustCompile(`(?i)(token|secret|password|passwd|bearer)=\S+`)
)

// redactSecrets removes obvious credential substrings from messages so
// nothing secret leaks through error payloads or logs.
func redactSecrets(s string) string {
	s = credentialURLRe.ReplaceAllString(s, "$1://<redacted>@")
	s = tokenRe.ReplaceAllString(s, "$1=<redacted>")
	return s
}
