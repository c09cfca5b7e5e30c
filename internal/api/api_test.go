package api

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/git-autobot/git-autobot/internal/repos"
)

func TestStatusForKind(t *testing.T) {
	t.Parallel()

	tests := []struct {
		kind repos.Kind
		want int
	}{
		{repos.KindInvalidName, http.StatusBadRequest},
		{repos.KindPathTraversal, http.StatusBadRequest},
		{repos.KindInvalidArgument, http.StatusBadRequest},
		{repos.KindNotFound, http.StatusNotFound},
		{repos.KindRemoteMismatch, http.StatusConflict},
		{repos.KindNonFastForward, http.StatusConflict},
		{repos.KindCherryPickConflict, http.StatusConflict},
		{repos.KindTimeout, http.StatusGatewayTimeout},
		{repos.KindGitExecution, http.StatusInternalServerError},
		{repos.KindNothingToCommit, http.StatusUnprocessableEntity},
		{repos.KindNothingToStash, http.StatusUnprocessableEntity},
		{repos.KindNoStash, http.StatusUnprocessableEntity},
		{repos.KindUncommittedChanges, http.StatusUnprocessableEntity},
		{repos.KindBranchNotFound, http.StatusUnprocessableEntity},
		{repos.KindRefNotFound, http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		if got := statusForKind(tt.kind); got != tt.want {
			t.Errorf("statusForKind(%q) = %d, want %d", tt.kind, got, tt.want)
		}
	}
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git binary not available")
	}
	engine, err := repos.New(repos.Options{
		Root:   t.TempDir(),
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	if err != nil {
		t.Fatalf("repos.New: %v", err)
	}
	srv := httptest.NewServer(New(engine, nil, slog.New(slog.NewTextHandler(io.Discard, nil))).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func get(t *testing.T, srv *httptest.Server, path string) (int, []byte) {
	t.Helper()
	resp, err := http.Get(srv.URL + path)
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp.StatusCode, body
}

func post(t *testing.T, srv *httptest.Server, path, body string) (int, []byte) {
	t.Helper()
	resp, err := http.Post(srv.URL+path, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST %s: %v", path, err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp.StatusCode, data
}

func errorCode(t *testing.T, body []byte) string {
	t.Helper()
	var payload struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		t.Fatalf("decode error payload %q: %v", body, err)
	}
	return payload.Error.Code
}

func TestListEmpty(t *testing.T) {
	srv := newTestServer(t)
	status, body := get(t, srv, "/local/repos")
	if status != http.StatusOK {
		t.Fatalf("status = %d, want 200", status)
	}
	if got := strings.TrimSpace(string(body)); got != "[]" {
		t.Errorf("body = %q, want an empty JSON array", got)
	}
}

func TestUnknownRepoIs404(t *testing.T) {
	srv := newTestServer(t)
	status, body := get(t, srv, "/local/repos/ghost")
	if status != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", status)
	}
	if code := errorCode(t, body); code != string(repos.KindNotFound) {
		t.Errorf("error code = %q, want %q", code, repos.KindNotFound)
	}
}

func TestInvalidNameIs400(t *testing.T) {
	srv := newTestServer(t)
	status, body := get(t, srv, "/local/repos/.hidden")
	if status != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", status)
	}
	if code := errorCode(t, body); code != string(repos.KindInvalidName) {
		t.Errorf("error code = %q, want %q", code, repos.KindInvalidName)
	}
}

func TestCloneRequiresRemoteURL(t *testing.T) {
	srv := newTestServer(t)
	status, body := post(t, srv, "/local/repos/fresh/clone", `{}`)
	if status != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", status)
	}
	if code := errorCode(t, body); code != string(repos.KindInvalidArgument) {
		t.Errorf("error code = %q, want %q", code, repos.KindInvalidArgument)
	}
}

func TestMalformedBodyIs400(t *testing.T) {
	srv := newTestServer(t)
	status, body := post(t, srv, "/local/repos/alpha/commit", `{"message": 42`)
	if status != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", status)
	}
	if code := errorCode(t, body); code != "invalid_request_body" {
		t.Errorf("error code = %q, want invalid_request_body", code)
	}

	status, body = post(t, srv, "/local/repos/alpha/commit", `{"unexpected": true}`)
	if status != http.StatusBadRequest {
		t.Fatalf("unknown field status = %d, want 400", status)
	}
	if code := errorCode(t, body); code != "invalid_request_body" {
		t.Errorf("error code = %q, want invalid_request_body", code)
	}
}

func TestEventsWithoutWatcher(t *testing.T) {
	srv := newTestServer(t)
	status, _ := get(t, srv, "/local/repos/events")
	if status != http.StatusNotImplemented {
		t.Fatalf("status = %d, want 501", status)
	}
}

func TestEndToEndCloneAndInspect(t *testing.T) {
	srv := newTestServer(t)

	base := t.TempDir()
	seed := filepath.Join(base, "seed")
	runGit(t, base, "init", "-b", "main", seed)
	if err := os.WriteFile(filepath.Join(seed, "README.md"), []byte("hello\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	runGit(t, seed, "add", ".")
	runGit(t, seed, "commit", "-m", "initial commit")
	bare := filepath.Join(base, "remote.git")
	runGit(t, base, "clone", "--bare", seed, bare)

	status, body := post(t, srv, "/local/repos/alpha/clone", `{"remote_url": `+jsonString(bare)+`}`)
	if status != http.StatusOK {
		t.Fatalf("clone status = %d: %s", status, body)
	}
	var result repos.CommandResult
	if err := json.Unmarshal(body, &result); err != nil {
		t.Fatalf("decode clone result: %v", err)
	}
	if !result.Created || result.DefaultBranch != "main" {
		t.Errorf("clone result = %+v, want created on main", result)
	}

	status, body = get(t, srv, "/local/repos/alpha")
	if status != http.StatusOK {
		t.Fatalf("inspect status = %d: %s", status, body)
	}
	var state repos.RepoState
	if err := json.Unmarshal(body, &state); err != nil {
		t.Fatalf("decode state: %v", err)
	}
	if state.Branch != "main" || state.Dirty {
		t.Errorf("state = %+v, want clean main", state)
	}

	status, body = get(t, srv, "/local/repos/alpha/file/README.md")
	if status != http.StatusOK {
		t.Fatalf("file status = %d: %s", status, body)
	}
	var file repos.FileContent
	if err := json.Unmarshal(body, &file); err != nil {
		t.Fatalf("decode file: %v", err)
	}
	if file.Content != "hello\n" {
		t.Errorf("file content = %q, want %q", file.Content, "hello\n")
	}
}

func jsonString(s string) string {
	data, _ := json.Marshal(s)
	return string(data)
}

func runGit(t *testing.T, dir string, args ...string) {
	t.Helper()
	cmd := exec.Command("git", append([]string{"-C", dir}, args...)...)
	cmd.Env = append(os.Environ(),
		"GIT_AUTHOR_NAME=Test User",
		"GIT_AUTHOR_EMAIL=test@example.com",
		"GIT_COMMITTER_NAME=Test User",
		"GIT_COMMITTER_EMAIL=test@example.com",
	)
	if out, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("git %v: %v\n%s", args, err, out)
	}
}
