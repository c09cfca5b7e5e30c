package repos

import (
	"context"
	"strings"
	"testing"
)

func TestWorktreeFileDiff(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	path, _ := f.clone(t, "alpha")

	text, err := f.engine.WorktreeFileDiff(ctx, "alpha", "README.md")
	if err != nil {
		t.Fatalf("WorktreeFileDiff: %v", err)
	}
	if text != "" {
		t.Errorf("unchanged file produced a diff:\n%s", text)
	}

	writeFile(t, path, "README.md", "goodbye\n")
	text, err = f.engine.WorktreeFileDiff(ctx, "alpha", "README.md")
	if err != nil {
		t.Fatalf("WorktreeFileDiff: %v", err)
	}
	if !strings.Contains(text, "-hello") || !strings.Contains(text, "+goodbye") {
		t.Errorf("diff missing edit:\n%s", text)
	}

	writeFile(t, path, "fresh.txt", "brand new\n")
	text, err = f.engine.WorktreeFileDiff(ctx, "alpha", "fresh.txt")
	if err != nil {
		t.Fatalf("WorktreeFileDiff on new file: %v", err)
	}
	if !strings.Contains(text, "+brand new") {
		t.Errorf("new-file diff missing addition:\n%s", text)
	}
}

func TestWorktreeFileDiff_Guards(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.clone(t, "alpha")

	for _, p := range []string{"../escape.txt", "/etc/passwd", "a/../../b"} {
		_, err := f.engine.WorktreeFileDiff(ctx, "alpha", p)
		if KindOf(err) != KindPathTraversal {
			t.Errorf("WorktreeFileDiff(%q) kind = %q, want %q", p, KindOf(err), KindPathTraversal)
		}
	}

	_, err := f.engine.WorktreeFileDiff(ctx, "alpha", "nowhere.txt")
	if KindOf(err) != KindNotFound {
		t.Errorf("missing file kind = %q, want %q", KindOf(err), KindNotFound)
	}
}
