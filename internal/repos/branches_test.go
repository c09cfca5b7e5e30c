package repos

import (
	"context"
	"testing"
)

func TestBranches(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	path, _ := f.clone(t, "alpha")

	branches, err := f.engine.Branches(ctx, "alpha")
	if err != nil {
		t.Fatalf("Branches: %v", err)
	}
	if len(branches) != 1 {
		t.Fatalf("len(branches) = %d, want 1", len(branches))
	}
	main := branches[0]
	if main.Name != "main" || !main.Active {
		t.Errorf("branches[0] = %+v, want active main", main)
	}
	if main.Upstream != "origin/main" || main.Ahead != 0 || main.Behind != 0 {
		t.Errorf("main tracking = %+v, want origin/main in sync", main)
	}

	gitCmd(t, path, "commit", "--allow-empty", "-m", "local work")
	gitCmd(t, path, "branch", "feature")

	branches, err = f.engine.Branches(ctx, "alpha")
	if err != nil {
		t.Fatalf("Branches: %v", err)
	}
	if len(branches) != 2 {
		t.Fatalf("len(branches) = %d, want 2", len(branches))
	}
	// Active branch sorts first.
	if branches[0].Name != "main" || !branches[0].Active {
		t.Errorf("branches[0] = %+v, want active main first", branches[0])
	}
	if branches[0].Ahead != 1 || branches[0].Behind != 0 {
		t.Errorf("main = %+v, want ahead=1", branches[0])
	}
	if branches[1].Name != "feature" || branches[1].Active {
		t.Errorf("branches[1] = %+v, want inactive feature", branches[1])
	}
	if branches[1].Upstream != "" {
		t.Errorf("feature tracking = %q, want none", branches[1].Upstream)
	}
}
