package repos

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestCommandName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		args []string
		want string
	}{
		{[]string{"status", "--porcelain=v2"}, "status"},
		{[]string{"diff", "--no-color", "HEAD"}, "diff"},
		{[]string{"-c", "user.name=Test", "commit", "-m", "msg"}, "commit"},
		{[]string{"-c", "a=b", "-c", "c=d", "stash", "push"}, "stash"},
		{[]string{"--no-pager", "log"}, "log"},
		{[]string{}, "<none>"},
	}
	for _, tt := range tests {
		if got := commandName(tt.args); got != tt.want {
			t.Errorf("commandName(%v) = %q, want %q", tt.args, got, tt.want)
		}
	}
}

func TestRunGit_DeadlineMapsToTimeout(t *testing.T) {
	requireGit(t)
	engine := newTestEngine(t)

	ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()
	<-ctx.Done()

	_, err := engine.runGit(ctx, engine.Root(), "status")
	if err == nil {
		t.Fatal("runGit succeeded past an expired deadline")
	}
	if KindOf(err) != KindTimeout {
		t.Fatalf("kind = %q, want %q (err: %v)", KindOf(err), KindTimeout, err)
	}
}

func TestClassifyTransportErr(t *testing.T) {
	t.Parallel()

	expired, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()
	<-expired.Done()

	err := classifyTransportErr(expired, expired.Err(), "fetch %q", "alpha")
	if KindOf(err) != KindTimeout {
		t.Errorf("expired context kind = %q, want %q", KindOf(err), KindTimeout)
	}

	err = classifyTransportErr(context.Background(), context.DeadlineExceeded, "fetch %q", "alpha")
	if KindOf(err) != KindTimeout {
		t.Errorf("wrapped deadline kind = %q, want %q", KindOf(err), KindTimeout)
	}

	err = classifyTransportErr(context.Background(), errors.New("connection refused"), "fetch %q", "alpha")
	if KindOf(err) != KindGitExecution {
		t.Errorf("plain transport failure kind = %q, want %q", KindOf(err), KindGitExecution)
	}
}
