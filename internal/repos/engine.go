package repos

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

const defaultGitTimeout = 60 * time.Second

// Options configures an Engine. Root is required; it is created when absent.
type Options struct {
	// Root is the directory all working copies live directly beneath.
	Root string
	// GitTimeout bounds network-touching git operations (clone, fetch, push).
	GitTimeout time.Duration
	// Logger defaults to slog.Default when nil.
	Logger *slog.Logger
}

// Engine mediates between callers and the on-disk working copies under a
// single confined root. All persistent state lives in the working copies and
// git's object store; the Engine itself only holds configuration and the
// per-path lock registry.
type Engine struct {
	root       string
	gitTimeout time.Duration
	log        *slog.Logger
	locks      *pathLocks
}

func New(opts Options) (*Engine, error) {
	if opts.Root == "" {
		return nil, fmt.Errorf("repository root not set")
	}
	abs, err := filepath.Abs(opts.Root)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create repository root: %w", err)
	}
	// Resolve symlinks once so Resolve can compare canonical parents.
	canonical, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return nil, fmt.Errorf("resolve repository root: %w", err)
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	timeout := opts.GitTimeout
	if timeout <= 0 {
		timeout = defaultGitTimeout
	}
	return &Engine{
		root:       canonical,
		gitTimeout: timeout,
		log:        logger,
		locks:      newPathLocks(),
	}, nil
}

// Root returns the canonical root directory all working copies live under.
func (e *Engine) Root() string { return e.root }
