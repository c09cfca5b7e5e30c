// Package config resolves runtime settings from an optional YAML file and
// the environment, in that order; flags override both at the call site.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	envRepoRoot   = "AUTOBOT_REPO_ROOT"
	envListenAddr = "AUTOBOT_LISTEN_ADDR"
	envGitTimeout = "AUTOBOT_GIT_TIMEOUT"
)

// Settings is the process-wide configuration.
type Settings struct {
	RepoRoot   string        `yaml:"repo_root"`
	ListenAddr string        `yaml:"listen_addr"`
	GitTimeout time.Duration `yaml:"git_timeout"`
}

func defaults() Settings {
	return Settings{
		RepoRoot:   "local_repos",
		ListenAddr: ":8787",
		GitTimeout: 60 * time.Second,
	}
}

// Load reads path (when non-empty) and then applies environment overrides.
// A missing explicit file is an error; the file is otherwise optional.
func Load(path string) (Settings, error) {
	s := defaults()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Settings{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &s); err != nil {
			return Settings{}, fmt.Errorf("parse config file: %w", err)
		}
	}
	if v := os.Getenv(envRepoRoot); v != "" {
		s.RepoRoot = v
	}
	if v := os.Getenv(envListenAddr); v != "" {
		s.ListenAddr = v
	}
	if v := os.Getenv(envGitTimeout); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Settings{}, fmt.Errorf("parse %s: %w", envGitTimeout, err)
		}
		s.GitTimeout = d
	}
	return s, nil
}
