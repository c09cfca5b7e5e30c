package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/git-autobot/git-autobot/internal/api"
	"github.com/git-autobot/git-autobot/internal/buildinfo"
	"github.com/git-autobot/git-autobot/internal/config"
	"github.com/git-autobot/git-autobot/internal/repos"
	"github.com/git-autobot/git-autobot/internal/watch"
)

func Run() error {
	return run(os.Args[1:])
}

func run(args []string) error {
	fs := flag.NewFlagSet("git-autobot", flag.ContinueOnError)
	configPath := fs.String("config", "", "path to a YAML config file")
	root := fs.String("root", "", "directory holding the local working copies (overrides config)")
	addr := fs.String("addr", "", "HTTP listen address (overrides config)")
	noWatch := fs.Bool("nowatch", false, "disable filesystem change events")
	verbose := fs.Bool("verbose", false, "enable verbose logging")
	showVersion := fs.Bool("version", false, "print version information and exit")
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil
		}
		return err
	}
	if *showVersion {
		fmt.Println(buildinfo.String())
		return nil
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	settings, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	if *root != "" {
		settings.RepoRoot = *root
	}
	if *addr != "" {
		settings.ListenAddr = *addr
	}

	engine, err := repos.New(repos.Options{
		Root:       settings.RepoRoot,
		GitTimeout: settings.GitTimeout,
		Logger:     logger,
	})
	if err != nil {
		return err
	}

	var watcher *watch.Watcher
	if !*noWatch {
		watcher, err = watch.New(engine.Root(), 0, logger)
		if err != nil {
			logger.Error("change events disabled", slog.Any("error", err))
			watcher = nil
		} else {
			defer watcher.Close()
		}
	}

	server := &http.Server{
		Addr:    settings.ListenAddr,
		Handler: api.New(engine, watcher, logger).Handler(),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening",
			slog.String("addr", settings.ListenAddr),
			slog.String("root", engine.Root()))
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
