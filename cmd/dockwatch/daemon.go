package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/1broseidon/dockwatch/internal/activities"
	"github.com/1broseidon/dockwatch/internal/config"
	"github.com/1broseidon/dockwatch/internal/daemon"
	"github.com/1broseidon/dockwatch/internal/ipc"
	"github.com/1broseidon/dockwatch/internal/platform"
	"github.com/1broseidon/dockwatch/internal/runtimepath"
	"github.com/1broseidon/dockwatch/internal/scheme"
	"github.com/1broseidon/dockwatch/internal/tracker"
)

func runDaemon() int {
	res, err := config.LoadWithSources()
	if err != nil {
		log.Printf("Failed to load configuration: %v", err)
		return 1
	}
	cfg := res.Config
	configPath := res.File
	if configPath == "" {
		configPath, _ = config.DefaultConfigPath()
	}
	applyDisplayEnv(cfg)

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))
	logger.Info("configuration loaded", "file", res.File, "views", len(cfg.Views))

	backend, err := platform.NewLinuxBackendFromDisplay(cfg.Display)
	if err != nil {
		log.Printf("Failed to connect to display: %v", err)
		return 1
	}
	defer backend.Disconnect()
	if err := backend.Start(); err != nil {
		log.Printf("Failed to start window tracking: %v", err)
		return 1
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	schemes := scheme.NewCache(backend)
	engine := tracker.New(backend, schemes, logger.With("component", "tracker"))
	engine.Subscribe(func(n tracker.Notification) {
		if n.Kind == tracker.WindowRemoved {
			schemes.Forget(n.Window)
		}
	})
	if err := engine.Init(); err != nil {
		log.Printf("Failed to read window list: %v", err)
		return 1
	}

	viewSync := daemon.NewViewSync(engine, backend, logger.With("component", "views"))
	engine.Subscribe(viewSync.Listen)

	source, err := activities.Open(ctx, activities.Mode(cfg.Activities), logger.With("component", "activities"))
	if err != nil {
		log.Printf("Failed to open activity source: %v", err)
		return 1
	}
	defer source.Close()
	if current, err := source.Current(ctx); err != nil {
		logger.Warn("failed to read current activity", "error", err)
	} else {
		viewSync.SetActivity(current)
	}
	viewSync.SetViews(cfg.Views)

	go func() {
		err := source.Watch(ctx, func(current string) {
			if err := engine.Post(func() { viewSync.SetActivity(current) }); err != nil {
				logger.Debug("activity change dropped", "error", err)
			}
		})
		if err != nil {
			logger.Warn("activity watch ended", "error", err)
		}
	}()

	reconciler := daemon.NewReconciler(daemon.ReconcilerConfig{
		Interval: cfg.ReconcileInterval,
		Logger:   logger.With("component", "reconciler"),
	}, engine)
	go reconciler.Run(ctx)

	// Display and activity source changes need a restart.
	apply := func(next *config.Config) error {
		if err := engine.Call(ctx, func() { viewSync.SetViews(next.Views) }); err != nil {
			return err
		}
		reconciler.SetInterval(next.ReconcileInterval)
		if next.Display != cfg.Display || next.Activities != cfg.Activities {
			logger.Warn("display and activities changes take effect after a restart")
		}
		logger.Info("configuration applied", "views", len(next.Views))
		return nil
	}
	reload := func() error {
		next, err := config.LoadFromPath(configPath)
		if err != nil {
			return err
		}
		return apply(next.Config)
	}

	ipcServer, err := ipc.NewServer(engine, ipc.Options{
		Reconciler: reconciler,
		Reload:     reload,
		Activity:   viewSync.Activity,
		ConfigFile: res.File,
	})
	if err != nil {
		log.Printf("Failed to create IPC server: %v", err)
		return 1
	}
	if err := ipcServer.Start(); err != nil {
		log.Printf("Failed to start IPC server: %v", err)
		return 1
	}
	defer ipcServer.Stop()

	if configPath != "" {
		watcher, err := config.NewWatcher(configPath, logger.With("component", "config"), func(next *config.Config) {
			if err := apply(next); err != nil {
				logger.Warn("config reload failed", "error", err)
			}
		})
		if err != nil {
			logger.Warn("config watcher unavailable", "error", err)
		} else if err := watcher.Start(); err != nil {
			logger.Warn("config watcher unavailable", "error", err)
		} else {
			defer watcher.Stop()
		}
	}

	if pidPath, err := writePIDFile(); err != nil {
		logger.Warn("failed to write pid file", "error", err)
	} else {
		defer os.Remove(pidPath)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigCh)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case sig := <-sigCh:
				if sig == syscall.SIGHUP {
					log.Println("Received SIGHUP, reloading config...")
					if err := reload(); err != nil {
						log.Printf("Config reload failed: %v", err)
					}
					continue
				}
				log.Println("Shutting down dockwatch daemon...")
				cancel()
				backend.Disconnect()
				return
			}
		}
	}()

	runErr := make(chan error, 1)
	go func() {
		runErr <- engine.Run(ctx, backend.Events())
	}()

	log.Println("dockwatch daemon started")
	backend.EventLoop()

	cancel()
	if err := <-runErr; err != nil && !errors.Is(err, context.Canceled) {
		log.Printf("Tracker stopped: %v", err)
		return 1
	}
	return 0
}

// applyDisplayEnv exports the configured display overrides before the X
// connection is opened.
func applyDisplayEnv(cfg *config.Config) {
	if cfg.Display != "" {
		os.Setenv("DISPLAY", cfg.Display)
	}
	if cfg.XAuthority != "" {
		os.Setenv("XAUTHORITY", cfg.XAuthority)
	}
}

func writePIDFile() (string, error) {
	path, err := runtimepath.PIDFilePath()
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())+"\n"), 0o600); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, nil
}
