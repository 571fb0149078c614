package main

import (
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/1broseidon/winloop"
	"github.com/1broseidon/winloop/internal/config"
	"github.com/1broseidon/winloop/internal/ipc"
	"github.com/1broseidon/winloop/internal/runtimepath"
	"github.com/1broseidon/winloop/platform"
)

func runRun(args []string) int {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	configPath := fs.String("config", "", "Config file path (default: ~/.config/winloop/config.yaml)")
	backend := fs.String("backend", "", "Override the backend (auto, x11, glfw, headless)")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *backend != "" {
		cfg.Backend = *backend
		if err := cfg.Validate(); err != nil {
			log.Fatalf("Invalid --backend: %v", err)
		}
	}
	level, _ := config.ParseLogLevel(cfg.LogLevel)
	logger := newLogger(os.Stderr, level)

	b, err := openBackend(cfg, logger)
	if err != nil {
		log.Fatalf("Failed to open backend: %v", err)
	}
	l, err := winloop.New(winloop.Options{
		Backend:           b,
		Logger:            logger,
		CoalesceThreshold: cfg.Loop.CoalesceThreshold,
	})
	if err != nil {
		b.Close()
		log.Fatalf("Failed to create event loop: %v", err)
	}

	d := newDemo(l, logger)
	top, err := d.open(l, winloop.WindowOptions{
		Title:  cfg.Window.Title,
		Size:   platform.Size{Width: cfg.Window.Width, Height: cfg.Window.Height},
		Cursor: cfg.Cursor(),
	})
	if err != nil {
		l.Close()
		log.Fatalf("Failed to open window: %v", err)
	}
	if cfg.Window.Child {
		_, err := d.open(l, winloop.WindowOptions{
			Title:  cfg.Window.Title + " (child)",
			Size:   platform.Size{Width: cfg.Window.Width / 2, Height: cfg.Window.Height / 2},
			Parent: top,
			Cursor: platform.CursorHand,
		})
		if err != nil {
			logger.Warn("child window failed", "error", err)
		}
	}

	var srv *ipc.Server
	if cfg.Control.Enabled {
		srv, err = startControl(cfg, l, d, logger)
		if err != nil {
			// The window works without remote control.
			logger.Warn("control socket disabled", "error", err)
		}
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received signal, shutting down", "signal", sig.String())
		_ = l.Proxy().Post(func(l *winloop.EventLoop) { l.Stop() })
	}()

	logger.Info("event loop running", "backend", l.BackendName(), "window", top.ID())
	runErr := l.Run()
	signal.Stop(sigCh)

	// Close before stopping the server so in-flight control calls fail
	// with a closed-loop error instead of waiting out their timeout.
	if err := l.Close(); err != nil {
		logger.Warn("close failed", "error", err)
	}
	if srv != nil {
		srv.Stop()
	}
	if runErr != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", runErr)
		return 1
	}
	logger.Info("event loop stopped")
	return 0
}

func startControl(cfg *config.Config, l *winloop.EventLoop, d *demo, logger *slog.Logger) (*ipc.Server, error) {
	socketPath, err := runtimepath.SocketPath(cfg.Control.Socket)
	if err != nil {
		return nil, err
	}
	srv, err := ipc.NewServer(ipc.ServerOptions{
		SocketPath:    socketPath,
		Loop:          l,
		Open:          d.open,
		DefaultTitle:  cfg.Window.Title,
		DefaultWidth:  cfg.Window.Width,
		DefaultHeight: cfg.Window.Height,
		Logger:        logger,
	})
	if err != nil {
		return nil, err
	}
	if err := srv.Start(); err != nil {
		return nil, err
	}
	return srv, nil
}

// loadConfig loads path, or the default location when path is empty.
func loadConfig(path string) (*config.Config, error) {
	res, err := loadConfigWithSources(path)
	if err != nil {
		return nil, err
	}
	return res.Config, nil
}

func loadConfigWithSources(path string) (*config.LoadResult, error) {
	if path == "" {
		return config.LoadWithSources()
	}
	return config.LoadFromPath(path)
}
