package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/1broseidon/winloop/internal/ipc"
)

// runMonitors connects the configured backend directly, without starting a
// loop, and prints its monitors.
func runMonitors(args []string) int {
	fs := flag.NewFlagSet("monitors", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	configPath := fs.String("config", "", "Config file path (default: ~/.config/winloop/config.yaml)")
	backend := fs.String("backend", "", "Override the backend (auto, x11, glfw, headless)")
	asJSON := fs.Bool("json", false, "Output JSON")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if *backend != "" {
		cfg.Backend = *backend
	}
	logger := newLogger(os.Stderr, slog.LevelWarn)

	b, err := openBackend(cfg, logger)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer b.Close()

	infos, err := b.Monitors()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	out := ipc.MonitorInfos(infos)
	if *asJSON {
		return printJSON(out)
	}
	fmt.Printf("backend: %s\n", b.Name())
	printMonitorTable(os.Stdout, out)
	return 0
}
