package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/1broseidon/winloop/internal/config"
	"github.com/1broseidon/winloop/internal/mcp"
)

func printMCPUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: winloop mcp <command>")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  serve    Start the MCP server (stdio transport) for a running loop")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Run 'winloop mcp <command> --help' for command-specific options.")
}

func runMCP(args []string) int {
	if len(args) == 0 {
		printMCPUsage(os.Stderr)
		return 2
	}

	switch args[0] {
	case "serve":
		return runMCPServe(args[1:])
	case "help", "-h", "--help":
		printMCPUsage(os.Stdout)
		return 0
	default:
		fmt.Fprintf(os.Stderr, "Unknown mcp command: %s\n\n", args[0])
		printMCPUsage(os.Stderr)
		return 2
	}
}

func runMCPServe(args []string) int {
	fs := flag.NewFlagSet("mcp serve", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: winloop mcp serve [--socket PATH] [--log-level LEVEL]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Start the MCP server on stdio. Its tools drive the loop listening on")
		fmt.Fprintln(os.Stderr, "the control socket, so start 'winloop run' first.")
		fmt.Fprintln(os.Stderr, "")
		fs.PrintDefaults()
	}
	socket := fs.String("socket", "", "Control socket path (default: $XDG_RUNTIME_DIR/winloop.sock)")
	levelName := fs.String("log-level", "warn", "Log level for stderr (debug, info, warn, error)")

	client, ok := ctlClient(fs, args, socket)
	if !ok {
		return 2
	}
	level, err := config.ParseLogLevel(*levelName)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	// stdout carries the protocol, so logs stay on stderr.
	server := mcp.NewServer(client, newLogger(os.Stderr, level))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	if err := server.Run(ctx); err != nil {
		log.Fatalf("MCP server error: %v", err)
	}
	return 0
}
