package main

import (
	"fmt"
	"io"
	"os"
)

func main() {
	if len(os.Args) < 2 {
		printMainUsage(os.Stdout)
		os.Exit(0)
	}

	switch os.Args[1] {
	case "run":
		os.Exit(runRun(os.Args[2:]))
	case "monitors":
		os.Exit(runMonitors(os.Args[2:]))
	case "ctl":
		os.Exit(runCtl(os.Args[2:]))
	case "config":
		os.Exit(runConfig(os.Args[2:]))
	case "mcp":
		os.Exit(runMCP(os.Args[2:]))
	case "help", "-h", "--help":
		printMainUsage(os.Stdout)
		os.Exit(0)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printMainUsage(os.Stderr)
		os.Exit(2)
	}
}

func printMainUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: winloop <command> [options]")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  run                 Open the demo window and run the event loop (foreground)")
	fmt.Fprintln(w, "  monitors            List monitors reported by the backend")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  ctl status          Show status of a running loop")
	fmt.Fprintln(w, "  ctl list            List its windows")
	fmt.Fprintln(w, "  ctl open            Open a window in it")
	fmt.Fprintln(w, "  ctl close <id>      Close one of its windows")
	fmt.Fprintln(w, "  ctl show|hide <id>  Show or hide one of its windows")
	fmt.Fprintln(w, "  ctl stop            Stop it")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  mcp serve           Serve its control socket as MCP tools on stdio")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  config validate     Validate configuration")
	fmt.Fprintln(w, "  config print        Print configuration")
	fmt.Fprintln(w, "  config explain      Explain a config value")
	fmt.Fprintln(w, "  config init         Write the default configuration")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Run 'winloop <command> --help' for command-specific options.")
}
