package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/1broseidon/winloop/internal/ipc"
	"github.com/1broseidon/winloop/internal/runtimepath"
)

func printCtlUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  winloop ctl status [--socket PATH]")
	fmt.Fprintln(w, "  winloop ctl list [--socket PATH] [--json]")
	fmt.Fprintln(w, "  winloop ctl monitors [--socket PATH] [--json]")
	fmt.Fprintln(w, "  winloop ctl open [--socket PATH] [--title T] [--width W] [--height H] [--parent ID] [--cursor NAME] [--hidden]")
	fmt.Fprintln(w, "  winloop ctl close [--socket PATH] <id>")
	fmt.Fprintln(w, "  winloop ctl show|hide [--socket PATH] <id>")
	fmt.Fprintln(w, "  winloop ctl stop [--socket PATH]")
}

func runCtl(args []string) int {
	if len(args) == 0 {
		printCtlUsage(os.Stderr)
		return 2
	}
	if args[0] == "help" || args[0] == "-h" || args[0] == "--help" {
		printCtlUsage(os.Stdout)
		return 0
	}

	fs := flag.NewFlagSet(args[0], flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	socket := fs.String("socket", "", "Control socket path (default: $XDG_RUNTIME_DIR/winloop.sock)")

	switch args[0] {
	case "status":
		client, ok := ctlClient(fs, args[1:], socket)
		if !ok {
			return 2
		}
		status, err := client.Status()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		fmt.Printf("backend:        %s\n", status.Backend)
		fmt.Printf("mode:           %s\n", status.Mode)
		fmt.Printf("windows:        %d\n", status.Windows)
		fmt.Printf("monitors:       %d\n", status.Monitors)
		fmt.Printf("uptime_seconds: %d\n", status.UptimeSeconds)
		return 0

	case "list":
		asJSON := fs.Bool("json", false, "Output JSON")
		client, ok := ctlClient(fs, args[1:], socket)
		if !ok {
			return 2
		}
		windows, err := client.ListWindows()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		if *asJSON {
			return printJSON(windows)
		}
		tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tSTATE\tSIZE\tSCALE\tPARENT\tMONITOR\tCURSOR\tTITLE")
		for _, w := range windows {
			parent, monitor := "-", "-"
			if w.Parent != 0 {
				parent = strconv.FormatUint(w.Parent, 10)
			}
			if w.Monitor != nil {
				monitor = strconv.Itoa(*w.Monitor)
			}
			fmt.Fprintf(tw, "%d\t%s\t%gx%g\t%g\t%s\t%s\t%s\t%s\n",
				w.ID, w.State, w.Width, w.Height, w.Scale, parent, monitor, w.Cursor, w.Title)
		}
		tw.Flush()
		return 0

	case "monitors":
		asJSON := fs.Bool("json", false, "Output JSON")
		client, ok := ctlClient(fs, args[1:], socket)
		if !ok {
			return 2
		}
		monitors, err := client.Monitors()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		if *asJSON {
			return printJSON(monitors)
		}
		printMonitorTable(os.Stdout, monitors)
		return 0

	case "open":
		var p ipc.OpenWindowPayload
		fs.StringVar(&p.Title, "title", "", "Window title")
		fs.Float64Var(&p.Width, "width", 0, "Logical width")
		fs.Float64Var(&p.Height, "height", 0, "Logical height")
		fs.Uint64Var(&p.Parent, "parent", 0, "Parent window id")
		fs.StringVar(&p.Cursor, "cursor", "", "Cursor name")
		fs.BoolVar(&p.Hidden, "hidden", false, "Open without showing the window")
		client, ok := ctlClient(fs, args[1:], socket)
		if !ok {
			return 2
		}
		id, err := client.OpenWindow(p)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		fmt.Println(id)
		return 0

	case "close", "show", "hide":
		client, ok := ctlClient(fs, args[1:], socket)
		if !ok {
			return 2
		}
		if fs.NArg() != 1 {
			fmt.Fprintf(os.Stderr, "%s requires <id>\n", args[0])
			return 2
		}
		id, err := strconv.ParseUint(fs.Arg(0), 10, 64)
		if err != nil {
			fmt.Fprintf(os.Stderr, "invalid window id %q\n", fs.Arg(0))
			return 2
		}
		if args[0] == "close" {
			err = client.CloseWindow(id)
		} else {
			err = client.SetVisible(id, args[0] == "show")
		}
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		return 0

	case "stop":
		client, ok := ctlClient(fs, args[1:], socket)
		if !ok {
			return 2
		}
		if err := client.Stop(); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		fmt.Println("stopping")
		return 0

	default:
		fmt.Fprintf(os.Stderr, "Unknown ctl subcommand: %s\n", args[0])
		printCtlUsage(os.Stderr)
		return 2
	}
}

// ctlClient parses the subcommand flags and connects to the resolved socket.
func ctlClient(fs *flag.FlagSet, args []string, socket *string) (*ipc.Client, bool) {
	if err := fs.Parse(args); err != nil {
		return nil, false
	}
	path, err := runtimepath.SocketPath(*socket)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return nil, false
	}
	return ipc.NewClient(path), true
}

func printJSON(v any) int {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func printMonitorTable(w io.Writer, monitors []ipc.MonitorInfo) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tPOSITION\tSIZE\tREFRESH")
	for _, m := range monitors {
		refresh := "unknown"
		if m.RefreshRate > 0 {
			refresh = fmt.Sprintf("%.2f Hz", m.RefreshRate)
		}
		fmt.Fprintf(tw, "%d\t%s\t%d,%d\t%dx%d\t%s\n", m.ID, m.Name, m.X, m.Y, m.Width, m.Height, refresh)
	}
	tw.Flush()
}
