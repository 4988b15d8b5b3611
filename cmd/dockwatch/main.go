package main

import (
	"fmt"
	"io"
	"os"
)

func main() {
	if len(os.Args) < 2 {
		printMainUsage(os.Stderr)
		os.Exit(2)
	}

	switch os.Args[1] {
	case "daemon":
		if len(os.Args) > 2 && (os.Args[2] == "help" || os.Args[2] == "-h" || os.Args[2] == "--help") {
			fmt.Fprintln(os.Stdout, "Usage: dockwatch daemon")
			fmt.Fprintln(os.Stdout, "")
			fmt.Fprintln(os.Stdout, "Run the window tracker in the foreground.")
			os.Exit(0)
		}
		if len(os.Args) > 2 {
			fmt.Fprintln(os.Stderr, "daemon takes no arguments")
			os.Exit(2)
		}
		os.Exit(runDaemon())
	case "status":
		os.Exit(runStatus(os.Args[2:]))
	case "views":
		os.Exit(runViews(os.Args[2:]))
	case "view":
		os.Exit(runView(os.Args[2:]))
	case "enable":
		os.Exit(runSetEnabled("enable", true, os.Args[2:]))
	case "disable":
		os.Exit(runSetEnabled("disable", false, os.Args[2:]))
	case "windows":
		os.Exit(runWindows(os.Args[2:]))
	case "watch":
		os.Exit(runWatch(os.Args[2:]))
	case "reconcile":
		os.Exit(runReconcile(os.Args[2:]))
	case "reload":
		os.Exit(runReload(os.Args[2:]))
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
	fmt.Fprintln(w, "Usage: dockwatch <command> [options]")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  daemon               Run the window tracker")
	fmt.Fprintln(w, "  status               Show daemon status")
	fmt.Fprintln(w, "  views [--json]       List views and their window facts")
	fmt.Fprintln(w, "  view <name>          Show one view")
	fmt.Fprintln(w, "  enable <name>        Resume fact updates for a view")
	fmt.Fprintln(w, "  disable <name>       Freeze the facts of a view")
	fmt.Fprintln(w, "  windows [--json]     List tracked windows")
	fmt.Fprintln(w, "  watch                Redraw view facts periodically")
	fmt.Fprintln(w, "  reconcile            Drop windows the display server lost")
	fmt.Fprintln(w, "  reload               Reload the daemon configuration")
	fmt.Fprintln(w, "  config <command>     Validate or print configuration")
	fmt.Fprintln(w, "  mcp serve            Start the MCP server (stdio)")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Run 'dockwatch <command> --help' for command-specific options.")
}
