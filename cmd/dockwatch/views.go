package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/1broseidon/dockwatch/internal/ipc"
)

func runStatus(args []string) int {
	fs := flag.NewFlagSet("status", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: dockwatch status")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Show whether the daemon is running and what it tracks.")
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "status takes no arguments")
		fs.Usage()
		return 2
	}

	client := ipc.NewClient()
	status, err := client.GetStatus()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	fmt.Printf("daemon_running:   %v\n", status.DaemonRunning)
	fmt.Printf("uptime_seconds:   %d\n", status.UptimeSeconds)
	fmt.Printf("windows:          %d\n", status.WindowCount)
	fmt.Printf("views:            %d\n", status.ViewCount)
	fmt.Printf("active_window:    %s\n", formatWindowID(status.ActiveWindow))
	fmt.Printf("current_desktop:  %s\n", status.CurrentDesktop)
	if status.CurrentActivity != "" {
		fmt.Printf("current_activity: %s\n", status.CurrentActivity)
	}
	if status.ConfigFile != "" {
		fmt.Printf("config_file:      %s\n", status.ConfigFile)
	}
	return 0
}

func runViews(args []string) int {
	fs := flag.NewFlagSet("views", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	jsonOut := fs.Bool("json", false, "Output as JSON")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: dockwatch views [--json]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "List registered views and their window facts.")
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "views takes no arguments")
		fs.Usage()
		return 2
	}

	data, err := ipc.NewClient().ListViews()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if *jsonOut {
		return printJSON(data.Views)
	}
	if len(data.Views) == 0 {
		fmt.Println("no views registered")
		return 0
	}
	writeViewTable(os.Stdout, data.Views)
	return 0
}

func runView(args []string) int {
	fs := flag.NewFlagSet("view", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	jsonOut := fs.Bool("json", false, "Output as JSON")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: dockwatch view [--json] <name>")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Show the facts, schemes and last active window of one view.")
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return 2
	}

	view, err := ipc.NewClient().GetView(fs.Arg(0))
	if err != nil {
		writeViewError(os.Stderr, err)
		return 1
	}
	if *jsonOut {
		return printJSON(view)
	}
	writeViewDetail(os.Stdout, *view)
	return 0
}

func runSetEnabled(name string, enabled bool, args []string) int {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: dockwatch %s <view>\n", name)
		fmt.Fprintln(os.Stderr, "")
		if enabled {
			fmt.Fprintln(os.Stderr, "Resume fact updates for a view. Only facts that moved are reported.")
		} else {
			fmt.Fprintln(os.Stderr, "Freeze the facts of a view until it is enabled again.")
		}
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return 2
	}

	view, err := ipc.NewClient().SetEnabled(fs.Arg(0), enabled)
	if err != nil {
		writeViewError(os.Stderr, err)
		return 1
	}
	fmt.Printf("%s: %s\n", view.Name, enabledLabel(view.Enabled))
	return 0
}

func writeViewError(w io.Writer, err error) {
	fmt.Fprintln(w, err)
	if ipc.IsNotRegistered(err) {
		fmt.Fprintln(w, "Run 'dockwatch views' to list the configured views.")
	}
}

func runWindows(args []string) int {
	fs := flag.NewFlagSet("windows", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	jsonOut := fs.Bool("json", false, "Output as JSON")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: dockwatch windows [--json]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "List the windows the daemon tracks.")
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "windows takes no arguments")
		fs.Usage()
		return 2
	}

	data, err := ipc.NewClient().ListWindows()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if *jsonOut {
		return printJSON(data)
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSCREEN\tDESKTOPS\tGEOMETRY\tSTATE\tAPP\tTITLE")
	for _, w := range data.Windows {
		fmt.Fprintf(tw, "%s\t%d\t%s\t%dx%d+%d+%d\t%s\t%s\t%s\n",
			formatWindowID(uint32(w.ID)),
			w.Screen,
			listOrAll(w.Desktops),
			w.Geometry.Width, w.Geometry.Height, w.Geometry.X, w.Geometry.Y,
			windowState(w.Flags.Active, w.Flags.Maximized, w.Flags.Minimized, w.Flags.SkipTaskbar, w.Flags.Desktop),
			w.AppName,
			truncate(w.Title, 40),
		)
	}
	tw.Flush()
	return 0
}

func runReconcile(args []string) int {
	fs := flag.NewFlagSet("reconcile", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: dockwatch reconcile")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Drop tracked windows the display server no longer knows.")
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "reconcile takes no arguments")
		fs.Usage()
		return 2
	}

	removed, err := ipc.NewClient().Reconcile()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	fmt.Printf("removed %d faulty window(s)\n", removed)
	return 0
}

func runReload(args []string) int {
	if len(args) != 0 {
		fmt.Fprintln(os.Stderr, "Usage: dockwatch reload")
		return 2
	}
	if err := ipc.NewClient().Reload(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	fmt.Println("config reloaded")
	return 0
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

func writeViewTable(w io.Writer, views []ipc.ViewData) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tSTATE\tSCREEN\tFACTS\tSCHEME\tLAST ACTIVE")
	for _, v := range views {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\t%s\n",
			v.Name,
			enabledLabel(v.Enabled),
			v.Screen,
			factsSummary(v.Facts),
			schemeSummary(v.Facts.ActiveWindowScheme),
			lastActiveSummary(v),
		)
	}
	tw.Flush()
}

func writeViewDetail(w io.Writer, v ipc.ViewData) {
	fmt.Fprintf(w, "name:       %s\n", v.Name)
	fmt.Fprintf(w, "state:      %s\n", enabledLabel(v.Enabled))
	fmt.Fprintf(w, "screen:     %d\n", v.Screen)
	fmt.Fprintf(w, "edge:       %dx%d+%d+%d\n", v.Edge.Width, v.Edge.Height, v.Edge.X, v.Edge.Y)
	fmt.Fprintf(w, "activities: %s\n", listOrAll(v.Activities))
	fmt.Fprintln(w, "facts:")
	fmt.Fprintf(w, "  active_window_maximized: %v\n", v.Facts.ActiveWindowMaximized)
	fmt.Fprintf(w, "  active_window_touching:  %v\n", v.Facts.ActiveWindowTouching)
	fmt.Fprintf(w, "  exists_window_active:    %v\n", v.Facts.ExistsWindowActive)
	fmt.Fprintf(w, "  exists_window_maximized: %v\n", v.Facts.ExistsWindowMaximized)
	fmt.Fprintf(w, "  exists_window_touching:  %v\n", v.Facts.ExistsWindowTouching)
	fmt.Fprintf(w, "active_scheme:   %s\n", schemeSummary(v.Facts.ActiveWindowScheme))
	fmt.Fprintf(w, "touching_scheme: %s\n", schemeSummary(v.Facts.TouchingWindowScheme))
	fmt.Fprintf(w, "last_active:     %s\n", lastActiveSummary(v))
}

// factsSummary packs the boolean facts into a short flag string such as
// "AM-T-". Upper case letters are active-window facts.
func factsSummary(f ipc.FactsData) string {
	flags := []struct {
		on bool
		c  byte
	}{
		{f.ExistsWindowActive, 'A'},
		{f.ActiveWindowMaximized, 'M'},
		{f.ActiveWindowTouching, 'T'},
		{f.ExistsWindowMaximized, 'm'},
		{f.ExistsWindowTouching, 't'},
	}
	out := make([]byte, len(flags))
	for i, fl := range flags {
		out[i] = '-'
		if fl.on {
			out[i] = fl.c
		}
	}
	return string(out)
}

func schemeSummary(s *ipc.SchemeData) string {
	if s == nil {
		return "-"
	}
	return fmt.Sprintf("%s/%s", s.Background, s.Foreground)
}

func lastActiveSummary(v ipc.ViewData) string {
	l := v.LastActiveWindow
	if l == nil {
		return "-"
	}
	name := l.AppName
	if name == "" {
		name = truncate(l.Title, 24)
	}
	return fmt.Sprintf("%s %s", formatWindowID(uint32(l.ID)), name)
}

func enabledLabel(enabled bool) string {
	if enabled {
		return "enabled"
	}
	return "disabled"
}

func windowState(active, maximized, minimized, skipTaskbar, desktop bool) string {
	var parts []string
	if active {
		parts = append(parts, "active")
	}
	if maximized {
		parts = append(parts, "max")
	}
	if minimized {
		parts = append(parts, "min")
	}
	if skipTaskbar {
		parts = append(parts, "skip")
	}
	if desktop {
		parts = append(parts, "desktop")
	}
	if len(parts) == 0 {
		return "-"
	}
	return strings.Join(parts, ",")
}

func formatWindowID(id uint32) string {
	if id == 0 {
		return "none"
	}
	return fmt.Sprintf("0x%08x", id)
}

func listOrAll(items []string) string {
	if len(items) == 0 {
		return "all"
	}
	return strings.Join(items, ",")
}

func truncate(s string, max int) string {
	r := []rune(s)
	if max <= 0 || len(r) <= max {
		return s
	}
	if max == 1 {
		return "…"
	}
	return string(r[:max-1]) + "…"
}
