package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"golang.org/x/term"

	"github.com/1broseidon/dockwatch/internal/ipc"
)

const (
	escClear      = "\x1b[2J"
	escHome       = "\x1b[H"
	escHideCursor = "\x1b[?25l"
	escShowCursor = "\x1b[?25h"
	escBold       = "\x1b[1m"
	escDim        = "\x1b[2m"
	escReset      = "\x1b[0m"
	escGreen      = "\x1b[32m"
)

func runWatch(args []string) int {
	fs := flag.NewFlagSet("watch", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	interval := fs.Duration("interval", time.Second, "Refresh interval")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: dockwatch watch [--interval 1s]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Redraw view facts until interrupted. Without a terminal each")
		fmt.Fprintln(os.Stderr, "refresh is appended to the output instead.")
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "watch takes no arguments")
		fs.Usage()
		return 2
	}
	if *interval < 100*time.Millisecond {
		fmt.Fprintln(os.Stderr, "interval must be at least 100ms")
		return 2
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fd := int(os.Stdout.Fd())
	tty := term.IsTerminal(fd)
	if tty {
		fmt.Print(escHideCursor)
		defer fmt.Print(escReset + escShowCursor)
	}

	client := ipc.NewClient()
	ticker := time.NewTicker(*interval)
	defer ticker.Stop()

	for {
		data, err := client.ListViews()
		var views []ipc.ViewData
		if data != nil {
			views = data.Views
		}

		width := 0
		if tty {
			if w, _, err := term.GetSize(fd); err == nil {
				width = w
			}
		}
		fmt.Print(renderWatch(views, err, time.Now(), width, tty))

		select {
		case <-ctx.Done():
			return 0
		case <-ticker.C:
		}
	}
}

// renderWatch draws one refresh. width 0 disables truncation; ansi clears the
// screen first and adds emphasis.
func renderWatch(views []ipc.ViewData, err error, now time.Time, width int, ansi bool) string {
	var sb strings.Builder
	style := func(codes, s string) string {
		if !ansi {
			return s
		}
		return codes + s + escReset
	}
	line := func(s string) {
		if width > 0 {
			s = truncate(s, width)
		}
		sb.WriteString(s)
		sb.WriteString("\n")
	}

	if ansi {
		sb.WriteString(escClear)
		sb.WriteString(escHome)
	}
	sb.WriteString(style(escBold, "dockwatch"))
	sb.WriteString(style(escDim, "  "+now.Format("15:04:05")))
	sb.WriteString("\n")

	if err != nil {
		line("error: " + err.Error())
		return sb.String()
	}
	if len(views) == 0 {
		line("no views registered")
		return sb.String()
	}

	for _, v := range views {
		name := v.Name
		if v.Enabled {
			name = style(escGreen, name)
		} else {
			name = style(escDim, name+" (disabled)")
		}
		sb.WriteString(name)
		sb.WriteString("\n")
		line(fmt.Sprintf("  facts   %s", factsSummary(v.Facts)))
		line(fmt.Sprintf("  scheme  %s  touching %s",
			schemeSummary(v.Facts.ActiveWindowScheme),
			schemeSummary(v.Facts.TouchingWindowScheme)))
		line(fmt.Sprintf("  last    %s", lastActiveSummary(v)))
	}
	if !ansi {
		sb.WriteString("\n")
	}
	return sb.String()
}
