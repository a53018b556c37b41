// Package main is the entry point for the keyducky payload daemon.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dshills/keyducky/internal/app"
	"github.com/dshills/keyducky/internal/logging"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

type cliOptions struct {
	app   app.Options
	run   string
	check bool
}

func main() {
	os.Exit(run())
}

func run() int {
	cli := parseFlags()

	if cli.run != "" || cli.check {
		cli.app.NoBoard = true
	}

	application, err := app.New(cli.app)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to initialize: %v\n", err)
		return 1
	}
	defer application.Shutdown()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	switch {
	case cli.check:
		return check(application)

	case cli.run != "":
		if err := application.RunOnce(ctx, cli.run); err != nil {
			if errors.Is(err, context.Canceled) {
				return 130
			}
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
		return 0
	}

	if err := application.Run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func check(application *app.Application) int {
	results, err := application.Check()
	for _, r := range results {
		switch {
		case r.Err != nil:
			fmt.Printf("%s: %v\n", r.Payload, r.Err)
		case len(r.Issues) == 0:
			fmt.Printf("%s: ok\n", r.Payload)
		default:
			for _, issue := range r.Issues {
				fmt.Printf("%s: %s\n", r.Payload, issue)
			}
		}
	}
	if err != nil {
		return 1
	}
	return 0
}

func parseFlags() cliOptions {
	var cli cliOptions
	var showVersion bool
	var showHelp bool

	flag.StringVar(&cli.app.ConfigPath, "config", "keyducky.toml", "Path to configuration file")
	flag.StringVar(&cli.app.ConfigPath, "c", "keyducky.toml", "Path to configuration file (shorthand)")
	flag.StringVar(&cli.app.LogLevel, "log-level", "", "Log level (debug, info, warn, error)")
	flag.BoolVar(&cli.app.Sim, "sim", false, "Use the terminal simulator board")
	flag.BoolVar(&cli.app.DryRun, "dry-run", false, "Log keystrokes instead of writing to the HID device")
	flag.StringVar(&cli.run, "run", "", "Run one payload immediately and exit")
	flag.BoolVar(&cli.check, "check", false, "Lint the configured payloads and exit")
	flag.BoolVar(&showVersion, "version", false, "Show version information")
	flag.BoolVar(&showVersion, "v", false, "Show version information (shorthand)")
	flag.BoolVar(&showHelp, "help", false, "Show help message")
	flag.BoolVar(&showHelp, "h", false, "Show help message (shorthand)")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "keyducky - DuckyScript payload daemon for USB HID gadgets\n\n")
		fmt.Fprintf(os.Stderr, "Usage: keyducky [options]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  keyducky                        Wait for the button on the GPIO board\n")
		fmt.Fprintf(os.Stderr, "  keyducky -sim -dry-run          Try payloads in the terminal simulator\n")
		fmt.Fprintf(os.Stderr, "  keyducky -run payload.dd        Type one payload now\n")
		fmt.Fprintf(os.Stderr, "  keyducky -check                 Lint the configured payloads\n")
	}

	flag.Parse()

	if showHelp {
		flag.Usage()
		os.Exit(0)
	}

	if showVersion {
		fmt.Printf("keyducky %s\n", version)
		fmt.Printf("Commit: %s\n", commit)
		fmt.Printf("Built: %s\n", date)
		os.Exit(0)
	}

	if cli.app.LogLevel != "" && !logging.ValidLevel(cli.app.LogLevel) {
		fmt.Fprintf(os.Stderr, "Error: invalid log level %q (must be debug, info, warn, or error)\n", cli.app.LogLevel)
		os.Exit(1)
	}

	if flag.NArg() > 0 {
		fmt.Fprintf(os.Stderr, "Error: unexpected arguments %v\n", flag.Args())
		os.Exit(1)
	}

	return cli
}
