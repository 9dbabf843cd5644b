// Package cmd implements the CLI command structure for todosync.
package cmd

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/Companion-TheCube/todosync/internal/config"
	"github.com/Companion-TheCube/todosync/internal/logging"
)

// Version is set via ldflags at build time.
var Version = "dev"

// Output streams, swapped out by tests.
var (
	stdout io.Writer = os.Stdout
	stderr io.Writer = os.Stderr
)

// Run executes the todosync CLI.
func Run(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("todosync", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		printUsage(fs, stderr)
	}
	help := fs.Bool("help", false, "Show help")
	fs.BoolVar(help, "h", false, "Show help")
	showVersion := fs.Bool("version", false, "Show version")
	fs.BoolVar(showVersion, "v", false, "Show version")

	cws, err := config.LoadWithSources(fs, args)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if *help {
		printUsage(fs, stdout)
		return nil
	}
	if *showVersion {
		return versionCommand()
	}

	// No args or a leading flag means the default command
	subcommand := "sync"
	remainingArgs := fs.Args()
	if len(remainingArgs) > 0 && !strings.HasPrefix(remainingArgs[0], "-") {
		subcommand = remainingArgs[0]
		remainingArgs = remainingArgs[1:]
	}

	switch subcommand {
	case "version", "--version", "-v":
		return versionCommand()
	case "help", "--help", "-h":
		printUsage(fs, stdout)
		return nil
	case "doctor":
		return doctorCommand(cws, remainingArgs)
	case "sync", "check", "ls", "watch", "tui", "log", "init", "buildnumber", "upload":
	default:
		fmt.Fprintf(stderr, "Unknown command: %s\n", subcommand)
		printUsage(fs, stderr)
		return fmt.Errorf("unknown command: %s", subcommand)
	}

	cfg := cws.Config
	if err := config.Validate(cfg).Err(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	logger := newLogger(cfg)

	switch subcommand {
	case "sync":
		return syncCommand(cfg, logger, remainingArgs)
	case "check":
		return checkCommand(cfg, logger, remainingArgs)
	case "ls":
		return lsCommand(cfg, remainingArgs)
	case "watch":
		return watchCommand(ctx, cfg, logger, remainingArgs)
	case "tui":
		return tuiCommand(ctx, cfg, logger, remainingArgs)
	case "log":
		return logCommand(ctx, cfg, remainingArgs)
	case "init":
		return initCommand(cfg, remainingArgs)
	case "buildnumber":
		return buildNumberCommand(ctx, cfg, logger, remainingArgs)
	default:
		return uploadCommand(ctx, cfg, logger, remainingArgs)
	}
}

func newLogger(cfg *config.Config) *log.Logger {
	return logging.NewConsole(stderr, logging.Options{
		Level:      cfg.LogLevel,
		Format:     cfg.LogFormat,
		Timestamps: cfg.LogTimestamps,
		Caller:     cfg.LogCaller,
	})
}

// parseNoArgs parses a command's flags and rejects positional arguments.
func parseNoArgs(fs *flag.FlagSet, args []string) error {
	fs.SetOutput(stderr)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if rest := fs.Args(); len(rest) > 0 {
		return fmt.Errorf("unexpected arguments: %v", rest)
	}
	return nil
}

// versionCommand prints version information.
func versionCommand() error {
	fmt.Fprintf(stdout, "todosync version %s\n", Version)
	return nil
}

// printUsage prints the usage message.
func printUsage(fs *flag.FlagSet, w io.Writer) {
	fmt.Fprintln(w, "todosync - keep a project's TODO tracking document in sync with its sources")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  todosync [options] [command] [command options]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  sync                      Scan sources and rewrite the tracking document (default command)")
	fmt.Fprintln(w, "  check                     Report pending changes; fails when the document is out of date")
	fmt.Fprintln(w, "  ls [path-prefix]          List recorded TODOs")
	fmt.Fprintln(w, "  watch                     Sync, then resync whenever sources change")
	fmt.Fprintln(w, "  tui                       Preview pending changes interactively")
	fmt.Fprintln(w, "  log                       Show the latest run journal")
	fmt.Fprintln(w, "  init                      Write a starter config and schema into .todosync/")
	fmt.Fprintln(w, "  buildnumber <header> <env-dir>")
	fmt.Fprintln(w, "                            Reserve a build number, stamp the header and publish build info")
	fmt.Fprintln(w, "  upload <root> <header>    Upload the built artifact to the build server")
	fmt.Fprintln(w, "  doctor                    Check config, paths and tracking document")
	fmt.Fprintln(w, "  version                   Show version information")
	fmt.Fprintln(w, "  help                      Show this help message")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Global Options:")
	fs.SetOutput(w)
	fs.PrintDefaults()
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Sync Options:")
	fmt.Fprintln(w, "  -dry-run")
	fmt.Fprintln(w, "        Show what would change without writing")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Ls Options:")
	fmt.Fprintln(w, "  -json")
	fmt.Fprintln(w, "        Print findings as JSON")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Log Options:")
	fmt.Fprintln(w, "  -f, --follow")
	fmt.Fprintln(w, "        Follow the journal (like tail -f)")
	fmt.Fprintln(w, "  -n int")
	fmt.Fprintln(w, "        Number of lines to show (0 = all)")
	fmt.Fprintln(w, "  -list")
	fmt.Fprintln(w, "        List recorded runs instead of showing one")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Init Options:")
	fmt.Fprintln(w, "  -force")
	fmt.Fprintln(w, "        Overwrite existing files")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Doctor Options:")
	fmt.Fprintln(w, "  -v    Show every config value and its source")
}
