package config

import (
	"flag"
	"strings"

	"github.com/Companion-TheCube/todosync/internal/utils"
)

// listValue is a comma-separated flag bound to a string slice.
type listValue struct {
	target *[]string
}

func (v listValue) String() string {
	if v.target == nil {
		return ""
	}
	return strings.Join(*v.target, ",")
}

func (v listValue) Set(s string) error {
	*v.target = utils.SplitAndTrim(s, ",")
	return nil
}

// flagFields maps flag names to the config fields they set.
var flagFields = map[string]string{
	"project":        "project_root",
	"src":            "source_dir",
	"todo":           "todo_file",
	"log-dir":        "log_dir",
	"title":          "title",
	"marker":         "marker",
	"placeholder":    "placeholder",
	"ext":            "extensions",
	"ignore":         "ignore",
	"decode":         "decode",
	"workers":        "workers",
	"journal":        "journal",
	"debounce-ms":    "watch_debounce_ms",
	"build-server":   "build_server",
	"upload-url":     "upload_url",
	"offline":        "offline",
	"log-level":      "log_level",
	"log-format":     "log_format",
	"log-timestamps": "log_timestamps",
	"log-caller":     "log_caller",
}

// parseFlags defines CLI flags bound to cfg and parses args.
// If sources is non-nil, explicitly set flags are recorded.
func parseFlags(cfg *Config, fs *flag.FlagSet, args []string, sources map[string]ConfigSource) error {
	if fs == nil {
		fs = flag.NewFlagSet("todosync", flag.ContinueOnError)
	}

	// Paths
	fs.StringVar(&cfg.ProjectRoot, "project", cfg.ProjectRoot, "Project root (default: current directory)")
	fs.StringVar(&cfg.SourceDir, "src", cfg.SourceDir, "Source directory to scan, relative to the project root")
	fs.StringVar(&cfg.TodoFile, "todo", cfg.TodoFile, "Tracking document, relative to the project root")
	fs.StringVar(&cfg.LogDir, "log-dir", cfg.LogDir, "Run journal directory")

	// Scanning and document
	fs.StringVar(&cfg.Title, "title", cfg.Title, "Title line for a new tracking document")
	fs.StringVar(&cfg.Marker, "marker", cfg.Marker, "Marker keyword to scan for")
	fs.StringVar(&cfg.Placeholder, "placeholder", cfg.Placeholder, "Message used when a marker has no text")
	fs.Var(listValue{&cfg.Extensions}, "ext", "Comma-separated source extensions to scan")
	fs.Var(listValue{&cfg.Ignore}, "ignore", "Comma-separated glob patterns to skip")
	fs.StringVar(&cfg.Decode, "decode", cfg.Decode, "Undecodable byte policy: drop or replace")
	fs.IntVar(&cfg.Workers, "workers", cfg.Workers, "Files read concurrently while scanning")

	// Journal and watch
	fs.BoolVar(&cfg.Journal, "journal", cfg.Journal, "Record each run in the journal")
	fs.IntVar(&cfg.WatchDebounceMS, "debounce-ms", cfg.WatchDebounceMS, "Watch debounce in milliseconds")

	// Collaborators
	fs.StringVar(&cfg.BuildServer, "build-server", cfg.BuildServer, "Build tracking server base URL")
	fs.StringVar(&cfg.UploadURL, "upload-url", cfg.UploadURL, "Artifact upload URL (default: <build-server>/artifacts/upload)")
	fs.BoolVar(&cfg.Offline, "offline", cfg.Offline, "Skip artifact uploads")

	// Logging
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level: debug, info, warn, error")
	fs.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "Log format: text, json, logfmt")
	fs.BoolVar(&cfg.LogTimestamps, "log-timestamps", cfg.LogTimestamps, "Include timestamps in log output")
	fs.BoolVar(&cfg.LogCaller, "log-caller", cfg.LogCaller, "Include caller location in log output")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if sources != nil {
		fs.Visit(func(f *flag.Flag) {
			if field, ok := flagFields[f.Name]; ok {
				sources[field] = SourceFlag
			}
		})
	}
	return nil
}

// projectFlag returns the value of -project in args, if present. It is
// read ahead of parsing so the project config file can be found.
func projectFlag(args []string) string {
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--" {
			break
		}
		name := strings.TrimLeft(arg, "-")
		if name == arg {
			continue
		}
		if v, ok := strings.CutPrefix(name, "project="); ok {
			return v
		}
		if name == "project" && i+1 < len(args) {
			return args[i+1]
		}
	}
	return ""
}
