package config

// ExampleConfig returns an example configuration showing all available options.
func ExampleConfig() string {
	return `# todosync configuration file
# Values can be overridden by TODOSYNC_* environment variables or CLI flags.

# Directory scanned for markers (relative to the project root)
source_dir = "src"

# Tracking document (relative to the project root)
todo_file = "TODO's.md"

# Title line written when the tracking document is created
title = "# Project TODOs"

# Marker keyword, matched case-insensitively as a whole word
marker = "TODO"

# Message recorded when a marker has no text after it
placeholder = "(no description)"

# Source file extensions to scan (case-insensitive)
extensions = [".c", ".cpp", ".cc", ".cxx", ".h", ".hpp", ".hh", ".py", ".js", ".ts", ".cs"]

# Glob patterns for files and directories to skip
# ignore = ["third_party", "**/*.pb.cc"]

# Undecodable bytes in source files: "drop" or "replace"
decode = "drop"

# Files read concurrently while scanning; 1 reads them one at a time
workers = 1

# Run journal directory (supports ~ expansion and %VAR% on Windows)
log_dir = "~/.todosync"
journal = true

# Watch mode debounce in milliseconds
watch_debounce_ms = 300

# Build tracking server
build_server = "http://developmenttracking.lan:9180/TheCube-Core"
# upload_url = "http://developmenttracking.lan:9180/TheCube-Core/artifacts/upload"

# Skip artifact uploads (also set by CUBECORE_OFFLINE=1)
offline = false

# Logging
log_level = "info"     # debug, info, warn, error
log_format = "text"    # text, json, logfmt
log_timestamps = false
log_caller = false
`
}
