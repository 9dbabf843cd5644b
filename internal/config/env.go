package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/Companion-TheCube/todosync/internal/utils"
)

// EnvOffline is the legacy switch honored by the artifact uploader.
const EnvOffline = "CUBECORE_OFFLINE"

// loadFromEnv overrides config from environment variables.
// If sources is non-nil, it tracks the source of each value.
func loadFromEnv(cfg *Config, sources map[string]ConfigSource) {
	set := func(field string) {
		if sources != nil {
			sources[field] = SourceEnv
		}
	}
	str := func(key, field string, target *string) {
		if v := os.Getenv(key); v != "" {
			*target = v
			set(field)
		}
	}
	list := func(key, field string, target *[]string) {
		if v := os.Getenv(key); v != "" {
			*target = utils.SplitAndTrim(v, ",")
			set(field)
		}
	}
	boolean := func(key, field string, target *bool) {
		if v := os.Getenv(key); v != "" {
			*target = utils.BoolFromString(v)
			set(field)
		}
	}
	integer := func(key, field string, target *int) {
		if v := os.Getenv(key); v != "" {
			if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
				*target = n
				set(field)
			}
		}
	}

	str("TODOSYNC_PROJECT_ROOT", "project_root", &cfg.ProjectRoot)
	str("TODOSYNC_SOURCE_DIR", "source_dir", &cfg.SourceDir)
	str("TODOSYNC_TODO_FILE", "todo_file", &cfg.TodoFile)
	str("TODOSYNC_LOG_DIR", "log_dir", &cfg.LogDir)
	str("TODOSYNC_TITLE", "title", &cfg.Title)
	str("TODOSYNC_MARKER", "marker", &cfg.Marker)
	str("TODOSYNC_PLACEHOLDER", "placeholder", &cfg.Placeholder)
	list("TODOSYNC_EXTENSIONS", "extensions", &cfg.Extensions)
	list("TODOSYNC_IGNORE", "ignore", &cfg.Ignore)
	str("TODOSYNC_DECODE", "decode", &cfg.Decode)
	boolean("TODOSYNC_JOURNAL", "journal", &cfg.Journal)
	integer("TODOSYNC_WORKERS", "workers", &cfg.Workers)
	integer("TODOSYNC_WATCH_DEBOUNCE_MS", "watch_debounce_ms", &cfg.WatchDebounceMS)
	str("TODOSYNC_BUILD_SERVER", "build_server", &cfg.BuildServer)
	str("TODOSYNC_UPLOAD_URL", "upload_url", &cfg.UploadURL)
	boolean("TODOSYNC_OFFLINE", "offline", &cfg.Offline)
	boolean(EnvOffline, "offline", &cfg.Offline)
	str("TODOSYNC_LOG_LEVEL", "log_level", &cfg.LogLevel)
	str("TODOSYNC_LOG_FORMAT", "log_format", &cfg.LogFormat)
	boolean("TODOSYNC_LOG_TIMESTAMPS", "log_timestamps", &cfg.LogTimestamps)
	boolean("TODOSYNC_LOG_CALLER", "log_caller", &cfg.LogCaller)
}
