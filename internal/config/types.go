package config

import (
	"time"

	"github.com/Companion-TheCube/todosync/internal/scan"
	"github.com/Companion-TheCube/todosync/internal/todo"
)

// ConfigSource represents where a configuration value came from.
type ConfigSource string

const (
	SourceDefault  ConfigSource = "default"
	SourceUserFile ConfigSource = "user file"
	SourceProjFile ConfigSource = "project file"
	SourceEnv      ConfigSource = "environment"
	SourceFlag     ConfigSource = "flag"
)

// ConfigWithSources holds configuration along with source information for each field.
type ConfigWithSources struct {
	Config  *Config
	Sources map[string]ConfigSource
	// Files lists the config files that were applied, lowest priority first.
	Files []string
}

// Default values.
const (
	DefaultSourceDir       = "src"
	DefaultTodoFile        = "TODO's.md"
	DefaultLogDir          = "~/.todosync"
	DefaultDecode          = "drop"
	DefaultWatchDebounceMS = 300
	DefaultBuildServer     = "http://developmenttracking.lan:9180/TheCube-Core"
)

// Config is the resolved configuration for one invocation.
type Config struct {
	// Paths. After loading, SourceDir and TodoFile are absolute.
	ProjectRoot string `toml:"project_root" json:"project_root"`
	SourceDir   string `toml:"source_dir" json:"source_dir"`
	TodoFile    string `toml:"todo_file" json:"todo_file"`
	LogDir      string `toml:"log_dir" json:"log_dir"`

	// Tracking document
	Title string `toml:"title" json:"title"`

	// Scanning
	Marker      string   `toml:"marker" json:"marker"`
	Placeholder string   `toml:"placeholder" json:"placeholder"`
	Extensions  []string `toml:"extensions" json:"extensions"`
	Ignore      []string `toml:"ignore" json:"ignore"`
	Decode      string   `toml:"decode" json:"decode"`
	Workers     int      `toml:"workers" json:"workers"`

	// Run journal
	Journal bool `toml:"journal" json:"journal"`

	// Watch mode
	WatchDebounceMS int `toml:"watch_debounce_ms" json:"watch_debounce_ms"`

	// Build server collaborators
	BuildServer string `toml:"build_server" json:"build_server"`
	UploadURL   string `toml:"upload_url" json:"upload_url"`
	Offline     bool   `toml:"offline" json:"offline"`

	// Logging
	LogLevel      string `toml:"log_level" json:"log_level"`
	LogFormat     string `toml:"log_format" json:"log_format"`
	LogTimestamps bool   `toml:"log_timestamps" json:"log_timestamps"`
	LogCaller     bool   `toml:"log_caller" json:"log_caller"`
}

// configFields returns the list of configurable field names for source tracking.
func configFields() []string {
	return []string{
		"project_root",
		"source_dir",
		"todo_file",
		"log_dir",
		"title",
		"marker",
		"placeholder",
		"extensions",
		"ignore",
		"decode",
		"workers",
		"journal",
		"watch_debounce_ms",
		"build_server",
		"upload_url",
		"offline",
		"log_level",
		"log_format",
		"log_timestamps",
		"log_caller",
	}
}

// setDefaults applies default values to the config.
func setDefaults(cfg *Config) {
	cfg.SourceDir = DefaultSourceDir
	cfg.TodoFile = DefaultTodoFile
	cfg.LogDir = DefaultLogDir
	cfg.Title = todo.DefaultTitle
	cfg.Marker = scan.DefaultMarker
	cfg.Placeholder = scan.DefaultPlaceholder
	cfg.Extensions = append([]string(nil), scan.DefaultExtensions...)
	cfg.Decode = DefaultDecode
	cfg.Workers = 1
	cfg.Journal = true
	cfg.WatchDebounceMS = DefaultWatchDebounceMS
	cfg.BuildServer = DefaultBuildServer

	cfg.LogLevel = "info"
	cfg.LogFormat = "text"
}

// ScanOptions returns the scanner options for this config. Finding paths
// are relative to the project root.
func (c *Config) ScanOptions() scan.Options {
	decode, _ := scan.ParseDecodePolicy(c.Decode)
	return scan.Options{
		BaseDir:     c.ProjectRoot,
		Extensions:  c.Extensions,
		Marker:      c.Marker,
		Placeholder: c.Placeholder,
		Ignore:      c.Ignore,
		Decode:      decode,
		Workers:     c.Workers,
	}
}

// WatchDebounce returns the watch debounce interval.
func (c *Config) WatchDebounce() time.Duration {
	return time.Duration(c.WatchDebounceMS) * time.Millisecond
}

// ArtifactURL returns the upload endpoint, derived from the build server
// when upload_url is unset.
func (c *Config) ArtifactURL() string {
	if c.UploadURL != "" {
		return c.UploadURL
	}
	return c.BuildServer + "/artifacts/upload"
}

// RelTodoFile returns the tracking document path relative to the project root
// when possible.
func (c *Config) RelTodoFile() string {
	return relPath(c.ProjectRoot, c.TodoFile)
}
